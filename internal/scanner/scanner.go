// Package scanner processes the incoming scan folder: it files page images
// under processed/<book-hash>/, runs OCR on text-bearing pages and records
// each scan in the store.
package scanner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mkrawiec/bibscan/internal/analysis"
	"github.com/mkrawiec/bibscan/internal/library"
	"github.com/mkrawiec/bibscan/internal/scanfile"
	"github.com/mkrawiec/bibscan/internal/store"
)

// Store is the subset of the record store the scanner needs.
type Store interface {
	ResolveAlias(ctx context.Context, alias string) (string, error)
	GetBook(ctx context.Context, hash string) (*library.Book, error)
	UpsertBookScan(ctx context.Context, hash string, meta library.BookMeta, scan library.Scan) error
}

// Recognizer extracts text from a page image.
type Recognizer interface {
	Available() bool
	Recognize(ctx context.Context, path, lang string) (string, error)
}

// Config controls a scanner instance.
type Config struct {
	ScanDir      string
	ProcessedDir string
	OCRLang      string
	Workers      int   // concurrent books; pages within a book stay ordered
	MaxFileBytes int64 // oversized files are left in place; 0 disables the check
}

// Scanner runs batch passes over the scan folder.
type Scanner struct {
	cfg     Config
	store   Store
	ocr     Recognizer
	log     *slog.Logger
	changes *slog.Logger

	runs runState
}

// New creates a scanner.
func New(cfg Config, st Store, ocr Recognizer, log, changes *slog.Logger) *Scanner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Scanner{cfg: cfg, store: st, ocr: ocr, log: log, changes: changes}
}

// pending lists well-named candidates plus the malformed files to reject.
type pending struct {
	groups   map[string][]pageFile // alias -> ordered page files
	rejected []string              // absolute paths of malformed files
}

type pageFile struct {
	path string
	info scanfile.PageInfo
}

// Run executes one batch pass. Only one pass runs at a time; a second caller
// gets ErrRunInProgress.
func (s *Scanner) Run(ctx context.Context) (Summary, error) {
	if !s.runs.begin() {
		return Summary{}, ErrRunInProgress
	}
	defer s.runs.end()

	s.log.Info("scan pass started", "dir", s.cfg.ScanDir)
	p, err := s.collect()
	if err != nil {
		s.runs.fail(err)
		return s.runs.last(), err
	}

	for _, path := range p.rejected {
		if err := os.Remove(path); err != nil {
			s.log.Error("remove malformed file", "path", path, "error", err)
			s.runs.addError(fmt.Sprintf("remove %s: %s", filepath.Base(path), err))
			continue
		}
		s.changes.Info("malformed scan rejected", "file", filepath.Base(path))
		s.runs.incRejected()
	}

	aliases := make([]string, 0, len(p.groups))
	for alias := range p.groups {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, alias := range aliases {
		alias := alias
		files := p.groups[alias]
		g.Go(func() error {
			s.processAlias(gctx, alias, files)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.runs.fail(err)
		return s.runs.last(), err
	}

	s.runs.finish()
	sum := s.runs.last()
	s.log.Info("scan pass finished",
		"processed", sum.Processed,
		"skipped", sum.Skipped,
		"rejected", sum.Rejected,
		"errors", len(sum.Errors),
	)
	return sum, nil
}

// LastSummary returns the most recent run summary and whether a run is
// currently active.
func (s *Scanner) LastSummary() (Summary, bool) {
	return s.runs.last(), s.runs.active()
}

// collect scans the input directory and groups parseable files by alias,
// sorted by page key so pages are filed in order.
func (s *Scanner) collect() (pending, error) {
	entries, err := os.ReadDir(s.cfg.ScanDir)
	if err != nil {
		return pending{}, fmt.Errorf("read scan dir: %w", err)
	}

	p := pending{groups: make(map[string][]pageFile)}
	for _, e := range entries {
		if e.IsDir() || !scanfile.IsSupportedExtension(e.Name()) {
			continue
		}
		path := filepath.Join(s.cfg.ScanDir, e.Name())
		if s.cfg.MaxFileBytes > 0 {
			fi, err := e.Info()
			if err == nil && fi.Size() > s.cfg.MaxFileBytes {
				s.log.Warn("file exceeds size limit, leaving in place", "file", e.Name(), "size", fi.Size())
				s.runs.addError(fmt.Sprintf("%s: exceeds size limit (%d bytes)", e.Name(), fi.Size()))
				continue
			}
		}
		info, err := scanfile.Parse(e.Name())
		if err != nil {
			s.log.Warn("malformed scan filename", "file", e.Name(), "error", err)
			p.rejected = append(p.rejected, path)
			continue
		}
		p.groups[info.Alias] = append(p.groups[info.Alias], pageFile{path: path, info: info})
	}
	for alias := range p.groups {
		files := p.groups[alias]
		sort.Slice(files, func(i, j int) bool { return files[i].info.PageKey < files[j].info.PageKey })
	}
	return p, nil
}

// processAlias files all pages of one book sequentially.
func (s *Scanner) processAlias(ctx context.Context, alias string, files []pageFile) {
	log := s.log.With("alias", alias)

	hash, err := s.store.ResolveAlias(ctx, alias)
	if err != nil {
		log.Error("resolve alias", "error", err)
		s.runs.addError(fmt.Sprintf("alias %s: %s", alias, err))
		return
	}
	if hash == "" {
		// Metadata not registered yet; leave the files for a later pass.
		log.Info("alias not registered, skipping", "files", len(files))
		s.runs.addSkipped(len(files))
		return
	}

	book, err := s.store.GetBook(ctx, hash)
	if err != nil {
		log.Error("load book", "book_hash", hash, "error", err)
		s.runs.addError(fmt.Sprintf("book %s: %s", hash, err))
		return
	}
	if book == nil {
		log.Error("alias points at missing book", "book_hash", hash)
		s.runs.addError(fmt.Sprintf("alias %s: book %s not found", alias, hash))
		return
	}

	for _, f := range files {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := s.processFile(ctx, log, hash, book.BookMeta, f); err != nil {
			log.Error("process scan", "file", filepath.Base(f.path), "error", err)
			s.runs.addError(fmt.Sprintf("%s: %s", filepath.Base(f.path), err))
			continue
		}
		s.runs.incProcessed()
	}

	// Refresh the sidecar once per book, after all its pages landed.
	fresh, err := s.store.GetBook(ctx, hash)
	if err != nil || fresh == nil {
		log.Error("reload book for sidecar", "book_hash", hash, "error", err)
		s.runs.addError(fmt.Sprintf("sidecar %s: reload failed", hash))
		return
	}
	bookDir := filepath.Join(s.cfg.ProcessedDir, hash)
	if err := store.WriteLocalMetadata(bookDir, fresh); err != nil {
		log.Error("write sidecar", "book_hash", hash, "error", err)
		s.runs.addError(fmt.Sprintf("sidecar %s: %s", hash, err))
	}
}

// processFile moves one page through the pipeline: copy, OCR, record, remove.
func (s *Scanner) processFile(ctx context.Context, log *slog.Logger, hash string, meta library.BookMeta, f pageFile) error {
	bookDir := filepath.Join(s.cfg.ProcessedDir, hash)
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return fmt.Errorf("create book dir: %w", err)
	}

	dest := filepath.Join(bookDir, f.info.StoredName(hash))
	if err := copyFile(f.path, dest); err != nil {
		return fmt.Errorf("copy to processed: %w", err)
	}
	s.changes.Info("scan filed", "file", filepath.Base(f.path), "dest", dest)

	var text string
	if f.info.HasText() {
		if s.ocr.Available() {
			var err error
			text, err = s.ocr.Recognize(ctx, dest, s.cfg.OCRLang)
			if err != nil {
				// A failed recognition files the page without text rather
				// than blocking the batch.
				log.Error("ocr failed", "file", filepath.Base(f.path), "error", err)
				s.runs.addError(fmt.Sprintf("ocr %s: %s", filepath.Base(f.path), err))
				text = ""
			}
		} else {
			log.Warn("ocr unavailable, filing without text", "file", filepath.Base(f.path))
		}
		if text != "" {
			txtPath := dest[:len(dest)-len(f.info.Ext)] + ".txt"
			if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
				log.Error("write ocr sidecar", "path", txtPath, "error", err)
				s.runs.addError(fmt.Sprintf("ocr sidecar %s: %s", filepath.Base(txtPath), err))
			}
		}
	} else {
		log.Debug("page type carries no text, skipping ocr", "page_type", f.info.TypeName)
	}

	scan := library.Scan{
		PageInfo: f.info,
		OCRText:  text,
		Path:     dest,
	}
	if text != "" {
		scan.ExtractedDates = analysis.ExtractDates(text)
	}

	if err := s.store.UpsertBookScan(ctx, hash, meta, scan); err != nil {
		// The original stays in scans/ so the next pass retries it.
		return fmt.Errorf("record scan: %w", err)
	}

	if err := os.Remove(f.path); err != nil {
		return fmt.Errorf("remove original: %w", err)
	}
	s.changes.Info("original removed", "file", filepath.Base(f.path))
	return nil
}

// copyFile copies src to dst, preserving the source modification time.
// An existing dst is overwritten; re-scanning a page is supported.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, fi.ModTime(), fi.ModTime())
}
