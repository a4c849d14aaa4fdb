// Package dateindex builds the cross-book date index from the metadata
// sidecars under the processed folder.
package dateindex

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkrawiec/bibscan/internal/library"
	"github.com/mkrawiec/bibscan/internal/store"
)

// IndexFilename is the output file written under the outputs folder.
const IndexFilename = "date_index.json"

const snippetLen = 100

// Entry is one dated mention across the whole library.
type Entry struct {
	DateParsed time.Time `json:"date_parsed"`
	DateText   string    `json:"date_text"`
	BookHash   string    `json:"book_hash"`
	BookTitle  string    `json:"book_title"`
	BookAuthor string    `json:"book_author"`
	ScanPath   string    `json:"scan_path"`
	OCRSnippet string    `json:"ocr_snippet"`
}

// Builder assembles the index from local sidecars.
type Builder struct {
	processedDir string
	outputsDir   string
	workers      int
	log          *slog.Logger
}

// NewBuilder creates an index builder reading sidecars under processedDir and
// writing the index under outputsDir.
func NewBuilder(processedDir, outputsDir string, workers int, log *slog.Logger) *Builder {
	if workers <= 0 {
		workers = 1
	}
	return &Builder{processedDir: processedDir, outputsDir: outputsDir, workers: workers, log: log}
}

// Build walks every book sidecar and collects dated mentions, sorted by date.
// Books whose sidecar is missing or unreadable are logged and skipped.
func (b *Builder) Build(ctx context.Context) ([]Entry, error) {
	dirs, err := os.ReadDir(b.processedDir)
	if err != nil {
		return nil, fmt.Errorf("read processed dir: %w", err)
	}

	var (
		mu      sync.Mutex
		entries []Entry
	)
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		bookDir := filepath.Join(b.processedDir, d.Name())
		g.Go(func() error {
			book, err := store.ReadLocalMetadata(bookDir)
			if err != nil {
				b.log.Warn("unreadable sidecar, skipping book", "dir", bookDir, "error", err)
				return nil
			}
			if book == nil {
				return nil
			}
			got := entriesFromBook(book)
			mu.Lock()
			entries = append(entries, got...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].DateParsed.Equal(entries[j].DateParsed) {
			return entries[i].DateParsed.Before(entries[j].DateParsed)
		}
		return entries[i].BookHash < entries[j].BookHash
	})
	return entries, nil
}

// BuildAndWrite builds the index and writes it to the outputs folder,
// returning the entries and the written path.
func (b *Builder) BuildAndWrite(ctx context.Context) ([]Entry, string, error) {
	entries, err := b.Build(ctx)
	if err != nil {
		return nil, "", err
	}
	path := filepath.Join(b.outputsDir, IndexFilename)
	if err := writeJSON(path, entries); err != nil {
		return nil, "", err
	}
	b.log.Info("date index written", "path", path, "entries", len(entries))
	return entries, path, nil
}

// Read loads a previously written index, or nil when none exists yet.
func (b *Builder) Read() ([]Entry, error) {
	data, err := os.ReadFile(filepath.Join(b.outputsDir, IndexFilename))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read date index: %w", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode date index: %w", err)
	}
	return entries, nil
}

// entriesFromBook flattens one book's stored dated mentions into index
// entries.
func entriesFromBook(book *library.Book) []Entry {
	var out []Entry
	for _, scan := range book.Scans {
		for _, d := range scan.ExtractedDates {
			out = append(out, Entry{
				DateParsed: d.Parsed,
				DateText:   d.Text,
				BookHash:   book.Hash,
				BookTitle:  book.Title,
				BookAuthor: book.Authors,
				ScanPath:   scan.Path,
				OCRSnippet: snippet(scan.OCRText),
			})
		}
	}
	return out
}

func snippet(text string) string {
	r := []rune(text)
	if len(r) <= snippetLen {
		return text
	}
	return string(r[:snippetLen])
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create outputs dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode date index: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*")
	if err != nil {
		return fmt.Errorf("temp index file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write date index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close date index: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace date index: %w", err)
	}
	return nil
}
