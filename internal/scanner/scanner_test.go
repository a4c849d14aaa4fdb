package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mkrawiec/bibscan/internal/library"
	"github.com/mkrawiec/bibscan/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	aliases map[string]string
	books   map[string]*library.Book
	scans   []library.Scan
	upErr   error
}

func (f *fakeStore) ResolveAlias(_ context.Context, alias string) (string, error) {
	return f.aliases[alias], nil
}

func (f *fakeStore) GetBook(_ context.Context, hash string) (*library.Book, error) {
	b, ok := f.books[hash]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (f *fakeStore) UpsertBookScan(_ context.Context, hash string, _ library.BookMeta, scan library.Scan) error {
	if f.upErr != nil {
		return f.upErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans = append(f.scans, scan)
	if b, ok := f.books[hash]; ok {
		b.Scans = append(b.Scans, scan)
	}
	return nil
}

type fakeOCR struct {
	available bool
	text      string
	err       error
	calls     []string
}

func (f *fakeOCR) Available() bool { return f.available }

func (f *fakeOCR) Recognize(_ context.Context, path, _ string) (string, error) {
	f.calls = append(f.calls, filepath.Base(path))
	return f.text, f.err
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScanner(t *testing.T, st *fakeStore, ocr *fakeOCR) (*Scanner, string, string) {
	t.Helper()
	scanDir := t.TempDir()
	procDir := t.TempDir()
	s := New(Config{
		ScanDir:      scanDir,
		ProcessedDir: procDir,
		OCRLang:      "pol",
		Workers:      2,
	}, st, ocr, discard(), discard())
	return s, scanDir, procDir
}

func writeScan(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("imagedata"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_FilesPagesAndRecordsScans(t *testing.T) {
	st := &fakeStore{
		aliases: map[string]string{"quovadis": "abc123def456"},
		books: map[string]*library.Book{
			"abc123def456": {Hash: "abc123def456", BookMeta: library.BookMeta{Title: "Quo Vadis"}},
		},
	}
	ocr := &fakeOCR{available: true, text: "Roku 1895 w Rzymie."}
	s, scanDir, procDir := newTestScanner(t, st, ocr)

	writeScan(t, scanDir, "quovadis_s1.jpg")
	writeScan(t, scanDir, "quovadis_c1.png")

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 2 {
		t.Errorf("processed = %d, want 2", sum.Processed)
	}
	if len(sum.Errors) != 0 {
		t.Errorf("errors = %v", sum.Errors)
	}

	// Originals are gone from the intake folder.
	entries, _ := os.ReadDir(scanDir)
	if len(entries) != 0 {
		t.Errorf("scan dir not empty: %d entries", len(entries))
	}

	bookDir := filepath.Join(procDir, "abc123def456")
	if _, err := os.Stat(filepath.Join(bookDir, "abc123def456_s0001.jpg")); err != nil {
		t.Errorf("filed body page missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(bookDir, "abc123def456_c0001.png")); err != nil {
		t.Errorf("filed cover page missing: %v", err)
	}

	// Only the body page goes through OCR; the cover does not.
	if len(ocr.calls) != 1 || ocr.calls[0] != "abc123def456_s0001.jpg" {
		t.Errorf("ocr calls = %v, want only the body page", ocr.calls)
	}
	txt, err := os.ReadFile(filepath.Join(bookDir, "abc123def456_s0001.txt"))
	if err != nil {
		t.Fatalf("ocr sidecar: %v", err)
	}
	if string(txt) != ocr.text {
		t.Errorf("sidecar text = %q", txt)
	}

	if len(st.scans) != 2 {
		t.Fatalf("recorded scans = %d, want 2", len(st.scans))
	}
	var body library.Scan
	for _, sc := range st.scans {
		if sc.PageKey == "s0001" {
			body = sc
		}
	}
	if body.OCRText != ocr.text {
		t.Errorf("stored ocr text = %q", body.OCRText)
	}
	if len(body.ExtractedDates) == 0 {
		t.Error("no dates extracted from stored text")
	}

	meta, err := store.ReadLocalMetadata(bookDir)
	if err != nil {
		t.Fatalf("sidecar metadata: %v", err)
	}
	if meta == nil || meta.Title != "Quo Vadis" {
		t.Errorf("sidecar metadata = %+v", meta)
	}
}

func TestRun_MalformedFilenameIsRejected(t *testing.T) {
	st := &fakeStore{aliases: map[string]string{}, books: map[string]*library.Book{}}
	s, scanDir, _ := newTestScanner(t, st, &fakeOCR{})

	bad := writeScan(t, scanDir, "notes.jpg")

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Rejected != 1 {
		t.Errorf("rejected = %d, want 1", sum.Rejected)
	}
	if _, err := os.Stat(bad); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("malformed file still present: %v", err)
	}
}

func TestRun_UnregisteredAliasIsSkippedInPlace(t *testing.T) {
	st := &fakeStore{aliases: map[string]string{}, books: map[string]*library.Book{}}
	s, scanDir, _ := newTestScanner(t, st, &fakeOCR{})

	kept := writeScan(t, scanDir, "mystery_s1.jpg")

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", sum.Skipped)
	}
	if sum.Processed != 0 {
		t.Errorf("processed = %d, want 0", sum.Processed)
	}
	if _, err := os.Stat(kept); err != nil {
		t.Errorf("skipped file removed: %v", err)
	}
}

func TestRun_StoreFailureKeepsOriginal(t *testing.T) {
	st := &fakeStore{
		aliases: map[string]string{"quovadis": "abc123def456"},
		books: map[string]*library.Book{
			"abc123def456": {Hash: "abc123def456"},
		},
		upErr: errors.New("mongo down"),
	}
	s, scanDir, _ := newTestScanner(t, st, &fakeOCR{})

	orig := writeScan(t, scanDir, "quovadis_c1.jpg")

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 0 {
		t.Errorf("processed = %d, want 0", sum.Processed)
	}
	if len(sum.Errors) == 0 {
		t.Error("expected a run error")
	}
	if _, err := os.Stat(orig); err != nil {
		t.Errorf("original removed despite store failure: %v", err)
	}
}

func TestRun_OCRUnavailableFilesWithoutText(t *testing.T) {
	st := &fakeStore{
		aliases: map[string]string{"quovadis": "abc123def456"},
		books: map[string]*library.Book{
			"abc123def456": {Hash: "abc123def456"},
		},
	}
	s, scanDir, procDir := newTestScanner(t, st, &fakeOCR{available: false})

	writeScan(t, scanDir, "quovadis_s2.jpg")

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 1 {
		t.Errorf("processed = %d, want 1", sum.Processed)
	}
	if len(st.scans) != 1 || st.scans[0].OCRText != "" {
		t.Errorf("scans = %+v, want one with empty text", st.scans)
	}
	if _, err := os.Stat(filepath.Join(procDir, "abc123def456", "abc123def456_s0002.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Error("unexpected ocr sidecar")
	}
}

func TestRun_OversizedFileLeftInPlace(t *testing.T) {
	st := &fakeStore{
		aliases: map[string]string{"quovadis": "abc123def456"},
		books: map[string]*library.Book{
			"abc123def456": {Hash: "abc123def456"},
		},
	}
	s, scanDir, _ := newTestScanner(t, st, &fakeOCR{})
	s.cfg.MaxFileBytes = 4

	big := writeScan(t, scanDir, "quovadis_c1.jpg") // 9 bytes of content

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Processed != 0 {
		t.Errorf("processed = %d, want 0", sum.Processed)
	}
	if len(sum.Errors) != 1 {
		t.Errorf("errors = %v, want one size-limit entry", sum.Errors)
	}
	if _, err := os.Stat(big); err != nil {
		t.Errorf("oversized file removed: %v", err)
	}
}

func TestRun_SingleFlight(t *testing.T) {
	s, _, _ := newTestScanner(t, &fakeStore{aliases: map[string]string{}}, &fakeOCR{})
	if !s.runs.begin() {
		t.Fatal("begin failed on idle state")
	}
	if _, err := s.Run(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
	s.runs.end()
}
