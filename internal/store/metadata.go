package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mkrawiec/bibscan/internal/library"
)

// MetadataFilename is the per-book sidecar written next to the scan images.
const MetadataFilename = "metadata.json"

// WriteLocalMetadata mirrors a book record into <bookDir>/metadata.json. The
// file is replaced atomically so a crashed run never leaves a torn sidecar.
func WriteLocalMetadata(bookDir string, book *library.Book) error {
	if err := os.MkdirAll(bookDir, 0o755); err != nil {
		return fmt.Errorf("create book dir: %w", err)
	}
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(bookDir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("create temp metadata: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close metadata: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(bookDir, MetadataFilename)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace metadata: %w", err)
	}
	return nil
}

// ReadLocalMetadata loads the sidecar from a book directory. Returns
// (nil, nil) when the directory has no metadata file yet.
func ReadLocalMetadata(bookDir string) (*library.Book, error) {
	data, err := os.ReadFile(filepath.Join(bookDir, MetadataFilename))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var book library.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("decode metadata in %s: %w", bookDir, err)
	}
	return &book, nil
}
