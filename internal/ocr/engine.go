// Package ocr wraps Tesseract text recognition for scanned page images.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Config controls recognition behavior.
type Config struct {
	DefaultLang       string   // Tesseract language code, e.g. "pol".
	SupportedLangs    []string // Languages requests may ask for.
	Binarize          bool     // Convert to black-and-white before OCR.
	BinarizeThreshold uint8    // Gray cutoff for binarization.
	UseHOCR           bool     // Recognize via hOCR and flatten to plain text.
}

// DefaultConfig returns the settings used for the Polish history corpus.
func DefaultConfig() Config {
	return Config{
		DefaultLang:       "pol",
		SupportedLangs:    []string{"pol", "eng"},
		Binarize:          true,
		BinarizeThreshold: 128,
	}
}

// Engine performs OCR using Tesseract. A fresh gosseract client is created
// per call; clients are not safe for concurrent use.
type Engine struct {
	cfg       Config
	log       *slog.Logger
	available bool
	langs     []string
}

// NewEngine probes the local Tesseract installation and returns an engine.
// A missing installation is not an error: the engine reports unavailable and
// Recognize degrades to empty text.
func NewEngine(cfg Config, log *slog.Logger) *Engine {
	e := &Engine{cfg: cfg, log: log}
	e.probe()
	return e
}

func (e *Engine) probe() {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		e.log.Warn("tesseract unavailable, OCR disabled", "error", err)
		return
	}
	e.langs = langs
	e.available = true
	if !slices.Contains(langs, e.cfg.DefaultLang) {
		e.log.Warn("default OCR language not installed", "lang", e.cfg.DefaultLang, "installed", langs)
	}
	e.log.Info("tesseract ready", "languages", langs)
}

// Available reports whether Tesseract can be used.
func (e *Engine) Available() bool {
	return e.available
}

// InstalledLanguages returns the Tesseract language packs found at probe time.
func (e *Engine) InstalledLanguages() []string {
	return slices.Clone(e.langs)
}

// resolveLang falls back to the default for unknown or unsupported languages.
func (e *Engine) resolveLang(lang string) string {
	if lang == "" {
		return e.cfg.DefaultLang
	}
	if !slices.Contains(e.cfg.SupportedLangs, lang) {
		e.log.Warn("unsupported OCR language, using default", "requested", lang, "default", e.cfg.DefaultLang)
		return e.cfg.DefaultLang
	}
	return lang
}

// Recognize runs OCR on the image at path and returns the extracted text.
// Returns "" without error when the engine is unavailable.
func (e *Engine) Recognize(ctx context.Context, path, lang string) (string, error) {
	if !e.available {
		return "", nil
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if e.cfg.Binarize {
		bw, err := Binarize(data, e.cfg.BinarizeThreshold)
		if err != nil {
			// Fall back to the raw image; Tesseract handles color input.
			e.log.Warn("binarize failed, using raw image", "path", path, "error", err)
		} else {
			data = bw
		}
	}

	c := gosseract.NewClient()
	defer c.Close()

	if err := c.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if err := c.SetLanguage(e.resolveLang(lang)); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return "", fmt.Errorf("set page segmentation: %w", err)
	}

	if e.cfg.UseHOCR {
		hocr, err := c.HOCRText()
		if err != nil {
			return "", fmt.Errorf("recognize hocr: %w", err)
		}
		return PlainTextFromHOCR(hocr)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}
