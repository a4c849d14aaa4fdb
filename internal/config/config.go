package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth; empty disables API authentication
	APIKey string

	// Folder layout
	ScanDir      string
	ProcessedDir string
	OutputsDir   string
	LogsDir      string

	// MongoDB connection
	MongoURI            string
	MongoDatabase       string
	BooksCollection     string
	AliasCollection     string
	TimelineCollection  string
	MongoConnectTimeout time.Duration

	// OCR
	OCRLang           string
	OCRSupportedLangs []string
	OCRBinarize       bool
	OCRThreshold      int
	OCRUseHOCR        bool

	// Book identity
	HashLength    int
	NormalizeMeta bool

	// Scanner
	WorkerCount  int
	PollInterval time.Duration
	MaxFileBytes int64
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8091"),

		APIKey: os.Getenv("BIBSCAN_API_KEY"),

		ScanDir:      envOr("SCAN_DIR", "scans"),
		ProcessedDir: envOr("PROCESSED_DIR", "processed"),
		OutputsDir:   envOr("OUTPUTS_DIR", "outputs"),
		LogsDir:      envOr("LOGS_DIR", "logs"),

		MongoURI:            envOr("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       envOr("MONGO_DATABASE", "bibscan"),
		BooksCollection:     envOr("MONGO_BOOKS_COLLECTION", "books"),
		AliasCollection:     envOr("MONGO_ALIAS_COLLECTION", "aliases"),
		TimelineCollection:  envOr("MONGO_TIMELINE_COLLECTION", "timelines"),
		MongoConnectTimeout: envDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),

		OCRLang:           envOr("OCR_LANG", "pol"),
		OCRSupportedLangs: envList("OCR_SUPPORTED_LANGS", []string{"pol", "eng"}),
		OCRBinarize:       envBool("OCR_BINARIZE", true),
		OCRThreshold:      envInt("OCR_THRESHOLD", 128),
		OCRUseHOCR:        envBool("OCR_USE_HOCR", false),

		HashLength:    envInt("BOOK_HASH_LENGTH", 12),
		NormalizeMeta: envBool("BOOK_HASH_NORMALIZE", true),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		PollInterval: envDuration("POLL_INTERVAL", 30*time.Second),
		MaxFileBytes: envInt64("MAX_FILE_BYTES", 52428800), // 50MB
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.OCRThreshold <= 0 || cfg.OCRThreshold > 255 {
		cfg.OCRThreshold = 128
	}
	if cfg.HashLength <= 0 {
		cfg.HashLength = 12
	}
	if cfg.MongoConnectTimeout <= 0 {
		cfg.MongoConnectTimeout = 10 * time.Second
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 52428800
	}

	return cfg
}

func (c Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.MongoDatabase == "" {
		return fmt.Errorf("MONGO_DATABASE is required")
	}
	if c.ScanDir == "" {
		return fmt.Errorf("SCAN_DIR is required")
	}
	if c.ProcessedDir == "" {
		return fmt.Errorf("PROCESSED_DIR is required")
	}
	if c.OCRLang == "" {
		return fmt.Errorf("OCR_LANG is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
