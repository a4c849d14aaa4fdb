package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.OCRLang != "pol" {
		t.Errorf("OCRLang = %q", cfg.OCRLang)
	}
	if len(cfg.OCRSupportedLangs) != 2 {
		t.Errorf("OCRSupportedLangs = %v", cfg.OCRSupportedLangs)
	}
	if cfg.OCRThreshold != 128 {
		t.Errorf("OCRThreshold = %d", cfg.OCRThreshold)
	}
	if cfg.HashLength != 12 {
		t.Errorf("HashLength = %d", cfg.HashLength)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate on defaults: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("OCR_SUPPORTED_LANGS", "pol, eng, deu")
	t.Setenv("OCR_THRESHOLD", "200")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("BOOK_HASH_NORMALIZE", "false")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if len(cfg.OCRSupportedLangs) != 3 || cfg.OCRSupportedLangs[2] != "deu" {
		t.Errorf("OCRSupportedLangs = %v", cfg.OCRSupportedLangs)
	}
	if cfg.OCRThreshold != 200 {
		t.Errorf("OCRThreshold = %d", cfg.OCRThreshold)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("WorkerCount = %d", cfg.WorkerCount)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.NormalizeMeta {
		t.Error("NormalizeMeta = true, want false")
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("OCR_THRESHOLD", "999")
	t.Setenv("WORKER_COUNT", "-2")
	t.Setenv("POLL_INTERVAL", "soon")

	cfg := Load()
	if cfg.OCRThreshold != 128 {
		t.Errorf("OCRThreshold = %d", cfg.OCRThreshold)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount = %d", cfg.WorkerCount)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v", cfg.PollInterval)
	}
}

func TestValidate_MissingMongo(t *testing.T) {
	cfg := Load()
	cfg.MongoURI = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty MONGO_URI")
	}
}
