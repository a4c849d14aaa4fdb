package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mkrawiec/bibscan/internal/api"
	"github.com/mkrawiec/bibscan/internal/config"
	"github.com/mkrawiec/bibscan/internal/dateindex"
	"github.com/mkrawiec/bibscan/internal/ocr"
	"github.com/mkrawiec/bibscan/internal/scanner"
	"github.com/mkrawiec/bibscan/internal/store"
)

func main() {
	once := flag.Bool("once", false, "run a single scan pass and exit")
	flag.Parse()

	// Optional .env file for local runs.
	godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	for _, dir := range []string{cfg.ScanDir, cfg.ProcessedDir, cfg.OutputsDir, cfg.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	// The change log records every mutation of the library on disk, next to
	// the folders it describes.
	changesFile, err := os.OpenFile(filepath.Join(cfg.LogsDir, "changes.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Error("open change log", "error", err)
		os.Exit(1)
	}
	defer changesFile.Close()
	changes := slog.New(slog.NewJSONHandler(changesFile, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := store.Connect(ctx, store.Config{
		URI:                cfg.MongoURI,
		Database:           cfg.MongoDatabase,
		BooksCollection:    cfg.BooksCollection,
		AliasCollection:    cfg.AliasCollection,
		TimelineCollection: cfg.TimelineCollection,
		ConnectTimeout:     cfg.MongoConnectTimeout,
	}, log, changes)
	if err != nil {
		log.Error("mongodb connect", "error", err)
		os.Exit(1)
	}
	defer st.Close(context.Background())

	engine := ocr.NewEngine(ocr.Config{
		DefaultLang:       cfg.OCRLang,
		SupportedLangs:    cfg.OCRSupportedLangs,
		Binarize:          cfg.OCRBinarize,
		BinarizeThreshold: uint8(cfg.OCRThreshold),
		UseHOCR:           cfg.OCRUseHOCR,
	}, log)
	if !engine.Available() {
		log.Warn("tesseract unavailable, pages will be filed without text")
	} else {
		log.Info("ocr ready", "languages", engine.InstalledLanguages())
	}

	scans := scanner.New(scanner.Config{
		ScanDir:      cfg.ScanDir,
		ProcessedDir: cfg.ProcessedDir,
		OCRLang:      cfg.OCRLang,
		Workers:      cfg.WorkerCount,
		MaxFileBytes: cfg.MaxFileBytes,
	}, st, engine, log, changes)

	if *once {
		sum, err := scans.Run(ctx)
		if err != nil {
			log.Error("scan pass failed", "error", err)
			os.Exit(1)
		}
		log.Info("scan pass done",
			"processed", sum.Processed,
			"skipped", sum.Skipped,
			"rejected", sum.Rejected,
			"errors", len(sum.Errors),
		)
		return
	}

	go scans.Watch(ctx, cfg.PollInterval)

	index := dateindex.NewBuilder(cfg.ProcessedDir, cfg.OutputsDir, cfg.WorkerCount, log)

	srv := api.NewServer(st, scans, index, log, changes, api.Config{
		APIKey:        cfg.APIKey,
		HashLength:    cfg.HashLength,
		NormalizeMeta: cfg.NormalizeMeta,
	})

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting bibscan", "port", cfg.Port, "scan_dir", cfg.ScanDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
