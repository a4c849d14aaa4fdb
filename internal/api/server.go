// Package api exposes the HTTP interface: alias registration, book lookup,
// scan control, timeline reports and the date index.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mkrawiec/bibscan/internal/analysis"
	"github.com/mkrawiec/bibscan/internal/dateindex"
	"github.com/mkrawiec/bibscan/internal/library"
	"github.com/mkrawiec/bibscan/internal/scanner"
)

// Store is the subset of the record store the API needs.
type Store interface {
	RegisterAlias(ctx context.Context, alias, hash string) error
	ResolveAlias(ctx context.Context, alias string) (string, error)
	UpsertBook(ctx context.Context, hash string, meta library.BookMeta) error
	GetBook(ctx context.Context, hash string) (*library.Book, error)
	SaveTimeline(ctx context.Context, hash string, events []analysis.Event) (int, error)
}

// Runner triggers batch scan passes.
type Runner interface {
	Run(ctx context.Context) (scanner.Summary, error)
	LastSummary() (scanner.Summary, bool)
}

// Indexer builds and serves the cross-book date index.
type Indexer interface {
	BuildAndWrite(ctx context.Context) ([]dateindex.Entry, string, error)
	Read() ([]dateindex.Entry, error)
}

// Config holds the API-facing settings.
type Config struct {
	// APIKey guards the /api routes; empty disables auth.
	APIKey string

	// HashLength and NormalizeMeta control book hash derivation for alias
	// registration.
	HashLength    int
	NormalizeMeta bool
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	store   Store
	scans   Runner
	index   Indexer
	log     *slog.Logger
	changes *slog.Logger
	cfg     Config
}

// NewServer creates and configures the HTTP server.
func NewServer(st Store, scans Runner, index Indexer, log, changes *slog.Logger, cfg Config) *Server {
	s := &Server{
		store:   st,
		scans:   scans,
		index:   index,
		log:     log,
		changes: changes,
		cfg:     cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Put("/api/aliases/{alias}", s.handleRegisterAlias)
		r.Get("/api/aliases/{alias}", s.handleResolveAlias)

		r.Get("/api/books/{bookHash}", s.handleGetBook)
		r.Get("/api/books/{bookHash}/timeline", s.handleTimeline)
		r.Post("/api/books/{bookHash}/timeline/export", s.handleTimelineExport)

		r.Post("/api/scan", s.handleScanTrigger)
		r.Get("/api/scan/status", s.handleScanStatus)

		r.Post("/api/dateindex", s.handleDateIndexRebuild)
		r.Get("/api/dateindex", s.handleDateIndexGet)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
