package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkrawiec/bibscan/internal/analysis"
	"github.com/mkrawiec/bibscan/internal/library"
)

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(book)
}

// handleTimeline renders the dated-event timeline of one book. The default
// response is JSON; ?format=markdown and ?format=html return rendered
// reports.
func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	book, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	events := analysis.BuildTimeline(book, analysis.NewSymbolCounter(analysis.DefaultSymbols))

	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"book_hash": book.Hash,
			"title":     book.Title,
			"events":    events,
		})
	case "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(analysis.MarkdownReport(book.Title, events)))
	case "html":
		html, err := analysis.HTMLReport(book.Title, events)
		if err != nil {
			s.log.Error("render timeline html", "book_hash", book.Hash, "error", err)
			jsonError(w, "failed to render report", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(html))
	default:
		jsonError(w, "unknown format, use json, markdown or html", http.StatusBadRequest)
	}
}

// handleTimelineExport persists the current timeline to the store.
func (s *Server) handleTimelineExport(w http.ResponseWriter, r *http.Request) {
	book, ok := s.loadBook(w, r)
	if !ok {
		return
	}
	events := analysis.BuildTimeline(book, analysis.NewSymbolCounter(analysis.DefaultSymbols))
	n, err := s.store.SaveTimeline(r.Context(), book.Hash, events)
	if err != nil {
		s.log.Error("save timeline", "book_hash", book.Hash, "error", err)
		jsonError(w, "failed to save timeline", http.StatusInternalServerError)
		return
	}
	s.changes.Info("timeline exported", "book_hash", book.Hash, "events", n)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"book_hash": book.Hash,
		"events":    n,
	})
}

// loadBook fetches the book named in the URL, writing the error response
// itself when the lookup fails.
func (s *Server) loadBook(w http.ResponseWriter, r *http.Request) (*library.Book, bool) {
	hash := chi.URLParam(r, "bookHash")
	book, err := s.store.GetBook(r.Context(), hash)
	if err != nil {
		s.log.Error("load book", "book_hash", hash, "error", err)
		jsonError(w, "failed to load book", http.StatusInternalServerError)
		return nil, false
	}
	if book == nil {
		jsonError(w, "book not found", http.StatusNotFound)
		return nil, false
	}
	return book, true
}
