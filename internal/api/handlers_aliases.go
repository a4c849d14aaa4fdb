package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkrawiec/bibscan/internal/bookid"
	"github.com/mkrawiec/bibscan/internal/library"
)

// handleRegisterAlias binds an alias to a book. The book hash is derived
// from the submitted metadata, so registering the same book under two
// aliases converges on one record.
func (s *Server) handleRegisterAlias(w http.ResponseWriter, r *http.Request) {
	alias := strings.TrimSpace(chi.URLParam(r, "alias"))
	if alias == "" {
		jsonError(w, "alias is required", http.StatusBadRequest)
		return
	}

	var meta library.BookMeta
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		jsonError(w, "invalid metadata: "+err.Error(), http.StatusBadRequest)
		return
	}
	if meta.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	if meta.Authors == "" {
		jsonError(w, "authors is required", http.StatusBadRequest)
		return
	}

	hash := bookid.Hash(bookid.Meta{
		Title:    meta.Title,
		Authors:  meta.Authors,
		Year:     meta.Year,
		PubPlace: meta.PubPlace,
	}, s.cfg.HashLength, s.cfg.NormalizeMeta)

	if err := s.store.UpsertBook(r.Context(), hash, meta); err != nil {
		s.log.Error("upsert book", "book_hash", hash, "error", err)
		jsonError(w, "failed to store book metadata", http.StatusInternalServerError)
		return
	}
	if err := s.store.RegisterAlias(r.Context(), alias, hash); err != nil {
		s.log.Error("register alias", "alias", alias, "error", err)
		jsonError(w, "failed to register alias", http.StatusInternalServerError)
		return
	}
	s.changes.Info("alias registered", "alias", alias, "book_hash", hash, "title", meta.Title)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"alias":     alias,
		"book_hash": hash,
	})
}

func (s *Server) handleResolveAlias(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	hash, err := s.store.ResolveAlias(r.Context(), alias)
	if err != nil {
		s.log.Error("resolve alias", "alias", alias, "error", err)
		jsonError(w, "failed to resolve alias", http.StatusInternalServerError)
		return
	}
	if hash == "" {
		jsonError(w, "alias not registered", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"alias":     alias,
		"book_hash": hash,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
