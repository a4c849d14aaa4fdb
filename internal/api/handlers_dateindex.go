package api

import (
	"encoding/json"
	"net/http"
)

// handleDateIndexRebuild rebuilds the cross-book date index from the local
// sidecars and writes it to the outputs folder.
func (s *Server) handleDateIndexRebuild(w http.ResponseWriter, r *http.Request) {
	entries, path, err := s.index.BuildAndWrite(r.Context())
	if err != nil {
		s.log.Error("rebuild date index", "error", err)
		jsonError(w, "failed to rebuild date index", http.StatusInternalServerError)
		return
	}
	s.changes.Info("date index rebuilt", "entries", len(entries), "path", path)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": len(entries),
		"path":    path,
	})
}

func (s *Server) handleDateIndexGet(w http.ResponseWriter, r *http.Request) {
	entries, err := s.index.Read()
	if err != nil {
		s.log.Error("read date index", "error", err)
		jsonError(w, "failed to read date index", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		jsonError(w, "date index not built yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": entries,
	})
}
