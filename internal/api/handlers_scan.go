package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkrawiec/bibscan/internal/scanner"
)

// handleScanTrigger starts a batch pass in the background. The pass outlives
// the request; progress is read from /api/scan/status.
func (s *Server) handleScanTrigger(w http.ResponseWriter, r *http.Request) {
	if _, active := s.scans.LastSummary(); active {
		jsonError(w, "a scan run is already in progress", http.StatusConflict)
		return
	}

	go func() {
		if _, err := s.scans.Run(context.Background()); err != nil && !errors.Is(err, scanner.ErrRunInProgress) {
			s.log.Error("triggered scan pass failed", "error", err)
		}
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "started",
		"poll_url": "/api/scan/status",
	})
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	sum, active := s.scans.LastSummary()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"running": active,
		"summary": sum,
	})
}
