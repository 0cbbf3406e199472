package api

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleExtractStats(w http.ResponseWriter, r *http.Request) {
	stored, err := s.orchestrator.Store().Count(r.Context())
	if err != nil {
		jsonError(w, "failed to count spells: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"stats":         s.orchestrator.Stats().Snapshot(),
		"queue_depth":   s.orchestrator.QueueDepth(),
		"spells_stored": stored,
	})
}
