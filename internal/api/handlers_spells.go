package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/grimoire/internal/batch"
	"github.com/dgallion1/grimoire/internal/parser"
	"github.com/dgallion1/grimoire/internal/spell"
	"github.com/dgallion1/grimoire/internal/store"
	"github.com/go-chi/chi/v5"
)

// handleExtract extracts a single uploaded document synchronously.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}
	filename := sanitizeFilename(headers[0].Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	data, err := s.readUpload(headers[0])
	if err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, errTooLarge) {
			code = http.StatusRequestEntityTooLarge
		}
		jsonError(w, err.Error(), code)
		return
	}

	sp, err := s.orchestrator.Extract(r.Context(), filename, data, r.FormValue("store") == "true")
	switch {
	case err == nil:
	case spell.IsExtractionError(err):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
			"kind":  spell.ErrorKind(err),
		})
		return
	case batch.IsParseError(err):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	default:
		s.log.Error("extract failed", "file", filename, "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sp)
}

func (s *Server) handleListSpells(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	records, err := s.orchestrator.Store().List(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		jsonError(w, "failed to list spells: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"spells": records,
		"count":  len(records),
	})
}

func (s *Server) handleGetSpell(w http.ResponseWriter, r *http.Request) {
	rec, err := s.orchestrator.Store().Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "spell not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load spell: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleDeleteSpell(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.orchestrator.Store().Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "spell not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete spell: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"deleted": id})
}
