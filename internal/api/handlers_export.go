package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/mdpage/internal/pipeline"
)

type exportRequest struct {
	// Path is a folder relative to the configured root; empty exports it all.
	Path string `json:"path"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if s.cfg.Root == "" {
		jsonError(w, "no workspace root configured", http.StatusServiceUnavailable)
		return
	}

	run, err := s.orchestrator.Submit(workspacePath(s.cfg.Root, req.Path))
	switch {
	case errors.Is(err, pipeline.ErrNoWorkspace), errors.Is(err, pipeline.ErrNoDocuments):
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	snap := run.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":    snap.ID,
		"status":    snap.Status,
		"documents": snap.Progress.Total,
		"poll_url":  fmt.Sprintf("/api/export/%s", snap.ID),
	})
}

func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run := s.orchestrator.GetRun(runID)
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run.Snapshot())
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// workspacePath joins rel under root without letting it escape.
func workspacePath(root, rel string) string {
	if rel == "" {
		return root
	}
	return filepath.Join(root, filepath.Clean("/"+filepath.FromSlash(rel)))
}
