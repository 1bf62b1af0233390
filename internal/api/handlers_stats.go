package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/mdpage/internal/doctree"
	"github.com/dgallion1/mdpage/internal/navtree"
	"github.com/dgallion1/mdpage/internal/pipeline"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		jsonError(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.stats.Snapshot(),
	})
}

type documentInfo struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Page  string `json:"page"`
}

// handleListDocuments lists the exportable documents of the workspace.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Root == "" {
		jsonError(w, "no workspace root configured", http.StatusServiceUnavailable)
		return
	}
	docs, err := pipeline.Discover(s.cfg.Root, s.cfg.Exclude)
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]documentInfo, 0, len(docs))
	for _, rel := range docs {
		title := doctree.FallbackTitle
		if data, err := os.ReadFile(filepath.Join(s.cfg.Root, filepath.FromSlash(rel))); err == nil {
			title = doctree.Title(string(data))
		}
		out = append(out, documentInfo{Path: rel, Title: title, Page: "/" + navtree.HTMLPath(rel)})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"documents": out})
}
