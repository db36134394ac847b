package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/docxlate/internal/pipeline"
	"github.com/dgallion1/docxlate/internal/storage"
	"github.com/go-chi/chi/v5"
)

// handleResult streams the assembled Markdown of a finished run, preferring
// the published copy when there is one.
func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	snap := run.Snapshot()
	if !snap.Status.Terminal() {
		jsonError(w, fmt.Sprintf("run is %s", snap.Status), http.StatusConflict)
		return
	}
	if snap.OutputPath == "" {
		jsonError(w, "run produced no output", http.StatusNotFound)
		return
	}

	rc, err := s.openResult(r, snap)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			jsonError(w, "output no longer available", http.StatusGone)
			return
		}
		jsonError(w, "failed to open output: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(snap.OutputPath)))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Warn("result stream interrupted", "run_id", snap.ID, "error", err)
	}
}

func (s *Server) openResult(r *http.Request, snap pipeline.RunSnapshot) (io.ReadCloser, error) {
	if store := s.orchestrator.Runner().Storage(); store != nil && snap.ObjectKey != "" {
		return store.Get(r.Context(), snap.ObjectKey)
	}
	return os.Open(snap.OutputPath)
}

// handleDeleteResult removes a finished run's output and published copy.
func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
	if run == nil {
		jsonError(w, "run not found", http.StatusNotFound)
		return
	}
	snap := run.Snapshot()
	if !snap.Status.Terminal() {
		jsonError(w, fmt.Sprintf("run is %s", snap.Status), http.StatusConflict)
		return
	}

	localDeleted := false
	if snap.OutputPath != "" {
		if err := os.Remove(snap.OutputPath); err == nil {
			localDeleted = true
		} else if !errors.Is(err, fs.ErrNotExist) {
			jsonError(w, "failed to delete output: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	publishedDeleted := false
	if store := s.orchestrator.Runner().Storage(); store != nil && snap.ObjectKey != "" {
		err := store.Delete(r.Context(), snap.ObjectKey)
		switch {
		case err == nil:
			publishedDeleted = true
		case !errors.Is(err, storage.ErrNotFound):
			jsonError(w, "failed to delete published output: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":            snap.ID,
		"local_deleted":     localDeleted,
		"published_deleted": publishedDeleted,
	})
}
