package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/dgallion1/docxlate/internal/filename"
	"github.com/dgallion1/docxlate/internal/parser"
	"github.com/dgallion1/docxlate/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	name := filename.Sanitize(header.Filename)
	if !parser.IsSupportedExtension(name) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	maxTokens := 0
	if v := r.FormValue("max_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "max_tokens must be a positive integer", http.StatusBadRequest)
			return
		}
		maxTokens = n
	}

	run := pipeline.NewRun(name, data, maxTokens)
	if err := s.orchestrator.Submit(run); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":     run.ID,
		"status":     pipeline.StatusQueued,
		"poll_url":   fmt.Sprintf("/api/translate/%s/status", run.ID),
		"events_url": fmt.Sprintf("/api/translate/%s/events", run.ID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	run := s.orchestrator.GetRun(chi.URLParam(r, "runID"))
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
