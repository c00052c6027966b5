package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/importer"
)

const defaultHistoryLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListImports returns recent import runs, newest first.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	if s.deps.Runs == nil {
		writeJSON(w, http.StatusOK, []catalog.ImportRun{})
		return
	}

	limit := parseIntParam(r, "limit", defaultHistoryLimit)
	runs, err := s.deps.Runs.ListRuns(r.Context(), limit)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	if runs == nil {
		runs = []catalog.ImportRun{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// handleImportQueueStatus reports whether another import can start now.
func (s *Server) handleImportQueueStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Queue == nil {
		writeJSON(w, http.StatusOK, importer.LimiterStatus{})
		return
	}
	writeJSON(w, http.StatusOK, s.deps.Queue.Status())
}

// handleListBackups returns every snapshot, newest first.
func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Backups.List(r.Context())
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	if list == nil {
		list = []catalog.BackupArtifact{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleCreateBackup takes an on-demand snapshot of one entity.
func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	entity, err := catalog.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	artifact, err := s.deps.Backups.Snapshot(r.Context(), entity)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
