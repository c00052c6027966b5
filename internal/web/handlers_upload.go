package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/importer"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 8 << 20

// ImportResponse is the body of a finished import.
type ImportResponse struct {
	Entity catalog.Entity      `json:"entity"`
	File   string              `json:"file"`
	Stats  catalog.ImportStats `json:"stats"`
}

// handleImport runs a multipart CSV upload through the importer and waits
// for it to finish. Form fields: file (required), update and backup
// (flags; backup defaults to the server setting).
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	entity, err := catalog.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, r, errFileTooLarge, nil)
			return
		}
		respondError(w, r, errNoFile, nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, nil)
		return
	}
	defer file.Close()

	opts := importer.Options{
		UpdateExisting: importer.ParseFlag(r.FormValue("update")),
		CreateBackup:   s.cfg.Backup.Enabled,
	}
	if v := r.FormValue("backup"); v != "" {
		opts.CreateBackup = importer.ParseFlag(v)
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()

	stats, err := s.deps.Importer.Import(ctx, entity, importer.ReaderSource(header.Filename, file), opts)
	if err != nil {
		var partial *catalog.ImportStats
		if stats.Processed > 0 {
			partial = &stats
		}
		respondError(w, r, err, partial)
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Entity: entity, File: header.Filename, Stats: stats})
}
