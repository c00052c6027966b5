package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/partscatalog/internal/catalog"
	"github.com/JonMunkholm/partscatalog/internal/importer"
	"github.com/JonMunkholm/partscatalog/internal/logging"
)

// handleExport streams an entity as a CSV attachment. Query parameters
// category_id, manufacturer, brand_id and popular narrow the export.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	entity, err := catalog.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	filter, err := parseExportFilter(r)
	if err != nil {
		respondError(w, r, err, nil)
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", entity, time.Now().Format("2006-01-02_15-04-05"))
	cw := &csvResponse{w: w, filename: filename}

	rows, err := s.deps.Exporter.Export(r.Context(), entity, filter, cw)
	if err != nil {
		if !cw.started {
			respondError(w, r, err, nil)
			return
		}
		// Headers are gone; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("export aborted mid-stream", "entity", entity, "error", err)
		return
	}
	if !cw.started {
		cw.start()
	}
	logging.FromContext(r.Context()).Info("export served", "entity", entity, "rows", rows)
}

func parseExportFilter(r *http.Request) (catalog.ExportFilter, error) {
	q := r.URL.Query()
	f := catalog.ExportFilter{Manufacturer: q.Get("manufacturer")}

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: category_id %q", catalog.ErrInvalidFilter, v)
		}
		f.CategoryID = &id
	}
	if v := q.Get("brand_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, fmt.Errorf("%w: brand_id %q", catalog.ErrInvalidFilter, v)
		}
		f.BrandID = &id
	}
	if v := q.Get("popular"); v != "" {
		popular := importer.ParseFlag(v)
		f.Popular = &popular
	}
	return f, nil
}

// csvResponse defers the attachment headers until the first byte so an
// export that fails before writing anything can still return a JSON error.
type csvResponse struct {
	w        http.ResponseWriter
	filename string
	started  bool
}

func (c *csvResponse) start() {
	c.started = true
	c.w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	c.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.filename))
	c.w.WriteHeader(http.StatusOK)
}

func (c *csvResponse) Write(p []byte) (int, error) {
	if !c.started {
		c.start()
	}
	return c.w.Write(p)
}
