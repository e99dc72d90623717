package export

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/solmeter/solmeter/pkg/config"
	"github.com/solmeter/solmeter/pkg/httpx"
	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/timeline"
)

// Handler serves the backup and restore endpoints.
type Handler struct {
	exporter *Exporter
}

// NewHandler creates an export handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{exporter: NewExporter(store)}
}

// HandleExport handles GET /v1/export. Query parameters: format (json
// or csv, defaults to json) and optional start/end YYYY-MM-DD bounds.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		httpx.RespondErrorString(w, http.StatusBadRequest, "format must be json or csv")
		return
	}

	var opts Options
	if v := q.Get("start"); v != "" {
		t, _, err := timeline.ParseKey(v, timeline.Daily)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("start: %w", err))
			return
		}
		opts.Start = t
	}
	if v := q.Get("end"); v != "" {
		t, _, err := timeline.ParseKey(v, timeline.Daily)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("end: %w", err))
			return
		}
		opts.End = t
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.ExportTimeout)
	defer cancel()

	filename := fmt.Sprintf("solmeter_backup_%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	var err error
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		_, err = h.exporter.ToCSV(ctx, w, opts)
	} else {
		w.Header().Set("Content-Type", "application/json")
		_, err = h.exporter.ToJSON(ctx, w, opts)
	}
	if err != nil {
		// Headers are already written; all that is left is the log.
		log.Printf("Export failed: %v", err)
	}
}

// HandleImport handles POST /v1/import with a JSON backup body.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.ExportTimeout)
	defer cancel()

	result, err := h.exporter.FromJSON(ctx, r.Body)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, result)
}
