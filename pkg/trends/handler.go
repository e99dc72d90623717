package trends

import (
	"context"
	"errors"
	"net/http"

	"github.com/solmeter/solmeter/pkg/config"
	"github.com/solmeter/solmeter/pkg/httpx"
	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/timeline"
)

// Handler serves the dashboard stats endpoints.
type Handler struct {
	agg      *Aggregator
	settings Settings
}

// NewHandler creates a stats handler.
func NewHandler(store storage.Storage, settings Settings) *Handler {
	return &Handler{
		agg:      NewAggregator(store),
		settings: settings,
	}
}

// TrendsResponse is the body of /v1/stats/trends.
type TrendsResponse struct {
	Period string               `json:"period"`
	Data   []timeline.DataPoint `json:"data"`
}

// HandleTrends handles GET /v1/stats/trends. Query parameters: period
// (defaults to monthly), start and end (optional YYYY-MM-DD bounds).
func (h *Handler) HandleTrends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	periodParam := q.Get("period")
	if periodParam == "" {
		periodParam = string(timeline.Monthly)
	}
	period, err := timeline.ParsePeriod(periodParam)
	if err != nil {
		httpx.RespondError(w, http.StatusBadRequest, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.StatsTimeout)
	defer cancel()

	data, err := h.agg.Trends(ctx, period, q.Get("start"), q.Get("end"))
	if err != nil {
		var keyErr *timeline.KeyError
		if errors.As(err, &keyErr) {
			httpx.RespondError(w, http.StatusBadRequest, err)
			return
		}
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	if data == nil {
		data = []timeline.DataPoint{}
	}

	httpx.RespondJSON(w, http.StatusOK, TrendsResponse{
		Period: string(period),
		Data:   data,
	})
}

// HandleSummary handles GET /v1/stats.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.StatsTimeout)
	defer cancel()

	summary, err := h.agg.Summary(ctx, h.settings)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, summary)
}

// HandleRecords handles GET /v1/stats/records.
func (h *Handler) HandleRecords(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.StatsTimeout)
	defer cancel()

	records, err := h.agg.Records(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, records)
}
