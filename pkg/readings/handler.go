// Package readings exposes the ingest and listing endpoints for solar
// readings, plus a WebSocket feed of new data.
package readings

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/solmeter/solmeter/pkg/config"
	"github.com/solmeter/solmeter/pkg/httpx"
	"github.com/solmeter/solmeter/pkg/reading"
	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/timeline"
)

// Handler handles reading ingestion and listing.
type Handler struct {
	storage storage.Storage
	hub     *Hub
}

// NewHandler creates a readings handler.
func NewHandler(store storage.Storage) *Handler {
	return &Handler{storage: store}
}

// SetHub attaches the WebSocket hub used to announce new readings.
func (h *Handler) SetHub(hub *Hub) {
	h.hub = hub
}

// IngestRequest is the body of POST /v1/readings.
type IngestRequest struct {
	Readings []reading.Reading `json:"readings"`
}

// IngestResponse reports how many readings were stored.
type IngestResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// HandleIngest handles POST /v1/readings.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}
	if len(req.Readings) == 0 {
		httpx.RespondErrorString(w, http.StatusBadRequest, "at least one reading is required")
		return
	}

	for i := range req.Readings {
		if err := req.Readings[i].Validate(); err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("reading %d: %w", i, err))
			return
		}
		if req.Readings[i].Source == "" {
			req.Readings[i].Source = reading.SourceManual
		}
		req.Readings[i].Date = req.Readings[i].Date.UTC()
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.IngestTimeout)
	defer cancel()

	if err := h.storage.Write(ctx, req.Readings); err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to store readings: %w", err))
		return
	}

	if h.hub != nil && h.hub.HasClients() {
		update := map[string]interface{}{
			"type":      "readings_update",
			"timestamp": time.Now().Unix(),
			"count":     len(req.Readings),
			"readings":  req.Readings,
		}
		if err := h.hub.Broadcast(update); err != nil {
			// A broadcast failure never fails the ingest.
			log.Printf("Failed to broadcast readings update: %v", err)
		}
	}

	httpx.RespondJSON(w, http.StatusOK, IngestResponse{
		Status: "success",
		Count:  len(req.Readings),
	})
}

// ListResponse is the body of GET /v1/readings.
type ListResponse struct {
	Readings []reading.Reading `json:"readings"`
	Count    int               `json:"count"`
}

// HandleList handles GET /v1/readings. Query parameters: start and
// end (optional YYYY-MM-DD bounds) and limit.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var req storage.QueryRequest
	if v := q.Get("start"); v != "" {
		t, _, err := timeline.ParseKey(v, timeline.Daily)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("start: %w", err))
			return
		}
		req.Start = t
	}
	if v := q.Get("end"); v != "" {
		t, _, err := timeline.ParseKey(v, timeline.Daily)
		if err != nil {
			httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("end: %w", err))
			return
		}
		req.End = t
	}

	req.Limit = config.DefaultListLimit
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			httpx.RespondErrorString(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if limit > config.MaxListLimit {
			limit = config.MaxListLimit
		}
		req.Limit = limit
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	results, err := h.storage.Query(ctx, req)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to query readings: %w", err))
		return
	}
	if results == nil {
		results = []reading.Reading{}
	}

	httpx.RespondJSON(w, http.StatusOK, ListResponse{
		Readings: results,
		Count:    len(results),
	})
}

// HandleStorageStats handles GET /v1/storage.
func (h *Handler) HandleStorageStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.QueryTimeout)
	defer cancel()

	stats, err := h.storage.Stats(ctx)
	if err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, fmt.Errorf("failed to read storage stats: %w", err))
		return
	}
	httpx.RespondJSON(w, http.StatusOK, stats)
}
