package readings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solmeter/solmeter/pkg/reading"
	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/storage/memory"
)

func postReadings(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/readings", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.HandleIngest(rec, req)
	return rec
}

func TestHandleIngest(t *testing.T) {
	store := memory.New()
	h := NewHandler(store)

	rec := postReadings(t, h, `{"readings":[
		{"date":"2025-07-01T00:00:00Z","m1":10.5,"m2":4.2},
		{"date":"2025-07-02T00:00:00Z","m1":12.0,"m2":5.1,"notes":"sunny"}
	]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, 2, resp.Count)

	stored, err := store.Query(context.Background(), storage.QueryRequest{})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	// Source defaults to manual when the client omits it.
	assert.Equal(t, reading.SourceManual, stored[0].Source)
	assert.Equal(t, "sunny", stored[1].Notes)
}

func TestHandleIngestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{not json`},
		{"empty readings", `{"readings":[]}`},
		{"missing date", `{"readings":[{"m1":10}]}`},
		{"negative meter", `{"readings":[{"date":"2025-07-01T00:00:00Z","m1":-1}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(memory.New())
			rec := postReadings(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleIngestNormalizesToUTC(t *testing.T) {
	store := memory.New()
	h := NewHandler(store)

	rec := postReadings(t, h, `{"readings":[{"date":"2025-07-01T00:00:00+02:00","m1":10}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := store.Query(context.Background(), storage.QueryRequest{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, time.UTC, stored[0].Date.Location())
}

func TestHandleList(t *testing.T) {
	store := memory.New()
	h := NewHandler(store)

	var readings []reading.Reading
	for d := 1; d <= 5; d++ {
		readings = append(readings, reading.Reading{
			Date:   time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC),
			M1:     float64(d),
			Source: reading.SourceManual,
		})
	}
	require.NoError(t, store.Write(context.Background(), readings))

	req := httptest.NewRequest(http.MethodGet, "/v1/readings?start=2025-07-02&end=2025-07-04", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC), resp.Readings[0].Date)
}

func TestHandleListEmpty(t *testing.T) {
	h := NewHandler(memory.New())

	req := httptest.NewRequest(http.MethodGet, "/v1/readings", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Readings)
}

func TestHandleListRejectsBadParams(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad start", "/v1/readings?start=July-1st"},
		{"bad end", "/v1/readings?end=2025-13-40"},
		{"bad limit", "/v1/readings?limit=zero"},
		{"negative limit", "/v1/readings?limit=-5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(memory.New())
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()
			h.HandleList(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleListLimit(t *testing.T) {
	store := memory.New()
	h := NewHandler(store)

	var readings []reading.Reading
	for d := 1; d <= 10; d++ {
		readings = append(readings, reading.Reading{
			Date:   time.Date(2025, 7, d, 0, 0, 0, 0, time.UTC),
			M1:     float64(d),
			Source: reading.SourceManual,
		})
	}
	require.NoError(t, store.Write(context.Background(), readings))

	req := httptest.NewRequest(http.MethodGet, "/v1/readings?limit=4", nil)
	rec := httptest.NewRecorder()
	h.HandleList(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.Count)
}

func TestHandleStorageStats(t *testing.T) {
	store := memory.New()
	h := NewHandler(store)

	require.NoError(t, store.Write(context.Background(), []reading.Reading{
		{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), M1: 10, Source: reading.SourceManual},
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/storage", nil)
	rec := httptest.NewRecorder()
	h.HandleStorageStats(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats storage.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, uint64(1), stats.TotalReadings)
}
