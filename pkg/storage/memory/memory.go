// Package memory stores readings in memory. Data is lost on restart;
// useful for tests and development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/solmeter/solmeter/pkg/reading"
	"github.com/solmeter/solmeter/pkg/storage"
)

// Storage keeps readings in a map keyed by (source, date) so repeated
// writes for the same day replace the earlier entry, matching the
// badger backend's upsert behavior.
type Storage struct {
	readings map[recordKey]reading.Reading
	mu       sync.RWMutex
}

type recordKey struct {
	source string
	date   time.Time
}

// New creates an in-memory storage backend.
func New() *Storage {
	return &Storage{
		readings: make(map[recordKey]reading.Reading),
	}
}

// Write upserts readings into memory.
func (s *Storage) Write(ctx context.Context, readings []reading.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range readings {
		key := recordKey{source: r.Source, date: r.Date.UTC()}
		s.readings[key] = r
	}
	return nil
}

// Query retrieves readings matching the request, sorted by date.
func (s *Storage) Query(ctx context.Context, req storage.QueryRequest) ([]reading.Reading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []reading.Reading
	for _, r := range s.readings {
		if !req.Start.IsZero() && r.Date.Before(req.Start) {
			continue
		}
		if !req.End.IsZero() && r.Date.After(req.End) {
			continue
		}
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Date.Before(results[j].Date)
	})

	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	return results, nil
}

// Delete removes readings dated before the cutoff.
func (s *Storage) Delete(ctx context.Context, opts storage.DeleteOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, r := range s.readings {
		if r.Date.Before(opts.Before) {
			delete(s.readings, key)
		}
	}
	return nil
}

// Stats returns storage statistics.
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &storage.Stats{
		TotalReadings: uint64(len(s.readings)),
	}
	if len(s.readings) == 0 {
		return stats, nil
	}

	var oldest, newest time.Time
	for _, r := range s.readings {
		if oldest.IsZero() || r.Date.Before(oldest) {
			oldest = r.Date
		}
		if newest.IsZero() || r.Date.After(newest) {
			newest = r.Date
		}
	}
	stats.OldestReading = oldest
	stats.NewestReading = newest

	// Rough estimate, each reading is on the order of 100 bytes.
	stats.SizeBytes = uint64(len(s.readings)) * 100
	return stats, nil
}

// Close is a no-op for memory storage.
func (s *Storage) Close() error {
	return nil
}
