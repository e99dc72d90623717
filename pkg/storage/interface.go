// Package storage defines the persistence contract for solar
// readings.
package storage

import (
	"context"
	"time"

	"github.com/solmeter/solmeter/pkg/reading"
)

// Storage is the interface readings backends implement.
// Implementations: memory (tests, development), badger (production).
type Storage interface {
	// Write stores readings, upserting on (source, date).
	Write(ctx context.Context, readings []reading.Reading) error

	// Query retrieves readings within a date range, sorted ascending
	// by date. Zero Start or End means unbounded on that side.
	Query(ctx context.Context, req QueryRequest) ([]reading.Reading, error)

	// Delete removes readings dated before the cutoff.
	Delete(ctx context.Context, opts DeleteOptions) error

	// Stats returns storage statistics.
	Stats(ctx context.Context) (*Stats, error)

	// Close cleanly shuts down the backend.
	Close() error
}

// QueryRequest specifies which readings to retrieve.
type QueryRequest struct {
	Start time.Time
	End   time.Time

	// Limit caps the number of results (0 = no limit).
	Limit int
}

// DeleteOptions specifies which readings to remove.
type DeleteOptions struct {
	Before time.Time
}

// Stats provides storage health and usage info.
type Stats struct {
	TotalReadings uint64    `json:"total_readings"`
	SizeBytes     uint64    `json:"size_bytes"`
	OldestReading time.Time `json:"oldest_reading"`
	NewestReading time.Time `json:"newest_reading"`
}
