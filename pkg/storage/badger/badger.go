// Package badger persists readings in BadgerDB (LSM tree). This is
// the production backend: a decade of daily readings is only a few
// thousand records, so the configuration leans heavily toward a small
// memory footprint.
package badger

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/solmeter/solmeter/pkg/reading"
	"github.com/solmeter/solmeter/pkg/storage"
)

// Storage implements storage.Storage using BadgerDB.
type Storage struct {
	db *badger.DB
}

// Config holds BadgerDB configuration.
type Config struct {
	// Path to the database files.
	Path string

	// InMemory mode (for testing).
	InMemory bool

	// MaxMemoryMB limits BadgerDB memory usage (0 = 48 MB default).
	MaxMemoryMB int64
}

// New opens a BadgerDB storage backend.
func New(cfg Config) (*Storage, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = opts.WithInMemory(true)
	}

	// Badger's defaults assume server workloads; a readings database
	// fits comfortably in tens of megabytes.
	memTableSize := int64(16 * 1024 * 1024)
	if cfg.MaxMemoryMB > 0 {
		memTableSize = cfg.MaxMemoryMB * 1024 * 1024 / 3
	}

	opts = opts.
		WithCompression(options.Snappy).
		WithNumVersionsToKeep(1).
		WithMemTableSize(memTableSize).
		WithNumMemtables(3).
		WithBlockCacheSize(memTableSize / 2).
		WithIndexCacheSize(memTableSize / 4).
		WithMaxLevels(4).
		WithNumCompactors(1).
		WithValueThreshold(1024).
		WithValueLogFileSize(64 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Storage{db: db}, nil
}

// Write upserts readings. The key is derived from (source, date), so
// re-submitting a corrected reading for the same day replaces the old
// one instead of duplicating it.
func (s *Storage) Write(ctx context.Context, readings []reading.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, r := range readings {
			value, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("failed to encode reading: %w", err)
			}
			if err := txn.Set(makeKey(r.Source, r.Date), value); err != nil {
				return fmt.Errorf("failed to write reading: %w", err)
			}
		}
		return nil
	})
}

// Query retrieves readings matching the request, sorted by date.
func (s *Storage) Query(ctx context.Context, req storage.QueryRequest) ([]reading.Reading, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var results []reading.Reading
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 100

		it := txn.NewIterator(opts)
		defer it.Close()

		var iterCount int
		for it.Rewind(); it.Valid(); it.Next() {
			iterCount++
			// Bail out of long scans on cancellation.
			if iterCount%1000 == 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}

			err := it.Item().Value(func(val []byte) error {
				var r reading.Reading
				if err := json.Unmarshal(val, &r); err != nil {
					return fmt.Errorf("failed to decode reading: %w", err)
				}
				if !req.Start.IsZero() && r.Date.Before(req.Start) {
					return nil
				}
				if !req.End.IsZero() && r.Date.After(req.End) {
					return nil
				}
				results = append(results, r)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Keys sort by source hash before date, so order across sources is
	// not iteration order.
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
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false

		it := txn.NewIterator(iterOpts)
		defer it.Close()

		var keysToDelete [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			if _, ts := parseKey(it.Item().Key()); ts.Before(opts.Before) {
				keysToDelete = append(keysToDelete, it.Item().KeyCopy(nil))
			}
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats returns storage statistics.
func (s *Storage) Stats(ctx context.Context) (*storage.Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats := &storage.Stats{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		var oldest, newest time.Time
		for it.Rewind(); it.Valid(); it.Next() {
			stats.TotalReadings++
			_, ts := parseKey(it.Item().Key())
			if oldest.IsZero() || ts.Before(oldest) {
				oldest = ts
			}
			if newest.IsZero() || ts.After(newest) {
				newest = ts
			}
		}
		stats.OldestReading = oldest
		stats.NewestReading = newest
		return nil
	})
	if err != nil {
		return nil, err
	}

	lsmSize, vlogSize := s.db.Size()
	stats.SizeBytes = uint64(lsmSize + vlogSize)
	return stats, nil
}

// Close shuts down BadgerDB cleanly.
func (s *Storage) Close() error {
	return s.db.Close()
}

// RunGC runs value log garbage collection once. Badger accumulates
// dead versions in the value log; without periodic GC the disk
// footprint only grows. Returns badger.ErrNoRewrite when nothing
// needed collecting.
func (s *Storage) RunGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// makeKey builds a sortable key: [source hash (8 bytes)][unix nanos
// of the reading date (8 bytes)], both big-endian so iteration walks
// each source in date order.
func makeKey(source string, date time.Time) []byte {
	key := make([]byte, 16)
	binary.BigEndian.PutUint64(key[0:8], xxhash.Sum64String(source))
	binary.BigEndian.PutUint64(key[8:16], uint64(date.UTC().UnixNano()))
	return key
}

// parseKey extracts the source hash and reading date from a storage
// key. The original source string is not recoverable from the hash.
func parseKey(key []byte) (uint64, time.Time) {
	hash := binary.BigEndian.Uint64(key[0:8])
	ts := time.Unix(0, int64(binary.BigEndian.Uint64(key[8:16]))).UTC()
	return hash, ts
}
