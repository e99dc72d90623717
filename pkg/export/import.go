package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/solmeter/solmeter/pkg/reading"
)

// ImportResult reports what a restore stored and what it skipped.
type ImportResult struct {
	ReadingsImported int `json:"readings_imported"`
	ReadingsSkipped  int `json:"readings_skipped"`
}

// FromJSON restores readings from a JSON backup produced by ToJSON.
// Invalid readings are skipped and counted rather than failing the
// whole restore; readings without a source are tagged as imported.
func (e *Exporter) FromJSON(ctx context.Context, r io.Reader) (*ImportResult, error) {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("invalid backup file: %w", err)
	}

	valid := make([]reading.Reading, 0, len(backup.Readings))
	skipped := 0
	for _, rec := range backup.Readings {
		if err := rec.Validate(); err != nil {
			skipped++
			continue
		}
		if rec.Source == "" {
			rec.Source = reading.SourceImport
		}
		rec.Date = rec.Date.UTC()
		valid = append(valid, rec)
	}

	if len(valid) > 0 {
		if err := e.storage.Write(ctx, valid); err != nil {
			return nil, fmt.Errorf("failed to store imported readings: %w", err)
		}
	}

	return &ImportResult{
		ReadingsImported: len(valid),
		ReadingsSkipped:  skipped,
	}, nil
}
