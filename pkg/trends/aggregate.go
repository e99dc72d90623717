// Package trends rolls raw readings up into the aggregates the
// dashboard charts: per-period production trends, all-time records and
// the headline summary figures.
package trends

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/timeline"
)

// Aggregator computes chart aggregates from stored readings.
type Aggregator struct {
	storage storage.Storage
}

// NewAggregator creates an aggregator over the given storage.
func NewAggregator(store storage.Storage) *Aggregator {
	return &Aggregator{storage: store}
}

// Trends buckets all stored readings by period key, sums the meter
// channels and weather overlays per bucket, and gap-fills so the
// result is one point per bucket with no holes. rangeStart and
// rangeEnd are optional plain YYYY-MM-DD bounds; when absent the span
// of the data decides.
func (a *Aggregator) Trends(ctx context.Context, period timeline.Period, rangeStart, rangeEnd string) ([]timeline.DataPoint, error) {
	readings, err := a.storage.Query(ctx, storage.QueryRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}

	buckets := make(map[string]*timeline.DataPoint)
	for _, r := range readings {
		key, err := timeline.FormatKey(r.Date, period)
		if err != nil {
			return nil, err
		}
		b := buckets[key]
		if b == nil {
			b = &timeline.DataPoint{Key: key}
			buckets[key] = b
		}
		b.M1 += r.M1
		b.M2 += r.M2
		b.Radiation += r.Radiation
		b.Snowfall += r.Snowfall
	}

	points := make([]timeline.DataPoint, 0, len(buckets))
	for _, b := range buckets {
		b.M1 = round2(b.M1)
		b.M2 = round2(b.M2)
		b.Radiation = round2(b.Radiation)
		b.Snowfall = round2(b.Snowfall)
		b.Total = round2(b.M1 + b.M2)
		points = append(points, *b)
	}
	// Canonical keys sort lexicographically in date order.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Key < points[j].Key
	})

	return timeline.FillGaps(points, period, timeline.FillOptions{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
