package trends

import (
	"context"
	"fmt"

	"github.com/solmeter/solmeter/pkg/storage"
	"github.com/solmeter/solmeter/pkg/timeline"
)

// Record is the highest production seen for one bucket size.
type Record struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

// Records is the hall of fame: best day and best month.
type Records struct {
	BestDay   *Record `json:"best_day"`
	BestMonth *Record `json:"best_month"`
}

// Records finds the best production day and month across all stored
// readings. Both are nil when there is no data.
func (a *Aggregator) Records(ctx context.Context) (*Records, error) {
	readings, err := a.storage.Query(ctx, storage.QueryRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	if len(readings) == 0 {
		return &Records{}, nil
	}

	dailyTotals := make(map[string]float64)
	monthlyTotals := make(map[string]float64)
	for _, r := range readings {
		dayKey, err := timeline.FormatKey(r.Date, timeline.Daily)
		if err != nil {
			return nil, err
		}
		monthKey, err := timeline.FormatKey(r.Date, timeline.Monthly)
		if err != nil {
			return nil, err
		}
		dailyTotals[dayKey] += r.Total()
		monthlyTotals[monthKey] += r.Total()
	}

	return &Records{
		BestDay:   bestOf(dailyTotals),
		BestMonth: bestOf(monthlyTotals),
	}, nil
}

// bestOf picks the highest total; ties go to the earlier key so the
// result is deterministic.
func bestOf(totals map[string]float64) *Record {
	var best *Record
	for key, total := range totals {
		if best == nil || total > best.Value || (total == best.Value && key < best.Date) {
			best = &Record{Value: total, Date: key}
		}
	}
	if best != nil {
		best.Value = round2(best.Value)
	}
	return best
}
