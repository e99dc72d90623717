// Package timeline turns sparse, irregularly sampled production data
// into gap-free, correctly keyed series ready for charting and
// period-over-period comparison. It owns the period key formats, the
// calendar arithmetic behind them (ISO weeks, month-end rollovers) and
// the zero-filling of buckets with no data.
//
// Everything here is pure computation over UTC instants: no I/O, no
// shared state, safe for concurrent use.
package timeline

import "fmt"

// Period is the bucket granularity of an aggregated series. It is a
// closed set: validate external strings with ParsePeriod once at the
// boundary and pass the typed value around internally.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// ParsePeriod validates an external period tag, such as the trends
// API's period query parameter.
func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly, Yearly:
		return p, nil
	}
	return "", &PeriodError{Period: Period(s)}
}

// KeyError reports a key string that does not match the expected
// pattern for its period.
type KeyError struct {
	Key     string
	Pattern string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("invalid period key %q: expected %s", e.Key, e.Pattern)
}

// PeriodError reports a period tag outside the closed set. Internal
// call sites always hold a ParsePeriod-validated Period, so this can
// only surface from an unvalidated boundary value.
type PeriodError struct {
	Period Period
}

func (e *PeriodError) Error() string {
	return fmt.Sprintf("unsupported period %q", string(e.Period))
}
