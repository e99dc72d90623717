package timeline

import (
	"fmt"
	"log"
	"time"
)

// DataPoint is one aggregated bucket of production data as served by
// the trends API. Key uses the period formats from the codec. Total is
// carried through exactly as the aggregation produced it, never
// recomputed here.
type DataPoint struct {
	Key       string  `json:"date"`
	M1        float64 `json:"m1"`
	M2        float64 `json:"m2"`
	Total     float64 `json:"total"`
	Radiation float64 `json:"radiation"`
	Snowfall  float64 `json:"snowfall"`
}

// FillOptions optionally clips or extends the generated series with an
// explicit calendar-day range. Both bounds must be plain YYYY-MM-DD
// strings regardless of the active period, exactly as a date input
// control produces them. When either bound is missing the range is
// inferred from the observed data instead.
type FillOptions struct {
	RangeStart string
	RangeEnd   string
}

// FillGaps merges sparse observed points against the complete key
// series for the resolved range, substituting zero-valued points for
// buckets with no data. The result is ascending and gap-free.
//
// Observed points with unparseable keys never abort the operation:
// they are skipped for range inference with a log line, and if no
// observed key parses at all the result is simply empty. An error is
// returned only for invalid explicit arguments: an out-of-enum period
// or a malformed range bound.
func FillGaps(observed []DataPoint, period Period, opts FillOptions) ([]DataPoint, error) {
	if _, err := ParsePeriod(string(period)); err != nil {
		return nil, err
	}

	start, end, ok, err := resolveRange(observed, period, opts)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	keys, err := GenerateKeys(start, end, period)
	if err != nil {
		return nil, err
	}

	lookup := buildLookup(observed, period)
	out := make([]DataPoint, 0, len(keys))
	for _, key := range keys {
		if p, hit := lookup[key]; hit {
			out = append(out, p)
		} else {
			out = append(out, DataPoint{Key: key})
		}
	}
	return out, nil
}

// resolveRange picks the explicit bounds when both are given,
// otherwise the min and max instants of the parseable observed keys.
// ok=false means there is nothing to generate over.
func resolveRange(observed []DataPoint, period Period, opts FillOptions) (start, end time.Time, ok bool, err error) {
	if opts.RangeStart != "" && opts.RangeEnd != "" {
		// Explicit bounds are always plain daily dates; a malformed
		// bound is a caller error, not bad upstream data.
		start, _, err = ParseKey(opts.RangeStart, Daily)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("range start: %w", err)
		}
		end, _, err = ParseKey(opts.RangeEnd, Daily)
		if err != nil {
			return time.Time{}, time.Time{}, false, fmt.Errorf("range end: %w", err)
		}
		return start, end, true, nil
	}

	for _, p := range observed {
		t, fb, perr := ParseKey(p.Key, period)
		if perr != nil {
			log.Printf("Skipping unparseable %s key %q during range inference: %v", period, p.Key, perr)
			continue
		}
		if fb {
			log.Printf("Daily-shaped key %q in %s series, parsed as plain date", p.Key, period)
		}
		if !ok || t.Before(start) {
			start = t
		}
		if !ok || t.After(end) {
			end = t
		}
		ok = true
	}
	return start, end, ok, nil
}

// buildLookup maps canonical keys to observed points, last write wins
// on duplicates. Canonicalizing the join key lets a loosely formatted
// upstream key ("2025-W1", or a daily-shaped key in a weekly series)
// still land in its generated bucket; the stored point itself is left
// untouched. Keys that do not parse keep their raw form and simply
// never match a generated key.
func buildLookup(observed []DataPoint, period Period) map[string]DataPoint {
	lookup := make(map[string]DataPoint, len(observed))
	for _, p := range observed {
		key := p.Key
		if t, _, err := ParseKey(p.Key, period); err == nil {
			if canon, ferr := FormatKey(t, period); ferr == nil {
				key = canon
			}
		}
		lookup[key] = p
	}
	return lookup
}
