package timeline

import "time"

// GenerateKeys returns every period key from start through end
// inclusive, ascending and duplicate-free. The start instant is
// snapped back to its period boundary (Monday, first of month,
// January 1) before the first emission, so the first key always covers
// start. A start after end yields an empty, non-error result.
//
// Ranges are bounded calendar spans, at most a few thousand entries
// even for decade-long daily series, so the result is materialized
// eagerly.
func GenerateKeys(start, end time.Time, period Period) ([]string, error) {
	cur, err := periodStart(start, period)
	if err != nil {
		return nil, err
	}
	end = end.UTC()

	var keys []string
	for !cur.After(end) {
		key, err := FormatKey(cur, period)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		if cur, err = AddPeriods(cur, period, 1); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// periodStart snaps t back to the canonical boundary of the bucket
// containing it.
func periodStart(t time.Time, period Period) (time.Time, error) {
	t = t.UTC()
	year, month, day := t.Date()
	switch period {
	case Daily:
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
	case Weekly:
		midnight := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		return midnight.AddDate(0, 0, -(isoWeekday(midnight) - 1)), nil
	case Monthly:
		return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC), nil
	case Yearly:
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, &PeriodError{Period: period}
}
