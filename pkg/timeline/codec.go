package timeline

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Key patterns per period. Week numbers may arrive unpadded from
// upstream producers; FormatKey always emits the canonical zero-padded
// form.
var (
	dailyKeyRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	weeklyKeyRe  = regexp.MustCompile(`^(\d{4})-W(\d{1,2})$`)
	monthlyKeyRe = regexp.MustCompile(`^\d{4}-\d{2}$`)
	yearlyKeyRe  = regexp.MustCompile(`^\d{4}$`)
)

const (
	dailyLayout   = "2006-01-02"
	monthlyLayout = "2006-01"
	yearlyLayout  = "2006"
)

// ParseKey resolves a period key to the UTC midnight instant at the
// start of its bucket. All parsing is pinned to UTC; local-time
// parsing drifts across environments.
//
// A weekly key resolves to the Monday of its ISO week, anchored on the
// ISO-8601 rule that January 4 is always in week 1. A daily-shaped key
// under the weekly period is accepted as a degraded recovery for a
// known upstream bug and flagged through the fallback return; callers
// should log it rather than fail.
func ParseKey(key string, period Period) (t time.Time, fallback bool, err error) {
	switch period {
	case Daily:
		t, err = parseUTC(dailyLayout, key, dailyKeyRe, "YYYY-MM-DD")
		return t, false, err
	case Weekly:
		if m := weeklyKeyRe.FindStringSubmatch(key); m != nil {
			year, _ := strconv.Atoi(m[1])
			week, _ := strconv.Atoi(m[2])
			if week < 1 || week > 53 {
				return time.Time{}, false, &KeyError{Key: key, Pattern: "YYYY-Www with week 1-53"}
			}
			return isoWeekStart(year, week), false, nil
		}
		if t, derr := parseUTC(dailyLayout, key, dailyKeyRe, "YYYY-MM-DD"); derr == nil {
			return t, true, nil
		}
		return time.Time{}, false, &KeyError{Key: key, Pattern: "YYYY-Www"}
	case Monthly:
		t, err = parseUTC(monthlyLayout, key, monthlyKeyRe, "YYYY-MM")
		return t, false, err
	case Yearly:
		t, err = parseUTC(yearlyLayout, key, yearlyKeyRe, "YYYY")
		return t, false, err
	}
	return time.Time{}, false, &PeriodError{Period: period}
}

func parseUTC(layout, key string, re *regexp.Regexp, pattern string) (time.Time, error) {
	if !re.MatchString(key) {
		return time.Time{}, &KeyError{Key: key, Pattern: pattern}
	}
	t, err := time.ParseInLocation(layout, key, time.UTC)
	if err != nil {
		// Shape matched but a field is out of range (month 13, day 32).
		return time.Time{}, &KeyError{Key: key, Pattern: pattern}
	}
	return t, nil
}

// isoWeekStart returns the Monday of the given ISO week.
func isoWeekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -(isoWeekday(jan4) - 1))
	return monday.AddDate(0, 0, (week-1)*7)
}

// isoWeekday numbers Monday=1 through Sunday=7.
func isoWeekday(t time.Time) int {
	if wd := int(t.Weekday()); wd != 0 {
		return wd
	}
	return 7
}

// FormatKey renders the canonical key for the bucket containing t.
// Weekly keys recompute the ISO week-year of the instant itself, so
// format(parse(k)) round-trips a loosely formatted key ("2025-W1") to
// its canonical form ("2025-W01").
func FormatKey(t time.Time, period Period) (string, error) {
	t = t.UTC()
	switch period {
	case Daily:
		return t.Format(dailyLayout), nil
	case Weekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case Monthly:
		return t.Format(monthlyLayout), nil
	case Yearly:
		return t.Format(yearlyLayout), nil
	}
	return "", &PeriodError{Period: period}
}

// AddPeriods advances t by count whole periods; negative counts move
// backward. Month and year steps clamp to the last valid day of the
// target month, so Jan 31 + 1 month is Feb 28 (29 in leap years),
// never a rollover into March. The clamp applies once per call against
// the original day of month.
func AddPeriods(t time.Time, period Period, count int) (time.Time, error) {
	t = t.UTC()
	switch period {
	case Daily:
		return t.AddDate(0, 0, count), nil
	case Weekly:
		return t.AddDate(0, 0, 7*count), nil
	case Monthly:
		return addMonthsClamped(t, count), nil
	case Yearly:
		return addMonthsClamped(t, 12*count), nil
	}
	return time.Time{}, &PeriodError{Period: period}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// time.Date normalizes out-of-range months, carrying into the year.
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
