package domain

import (
	"time"
)

// Calendar math in this package is day-granular and time-zone-naive: every
// instant is normalized to local midnight before comparison, so two times on
// the same calendar day are always treated as equal regardless of hour.

// DayStart returns t normalized to local midnight.
func DayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey returns a comparable key for the calendar day of t (unix seconds of
// local midnight). Used for set membership and map keys.
func DayKey(t time.Time) int64 {
	return DayStart(t).Unix()
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DayKey(a) == DayKey(b)
}

// BeforeDay reports whether a falls on an earlier calendar day than b.
func BeforeDay(a, b time.Time) bool {
	return DayKey(a) < DayKey(b)
}

// AfterDay reports whether a falls on a later calendar day than b.
func AfterDay(a, b time.Time) bool {
	return DayKey(a) > DayKey(b)
}

// EnumerateDays returns every calendar day from start to end INCLUSIVE, each at
// local midnight. Slots store an exclusive end, so callers iterating a slot
// must pass end minus one day. Returns nil when end is before start.
func EnumerateDays(start, end time.Time) []time.Time {
	from := DayStart(start)
	to := DayStart(end)
	if to.Before(from) {
		return nil
	}
	var days []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// MonthKey returns the cache key for the month containing t, e.g. "2025-06".
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// MonthWindow returns the first and last calendar day of the month containing
// anchor, both at local midnight. The last day is inclusive.
func MonthWindow(anchor time.Time) (first, last time.Time) {
	y, m, _ := anchor.Date()
	first = time.Date(y, m, 1, 0, 0, 0, 0, anchor.Location())
	last = first.AddDate(0, 1, -1)
	return first, last
}

// Timestamp is the document-store wire shape for an instant, as produced by
// backends that serialize times as {seconds, nanos} objects.
type Timestamp struct {
	Seconds int64 `json:"seconds"`
	Nanos   int64 `json:"nanos"`
}

// ParseDateInput normalizes the loosely-typed date representations accepted at
// the API boundary: a native time, an ISO-8601 string (with or without a time
// component), an epoch seconds or milliseconds number, or a Timestamp object
// (possibly decoded into a map). Anything else, or any value producing an
// invalid date, yields ok=false rather than an error.
func ParseDateInput(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		if t, err := time.Parse(time.RFC3339, x); err == nil {
			return t, true
		}
		if t, err := time.ParseInLocation("2006-01-02", x, time.Local); err == nil {
			return t, true
		}
		return time.Time{}, false
	case Timestamp:
		return timeFromEpoch(x.Seconds, x.Nanos)
	case *Timestamp:
		if x == nil {
			return time.Time{}, false
		}
		return timeFromEpoch(x.Seconds, x.Nanos)
	case float64:
		return timeFromEpochNumber(x)
	case int64:
		return timeFromEpochNumber(float64(x))
	case int:
		return timeFromEpochNumber(float64(x))
	case map[string]any:
		// Timestamp object that went through generic JSON decoding.
		secs, ok := x["seconds"].(float64)
		if !ok {
			return time.Time{}, false
		}
		nanos, _ := x["nanos"].(float64)
		return timeFromEpoch(int64(secs), int64(nanos))
	default:
		return time.Time{}, false
	}
}

// epochMillisCutoff separates epoch-seconds from epoch-milliseconds values.
// Anything above it is read as milliseconds.
const epochMillisCutoff = 1e11

func timeFromEpochNumber(n float64) (time.Time, bool) {
	if n <= 0 {
		return time.Time{}, false
	}
	if n >= epochMillisCutoff {
		return time.UnixMilli(int64(n)), true
	}
	return time.Unix(int64(n), 0), true
}

func timeFromEpoch(seconds, nanos int64) (time.Time, bool) {
	if seconds <= 0 {
		return time.Time{}, false
	}
	return time.Unix(seconds, nanos), true
}
