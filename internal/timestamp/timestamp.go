// Package timestamp turns the many time representations handed over by feeds,
// REST APIs and market-data endpoints into one canonical UTC string.
package timestamp

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Layout is the canonical output shape. Lexicographic order on it equals
// chronological order.
const Layout = "2006-01-02T15:04:05Z"

// EpochSentinel is the placeholder callers use for records whose time could
// not be recovered. It sorts before every real reading.
const EpochSentinel = "1970-01-01T00:00:00Z"

// millisThreshold separates epoch seconds from epoch milliseconds.
const millisThreshold = 1e11

var ErrUnparseable = errors.New("unparseable timestamp")

var (
	minInstant = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxInstant = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
)

// Calendar holds broken-down UTC wall-clock fields. Weekday, YearDay and
// IsDST are carried for completeness and ignored.
type Calendar struct {
	Year    int
	Month   int
	Day     int
	Hour    int
	Minute  int
	Second  int
	Weekday int
	YearDay int
	IsDST   int
}

// Normalize converts v into the canonical UTC string. Supported inputs are
// numeric epochs (seconds, or milliseconds above 1e11 in magnitude), strings
// in one of the known layouts, Calendar values and time.Time.
func Normalize(v any) (string, error) {
	t, err := instant(v)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

// NormalizeOr returns fallback instead of an error.
func NormalizeOr(v any, fallback string) string {
	s, err := Normalize(v)
	if err != nil {
		return fallback
	}
	return s
}

// instant is Normalize without the final formatting step. The returned time
// is in UTC and truncated to whole seconds.
func instant(v any) (time.Time, error) {
	var (
		t   time.Time
		err error
	)
	switch x := v.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("%w: nil input", ErrUnparseable)
	case string:
		t, err = fromString(x)
	case []byte:
		t, err = fromString(string(x))
	case json.Number:
		t, err = fromString(x.String())
	case Calendar:
		t, err = fromCalendar(x)
	case *Calendar:
		if x == nil {
			return time.Time{}, fmt.Errorf("%w: nil calendar", ErrUnparseable)
		}
		t, err = fromCalendar(*x)
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return time.Time{}, fmt.Errorf("%w: nil time", ErrUnparseable)
		}
		t = *x
	case int:
		t, err = fromInt(int64(x))
	case int8:
		t, err = fromInt(int64(x))
	case int16:
		t, err = fromInt(int64(x))
	case int32:
		t, err = fromInt(int64(x))
	case int64:
		t, err = fromInt(x)
	case uint:
		t, err = fromFloat(float64(x))
	case uint8:
		t, err = fromInt(int64(x))
	case uint16:
		t, err = fromInt(int64(x))
	case uint32:
		t, err = fromInt(int64(x))
	case uint64:
		t, err = fromFloat(float64(x))
	case float32:
		t, err = fromFloat(float64(x))
	case float64:
		t, err = fromFloat(x)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrUnparseable, v)
	}
	if err != nil {
		return time.Time{}, err
	}
	return bound(t)
}

func bound(t time.Time) (time.Time, error) {
	t = t.UTC().Truncate(time.Second)
	if t.Before(minInstant) || t.After(maxInstant) {
		return time.Time{}, fmt.Errorf("%w: %s out of range", ErrUnparseable, t.Format(time.RFC3339))
	}
	return t, nil
}

func fromInt(n int64) (time.Time, error) {
	if math.Abs(float64(n)) > millisThreshold {
		// Floor division keeps pre-epoch millisecond values on the earlier second.
		sec := n / 1000
		if n%1000 < 0 {
			sec--
		}
		return time.Unix(sec, 0), nil
	}
	return time.Unix(n, 0), nil
}

func fromFloat(f float64) (time.Time, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseable, f)
	}
	if math.Abs(f) > millisThreshold {
		f /= 1000
	}
	// Anything past ±maxSeconds is outside years 1..9999 anyway.
	const maxSeconds = 3e11
	if math.Abs(f) > maxSeconds {
		return time.Time{}, fmt.Errorf("%w: %v out of range", ErrUnparseable, f)
	}
	sec := math.Floor(f)
	return time.Unix(int64(sec), 0), nil
}

func fromCalendar(c Calendar) (time.Time, error) {
	if c.Year < 1 || c.Year > 9999 {
		return time.Time{}, fmt.Errorf("%w: calendar year %d", ErrUnparseable, c.Year)
	}
	if c.Month < 1 || c.Month > 12 {
		return time.Time{}, fmt.Errorf("%w: calendar month %d", ErrUnparseable, c.Month)
	}
	return time.Date(c.Year, time.Month(c.Month), c.Day, c.Hour, c.Minute, c.Second, 0, time.UTC), nil
}

func fromString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty string", ErrUnparseable)
	}
	for _, l := range layouts {
		if t, ok := l.parse(s); ok {
			return t, nil
		}
	}
	if isDigits(s) {
		if len(s) > 18 {
			return time.Time{}, fmt.Errorf("%w: numeric string %q too long", ErrUnparseable, s)
		}
		var n int64
		for _, r := range s {
			n = n*10 + int64(r-'0')
		}
		return fromInt(n)
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
