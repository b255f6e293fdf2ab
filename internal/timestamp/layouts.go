package timestamp

import (
	"regexp"
	"strings"
	"time"
)

// fraction controls whether a layout needs fractional seconds right after the
// seconds field. Go accepts a fraction even when the layout omits it, so the
// flag is what keeps the table ordered the way it reads.
type fraction int

const (
	fractionRequired fraction = iota + 1
	fractionForbidden
)

// maxFractionDigits matches microsecond precision, the finest any source sends.
const maxFractionDigits = 6

// clockPattern finds HH:MM:SS and whatever fraction follows it. Go's parser
// takes a comma as a decimal mark too, so both are captured here.
var clockPattern = regexp.MustCompile(`\d{2}:\d{2}:\d{2}([.,]\d*)?`)

// layout is one slot of the table. A slot may carry several Go layouts for
// the same shape, e.g. an offset written with or without a colon; they are
// tried in order within the slot.
type layout struct {
	name     string
	values   []string
	fraction fraction
	named    bool
}

// layouts is tried top to bottom and the first successful parse wins.
var layouts = []layout{
	{
		name:     "iso-fraction-offset",
		values:   []string{"2006-01-02T15:04:05.999999Z07:00", "2006-01-02T15:04:05.999999Z0700"},
		fraction: fractionRequired,
	},
	{
		name:     "iso-offset",
		values:   []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05Z0700"},
		fraction: fractionForbidden,
	},
	{name: "iso-fraction-zulu", values: []string{"2006-01-02T15:04:05.999999Z"}, fraction: fractionRequired},
	{name: "iso-zulu", values: []string{"2006-01-02T15:04:05Z"}, fraction: fractionForbidden},
	{
		name:     "rfc1123-numeric",
		values:   []string{"Mon, 2 Jan 2006 15:04:05 Z0700", "Mon, 2 Jan 2006 15:04:05 Z07:00"},
		fraction: fractionForbidden,
	},
	{name: "rfc1123-named", values: []string{"Mon, 2 Jan 2006 15:04:05 MST"}, fraction: fractionForbidden, named: true},
	{name: "dash-naive", values: []string{"2006-01-02 15:04:05"}, fraction: fractionForbidden},
	{name: "slash-naive", values: []string{"2006/01/02 15:04:05"}, fraction: fractionForbidden},
}

// zoneOffsets resolves the abbreviations feeds actually emit. Any other name,
// including GMT+N style zones, is rejected: Go would parse it with a made-up
// zero offset and the instant would be wrong.
var zoneOffsets = map[string]int{
	"UTC": 0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

func (l layout) parse(s string) (time.Time, bool) {
	if !l.fractionOK(s) {
		return time.Time{}, false
	}

	var off int
	if l.named {
		fields := strings.Fields(s)
		if len(fields) == 0 {
			return time.Time{}, false
		}
		var known bool
		off, known = zoneOffsets[fields[len(fields)-1]]
		if !known {
			return time.Time{}, false
		}
	}

	for _, value := range l.values {
		t, err := time.ParseInLocation(value, s, time.UTC)
		if err != nil {
			continue
		}
		if l.named {
			wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
			return wall.Add(-time.Duration(off) * time.Second), true
		}
		return t, true
	}
	return time.Time{}, false
}

func (l layout) fractionOK(s string) bool {
	m := clockPattern.FindStringSubmatch(s)
	frac := ""
	if m != nil {
		frac = m[1]
	}
	switch l.fraction {
	case fractionRequired:
		digits := len(frac) - 1
		return strings.HasPrefix(frac, ".") && digits >= 1 && digits <= maxFractionDigits
	case fractionForbidden:
		return frac == ""
	}
	return true
}
