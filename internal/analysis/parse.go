package analysis

import (
	"regexp"
	"strings"
	"unicode"
)

// space is Unicode whitespace. Go's \s only covers ASCII, and models emit
// non-breaking and other exotic spaces around the marker.
const space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

var (
	indexPattern  = regexp.MustCompile(`(?is)FEAR AND GREED INDEX` + space + `*[:=]?` + space + `*(\p{Nd}{1,3})`)
	markerPattern = regexp.MustCompile(`(?i)FEAR AND GREED INDEX`)
	thinkClose    = regexp.MustCompile(`(?i)</think>` + space + `*`)
)

// Parsed is what survives of a model completion: the bounded index, when one
// was given, and the visible summary.
type Parsed struct {
	Index   *int   `json:"fear_greed"`
	Summary string `json:"summary_text"`
}

// ParseResponse extracts the FEAR AND GREED INDEX value and a cleaned summary
// from a completion. It never fails. The marker is scrubbed from the summary
// even when its value is missing or out of range, and any reasoning block
// closed by </think> is dropped.
func ParseResponse(text string) Parsed {
	var out Parsed
	rest := text

	if loc := indexPattern.FindStringSubmatchIndex(rest); loc != nil {
		if n, ok := decimalValue(rest[loc[2]:loc[3]]); ok && n >= 0 && n <= 100 {
			out.Index = &n
		}
		rest = joinAround(rest[:loc[0]], rest[loc[1]:])
	} else if loc := markerPattern.FindStringIndex(rest); loc != nil {
		rest = rest[:loc[0]]
	}

	if loc := thinkClose.FindStringIndex(rest); loc != nil {
		rest = rest[loc[1]:]
	}
	out.Summary = strings.TrimSpace(rest)
	return out
}

func joinAround(before, after string) string {
	before = strings.TrimRightFunc(before, unicode.IsSpace)
	after = strings.TrimLeftFunc(after, unicode.IsSpace)
	switch {
	case before != "" && after != "":
		return before + "\n" + after
	case before != "":
		return before
	default:
		return after
	}
}

// decimalValue reads a run of decimal digits from any script.
func decimalValue(s string) (int, bool) {
	n := 0
	for _, r := range s {
		d, ok := digitValue(r)
		if !ok {
			return 0, false
		}
		n = n*10 + d
	}
	return n, s != ""
}

// digitValue relies on decimal digits being encoded as contiguous runs
// starting at zero, which is how every range of unicode.Digit is laid out.
func digitValue(r rune) (int, bool) {
	if r >= '0' && r <= '9' {
		return int(r - '0'), true
	}
	for _, rg := range unicode.Digit.R16 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) && rg.Stride == 1 {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	for _, rg := range unicode.Digit.R32 {
		if r >= rune(rg.Lo) && r <= rune(rg.Hi) && rg.Stride == 1 {
			return int(r-rune(rg.Lo)) % 10, true
		}
	}
	return 0, false
}
