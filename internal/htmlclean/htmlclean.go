// Package htmlclean reduces feed summaries to plain text.
package htmlclean

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Empty is returned for blank input so callers never store an empty summary.
const Empty = "N/A"

var tagPattern = regexp.MustCompile(`<[^<]+?>`)

type Cleaner interface {
	Clean(raw string) string
}

// Regex strips anything tag-shaped. It is the fallback when a structural
// parse is not possible.
type Regex struct{}

func (Regex) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return Empty
	}
	text := raw
	if hasMarkup(raw) {
		text = strings.Join(strings.Fields(tagPattern.ReplaceAllString(raw, " ")), " ")
	}
	return strings.TrimSpace(html.UnescapeString(text))
}

// Structural walks the parsed document and joins its text nodes, so content
// split across tags keeps its word boundaries.
type Structural struct {
	Fallback Cleaner
}

func NewStructural() Structural {
	return Structural{Fallback: Regex{}}
}

func (s Structural) Clean(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return Empty
	}
	if !hasMarkup(raw) {
		return strings.TrimSpace(html.UnescapeString(raw))
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return s.fallback().Clean(raw)
	}
	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("body").Contents().Each(func(_ int, sel *goquery.Selection) {
		collectText(sel, &parts)
	})
	// Text nodes are already entity-decoded by the parser.
	return strings.TrimSpace(strings.Join(parts, " "))
}

func (s Structural) fallback() Cleaner {
	if s.Fallback != nil {
		return s.Fallback
	}
	return Regex{}
}

func collectText(sel *goquery.Selection, parts *[]string) {
	if goquery.NodeName(sel) == "#text" {
		if fields := strings.Fields(sel.Text()); len(fields) > 0 {
			*parts = append(*parts, strings.Join(fields, " "))
		}
		return
	}
	sel.Contents().Each(func(_ int, child *goquery.Selection) {
		collectText(child, parts)
	})
}

func hasMarkup(s string) bool {
	return strings.Contains(s, "<") && strings.Contains(s, ">")
}
