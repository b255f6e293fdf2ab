package htmlclean

import "testing"

func TestCleanersAgreeOnCommonMarkup(t *testing.T) {
	cases := map[string]struct{ in, want string }{
		"paragraph":      {"<p>Stocks <b>rallied</b> today</p>", "Stocks rallied today"},
		"entities":       {"<div>S&amp;P 500 &gt; 5,000</div>", "S&P 500 > 5,000"},
		"nested":         {"<ul><li>One</li><li>Two</li></ul>", "One Two"},
		"attributes":     {`<a href="https://example.com/x">Read more</a> at the site`, "Read more at the site"},
		"trailing space": {"  <span>Trim me</span>  ", "Trim me"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := NewStructural().Clean(tc.in); got != tc.want {
				t.Errorf("structural: got %q, want %q", got, tc.want)
			}
			if got := (Regex{}).Clean(tc.in); got != tc.want {
				t.Errorf("regex: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCleanEmptyInput(t *testing.T) {
	for _, c := range []Cleaner{NewStructural(), Regex{}} {
		if got := c.Clean(""); got != Empty {
			t.Errorf("%T: empty input gave %q", c, got)
		}
		if got := c.Clean("   \n"); got != Empty {
			t.Errorf("%T: blank input gave %q", c, got)
		}
	}
}

func TestCleanPlainTextOnlyUnescapes(t *testing.T) {
	for _, c := range []Cleaner{NewStructural(), Regex{}} {
		if got := c.Clean(" Q&amp;A with   the Fed "); got != "Q&A with   the Fed" {
			t.Errorf("%T: got %q", c, got)
		}
	}
}

func TestStructuralDropsScripts(t *testing.T) {
	if got := NewStructural().Clean(`<p>Visible</p><script>var hidden = 1;</script>`); got != "Visible" {
		t.Fatalf("expected script body dropped, got %q", got)
	}
}

type recordingCleaner struct{ calls int }

func (r *recordingCleaner) Clean(raw string) string {
	r.calls++
	return "fallback"
}

func TestStructuralZeroValueUsesRegexFallback(t *testing.T) {
	var s Structural
	if s.fallback() != (Regex{}) {
		t.Fatalf("expected Regex fallback, got %T", s.fallback())
	}

	rec := &recordingCleaner{}
	s = Structural{Fallback: rec}
	if s.fallback() != rec {
		t.Fatalf("expected configured fallback, got %T", s.fallback())
	}
}
