package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"market-mood/internal/domain"
	"market-mood/internal/provider"

	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type stubFeeds struct {
	byName map[string][]domain.Article
	fail   map[string]bool
}

func (s *stubFeeds) FetchFeed(ctx context.Context, src provider.FeedSource) ([]domain.Article, error) {
	if s.fail[src.Name] {
		return nil, errors.New("timeout")
	}
	return s.byName[src.Name], nil
}

type stubNews struct {
	enabled  bool
	articles []domain.Article
	err      error
}

func (s *stubNews) Enabled() bool { return s.enabled }

func (s *stubNews) FetchEverything(ctx context.Context) ([]domain.Article, error) {
	return s.articles, s.err
}

type stubVIX struct {
	reading *domain.VIXReading
	err     error
}

func (s *stubVIX) FetchLatest(ctx context.Context) (*domain.VIXReading, error) {
	return s.reading, s.err
}

func article(link, published string) domain.Article {
	return domain.Article{Title: link, Link: link, Summary: "N/A", Source: "test", PublishedUTC: published}
}

func TestRunMergesSourcesAndRecordsErrors(t *testing.T) {
	feeds := []provider.FeedSource{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	fetcher := &stubFeeds{
		byName: map[string][]domain.Article{
			"A": {article("https://www.reuters.com/x?utm=1", "2024-01-01T10:00:00Z")},
			"C": {article("http://reuters.com/x/", "2024-01-02T10:00:00Z"), article("https://cnbc.com/y", "2024-01-03T10:00:00Z")},
		},
		fail: map[string]bool{"B": true},
	}
	news := &stubNews{enabled: true, articles: []domain.Article{article("https://wsj.com/z", "1970-01-01T00:00:00Z")}}
	vix := &stubVIX{reading: &domain.VIXReading{Value: 17.3, TimestampUTC: "2024-01-03T21:00:00Z"}}

	s := New(testTracer, feeds, fetcher, news, vix, 250)
	s.now = func() time.Time { return time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC) }

	snap, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.GeneratedUTC != "2024-01-04T00:00:00Z" {
		t.Errorf("generated = %q", snap.GeneratedUTC)
	}
	if len(snap.Articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(snap.Articles))
	}
	// First seen wins for duplicate links.
	wantLinks := []string{"https://cnbc.com/y", "https://www.reuters.com/x?utm=1", "https://wsj.com/z"}
	for i, want := range wantLinks {
		if snap.Articles[i].Link != want {
			t.Errorf("article %d link = %q, want %q", i, snap.Articles[i].Link, want)
		}
	}
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], "B:") {
		t.Errorf("expected one error for feed B, got %v", snap.Errors)
	}
	if snap.VIX == nil || snap.VIX.Value != 17.3 {
		t.Errorf("expected VIX 17.3, got %+v", snap.VIX)
	}
}

func TestRunSkipsDisabledNewsAPI(t *testing.T) {
	news := &stubNews{enabled: false, err: errors.New("should not be called")}
	s := New(testTracer, nil, &stubFeeds{}, news, &stubVIX{reading: &domain.VIXReading{Value: 12}}, 0)

	snap, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Errors) != 0 || len(snap.Articles) != 0 {
		t.Fatalf("expected empty snapshot, got errors=%v articles=%d", snap.Errors, len(snap.Articles))
	}
}

func TestRunVIXOnlyStillSucceeds(t *testing.T) {
	s := New(testTracer, []provider.FeedSource{{Name: "A"}}, &stubFeeds{fail: map[string]bool{"A": true}}, nil,
		&stubVIX{reading: &domain.VIXReading{Value: 30}}, 10)

	snap, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Succeeded() || len(snap.Errors) != 1 {
		t.Fatalf("expected success with one feed error, got %+v", snap)
	}
}

func TestRunFailsWhenNothingCollected(t *testing.T) {
	s := New(testTracer, []provider.FeedSource{{Name: "A"}}, &stubFeeds{fail: map[string]bool{"A": true}},
		&stubNews{enabled: true, err: errors.New("401")}, &stubVIX{err: errors.New("down")}, 10)

	snap, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error when every source fails")
	}
	if len(snap.Errors) != 3 || snap.Succeeded() {
		t.Fatalf("expected 3 errors and no success, got %v", snap.Errors)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := New(testTracer, []provider.FeedSource{{Name: "A"}}, &stubFeeds{}, nil, nil, 10)

	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestArrangeCapsNewestFirst(t *testing.T) {
	var articles []domain.Article
	for i := 0; i < 300; i++ {
		articles = append(articles, article(fmt.Sprintf("https://example.com/%d", i),
			time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC).Format("2006-01-02T15:04:05Z")))
	}

	got := Arrange(articles, 250)
	if len(got) != 250 {
		t.Fatalf("expected 250 articles, got %d", len(got))
	}
	if got[0].Link != "https://example.com/299" {
		t.Errorf("expected newest first, got %q", got[0].Link)
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].PublishedUTC < got[i].PublishedUTC {
			t.Fatalf("not sorted newest first at %d: %s < %s", i, got[i-1].PublishedUTC, got[i].PublishedUTC)
		}
	}
}

func TestArrangeSkipsEmptyLinks(t *testing.T) {
	got := Arrange([]domain.Article{article("", "2024-01-01T00:00:00Z"), article("https://a.com", "2024-01-01T00:00:00Z")}, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := map[string]string{
		"https://www.Reuters.com/markets/story/?id=4#top": "reuters.com/markets/story",
		"http://reuters.com/markets/story":                "reuters.com/markets/story",
		"  HTTPS://CNBC.com/  ":                           "cnbc.com",
		"www.example.com/path?x=1":                        "example.com/path",
		"":                                                "",
	}
	for in, want := range cases {
		if got := NormalizeURL(in); got != want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}
