// Package scraper gathers one snapshot of market news and volatility.
package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"market-mood/internal/domain"
	"market-mood/internal/provider"
	"market-mood/internal/timestamp"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type FeedFetcher interface {
	FetchFeed(ctx context.Context, src provider.FeedSource) ([]domain.Article, error)
}

type NewsFetcher interface {
	Enabled() bool
	FetchEverything(ctx context.Context) ([]domain.Article, error)
}

type VIXFetcher interface {
	FetchLatest(ctx context.Context) (*domain.VIXReading, error)
}

type Scraper struct {
	tracer      trace.Tracer
	feeds       []provider.FeedSource
	feed        FeedFetcher
	news        NewsFetcher
	vix         VIXFetcher
	maxArticles int
	now         func() time.Time
}

func New(tracer trace.Tracer, feeds []provider.FeedSource, feed FeedFetcher, news NewsFetcher, vix VIXFetcher, maxArticles int) *Scraper {
	if maxArticles <= 0 {
		maxArticles = 250
	}
	return &Scraper{
		tracer:      tracer,
		feeds:       feeds,
		feed:        feed,
		news:        news,
		vix:         vix,
		maxArticles: maxArticles,
		now:         time.Now,
	}
}

// Run collects every source in turn. A failing source is recorded in
// Snapshot.Errors and the run moves on; an error is returned only when the
// snapshot ends up with neither articles nor a VIX reading.
func (s *Scraper) Run(ctx context.Context) (domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "scraper.run")
	defer span.End()

	snap := domain.Snapshot{
		GeneratedUTC: timestamp.NormalizeOr(s.now(), timestamp.EpochSentinel),
	}

	var collected []domain.Article
	for _, src := range s.feeds {
		if err := ctx.Err(); err != nil {
			return snap, err
		}
		articles, err := s.feed.FetchFeed(ctx, src)
		if err != nil {
			log.Printf("feed %s failed: %v", src.Name, err)
			snap.Errors = append(snap.Errors, fmt.Sprintf("%s: %v", src.Name, err))
			continue
		}
		log.Printf("Fetched %d articles from %s", len(articles), src.Name)
		collected = append(collected, articles...)
	}

	if s.news != nil && s.news.Enabled() {
		articles, err := s.news.FetchEverything(ctx)
		if err != nil {
			log.Printf("newsapi failed: %v", err)
			snap.Errors = append(snap.Errors, fmt.Sprintf("NewsAPI: %v", err))
		} else {
			log.Printf("Fetched %d articles from NewsAPI", len(articles))
			collected = append(collected, articles...)
		}
	}

	if s.vix != nil {
		reading, err := s.vix.FetchLatest(ctx)
		if err != nil {
			log.Printf("vix fetch failed: %v", err)
			snap.Errors = append(snap.Errors, fmt.Sprintf("VIX: %v", err))
		} else {
			snap.VIX = reading
		}
	}

	snap.Articles = Arrange(collected, s.maxArticles)
	span.SetAttributes(
		attribute.Int("scraper.articles", len(snap.Articles)),
		attribute.Int("scraper.errors", len(snap.Errors)),
	)

	if !snap.Succeeded() {
		return snap, fmt.Errorf("scrape produced no articles and no vix reading (%d source errors)", len(snap.Errors))
	}
	log.Printf("Scrape complete: %d unique articles, %d source errors", len(snap.Articles), len(snap.Errors))
	return snap, nil
}

// Arrange drops duplicate links, orders newest first and keeps at most limit
// articles. Canonical timestamps sort chronologically as plain strings.
func Arrange(articles []domain.Article, limit int) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	unique := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		key := NormalizeURL(a.Link)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, a)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PublishedUTC > unique[j].PublishedUTC
	})
	if limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

// NormalizeURL reduces a link to host and path so the same story reached
// through different schemes, tracking parameters or a www prefix compares
// equal.
func NormalizeURL(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ""
	}
	if u, err := url.Parse(raw); err == nil && u.Host != "" {
		raw = u.Host + u.Path
	} else {
		if i := strings.Index(raw, "://"); i >= 0 {
			raw = raw[i+3:]
		}
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			raw = raw[:i]
		}
	}
	raw = strings.TrimPrefix(raw, "www.")
	return strings.TrimRight(raw, "/")
}
