package provider

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"market-mood/internal/domain"
	"market-mood/internal/htmlclean"
	"market-mood/internal/timestamp"

	"github.com/mmcdole/gofeed"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type getter interface {
	Get(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// FeedProvider turns RSS and Atom feeds into articles.
type FeedProvider struct {
	fetcher  getter
	parser   *gofeed.Parser
	cleaner  htmlclean.Cleaner
	tracer   trace.Tracer
	maxItems int
}

func NewFeedProvider(tracer trace.Tracer, fetcher getter, cleaner htmlclean.Cleaner, maxItems int) *FeedProvider {
	if maxItems <= 0 {
		maxItems = 20
	}
	if cleaner == nil {
		cleaner = htmlclean.NewStructural()
	}
	return &FeedProvider{
		fetcher:  fetcher,
		parser:   gofeed.NewParser(),
		cleaner:  cleaner,
		tracer:   tracer,
		maxItems: maxItems,
	}
}

func (p *FeedProvider) FetchFeed(ctx context.Context, src FeedSource) ([]domain.Article, error) {
	ctx, span := p.tracer.Start(ctx, "rss.fetch-feed")
	defer span.End()
	span.SetAttributes(attribute.String("feed.name", src.Name))

	body, err := p.fetcher.Get(ctx, src.URL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, err
	}
	return p.parse(src, body)
}

func (p *FeedProvider) parse(src FeedSource, body []byte) ([]domain.Article, error) {
	feed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	articles := make([]domain.Article, 0, min(p.maxItems, len(feed.Items)))
	for _, item := range feed.Items {
		if len(articles) >= p.maxItems {
			break
		}
		if item == nil {
			continue
		}
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		if src.IsGoogleNews() {
			title = stripPublisherSuffix(title)
		}

		summary := item.Description
		if strings.TrimSpace(summary) == "" {
			summary = item.Content
		}

		articles = append(articles, domain.Article{
			Title:        title,
			Link:         link,
			Summary:      p.cleaner.Clean(summary),
			Source:       src.Name,
			PublishedUTC: itemTimestamp(item),
		})
	}
	return articles, nil
}

// itemTimestamp prefers the parsed times gofeed hands over and falls back to
// the raw strings, which gofeed leaves untouched when its own parse fails.
func itemTimestamp(item *gofeed.Item) string {
	candidates := []any{}
	if item.PublishedParsed != nil {
		candidates = append(candidates, item.PublishedParsed)
	}
	if item.UpdatedParsed != nil {
		candidates = append(candidates, item.UpdatedParsed)
	}
	candidates = append(candidates, item.Published, item.Updated)

	for _, c := range candidates {
		if s, err := timestamp.Normalize(c); err == nil {
			return s
		}
	}
	return timestamp.EpochSentinel
}

func stripPublisherSuffix(title string) string {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return title
	}
	return strings.TrimSpace(title[:idx])
}
