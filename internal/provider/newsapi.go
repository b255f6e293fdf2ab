package provider

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"market-mood/internal/domain"
	"market-mood/internal/htmlclean"
	"market-mood/internal/timestamp"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	newsAPIBaseURL    = "https://newsapi.org"
	newsAPIQuery      = "(finance OR stock market OR economy OR investing OR earnings OR fed OR rates) AND (market OR stocks OR business)"
	newsAPISources    = "bloomberg,reuters,the-wall-street-journal,financial-post,cnbc,business-insider,fortune,associated-press"
	newsAPIPageSize   = 50
	newsAPILookback   = 48 * time.Hour
	newsSummaryMaxLen = 500
)

type NewsAPIProvider struct {
	fetcher  getter
	cleaner  htmlclean.Cleaner
	tracer   trace.Tracer
	apiKey   string
	baseURL  string
	maxPages int
	now      func() time.Time
}

func NewNewsAPIProvider(tracer trace.Tracer, fetcher getter, cleaner htmlclean.Cleaner, apiKey string, maxPages int) *NewsAPIProvider {
	if maxPages <= 0 {
		maxPages = 3
	}
	if cleaner == nil {
		cleaner = htmlclean.NewStructural()
	}
	return &NewsAPIProvider{
		fetcher:  fetcher,
		cleaner:  cleaner,
		tracer:   tracer,
		apiKey:   strings.TrimSpace(apiKey),
		baseURL:  newsAPIBaseURL,
		maxPages: maxPages,
		now:      time.Now,
	}
}

func (p *NewsAPIProvider) Enabled() bool {
	return p != nil && p.apiKey != ""
}

// FetchEverything pages through /v2/everything. A failure after the first
// page keeps what was already collected.
func (p *NewsAPIProvider) FetchEverything(ctx context.Context) ([]domain.Article, error) {
	ctx, span := p.tracer.Start(ctx, "newsapi.fetch-everything")
	defer span.End()

	if !p.Enabled() {
		return nil, fmt.Errorf("newsapi key not configured")
	}

	from := p.now().UTC().Add(-newsAPILookback).Format("2006-01-02")
	var articles []domain.Article
	for page := 1; page <= p.maxPages; page++ {
		body, err := p.fetcher.Get(ctx, p.pageURL(page, from), map[string]string{
			"Accept":    "application/json",
			"X-Api-Key": p.apiKey,
		})
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.Printf("newsapi page %d failed, keeping %d articles: %v", page, len(articles), err)
			break
		}

		batch, total, err := parseNewsAPIPage(body, p.cleaner)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.Printf("newsapi page %d unreadable: %v", page, err)
			break
		}
		articles = append(articles, batch...)
		if len(batch) == 0 || page*newsAPIPageSize >= total {
			break
		}
	}

	span.SetAttributes(attribute.Int("newsapi.articles", len(articles)))
	return articles, nil
}

func (p *NewsAPIProvider) pageURL(page int, from string) string {
	q := url.Values{}
	q.Set("q", newsAPIQuery)
	q.Set("sources", newsAPISources)
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(newsAPIPageSize))
	q.Set("page", strconv.Itoa(page))
	q.Set("from", from)
	return strings.TrimRight(p.baseURL, "/") + "/v2/everything?" + q.Encode()
}

func parseNewsAPIPage(body []byte, cleaner htmlclean.Cleaner) ([]domain.Article, int, error) {
	if !gjson.ValidBytes(body) {
		return nil, 0, fmt.Errorf("decode newsapi response: invalid json")
	}
	root := gjson.ParseBytes(body)
	if status := root.Get("status").String(); status != "ok" {
		return nil, 0, fmt.Errorf("newsapi status %q: %s", status, root.Get("message").String())
	}

	var articles []domain.Article
	root.Get("articles").ForEach(func(_, a gjson.Result) bool {
		title := strings.TrimSpace(a.Get("title").String())
		link := strings.TrimSpace(a.Get("url").String())
		if title == "" || link == "" || title == "[Removed]" {
			return true
		}
		summary := cleaner.Clean(a.Get("description").String())
		articles = append(articles, domain.Article{
			Title:        title,
			Link:         link,
			Summary:      truncate(summary, newsSummaryMaxLen),
			Source:       "NewsAPI: " + strings.TrimSpace(a.Get("source.name").String()),
			PublishedUTC: timestamp.NormalizeOr(a.Get("publishedAt").String(), timestamp.EpochSentinel),
		})
		return true
	})
	return articles, int(root.Get("totalResults").Int()), nil
}
