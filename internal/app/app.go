// Package app assembles the collaborators shared by the server and the CLI.
package app

import (
	"fmt"

	"market-mood/internal/alert"
	"market-mood/internal/analysis"
	"market-mood/internal/config"
	"market-mood/internal/htmlclean"
	"market-mood/internal/provider"
	"market-mood/internal/scraper"
	"market-mood/internal/service"

	"go.opentelemetry.io/otel/trace"
)

// Sources is the fetch side of a pipeline run.
type Sources struct {
	Scraper   *scraper.Scraper
	VIX       *provider.VIXProvider
	Benchmark *provider.FearGreedProvider
	Feeds     []provider.FeedSource
}

func NewSources(cfg *config.Config, tracer trace.Tracer) (Sources, error) {
	feeds, err := provider.LoadFeedCatalog(cfg.FeedsFile)
	if err != nil {
		return Sources{}, fmt.Errorf("feed catalog: %w", err)
	}

	fetcher := provider.NewFetcher(tracer, provider.FetchOptions{
		MaxRetries: cfg.FetchMaxRetries,
		RetryDelay: cfg.FetchRetryDelay,
		Timeout:    cfg.FetchTimeout,
		RatePerSec: cfg.FetchRatePerSec,
	})
	cleaner := htmlclean.NewStructural()

	feed := provider.NewFeedProvider(tracer, fetcher, cleaner, cfg.MaxArticlesPerFeed)
	news := provider.NewNewsAPIProvider(tracer, fetcher, cleaner, cfg.NewsAPIKey, cfg.NewsAPIMaxPages)
	vix := provider.NewVIXProvider(tracer, fetcher)

	return Sources{
		Scraper:   scraper.New(tracer, feeds, feed, news, vix, cfg.MaxTotalArticles),
		VIX:       vix,
		Benchmark: provider.NewFearGreedProvider(tracer, fetcher),
		Feeds:     feeds,
	}, nil
}

// NewAnalyst returns nil when no OpenAI key is configured so callers can
// leave the analysis step out.
func NewAnalyst(cfg *config.Config, tracer trace.Tracer) service.Analyst {
	if cfg.OpenAIAPIKey == "" {
		return nil
	}
	llm := analysis.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	return analysis.NewAnalyzer(tracer, llm, analysis.Options{
		Model:       cfg.OpenAIModel,
		MaxTokens:   int64(cfg.AnalysisMaxTokens),
		Temperature: cfg.AnalysisTemperature,
	})
}

func NewMailer(cfg *config.Config) *alert.EmailSender {
	return alert.NewEmailSender(alert.EmailConfig{
		SMTPServer: cfg.SMTPServer,
		SMTPPort:   cfg.SMTPPort,
		SMTPUser:   cfg.SMTPUser,
		SMTPPass:   cfg.SMTPPass,
		FromEmail:  cfg.SMTPFrom,
		LogoPath:   cfg.AlertLogoPath,
	})
}
