package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"market-mood/internal/analysis"
	"market-mood/internal/cache"
	"market-mood/internal/domain"
	"market-mood/internal/repository"
	"market-mood/internal/timestamp"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	latestKey   = "sentiment:latest"
	newsKey     = "news:latest"
	latestTTL   = 2 * time.Hour
	newsTTL     = 2 * time.Hour
	maxHistory  = 500
	defaultRows = 50
)

var ErrNoReading = errors.New("no sentiment reading available")

type Scraper interface {
	Run(ctx context.Context) (domain.Snapshot, error)
}

type Analyst interface {
	Analyze(ctx context.Context, articles []domain.Article, vix *domain.VIXReading) (analysis.Parsed, string, error)
}

type BenchmarkProvider interface {
	FetchLatest(ctx context.Context) (*domain.BenchmarkReading, error)
}

type SentimentStore interface {
	Insert(ctx context.Context, rec domain.SentimentRecord) (domain.SentimentRecord, error)
	Latest(ctx context.Context) (domain.SentimentRecord, error)
	Recent(ctx context.Context, limit int) ([]domain.SentimentRecord, error)
}

type JSONCache interface {
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Get(ctx context.Context, key string, v any) error
}

// PipelineService runs the scrape, analyze and store cycle and answers the
// read side for the dashboard, bot and tool server.
type PipelineService struct {
	tracer    trace.Tracer
	scraper   Scraper
	analyst   Analyst
	benchmark BenchmarkProvider
	store     SentimentStore
	cache     JSONCache
	now       func() time.Time
}

func NewPipelineService(
	tracer trace.Tracer,
	scraper Scraper,
	analyst Analyst,
	benchmark BenchmarkProvider,
	store SentimentStore,
	jsonCache JSONCache,
) *PipelineService {
	return &PipelineService{
		tracer:    tracer,
		scraper:   scraper,
		analyst:   analyst,
		benchmark: benchmark,
		store:     store,
		cache:     jsonCache,
		now:       time.Now,
	}
}

func (s *PipelineService) RunPipeline(ctx context.Context) (domain.PipelineResult, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	start := s.now()
	result := domain.PipelineResult{RunID: uuid.NewString()}
	span.SetAttributes(attribute.String("pipeline.run_id", result.RunID))

	// 1. Scrape
	snap, err := s.scraper.Run(ctx)
	result.Articles = len(snap.Articles)
	result.Errors = append(result.Errors, snap.Errors...)
	if snap.VIX != nil {
		v := snap.VIX.Value
		result.VIX = &v
	}
	if snap.Succeeded() {
		if cerr := s.setCache(ctx, newsKey, snap, newsTTL); cerr != nil {
			log.Printf("[%s] failed to cache snapshot: %v", result.RunID, cerr)
		}
	}
	if err != nil {
		span.RecordError(err)
		result.Duration = s.now().Sub(start)
		return result, fmt.Errorf("scrape: %w", err)
	}

	// 2. Analyze
	var parsed *analysis.Parsed
	if s.analyst == nil {
		result.Errors = append(result.Errors, "analysis: not configured")
	} else {
		p, _, aerr := s.analyst.Analyze(ctx, snap.Articles, snap.VIX)
		switch {
		case aerr != nil:
			log.Printf("[%s] analysis failed: %v", result.RunID, aerr)
			result.Errors = append(result.Errors, fmt.Sprintf("analysis: %v", aerr))
		case strings.TrimSpace(p.Summary) == "":
			log.Printf("[%s] Warning: analysis returned an empty summary, discarding", result.RunID)
			result.Errors = append(result.Errors, "analysis: empty summary")
		default:
			parsed = &p
			result.Analyzed = true
			result.FearGreed = p.Index
		}
	}

	if parsed == nil && result.VIX == nil {
		result.Duration = s.now().Sub(start)
		return result, nil
	}

	// 3. Publish the latest reading
	latest := domain.LatestIndices{
		VIX:          result.VIX,
		TimestampUTC: timestamp.NormalizeOr(s.now(), timestamp.EpochSentinel),
	}
	if parsed != nil {
		latest.FearGreed = parsed.Index
	}
	if s.benchmark != nil {
		if b, berr := s.benchmark.FetchLatest(ctx); berr != nil {
			log.Printf("[%s] benchmark fetch failed: %v", result.RunID, berr)
		} else {
			latest.Benchmark = b
		}
	}
	if cerr := s.setCache(ctx, latestKey, latest, latestTTL); cerr != nil {
		log.Printf("[%s] failed to cache latest indices: %v", result.RunID, cerr)
	}

	// 4. Persist
	if parsed != nil && s.store != nil {
		if _, serr := s.store.Insert(ctx, domain.SentimentRecord{
			FearGreed:   parsed.Index,
			VIX:         result.VIX,
			SummaryText: parsed.Summary,
			Timestamp:   s.now().UTC(),
		}); serr != nil {
			log.Printf("[%s] failed to store sentiment: %v", result.RunID, serr)
			result.Errors = append(result.Errors, fmt.Sprintf("store: %v", serr))
		} else {
			result.Saved = true
		}
	}

	log.Printf("[%s] Pipeline complete: %d articles, analyzed=%t saved=%t", result.RunID, result.Articles, result.Analyzed, result.Saved)
	result.Duration = s.now().Sub(start)
	return result, nil
}

// Latest prefers the cached reading and falls back to the newest stored row.
func (s *PipelineService) Latest(ctx context.Context) (domain.LatestIndices, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.latest")
	defer span.End()

	var latest domain.LatestIndices
	err := s.getCache(ctx, latestKey, &latest)
	if err == nil {
		return latest, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		log.Printf("redis cache read error: %v", err)
	}

	if s.store == nil {
		return domain.LatestIndices{}, ErrNoReading
	}
	rec, err := s.store.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.LatestIndices{}, ErrNoReading
	}
	if err != nil {
		return domain.LatestIndices{}, err
	}
	return domain.LatestIndices{
		FearGreed:    rec.FearGreed,
		VIX:          rec.VIX,
		TimestampUTC: timestamp.NormalizeOr(rec.Timestamp, timestamp.EpochSentinel),
	}, nil
}

// LatestRecord returns the newest stored analysis including its summary.
func (s *PipelineService) LatestRecord(ctx context.Context) (domain.SentimentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.latest-record")
	defer span.End()

	if s.store == nil {
		return domain.SentimentRecord{}, ErrNoReading
	}
	rec, err := s.store.Latest(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.SentimentRecord{}, ErrNoReading
	}
	return rec, err
}

// History returns up to limit stored rows, newest first. limit is clamped to
// 1..500 and defaults to 50.
func (s *PipelineService) History(ctx context.Context, limit int) ([]domain.SentimentRecord, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.history")
	defer span.End()

	limit = ClampLimit(limit)
	span.SetAttributes(attribute.Int("pipeline.history_limit", limit))
	if s.store == nil {
		return nil, nil
	}
	return s.store.Recent(ctx, limit)
}

func (s *PipelineService) LatestNews(ctx context.Context) (domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "pipeline.latest-news")
	defer span.End()

	var snap domain.Snapshot
	if err := s.getCache(ctx, newsKey, &snap); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return domain.Snapshot{}, ErrNoReading
		}
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRows
	case limit > maxHistory:
		return maxHistory
	}
	return limit
}

func (s *PipelineService) setCache(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Set(ctx, key, v, ttl)
}

func (s *PipelineService) getCache(ctx context.Context, key string, v any) error {
	if s.cache == nil {
		return cache.ErrMiss
	}
	return s.cache.Get(ctx, key, v)
}
