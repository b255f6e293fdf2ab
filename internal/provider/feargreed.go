package provider

import (
	"context"
	"fmt"
	"strings"

	"market-mood/internal/domain"
	"market-mood/internal/timestamp"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://production.dataviz.cnn.io"

// FearGreedProvider reads the published CNN Fear & Greed score. It serves as
// a benchmark next to the model estimate, never as a replacement for it.
type FearGreedProvider struct {
	fetcher getter
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedProvider(tracer trace.Tracer, fetcher getter) *FearGreedProvider {
	return &FearGreedProvider{
		fetcher: fetcher,
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

func (p *FearGreedProvider) FetchLatest(ctx context.Context) (*domain.BenchmarkReading, error) {
	ctx, span := p.tracer.Start(ctx, "feargreed.fetch-latest")
	defer span.End()

	url := strings.TrimRight(p.baseURL, "/") + "/index/fearandgreed/graphdata"
	body, err := p.fetcher.Get(ctx, url, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}
	return parseFearGreed(body)
}

func parseFearGreed(body []byte) (*domain.BenchmarkReading, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode fear & greed response: invalid json")
	}
	row := gjson.GetBytes(body, "fear_and_greed")
	if !row.Exists() {
		return nil, fmt.Errorf("fear & greed response has no current reading")
	}
	score := row.Get("score")
	if score.Type != gjson.Number {
		return nil, fmt.Errorf("fear & greed score missing")
	}
	value := score.Float()
	if value < 0 || value > 100 {
		return nil, fmt.Errorf("fear & greed score %.2f out of range", value)
	}

	// The timestamp arrives either as an ISO string or as epoch milliseconds.
	var ts any = row.Get("timestamp").String()
	if t := row.Get("timestamp"); t.Type == gjson.Number {
		ts = t.Float()
	}

	return &domain.BenchmarkReading{
		Score:        value,
		Rating:       strings.TrimSpace(row.Get("rating").String()),
		TimestampUTC: timestamp.NormalizeOr(ts, timestamp.EpochSentinel),
	}, nil
}
