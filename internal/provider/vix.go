package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"market-mood/internal/domain"
	"market-mood/internal/timestamp"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	yahooChartBaseURL = "https://query1.finance.yahoo.com"
	vixSymbol         = "^VIX"
)

// VIXProvider reads the CBOE Volatility Index from the Yahoo Finance chart API.
type VIXProvider struct {
	fetcher getter
	baseURL string
	tracer  trace.Tracer
}

func NewVIXProvider(tracer trace.Tracer, fetcher getter) *VIXProvider {
	return &VIXProvider{fetcher: fetcher, baseURL: yahooChartBaseURL, tracer: tracer}
}

// FetchLatest returns the last close of the recent daily history, or the
// regular market price when the history has no closes yet.
func (p *VIXProvider) FetchLatest(ctx context.Context) (*domain.VIXReading, error) {
	ctx, span := p.tracer.Start(ctx, "vix.fetch-latest")
	defer span.End()

	endpoint := strings.TrimRight(p.baseURL, "/") + "/v8/finance/chart/" + url.PathEscape(vixSymbol) + "?range=5d&interval=1d"
	body, err := p.fetcher.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, err
	}

	reading, err := parseVIXChart(body)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Float64("vix.value", reading.Value))
	return reading, nil
}

func parseVIXChart(body []byte) (*domain.VIXReading, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode vix chart: invalid json")
	}
	root := gjson.ParseBytes(body)
	if e := root.Get("chart.error"); e.Exists() && e.Type != gjson.Null {
		return nil, fmt.Errorf("vix chart error: %s", e.Get("description").String())
	}
	result := root.Get("chart.result.0")
	if !result.Exists() {
		return nil, fmt.Errorf("vix chart has no result")
	}

	stamps := result.Get("timestamp").Array()
	closes := result.Get("indicators.quote.0.close").Array()
	for i := min(len(stamps), len(closes)) - 1; i >= 0; i-- {
		if closes[i].Type != gjson.Number {
			continue
		}
		return &domain.VIXReading{
			Value:        closes[i].Float(),
			TimestampUTC: timestamp.NormalizeOr(stamps[i].Int(), timestamp.EpochSentinel),
		}, nil
	}

	price := result.Get("meta.regularMarketPrice")
	if price.Type != gjson.Number {
		return nil, fmt.Errorf("vix chart has no usable close or market price")
	}
	return &domain.VIXReading{
		Value:        price.Float(),
		TimestampUTC: timestamp.NormalizeOr(result.Get("meta.regularMarketTime").Int(), timestamp.EpochSentinel),
	}, nil
}
