// Package mcpserver exposes sentiment readings and the parsing helpers as
// Model Context Protocol tools.
package mcpserver

import (
	"context"
	"fmt"

	"market-mood/internal/analysis"
	"market-mood/internal/domain"
	"market-mood/internal/service"
	"market-mood/internal/timestamp"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "market-mood"
	serverVersion = "1.0.0"
)

type Readings interface {
	Latest(ctx context.Context) (domain.LatestIndices, error)
	History(ctx context.Context, limit int) ([]domain.SentimentRecord, error)
}

type tools struct {
	tracer   trace.Tracer
	readings Readings
}

type emptyInput struct{}

type historyInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"number of rows to return, 1-500, default 50"`
}

type historyRow struct {
	ID           int64    `json:"id"`
	FearGreed    *int     `json:"fear_greed"`
	VIX          *float64 `json:"vix"`
	SummaryText  string   `json:"summary_text"`
	TimestampUTC string   `json:"timestamp_utc"`
}

type historyOutput struct {
	Count   int          `json:"count"`
	Records []historyRow `json:"records"`
}

type normalizeInput struct {
	Value any `json:"value" jsonschema:"epoch seconds or milliseconds, or a date string"`
}

type normalizeOutput struct {
	Timestamp string `json:"timestamp"`
}

type parseInput struct {
	Text string `json:"text" jsonschema:"raw model completion containing a FEAR AND GREED INDEX line"`
}

// New builds the tool server. readings may be nil, in which case only the
// stateless tools answer successfully.
func New(tracer trace.Tracer, readings Readings) *mcp.Server {
	t := &tools{tracer: tracer, readings: readings}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "latest_sentiment",
		Description: "Latest Fear & Greed estimate (0-100) and VIX value",
	}, t.latestSentiment)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "sentiment_history",
		Description: "Stored sentiment readings, newest first",
	}, t.sentimentHistory)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "normalize_timestamp",
		Description: "Convert an epoch or date string to canonical UTC YYYY-MM-DDTHH:MM:SSZ",
	}, t.normalizeTimestamp)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "parse_analysis",
		Description: "Extract the FEAR AND GREED INDEX and the cleaned summary from model output",
	}, t.parseAnalysis)

	return server
}

func (t *tools) latestSentiment(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, domain.LatestIndices, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.latest-sentiment")
	defer span.End()

	if t.readings == nil {
		return nil, domain.LatestIndices{}, service.ErrNoReading
	}
	latest, err := t.readings.Latest(ctx)
	if err != nil {
		return nil, domain.LatestIndices{}, err
	}
	return nil, latest, nil
}

func (t *tools) sentimentHistory(ctx context.Context, _ *mcp.CallToolRequest, in historyInput) (*mcp.CallToolResult, historyOutput, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.sentiment-history")
	defer span.End()

	if in.Limit < 0 || in.Limit > 500 {
		return nil, historyOutput{}, fmt.Errorf("limit must be between 1 and 500, got %d", in.Limit)
	}
	span.SetAttributes(attribute.Int("limit", in.Limit))
	if t.readings == nil {
		return nil, historyOutput{Records: []historyRow{}}, nil
	}

	records, err := t.readings.History(ctx, in.Limit)
	if err != nil {
		return nil, historyOutput{}, err
	}
	out := historyOutput{Count: len(records), Records: make([]historyRow, 0, len(records))}
	for _, rec := range records {
		out.Records = append(out.Records, historyRow{
			ID:           rec.ID,
			FearGreed:    rec.FearGreed,
			VIX:          rec.VIX,
			SummaryText:  rec.SummaryText,
			TimestampUTC: timestamp.NormalizeOr(rec.Timestamp, timestamp.EpochSentinel),
		})
	}
	return nil, out, nil
}

func (t *tools) normalizeTimestamp(ctx context.Context, _ *mcp.CallToolRequest, in normalizeInput) (*mcp.CallToolResult, normalizeOutput, error) {
	_, span := t.tracer.Start(ctx, "mcp.normalize-timestamp")
	defer span.End()

	ts, err := timestamp.Normalize(in.Value)
	if err != nil {
		return nil, normalizeOutput{}, err
	}
	return nil, normalizeOutput{Timestamp: ts}, nil
}

func (t *tools) parseAnalysis(ctx context.Context, _ *mcp.CallToolRequest, in parseInput) (*mcp.CallToolResult, analysis.Parsed, error) {
	_, span := t.tracer.Start(ctx, "mcp.parse-analysis")
	defer span.End()

	return nil, analysis.ParseResponse(in.Text), nil
}
