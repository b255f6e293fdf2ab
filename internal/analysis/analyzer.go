// Package analysis asks a chat model for a market summary and turns its free
// text into a bounded Fear & Greed index plus a clean summary.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"market-mood/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrNoArticles = errors.New("no articles to analyze")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
}

type Analyzer struct {
	tracer trace.Tracer
	llm    LLMClient
	opts   Options
}

func NewAnalyzer(tracer trace.Tracer, llm LLMClient, opts Options) *Analyzer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	return &Analyzer{tracer: tracer, llm: llm, opts: opts}
}

// Analyze sends the articles to the model and parses the completion. The raw
// completion text is returned alongside for logging.
func (a *Analyzer) Analyze(ctx context.Context, articles []domain.Article, vix *domain.VIXReading) (Parsed, string, error) {
	ctx, span := a.tracer.Start(ctx, "analyzer.analyze")
	defer span.End()
	span.SetAttributes(attribute.Int("analysis.article_count", len(articles)))

	if len(articles) == 0 {
		return Parsed{}, "", ErrNoArticles
	}

	userPrompt, err := BuildUserPrompt(articles)
	if err != nil {
		return Parsed{}, "", err
	}

	raw, err := a.complete(ctx, []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(BuildSystemPrompt(vix)),
		openai.UserMessage(userPrompt),
	})
	if err != nil {
		span.RecordError(err)
		return Parsed{}, "", fmt.Errorf("analysis unavailable: %w", err)
	}

	parsed := ParseResponse(raw)
	if parsed.Index != nil {
		span.SetAttributes(attribute.Int("analysis.fear_greed", *parsed.Index))
	}
	return parsed, raw, nil
}

func (a *Analyzer) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	ctx, span := a.tracer.Start(ctx, "analyzer.llm-call")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", a.opts.Model),
		attribute.Int("llm.message_count", len(messages)),
	)

	completion, err := a.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:       a.opts.Model,
		Messages:    messages,
		MaxTokens:   openai.Int(a.opts.MaxTokens),
		Temperature: openai.Float(a.opts.Temperature),
	})
	if err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	reply := completion.Choices[0].Message.Content
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("empty LLM response")
	}
	span.SetAttributes(attribute.Int("llm.reply_length", len(reply)))
	return reply, nil
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

// NewOpenAIClient builds a client. baseURL may point at any OpenAI compatible
// endpoint; empty keeps the SDK default.
func NewOpenAIClient(apiKey, baseURL string) LLMClient {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &openaiClient{client: openai.NewClient(opts...)}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
