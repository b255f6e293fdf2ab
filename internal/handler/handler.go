package handler

import (
	"context"

	"market-mood/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

type SentimentReader interface {
	Latest(ctx context.Context) (domain.LatestIndices, error)
	LatestRecord(ctx context.Context) (domain.SentimentRecord, error)
	History(ctx context.Context, limit int) ([]domain.SentimentRecord, error)
	LatestNews(ctx context.Context) (domain.Snapshot, error)
}

type PipelineRunner interface {
	RunPipeline(ctx context.Context) (domain.PipelineResult, error)
}

type SubscriptionManager interface {
	Create(ctx context.Context, email string, threshold float64) (domain.Subscription, error)
	Deactivate(ctx context.Context, token string) error
}

type Handler struct {
	tracer        trace.Tracer
	sentiment     SentimentReader
	pipeline      PipelineRunner
	subscriptions SubscriptionManager
}

// New builds the HTTP handler. pipeline and subscriptions may be nil, in
// which case their routes answer 503.
func New(tracer trace.Tracer, sentiment SentimentReader, pipeline PipelineRunner, subscriptions SubscriptionManager) *Handler {
	return &Handler{
		tracer:        tracer,
		sentiment:     sentiment,
		pipeline:      pipeline,
		subscriptions: subscriptions,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	registerValidation()

	r.GET("/", h.Dashboard)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/sentiment/latest", h.GetLatest)
	api.GET("/sentiment/history", h.GetHistory)
	api.GET("/news", h.GetNews)
	api.POST("/pipeline/run", APIKeyAuth(apiKey), h.RunPipeline)
	api.POST("/alerts/subscriptions", h.Subscribe)
	api.GET("/alerts/unsubscribe/:token", h.Unsubscribe)
}
