package handler

import (
	"errors"
	"net/http"
	"strconv"

	"market-mood/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const maxHistoryLimit = 500

// GetLatest godoc
// @Summary      Latest sentiment reading
// @Description  Returns the most recent Fear & Greed estimate and VIX value
// @Tags         sentiment
// @Produce      json
// @Success      200  {object}  domain.LatestIndices
// @Failure      404  {object}  map[string]string
// @Router       /api/sentiment/latest [get]
func (h *Handler) GetLatest(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-latest")
	defer span.End()

	latest, err := h.sentiment.Latest(ctx)
	if errors.Is(err, service.ErrNoReading) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sentiment reading yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, latest)
}

// GetHistory godoc
// @Summary      Sentiment history
// @Description  Returns stored analyses, newest first
// @Tags         sentiment
// @Produce      json
// @Param        limit  query  int  false  "Number of rows (1-500)"  default(50)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/sentiment/history [get]
func (h *Handler) GetHistory(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-history")
	defer span.End()

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 500"})
			return
		}
		limit = n
	}
	span.SetAttributes(attribute.Int("limit", limit))

	records, err := h.sentiment.History(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"records": records,
	})
}

// GetNews godoc
// @Summary      Latest scraped news
// @Description  Returns the article snapshot from the most recent pipeline run
// @Tags         news
// @Produce      json
// @Success      200  {object}  domain.Snapshot
// @Failure      404  {object}  map[string]string
// @Router       /api/news [get]
func (h *Handler) GetNews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-news")
	defer span.End()

	snap, err := h.sentiment.LatestNews(ctx)
	if errors.Is(err, service.ErrNoReading) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no news snapshot cached"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// RunPipeline godoc
// @Summary      Run the pipeline now
// @Description  Scrapes, analyzes and stores a new reading. Requires X-API-Key when configured.
// @Tags         pipeline
// @Produce      json
// @Param        X-API-Key  header  string  false  "API key"
// @Success      200  {object}  domain.PipelineResult
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]string
// @Router       /api/pipeline/run [post]
func (h *Handler) RunPipeline(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-pipeline")
	defer span.End()

	if h.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not configured"})
		return
	}

	result, err := h.pipeline.RunPipeline(ctx)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}
