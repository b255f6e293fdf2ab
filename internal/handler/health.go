package handler

import (
	"net/http"
	"time"

	"market-mood/internal/timestamp"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports liveness, which optional features are wired and the server clock
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"pipeline": featureState(h.pipeline != nil),
		"alerts":   featureState(h.subscriptions != nil),
		"time_utc": timestamp.NormalizeOr(time.Now(), timestamp.EpochSentinel),
	})
}

func featureState(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
