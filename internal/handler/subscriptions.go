package handler

import (
	"errors"
	"net/http"

	"market-mood/internal/repository"

	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	Email        string  `json:"email" binding:"required,email"`
	VIXThreshold float64 `json:"vix_threshold" binding:"required,gt=0"`
}

// Subscribe godoc
// @Summary      Subscribe to VIX alerts
// @Description  Emails the address when the VIX rises above the threshold
// @Tags         alerts
// @Accept       json
// @Produce      json
// @Param        body  body  subscribeRequest  true  "Subscription"
// @Success      201  {object}  domain.Subscription
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/alerts/subscriptions [post]
func (h *Handler) Subscribe(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.subscribe")
	defer span.End()

	if h.subscriptions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alerts not configured"})
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
		return
	}

	sub, err := h.subscriptions.Create(ctx, req.Email, req.VIXThreshold)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// Unsubscribe godoc
// @Summary      Unsubscribe from VIX alerts
// @Description  Deactivates the subscription owning the token from an alert email
// @Tags         alerts
// @Produce      json
// @Param        token  path  string  true  "Unsubscribe token"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/alerts/unsubscribe/{token} [get]
func (h *Handler) Unsubscribe(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.unsubscribe")
	defer span.End()

	if h.subscriptions == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alerts not configured"})
		return
	}

	err := h.subscriptions.Deactivate(ctx, c.Param("token"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown or already inactive subscription"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed"})
}
