package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net/http"

	"market-mood/internal/domain"
	"market-mood/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	dashboardRows   = 50
	notAvailable    = "N/A"
	chartTimeLayout = "2006-01-02 15:04"
	updatedAtLayout = "2006-01-02 15:04 UTC"
)

//go:embed templates/dashboard.html
var dashboardFS embed.FS

var dashboardTemplate = template.Must(template.ParseFS(dashboardFS, "templates/dashboard.html"))

type dashboardRow struct {
	Timestamp string
	FearGreed string
	VIX       string
}

type dashboardView struct {
	FearGreed      int
	FearGreedLabel string
	VIX            string
	Summary        string
	LastUpdated    string
	ChartLabels    []string
	ChartFearGreed []*int
	ChartVIX       []*float64
	Rows           []dashboardRow
}

// buildDashboard prepares the page. history arrives newest first; the chart
// wants it chronological while the table keeps the newest row on top.
func buildDashboard(latest *domain.SentimentRecord, history []domain.SentimentRecord) dashboardView {
	view := dashboardView{
		FearGreed:      domain.NeutralFearGreed,
		VIX:            notAvailable,
		LastUpdated:    notAvailable,
		ChartLabels:    []string{},
		ChartFearGreed: []*int{},
		ChartVIX:       []*float64{},
		Rows:           make([]dashboardRow, 0, len(history)),
	}
	if latest != nil {
		view.FearGreed = domain.DisplayFearGreed(latest.FearGreed)
		view.VIX = formatVIX(latest.VIX)
		view.Summary = latest.SummaryText
		if !latest.Timestamp.IsZero() {
			view.LastUpdated = latest.Timestamp.UTC().Format(updatedAtLayout)
		}
	}
	view.FearGreedLabel = fearGreedLabel(view.FearGreed)

	for i := len(history) - 1; i >= 0; i-- {
		rec := history[i]
		view.ChartLabels = append(view.ChartLabels, rec.Timestamp.UTC().Format(chartTimeLayout))
		view.ChartFearGreed = append(view.ChartFearGreed, rec.FearGreed)
		view.ChartVIX = append(view.ChartVIX, rec.VIX)
	}
	for _, rec := range history {
		fg := notAvailable
		if rec.FearGreed != nil {
			fg = fmt.Sprintf("%d", *rec.FearGreed)
		}
		view.Rows = append(view.Rows, dashboardRow{
			Timestamp: rec.Timestamp.UTC().Format(chartTimeLayout),
			FearGreed: fg,
			VIX:       formatVIX(rec.VIX),
		})
	}
	return view
}

func formatVIX(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func fearGreedLabel(v int) string {
	switch {
	case v < 25:
		return "Extreme Fear"
	case v < 45:
		return "Fear"
	case v <= 55:
		return "Neutral"
	case v < 75:
		return "Greed"
	default:
		return "Extreme Greed"
	}
}

// Dashboard godoc
// @Summary      Sentiment dashboard
// @Description  Renders the HTML dashboard with the latest reading and recent history
// @Tags         dashboard
// @Produce      html
// @Success      200  {string}  string
// @Router       / [get]
func (h *Handler) Dashboard(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.dashboard")
	defer span.End()

	var latest *domain.SentimentRecord
	rec, err := h.sentiment.LatestRecord(ctx)
	switch {
	case err == nil:
		latest = &rec
	case !errors.Is(err, service.ErrNoReading):
		log.Printf("dashboard: latest reading: %v", err)
	}

	history, err := h.sentiment.History(ctx, dashboardRows)
	if err != nil {
		log.Printf("dashboard: history: %v", err)
		history = nil
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := dashboardTemplate.Execute(c.Writer, buildDashboard(latest, history)); err != nil {
		log.Printf("dashboard: render: %v", err)
	}
}
