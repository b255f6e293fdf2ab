// Package alert emails subscribers when the VIX rises above their threshold.
package alert

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"market-mood/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type VIXSource interface {
	FetchLatest(ctx context.Context) (*domain.VIXReading, error)
}

type SubscriptionStore interface {
	DueForAlert(ctx context.Context, vix float64, minGap time.Duration, now time.Time) ([]domain.Subscription, error)
	MarkAlerted(ctx context.Context, id int64, at time.Time) error
}

type Mailer interface {
	HasLogo() bool
	Send(to string, msg Message) error
}

type Monitor struct {
	tracer  trace.Tracer
	vix     VIXSource
	subs    SubscriptionStore
	mailer  Mailer
	minGap  time.Duration
	baseURL string
	now     func() time.Time
}

// NewMonitor builds a monitor. baseURL is the public address of the
// dashboard and is used for unsubscribe links; it may be empty.
func NewMonitor(tracer trace.Tracer, vix VIXSource, subs SubscriptionStore, mailer Mailer, minGap time.Duration, baseURL string) *Monitor {
	if minGap <= 0 {
		minGap = 6 * time.Hour
	}
	return &Monitor{
		tracer:  tracer,
		vix:     vix,
		subs:    subs,
		mailer:  mailer,
		minGap:  minGap,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

// Check runs one alert round. A subscription is marked alerted only after its
// email went out, so failed deliveries are retried on the next round.
func (m *Monitor) Check(ctx context.Context) (domain.AlertResult, error) {
	ctx, span := m.tracer.Start(ctx, "alert-monitor.check")
	defer span.End()

	reading, err := m.vix.FetchLatest(ctx)
	if err != nil {
		return domain.AlertResult{}, fmt.Errorf("fetch vix: %w", err)
	}
	result := domain.AlertResult{VIX: reading.Value}
	span.SetAttributes(attribute.Float64("alert.vix", reading.Value))

	now := m.now().UTC()
	due, err := m.subs.DueForAlert(ctx, reading.Value, m.minGap, now)
	if err != nil {
		return result, fmt.Errorf("load subscriptions: %w", err)
	}
	result.Checked = len(due)
	if len(due) == 0 {
		return result, nil
	}
	log.Printf("Found %d subscriptions to alert for VIX=%.2f", len(due), reading.Value)

	hasLogo := m.mailer.HasLogo()
	for _, sub := range due {
		msg, err := RenderMessage(reading.Value, sub.VIXThreshold, now, m.unsubscribeURL(sub.UnsubscribeToken), hasLogo)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sub.Email, err))
			continue
		}
		if err := m.mailer.Send(sub.Email, msg); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", sub.Email, err))
			continue
		}
		result.Sent++
		if err := m.subs.MarkAlerted(ctx, sub.ID, now); err != nil {
			log.Printf("Error updating last_alert_sent_at for %s: %v", sub.Email, err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: mark alerted: %v", sub.Email, err))
		}
	}

	span.SetAttributes(attribute.Int("alert.sent", result.Sent))
	return result, nil
}

func (m *Monitor) unsubscribeURL(token string) string {
	if m.baseURL == "" || token == "" {
		return ""
	}
	return m.baseURL + "/api/alerts/unsubscribe/" + token
}
