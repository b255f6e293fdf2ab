package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"market-mood/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const subscriptionColumns = `id, email, vix_threshold, last_alert_sent_at, is_active, unsubscribe_token, created_at`

type SubscriptionRepository struct {
	pool     PgxPool
	tracer   trace.Tracer
	newToken func() string
}

func NewSubscriptionRepository(pool PgxPool, tracer trace.Tracer) *SubscriptionRepository {
	return &SubscriptionRepository{
		pool:     pool,
		tracer:   tracer,
		newToken: func() string { return uuid.NewString() },
	}
}

func (r *SubscriptionRepository) Create(ctx context.Context, email string, threshold float64) (domain.Subscription, error) {
	_, span := r.tracer.Start(ctx, "subscription-repo.create")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || threshold <= 0 {
		return domain.Subscription{}, fmt.Errorf("invalid subscription: email=%q threshold=%.2f", email, threshold)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO vix_alerts_subscriptions (email, vix_threshold, unsubscribe_token)
		 VALUES ($1, $2, $3)
		 RETURNING `+subscriptionColumns,
		email, threshold, r.newToken(),
	)
	return scanSubscription(row)
}

// DueForAlert returns active subscriptions whose threshold the current VIX
// exceeds and that have not been alerted within minGap of now.
func (r *SubscriptionRepository) DueForAlert(ctx context.Context, vix float64, minGap time.Duration, now time.Time) ([]domain.Subscription, error) {
	_, span := r.tracer.Start(ctx, "subscription-repo.due-for-alert")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM vix_alerts_subscriptions
		 WHERE is_active = TRUE
		   AND $1 > vix_threshold
		   AND (last_alert_sent_at IS NULL OR last_alert_sent_at < $2)
		 ORDER BY id`,
		vix, now.Add(-minGap),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *SubscriptionRepository) MarkAlerted(ctx context.Context, id int64, at time.Time) error {
	_, span := r.tracer.Start(ctx, "subscription-repo.mark-alerted")
	defer span.End()

	tag, err := r.pool.Exec(ctx,
		`UPDATE vix_alerts_subscriptions SET last_alert_sent_at = $2 WHERE id = $1`,
		id, at.UTC(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate turns off the subscription owning token. Unknown or already
// inactive tokens report ErrNotFound.
func (r *SubscriptionRepository) Deactivate(ctx context.Context, token string) error {
	_, span := r.tracer.Start(ctx, "subscription-repo.deactivate")
	defer span.End()

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNotFound
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE vix_alerts_subscriptions SET is_active = FALSE
		 WHERE unsubscribe_token = $1 AND is_active = TRUE`,
		token,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanSubscription(row pgx.Row) (domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(&sub.ID, &sub.Email, &sub.VIXThreshold, &sub.LastAlertSentAt, &sub.IsActive, &sub.UnsubscribeToken, &sub.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Subscription{}, ErrNotFound
	}
	return sub, err
}
