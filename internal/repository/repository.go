package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("not found")

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const createSentimentHistoryTable = `
CREATE TABLE IF NOT EXISTS sentiment_history (
    id            BIGSERIAL        PRIMARY KEY,
    fear_greed    INTEGER,
    vix           DOUBLE PRECISION,
    summary_text  TEXT             NOT NULL DEFAULT '',
    timestamp     TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sentiment_history_timestamp
    ON sentiment_history (timestamp DESC);
`

const createSubscriptionsTable = `
CREATE TABLE IF NOT EXISTS vix_alerts_subscriptions (
    id                  BIGSERIAL        PRIMARY KEY,
    email               TEXT             NOT NULL,
    vix_threshold       DOUBLE PRECISION NOT NULL CHECK (vix_threshold > 0),
    last_alert_sent_at  TIMESTAMPTZ,
    is_active           BOOLEAN          NOT NULL DEFAULT TRUE,
    unsubscribe_token   TEXT             NOT NULL UNIQUE,
    created_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_vix_alerts_active_threshold
    ON vix_alerts_subscriptions (is_active, vix_threshold);
`

// RunMigrations creates both tables when they are missing. Versioned schema
// changes go through cmd/migrate.
func RunMigrations(ctx context.Context, pool PgxPool) error {
	for _, ddl := range []string{createSentimentHistoryTable, createSubscriptionsTable} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
