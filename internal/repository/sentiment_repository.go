package repository

import (
	"context"
	"errors"
	"time"

	"market-mood/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

const sentimentColumns = `id, fear_greed, vix, summary_text, timestamp`

type SentimentRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSentimentRepository(pool PgxPool, tracer trace.Tracer) *SentimentRepository {
	return &SentimentRepository{pool: pool, tracer: tracer}
}

// Insert stores one analysis run and returns the stored row. A zero
// Timestamp is stamped with the current time.
func (r *SentimentRepository) Insert(ctx context.Context, rec domain.SentimentRecord) (domain.SentimentRecord, error) {
	_, span := r.tracer.Start(ctx, "sentiment-repo.insert")
	defer span.End()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO sentiment_history (fear_greed, vix, summary_text, timestamp)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+sentimentColumns,
		rec.FearGreed, rec.VIX, rec.SummaryText, rec.Timestamp,
	)
	return scanSentiment(row)
}

func (r *SentimentRepository) Latest(ctx context.Context) (domain.SentimentRecord, error) {
	_, span := r.tracer.Start(ctx, "sentiment-repo.latest")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+sentimentColumns+`
		 FROM sentiment_history
		 ORDER BY timestamp DESC, id DESC
		 LIMIT 1`,
	)
	return scanSentiment(row)
}

// Recent returns up to limit rows, newest first.
func (r *SentimentRepository) Recent(ctx context.Context, limit int) ([]domain.SentimentRecord, error) {
	_, span := r.tracer.Start(ctx, "sentiment-repo.recent")
	defer span.End()

	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+sentimentColumns+`
		 FROM sentiment_history
		 ORDER BY timestamp DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.SentimentRecord
	for rows.Next() {
		rec, err := scanSentiment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanSentiment(row pgx.Row) (domain.SentimentRecord, error) {
	var rec domain.SentimentRecord
	err := row.Scan(&rec.ID, &rec.FearGreed, &rec.VIX, &rec.SummaryText, &rec.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SentimentRecord{}, ErrNotFound
	}
	if err != nil {
		return domain.SentimentRecord{}, err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	return rec, nil
}
