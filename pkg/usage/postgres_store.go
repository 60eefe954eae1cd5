package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/gatekit/pkg/pg"
	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

// PostgresStore is a Store backed by PostgreSQL via pgx. Atomic increments
// are expressed as a single upsert, so concurrent feature uses never lose
// counts.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a usage store on the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("usage: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Increment(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount, limit int64, resetAt time.Time) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO usage_records (user_id, feature, period, count, limit_snapshot, last_used_at, reset_at)
		 VALUES ($1, $2, $3, $4, $5, now(), $6)
		 ON CONFLICT (user_id, feature, period) DO UPDATE
		 SET count = usage_records.count + EXCLUDED.count,
		     limit_snapshot = EXCLUDED.limit_snapshot,
		     last_used_at = now(),
		     reset_at = EXCLUDED.reset_at
		 RETURNING count`,
		userID, feature, period, amount, limit, resetAt.UTC()).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) Decrement(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount int64) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`UPDATE usage_records
		 SET count = GREATEST(count - $4, 0)
		 WHERE user_id = $1 AND feature = $2 AND period = $3
		 RETURNING count`,
		userID, feature, period, amount).Scan(&count)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, ErrRecordNotFound
		}
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string) (Record, error) {
	rec := Record{UserID: userID, Feature: feature, Period: period}
	err := s.pool.QueryRow(ctx,
		`SELECT count, limit_snapshot, last_used_at, reset_at
		 FROM usage_records
		 WHERE user_id = $1 AND feature = $2 AND period = $3`,
		userID, feature, period).Scan(&rec.Count, &rec.Limit, &rec.LastUsedAt, &rec.ResetAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *PostgresStore) MarkThreshold(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, threshold int) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO usage_alerts (user_id, feature, period, threshold, fired_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id, feature, period, threshold) DO NOTHING`,
		userID, feature, period, threshold)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ArchivePeriods(ctx context.Context, userID uuid.UUID, currentPeriod string) error {
	// Archived rows are retained for audit; re-running with the same period
	// touches no additional rows, keeping the operation idempotent.
	if _, err := s.pool.Exec(ctx,
		`UPDATE usage_records SET archived = true
		 WHERE user_id = $1 AND period <> $2 AND NOT archived`,
		userID, currentPeriod); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`DELETE FROM usage_alerts WHERE user_id = $1 AND period <> $2`,
		userID, currentPeriod)
	return err
}
