package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/gatekit/pkg/pg"
)

// PostgresStore is a Store backed by PostgreSQL via pgx. Compare-and-swap is
// implemented with a revision-guarded UPDATE, so no row locks are held across
// calls.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a subscription store on the given connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

const subscriptionColumns = `user_id, plan_id, status, provider_sub_id, period_start, period_end, revision, created_at, updated_at, canceled_at`

func (s *PostgresStore) Get(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID)

	var sub Subscription
	err := row.Scan(&sub.UserID, &sub.PlanID, &sub.Status, &sub.ProviderSubID,
		&sub.PeriodStart, &sub.PeriodEnd, &sub.Revision, &sub.CreatedAt, &sub.UpdatedAt, &sub.CanceledAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *PostgresStore) Create(ctx context.Context, sub *Subscription) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO subscriptions (`+subscriptionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, 1, $7, $8, $9)`,
		sub.UserID, sub.PlanID, sub.Status, sub.ProviderSubID,
		sub.PeriodStart, sub.PeriodEnd, sub.CreatedAt, sub.UpdatedAt, sub.CanceledAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrSubscriptionAlreadyExists
		}
		return err
	}
	sub.Revision = 1
	return nil
}

func (s *PostgresStore) UpdateCAS(ctx context.Context, sub *Subscription, expectedRevision int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscriptions
		 SET plan_id = $2, status = $3, provider_sub_id = $4, period_start = $5,
		     period_end = $6, revision = revision + 1, updated_at = $7, canceled_at = $8
		 WHERE user_id = $1 AND revision = $9`,
		sub.UserID, sub.PlanID, sub.Status, sub.ProviderSubID,
		sub.PeriodStart, sub.PeriodEnd, sub.UpdatedAt, sub.CanceledAt, expectedRevision)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a lost race from a missing row for the caller's retry logic.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1)`, sub.UserID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrSubscriptionNotFound
		}
		return ErrConcurrencyConflict
	}
	sub.Revision = expectedRevision + 1
	return nil
}

func (s *PostgresStore) Revision(ctx context.Context, userID uuid.UUID) (int64, error) {
	var revision int64
	err := s.pool.QueryRow(ctx,
		`SELECT revision FROM subscriptions WHERE user_id = $1`, userID).Scan(&revision)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, ErrSubscriptionNotFound
		}
		return 0, err
	}
	return revision, nil
}
