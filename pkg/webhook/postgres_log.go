package webhook

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/gatekit/pkg/pg"
)

// PostgresLog is an EventLog backed by PostgreSQL via pgx. The attempt
// counter is bumped atomically inside the upsert, so concurrent redeliveries
// of the same event ID observe monotonically increasing attempt counts.
type PostgresLog struct {
	pool *pgxpool.Pool
}

// NewPostgresLog creates an event log on the given connection pool.
func NewPostgresLog(pool *pgxpool.Pool) *PostgresLog {
	if pool == nil {
		panic("webhook: pgx pool is required")
	}
	return &PostgresLog{pool: pool}
}

func (l *PostgresLog) Begin(ctx context.Context, eventID string, eventType EventType) (EventRecord, error) {
	row := l.pool.QueryRow(ctx,
		`INSERT INTO webhook_events (event_id, event_type, received_at, status, attempts)
		 VALUES ($1, $2, $3, $4, 1)
		 ON CONFLICT (event_id) DO UPDATE SET attempts = webhook_events.attempts + 1
		 RETURNING event_id, event_type, received_at, status, attempts, COALESCE(last_error, '')`,
		eventID, eventType, time.Now().UTC(), EventPending)

	var rec EventRecord
	if err := row.Scan(&rec.EventID, &rec.Type, &rec.ReceivedAt, &rec.Status, &rec.Attempts, &rec.LastError); err != nil {
		return EventRecord{}, err
	}
	return rec, nil
}

func (l *PostgresLog) MarkProcessed(ctx context.Context, eventID string) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE webhook_events SET status = $2, last_error = NULL WHERE event_id = $1`,
		eventID, EventProcessed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (l *PostgresLog) MarkFailed(ctx context.Context, eventID string, cause string, permanent bool) error {
	status := EventFailed
	if permanent {
		status = EventFailedPermanent
	}
	tag, err := l.pool.Exec(ctx,
		`UPDATE webhook_events SET status = $2, last_error = $3 WHERE event_id = $1`,
		eventID, status, cause)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (l *PostgresLog) Get(ctx context.Context, eventID string) (EventRecord, error) {
	row := l.pool.QueryRow(ctx,
		`SELECT event_id, event_type, received_at, status, attempts, COALESCE(last_error, '')
		 FROM webhook_events WHERE event_id = $1`, eventID)

	var rec EventRecord
	if err := row.Scan(&rec.EventID, &rec.Type, &rec.ReceivedAt, &rec.Status, &rec.Attempts, &rec.LastError); err != nil {
		if pg.IsNotFoundError(err) {
			return EventRecord{}, ErrEventNotFound
		}
		return EventRecord{}, err
	}
	return rec, nil
}

func (l *PostgresLog) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := l.pool.Exec(ctx,
		`DELETE FROM webhook_events WHERE received_at < $1`, t)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
