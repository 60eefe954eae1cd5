package usage

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

const (
	usageKeyPrefix = "gatekit:usage:"
	alertKeyPrefix = "gatekit:usagealert:"

	// retention keeps rolled-over counters around briefly for audit reads
	// before Redis expires them on its own.
	archiveGrace = 72 * time.Hour
)

// RedisStore is a Store backed by Redis hashes. Counts are maintained with
// HINCRBY, which gives the atomic increment the tracker's
// increment-then-check discipline requires without any locking.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a usage store on an established go-redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	if client == nil {
		panic("usage: redis client is required")
	}
	return &RedisStore{client: client}
}

func (s *RedisStore) usageKey(userID uuid.UUID, feature subscription.Feature, period string) string {
	return usageKeyPrefix + userID.String() + ":" + string(feature) + ":" + period
}

func (s *RedisStore) alertKey(userID uuid.UUID, feature subscription.Feature, period string, threshold int) string {
	return alertKeyPrefix + userID.String() + ":" + string(feature) + ":" + period + ":" + strconv.Itoa(threshold)
}

func (s *RedisStore) Increment(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount, limit int64, resetAt time.Time) (int64, error) {
	key := s.usageKey(userID, feature, period)
	now := time.Now().UTC()

	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, "count", amount)
	pipe.HSet(ctx, key, "limit", limit, "last_used_at", now.Format(time.RFC3339Nano), "reset_at", resetAt.UTC().Format(time.RFC3339Nano))
	if ttl := time.Until(resetAt) + archiveGrace; ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (s *RedisStore) Decrement(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount int64) (int64, error) {
	key := s.usageKey(userID, feature, period)

	count, err := s.client.HIncrBy(ctx, key, "count", -amount).Result()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		// Compensating decrements only undo prior increments, so a negative
		// count indicates a misuse; clamp rather than propagate it.
		count = 0
		if err := s.client.HSet(ctx, key, "count", 0).Err(); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string) (Record, error) {
	fields, err := s.client.HGetAll(ctx, s.usageKey(userID, feature, period)).Result()
	if err != nil {
		return Record{}, err
	}
	if len(fields) == 0 {
		return Record{}, ErrRecordNotFound
	}

	rec := Record{UserID: userID, Feature: feature, Period: period}
	rec.Count, _ = strconv.ParseInt(fields["count"], 10, 64)
	rec.Limit, _ = strconv.ParseInt(fields["limit"], 10, 64)
	if v := fields["last_used_at"]; v != "" {
		rec.LastUsedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v := fields["reset_at"]; v != "" {
		rec.ResetAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return rec, nil
}

func (s *RedisStore) MarkThreshold(ctx context.Context, userID uuid.UUID, feature subscription.Feature, period string, threshold int) (bool, error) {
	// SETNX makes the alert one-shot per (user, feature, threshold, period).
	return s.client.SetNX(ctx, s.alertKey(userID, feature, period, threshold), 1, archiveGrace).Result()
}

func (s *RedisStore) ArchivePeriods(ctx context.Context, userID uuid.UUID, currentPeriod string) error {
	if err := s.deleteStale(ctx, usageKeyPrefix+userID.String()+":*", currentPeriod, false); err != nil {
		return err
	}
	return s.deleteStale(ctx, alertKeyPrefix+userID.String()+":*", currentPeriod, true)
}

// deleteStale removes keys matching pattern whose embedded period differs
// from currentPeriod. Alert keys carry a trailing threshold segment.
func (s *RedisStore) deleteStale(ctx context.Context, pattern, currentPeriod string, trailingSegment bool) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()

	var stale []string
	for iter.Next(ctx) {
		key := iter.Val()
		parts := strings.Split(key, ":")
		idx := len(parts) - 1
		if trailingSegment {
			idx--
		}
		if idx >= 0 && parts[idx] != currentPeriod {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}
	return s.client.Del(ctx, stale...).Err()
}
