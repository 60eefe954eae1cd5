package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyNamespace isolates cache keys from other users of the shared Redis.
const keyNamespace = "gatekit:cache:"

// Redis is the shared L2 tier. Entries are JSON-encoded and expire after the
// configured TTL, which should be longer than the local tier's to absorb
// load from many worker processes.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a shared cache tier on top of an established go-redis client.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if client == nil {
		panic("cache: redis client is required")
	}
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) (Entry, bool, error) {
	data, err := c.client.Get(ctx, keyNamespace+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, errors.Join(ErrTierUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt entry is treated as a miss; the next Put overwrites it.
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c *Redis) Put(ctx context.Context, key string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, keyNamespace+key, data, c.ttl).Err(); err != nil {
		return errors.Join(ErrTierUnavailable, err)
	}
	return nil
}

func (c *Redis) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, keyNamespace+key).Err(); err != nil {
		return errors.Join(ErrTierUnavailable, err)
	}
	return nil
}

func (c *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, keyNamespace+prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Join(ErrTierUnavailable, err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Join(ErrTierUnavailable, err)
	}
	return nil
}
