package cache

import "time"

// Config holds cache tier settings, populated from environment variables via
// github.com/caarlos0/env.
type Config struct {
	LocalCapacity     int           `env:"CACHE_LOCAL_CAPACITY" envDefault:"10000"`  // LocalCapacity is the max number of entries held in-process.
	LocalTTL          time.Duration `env:"CACHE_LOCAL_TTL" envDefault:"5s"`          // LocalTTL bounds staleness of the hot in-process tier.
	SharedTTL         time.Duration `env:"CACHE_SHARED_TTL" envDefault:"5m"`         // SharedTTL bounds staleness of the shared Redis tier.
	InvalidateRetries int           `env:"CACHE_INVALIDATE_RETRIES" envDefault:"3"`  // InvalidateRetries is the retry budget for shared-tier invalidation.
}
