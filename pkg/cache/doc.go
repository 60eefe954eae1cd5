// Package cache provides the two-tier cache used by the feature gate and
// usage tracking services: an in-process LRU with a short TTL (L1) for
// hot-path latency, and a shared Redis tier with a longer TTL (L2) to reduce
// load on the authoritative stores across worker processes.
//
// # Revision Checking
//
// Every Entry carries the Revision of the subscription record it was computed
// from. Correctness-critical readers compare the cached revision against the
// authoritative store's current revision before serving the entry, which
// bounds staleness to "last invalidation" rather than "time to live". The
// TTLs are an additional defense-in-depth layer.
//
// # Invalidation
//
// Invalidate and InvalidatePrefix remove entries from both tiers before
// returning. Shared-tier failures are retried up to a bounded budget and then
// logged as cache-inconsistency warnings without failing the triggering
// business operation.
//
// # Usage
//
//	local := cache.NewLocal(10_000, 5*time.Second)
//	shared := cache.NewRedis(redisClient, 5*time.Minute)
//	c := cache.NewTiered(local, shared, cache.WithLogger(log))
//
// Pass nil for the shared tier in tests or single-process deployments.
package cache
