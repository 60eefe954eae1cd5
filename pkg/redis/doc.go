// Package redis bootstraps the Redis client shared by the L2 cache tier and
// the usage counter store: URL-based configuration, connect-with-retry, and
// a healthcheck probe for readiness endpoints.
package redis
