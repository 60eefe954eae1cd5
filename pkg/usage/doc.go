// Package usage implements the metering subsystem: per-user, per-feature
// counters scoped to billing periods, limit enforcement, threshold alerts,
// and idempotent period resets.
//
// # Increment-Then-Check
//
// RecordUsage increments first and checks the limit afterwards, rolling the
// increment back with a compensating decrement when the post-increment count
// exceeds the limit. This avoids a read-check-write race without locks: the
// stored count may transiently overshoot by one call's amount but is always
// corrected before RecordUsage returns. The store's Increment must therefore
// be atomic (HINCRBY for Redis, a single upsert for Postgres, a mutex for
// the in-memory store).
//
// # Threshold Alerts
//
// Crossing 80%, 90%, or 100% of a limit fires a one-shot alert per
// (user, feature, threshold, period). Deduplication lives in the store
// (SETNX / insert-on-conflict), so concurrent workers cannot double-fire.
//
// # Period Reset
//
// ResetPeriod archives every record outside the subscription's current
// billing period and drops the user's cached gating decisions. Re-running it
// for the same period is a no-op.
package usage
