// Package notification defines the outbound alert collaborator consumed by
// the usage tracker (threshold alerts) and the webhook processor (permanent
// failure escalation). Actual delivery channels live behind the Notifier
// interface; the package ships a slog-backed default and an in-memory
// recorder for tests.
package notification
