// Package logger builds the application's slog.Logger from environment
// configuration: level, encoding, and static service attributes. Components
// take the logger through their With* options and fall back to
// slog.Default() when none is given.
package logger
