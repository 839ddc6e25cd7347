// Package logging builds the slog loggers used across the daemon and CLI.
//
// It provides console and JSON handlers behind a single Options surface,
// attribute helper aliases so call sites stay terse, standardized field keys
// for deck/stage/correlation metadata, and a no-op logger for tests.
package logging
