// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

// SLogger abstracts the [*slog.Logger] behavior.
//
// By using an abstraction we allow for unit testing and alternative
// implementations.
//
// This package uses two log levels:
//   - Info for lifecycle events (connect, close)
//   - Debug for per-I/O events (read, write)
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger] to use.
//
// The default is a no-op logger that discards all output. This follows
// the library convention of not writing to stdout/stderr unless
// explicitly configured.
//
// Use a custom [*slog.Logger] for emitting logs. Attach a
// [NewTraceID] value with [*slog.Logger.With] to correlate all the
// events emitted by the channels of one chain.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

// discardSLogger is a no-op [SLogger] that discards all log messages.
type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {
	// nothing
}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {
	// nothing
}
