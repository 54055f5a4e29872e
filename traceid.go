// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewTraceID returns a UUIDv7 identifying one channel or chain.
//
// Attach it to a [*slog.Logger] with [*slog.Logger.With] before
// passing the logger to a channel constructor: every event emitted by
// that channel will then carry the same traceID, enabling correlation
// across the links of a chain and simplifying log analysis.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewTraceID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
