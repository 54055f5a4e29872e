// SPDX-License-Identifier: GPL-3.0-or-later

// Package chanio provides chainable, reference-counted abstract I/O
// channels with uniform retry signaling.
//
// # Core Abstraction
//
// The package is built around a single type:
//
//	type Channel struct{ ... }
//
// A [Channel] is an abstract I/O endpoint whose behavior comes from
// the [Method] bound at construction: a shared, immutable descriptor
// holding the backend's hooks. The built-in kinds are:
//
// Sources and sinks:
//   - memory buffers ([MemMethod], [NewMemBuf])
//   - files ([NewFile], [NewFilePtr])
//   - established network connections ([NewConn])
//   - connect-on-demand endpoints ([NewConnect])
//   - loopback pairs ([NewPair])
//   - the null sink ([NullMethod])
//
// Filters, which transform or forward data for the next channel in a
// chain:
//   - write coalescing and buffered line reads ([NewBuffer])
//   - base64 encoding and decoding ([NewBase64])
//   - I/O observation for logging ([NewObserve])
//
// Custom kinds are defined by filling in a [Method] value and, when a
// distinct type tag is needed, allocating one with [NewTypeIndex].
//
// # Chains
//
// Channels compose into chains where each link forwards or transforms
// data for the next: for example, a base64 filter over a buffer filter
// over a connection. [*Channel.Push] appends to a chain and transfers
// ownership of the appended reference; [*Channel.Pop] detaches the
// head and hands its reference back; [*Channel.FindType] locates a
// link by type tag. Chains are expected to be short, acyclic, and
// caller-constructed; there is no cycle detection.
//
// # Connection Lifecycle
//
// Ownership follows reference counting. Constructors return a channel
// with one reference; [*Channel.Retain] adds one and [*Channel.Free]
// drops one. When the count reaches zero the backend's destroy hook
// runs first (so side effects like closing descriptors happen
// deterministically, not at collection time), then the chain's
// reference to the next link is released, freeing a whole chain from
// its head.
//
// Only the reference count is safe for concurrent use: handles are
// commonly shared across goroutines for ownership purposes, but I/O on
// the same handle needs external synchronization.
//
// # Retry Protocol
//
// Blocking behavior is entirely delegated to the backend. Non-blocking
// backends report transient failures uniformly: the operation fails
// with [ErrWouldBlock] and the channel's retry flags say which
// operation to repeat ([*Channel.ShouldRead], [*Channel.ShouldWrite],
// [*Channel.ShouldIOSpecial] plus [*Channel.RetryReason]). The flags
// describe only the most recent read, write, or flush on the channel;
// the package never retries on its own, except for the short-write
// loop inside [*Channel.WriteAll], which on a transient failure
// returns the count consumed so the caller can resume with the
// unwritten suffix.
//
// Filters delegate retry state to the wrapped transport with
// [*Channel.CopyNextRetry], so polling the chain head is always
// enough.
//
// # Observability
//
// Channels that perform real I/O support structured logging via
// [SLogger] (compatible with [log/slog]). By default logging is
// disabled; pass a custom [*slog.Logger] to a constructor to enable
// it. Lifecycle events (connect, close) are emitted at
// [slog.LevelInfo] and per-I/O events (read, write) at
// [slog.LevelDebug], with a common set of fields: localAddr,
// remoteAddr, protocol, and t (timestamp); completion events
// additionally carry t0 (start time), err, and errClass. Error
// classification is configurable via [ErrClassifier]. Use [NewTraceID]
// to correlate all the events of one chain.
//
// # Design Boundaries
//
// This package intentionally provides only the abstract channel and
// its built-in backends. The following are out of scope and belong to
// higher-level packages:
//
//   - TLS and other protocol state machines layered over chains
//   - Retry and backoff policy (callers own the retry loop)
//   - Cancellation (close the underlying resource and expect the next
//     call to fail)
//   - Synchronizing concurrent I/O on one handle
package chanio
