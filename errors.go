// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "errors"

// ErrUnsupported indicates that the channel's [Method] does not
// implement the requested operation.
var ErrUnsupported = errors.New("chanio: operation not supported")

// ErrNotInitialized indicates that I/O was attempted before the
// backend finished initializing the channel (see [*Channel.SetInit]).
var ErrNotInitialized = errors.New("chanio: channel not initialized")

// ErrWouldBlock indicates a transient failure: the operation could not
// complete now and may be retried later. A channel returning this error
// also sets the corresponding retry flags, so the caller can inspect
// [*Channel.ShouldRead], [*Channel.ShouldWrite], and [*Channel.RetryReason]
// to learn which operation to repeat.
var ErrWouldBlock = errors.New("chanio: operation would block")

// ErrInvalidArgument indicates a malformed control argument.
var ErrInvalidArgument = errors.New("chanio: invalid argument")

// errNoNext is returned by filter channels used without a next
// channel in the chain.
var errNoNext = errors.New("chanio: filter has no next channel")
