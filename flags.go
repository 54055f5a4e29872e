// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

// Flags is the per-channel flag bitset.
//
// The low bits encode the retry protocol: after a failed read, write, or
// control operation, the channel sets [FlagShouldRetry] together with the
// flag naming the operation to repeat. The state is advisory and only
// meaningful immediately after the failed call; the next read, write, or
// flush on the same channel clears it.
type Flags int

const (
	// FlagRead marks a pending read operation.
	FlagRead Flags = 0x01

	// FlagWrite marks a pending write operation.
	FlagWrite Flags = 0x02

	// FlagIOSpecial marks a pending special I/O operation (for
	// example, an in-progress connect). When set together with
	// [FlagShouldRetry], [*Channel.RetryReason] is meaningful.
	FlagIOSpecial Flags = 0x04

	// FlagShouldRetry marks the last failure as transient.
	FlagShouldRetry Flags = 0x08

	// FlagBase64NoNewline makes the base64 filter emit its whole
	// output on a single line without a trailing newline.
	FlagBase64NoNewline Flags = 0x100

	// flagMemReadOnly marks a memory channel as read-only: its
	// contents must not be modified or released.
	flagMemReadOnly Flags = 0x200
)

// flagsRetryMask selects the flags making up the retry protocol.
const flagsRetryMask = FlagRead | FlagWrite | FlagIOSpecial | FlagShouldRetry

// RetryReason identifies the special I/O operation that needs to be
// retried. It is only valid while [*Channel.ShouldIOSpecial] and
// [*Channel.ShouldRetry] both report true.
type RetryReason int

const (
	// RetryNone means no special operation is pending.
	RetryNone RetryReason = 0

	// RetryConnect means a connect would have blocked.
	RetryConnect RetryReason = 2

	// RetryAccept means an accept would have blocked.
	RetryAccept RetryReason = 3
)

// SetFlags ORs the given flags into the channel's flag bitset.
func (c *Channel) SetFlags(flags Flags) {
	c.flags |= flags
}

// ClearFlags removes the given flags from the channel's flag bitset.
func (c *Channel) ClearFlags(flags Flags) {
	c.flags &^= flags
}

// TestFlags returns the intersection of the channel's flags and the
// given flags.
func (c *Channel) TestFlags(flags Flags) Flags {
	return c.flags & flags
}

// SetRetryRead marks the last read as transiently failed: it sets
// [FlagRead] and [FlagShouldRetry].
func (c *Channel) SetRetryRead() {
	c.SetFlags(FlagRead | FlagShouldRetry)
}

// SetRetryWrite marks the last write as transiently failed: it sets
// [FlagWrite] and [FlagShouldRetry].
func (c *Channel) SetRetryWrite() {
	c.SetFlags(FlagWrite | FlagShouldRetry)
}

// SetRetrySpecial marks the last special I/O operation as transiently
// failed: it sets [FlagIOSpecial] and [FlagShouldRetry]. Backends
// setting this flag should also call [*Channel.SetRetryReason].
func (c *Channel) SetRetrySpecial() {
	c.SetFlags(FlagIOSpecial | FlagShouldRetry)
}

// ClearRetryFlags clears the retry protocol flags and the retry reason.
func (c *Channel) ClearRetryFlags() {
	c.ClearFlags(flagsRetryMask)
	c.retryReason = RetryNone
}

// RetryFlags returns the retry protocol flags currently set.
func (c *Channel) RetryFlags() Flags {
	return c.TestFlags(flagsRetryMask)
}

// ShouldRetry returns whether the last failed operation was transient
// and may be retried.
func (c *Channel) ShouldRetry() bool {
	return c.TestFlags(FlagShouldRetry) != 0
}

// ShouldRead returns whether the caller should retry a read.
func (c *Channel) ShouldRead() bool {
	return c.TestFlags(FlagRead) != 0
}

// ShouldWrite returns whether the caller should retry a write.
func (c *Channel) ShouldWrite() bool {
	return c.TestFlags(FlagWrite) != 0
}

// ShouldIOSpecial returns whether the caller should retry a special
// I/O operation. Use [*Channel.RetryReason] to learn which one.
func (c *Channel) ShouldIOSpecial() bool {
	return c.TestFlags(FlagIOSpecial) != 0
}

// RetryReason returns the special I/O operation to retry.
func (c *Channel) RetryReason() RetryReason {
	return c.retryReason
}

// SetRetryReason sets the special I/O operation to retry.
func (c *Channel) SetRetryReason(reason RetryReason) {
	c.retryReason = reason
}
