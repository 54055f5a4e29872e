// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"sync/atomic"

	"github.com/bassosimone/runtimex"
)

// Channel is a reference-counted, possibly-chained abstract I/O
// endpoint. Its behavior is determined by the [Method] bound at
// construction time; the built-in kinds are memory buffers, files,
// network connections, loopback pairs, and composable filters.
//
// Ownership follows reference counting: [New] returns a channel with a
// count of one, [*Channel.Retain] adds a reference, and
// [*Channel.Free] drops one, destroying the channel (and releasing the
// rest of its chain) when the count reaches zero.
//
// Only the reference count is safe for concurrent use. All other state
// assumes a single writer per handle: callers sharing a channel across
// goroutines for I/O must synchronize externally.
type Channel struct {
	// method is the immutable behavior descriptor.
	method *Method

	// flags is the flag bitset (see [Flags]).
	flags Flags

	// retryReason is the special I/O operation to retry.
	retryReason RetryReason

	// init records whether the backend finished setup.
	init bool

	// shutdown is the method-specific close-ownership bit.
	shutdown bool

	// next is the owned link to the next channel in the chain.
	next *Channel

	// data is the backend-owned state.
	data any

	// refs is the reference count.
	refs atomic.Int32

	// exData maps extension indices to caller state.
	exData map[int]any

	// numRead counts bytes successfully read.
	numRead uint64

	// numWritten counts bytes successfully written.
	numWritten uint64
}

// New creates a channel bound to the given method with a reference
// count of one, cleared flags, and init false. If the method has a
// Create hook, New invokes it to let the backend allocate its state;
// a Create failure yields no channel and no leaked state.
func New(method *Method) (*Channel, error) {
	runtimex.Assert(method != nil)
	c := &Channel{method: method}
	c.refs.Store(1)
	if method.Create != nil {
		if err := method.Create(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Retain increments the reference count and returns the same handle.
// It is safe to call concurrently with other Retain and Free calls on
// the same channel.
func (c *Channel) Retain() *Channel {
	refs := c.refs.Add(1)
	runtimex.Assert(refs > 1)
	return c
}

// Free decrements the reference count. When the count reaches zero it
// invokes the method's Destroy hook, then releases the chain's
// reference to the next channel (so freeing the head of a chain that
// holds the only references releases every link), then lets the
// channel become collectable. Freeing a nil channel is a no-op.
//
// Dropping more references than were taken is a programming error and
// panics.
func (c *Channel) Free() {
	for c != nil {
		refs := c.refs.Add(-1)
		runtimex.Assert(refs >= 0)
		if refs > 0 {
			return
		}
		if c.method.Destroy != nil {
			c.method.Destroy(c)
		}
		next := c.next
		c.next = nil
		c = next
	}
}

// Method returns the behavior descriptor bound to this channel.
func (c *Channel) Method() *Method {
	return c.method
}

// Type returns the type of this channel's method.
func (c *Channel) Type() Type {
	return c.method.Type
}

// Init returns whether the backend finished setting up the channel.
// Reads and writes fail with [ErrNotInitialized] until then.
func (c *Channel) Init() bool {
	return c.init
}

// SetInit records whether the backend finished setup. Backends call
// this once their state is ready for I/O.
func (c *Channel) SetInit(init bool) {
	c.init = init
}

// Data returns the backend-owned state set with [*Channel.SetData].
//
// The data slot belongs to the channel's backend. Callers needing to
// attach their own state should use [*Channel.SetExData] instead.
func (c *Channel) Data() any {
	return c.data
}

// SetData sets the backend-owned state.
func (c *Channel) SetData(data any) {
	c.data = data
}

// Shutdown returns the method-specific close-ownership bit. For the
// built-in descriptor-backed channels it records whether the wrapped
// resource is closed when the channel is destroyed.
func (c *Channel) Shutdown() bool {
	return c.shutdown
}

// SetShutdown sets the method-specific close-ownership bit.
func (c *Channel) SetShutdown(shutdown bool) {
	c.shutdown = shutdown
}

// NumRead returns the total number of bytes read from this channel.
func (c *Channel) NumRead() uint64 {
	return c.numRead
}

// NumWritten returns the total number of bytes written to this channel.
func (c *Channel) NumWritten() uint64 {
	return c.numWritten
}

// Read reads up to len(data) bytes into data. It returns the number of
// bytes read, [io.EOF] at end of data, [ErrWouldBlock] (with retry
// flags set) on transient failure, or a permanent error.
//
// Clearing the retry flags is the first observable effect of this
// call, so inspecting [*Channel.ShouldRetry] right after it reflects
// this call's outcome, never a stale one.
func (c *Channel) Read(data []byte) (int, error) {
	if c.method.Read == nil {
		return 0, ErrUnsupported
	}
	if !c.init {
		return 0, ErrNotInitialized
	}
	c.ClearRetryFlags()
	count, err := c.method.Read(c, data)
	if err != nil {
		return count, err
	}
	c.numRead += uint64(count)
	return count, nil
}

// Write writes up to len(data) bytes from data. A short count with a
// nil error is a valid outcome; the error taxonomy is the same as for
// [*Channel.Read]. Like Read, it clears the retry flags as its first
// observable effect.
func (c *Channel) Write(data []byte) (int, error) {
	if c.method.Write == nil {
		return 0, ErrUnsupported
	}
	if !c.init {
		return 0, ErrNotInitialized
	}
	c.ClearRetryFlags()
	count, err := c.method.Write(c, data)
	if err != nil {
		return count, err
	}
	c.numWritten += uint64(count)
	return count, nil
}

// WriteAll writes all of data, looping over short writes. It returns
// the number of bytes consumed and the first error encountered.
//
// With a blocking backend the loop runs until everything is written or
// a permanent error occurs. With a non-blocking backend a transient
// failure surfaces as [ErrWouldBlock] together with the count consumed
// so far: the caller re-invokes WriteAll with the unwritten suffix.
// This is the canonical half-written-buffer contract; the abstraction
// does not hide it.
func (c *Channel) WriteAll(data []byte) (int, error) {
	total := 0
	for len(data) > 0 {
		count, err := c.Write(data)
		total += count
		if err != nil {
			return total, err
		}
		data = data[count:]
	}
	return total, nil
}

// WriteString writes the given string via [*Channel.Write].
func (c *Channel) WriteString(s string) (int, error) {
	return c.Write([]byte(s))
}

// ReadLine reads a line of at most size-1 bytes. If a complete line
// was read, the result includes the trailing newline; otherwise it
// contains the bytes that were available before size-1 bytes or end
// of data. Not every backend supports line reads; unsupported ones
// fail with [ErrUnsupported].
func (c *Channel) ReadLine(size int) (string, error) {
	if c.method.Gets == nil {
		return "", ErrUnsupported
	}
	if !c.init {
		return "", ErrNotInitialized
	}
	if size <= 0 {
		return "", ErrInvalidArgument
	}
	c.ClearRetryFlags()
	return c.method.Gets(c, size)
}
