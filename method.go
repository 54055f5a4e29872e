// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "sync/atomic"

// Type identifies the concrete kind of a channel. A type value is a
// small base id ORed with the capability bits below. The type is used
// for diagnostics and chain lookup (see [*Channel.FindType]), never
// for dispatch.
type Type int

const (
	// TypeDescriptor marks channels backed by a descriptor-like
	// resource (a socket or file handle).
	TypeDescriptor Type = 0x0100

	// TypeFilter marks channels that transform or forward data for
	// the next channel in the chain.
	TypeFilter Type = 0x0200

	// TypeSourceSink marks channels that originate or absorb data
	// themselves.
	TypeSourceSink Type = 0x0400
)

// Types of the channels implemented by this package.
const (
	TypeNone    Type = 0
	TypeMem          = Type(1) | TypeSourceSink
	TypeFile         = Type(2) | TypeSourceSink
	TypeConn         = Type(5) | TypeSourceSink | TypeDescriptor
	TypeNull         = Type(6) | TypeSourceSink
	TypeBuffer       = Type(9) | TypeFilter
	TypeBase64       = Type(11) | TypeFilter
	TypeConnect      = Type(12) | TypeSourceSink | TypeDescriptor
	TypeObserve      = Type(17) | TypeFilter
	TypePair         = Type(19) | TypeSourceSink
)

// TypeStart is the first base id available for custom channel kinds.
const TypeStart = 128

// typeIndex counts the custom base ids handed out so far.
var typeIndex atomic.Int64

// NewTypeIndex returns a fresh base id for a custom channel kind. The
// caller should OR in the applicable capability bits before using the
// result as [Method.Type]. The underlying counter is process wide,
// monotonic, and safe for concurrent use.
func NewTypeIndex() Type {
	return TypeStart + Type(typeIndex.Add(1)) - 1
}

// InfoCallback is an informational callback that a backend invokes to
// report progress of long-running operations. The state argument is a
// backend-specific code and ret is the provisional result (1 on
// success, 0 on failure).
type InfoCallback func(c *Channel, state int, ret int)

// InfoConnectDone is the state reported to an [InfoCallback] by the
// connect channel once a dial attempt completes.
const InfoConnectDone = 2

// Method describes the behavior of one kind of [Channel]. A single
// Method value is shared, read only, by every channel of that kind:
// construct it once and never mutate it afterwards.
//
// Any hook may be nil. Invoking an operation whose hook is unset fails
// with [ErrUnsupported] rather than panicking.
type Method struct {
	// Type identifies the channel kind.
	Type Type

	// Name is a diagnostic label for the channel kind.
	Name string

	// Create initializes backend state on a fresh channel. It
	// typically calls [*Channel.SetData] and, if no further setup
	// is needed, [*Channel.SetInit].
	Create func(c *Channel) error

	// Destroy releases backend state. It runs exactly once, when
	// the channel's reference count reaches zero and before the
	// rest of the chain is released.
	Destroy func(c *Channel)

	// Read implements [*Channel.Read].
	Read func(c *Channel, data []byte) (int, error)

	// Write implements [*Channel.Write].
	Write func(c *Channel, data []byte) (int, error)

	// Gets implements [*Channel.ReadLine].
	Gets func(c *Channel, size int) (string, error)

	// Ctrl implements [*Channel.Control].
	Ctrl func(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error)

	// CallbackCtrl implements [*Channel.CallbackCtrl].
	CallbackCtrl func(c *Channel, cmd Cmd, callback InfoCallback) (int64, error)
}
