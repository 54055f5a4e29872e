// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "errors"

// Cmd is a control command code understood by [*Channel.Control].
//
// The generic control dispatch is the single extensibility point of
// the abstraction: backend-specific behaviors are added as new command
// codes rather than as new interface methods. That trades type safety
// for extensibility, which is a deliberate compromise; the common
// commands are wrapped by typed convenience methods below.
type Cmd int

// Generic commands, implemented by most channel kinds.
const (
	CmdReset       Cmd = 1
	CmdEOF         Cmd = 2
	CmdGetClose    Cmd = 8
	CmdSetClose    Cmd = 9
	CmdPending     Cmd = 10
	CmdFlush       Cmd = 11
	CmdWPending    Cmd = 13
	CmdSetCallback Cmd = 14
	CmdGetCallback Cmd = 15
)

// Backend-specific commands.
const (
	// CmdDoConnect makes a connect channel dial now (see [DoConnect]).
	CmdDoConnect Cmd = 101

	// CmdFileSeek sets the offset of a file channel (see [Seek]).
	CmdFileSeek Cmd = 128

	// CmdSetMemEOFReturn configures the drained-buffer behavior of a
	// memory channel (see [SetMemEOFReturn]).
	CmdSetMemEOFReturn Cmd = 130

	// CmdFileTell reports the offset of a file channel (see [Tell]).
	CmdFileTell Cmd = 133

	// CmdMemContents reports the current contents of a memory
	// channel (see [MemContents]).
	CmdMemContents Cmd = 135

	// CmdGetWriteGuarantee reports how many bytes the next write on
	// a pair channel will accept (see [GetWriteGuarantee]).
	CmdGetWriteGuarantee Cmd = 140

	// CmdGetReadRequest reports how many bytes the peer of a pair
	// channel tried and failed to read (see [GetReadRequest]).
	CmdGetReadRequest Cmd = 141

	// CmdShutdownWrite closes the write side of a pair channel (see
	// [ShutdownWrite]).
	CmdShutdownWrite Cmd = 142
)

// Control sends the given command to the channel's backend. The arg
// and ptr arguments carry command-specific values. Backends fail with
// [ErrUnsupported] for commands they do not recognize; filters instead
// forward unrecognized commands to the next channel in the chain.
func (c *Channel) Control(cmd Cmd, arg int64, ptr any) (int64, error) {
	if c.method.Ctrl == nil {
		return 0, ErrUnsupported
	}
	return c.method.Ctrl(c, cmd, arg, ptr)
}

// PtrControl invokes [*Channel.Control] passing the address of an any
// value and returns the pointee. Use it with commands that report an
// address-like result, such as [CmdMemContents].
func (c *Channel) PtrControl(cmd Cmd, arg int64) (any, error) {
	var out any
	if _, err := c.Control(cmd, arg, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IntControl invokes [*Channel.Control] passing the address of a copy
// of value. It exists for commands that historically take a small
// value by pointer.
func (c *Channel) IntControl(cmd Cmd, arg int64, value int) (int64, error) {
	v := value
	return c.Control(cmd, arg, &v)
}

// CallbackCtrl sends a command that installs or manipulates an
// [InfoCallback] on the channel's backend.
func (c *Channel) CallbackCtrl(cmd Cmd, callback InfoCallback) (int64, error) {
	if c.method.CallbackCtrl == nil {
		return 0, ErrUnsupported
	}
	return c.method.CallbackCtrl(c, cmd, callback)
}

// Reset restores the channel to its initial state. The precise meaning
// depends on the channel kind: a read-only memory channel restores its
// original contents, a writable one discards everything stored, a file
// channel seeks back to the start.
func (c *Channel) Reset() error {
	_, err := c.Control(CmdReset, 0, nil)
	return err
}

// AtEOF returns whether the channel reached its end of data.
func (c *Channel) AtEOF() bool {
	value, err := c.Control(CmdEOF, 0, nil)
	return err == nil && value != 0
}

// Pending returns the number of bytes available to be read without
// touching the underlying transport, or zero if the channel does not
// track pending input.
func (c *Channel) Pending() int {
	value, err := c.Control(CmdPending, 0, nil)
	if err != nil || value < 0 {
		return 0
	}
	return int(value)
}

// WPending returns the number of buffered bytes not yet written out,
// or zero if the channel does not buffer output.
func (c *Channel) WPending() int {
	value, err := c.Control(CmdWPending, 0, nil)
	if err != nil || value < 0 {
		return 0
	}
	return int(value)
}

// Flush pushes any buffered output down the chain. Channels without
// output buffering succeed trivially, including channels whose backend
// does not implement the command at all. Like [*Channel.Write], Flush
// clears the retry flags as its first observable effect.
func (c *Channel) Flush() error {
	c.ClearRetryFlags()
	_, err := c.Control(CmdFlush, 0, nil)
	if errors.Is(err, ErrUnsupported) {
		return nil
	}
	return err
}

// SetClose sets the channel's close-ownership bit: whether the backend
// closes the wrapped resource when the channel is destroyed.
func (c *Channel) SetClose(own bool) error {
	var arg int64
	if own {
		arg = 1
	}
	_, err := c.Control(CmdSetClose, arg, nil)
	return err
}

// GetClose reports the channel's close-ownership bit.
func (c *Channel) GetClose() (bool, error) {
	value, err := c.Control(CmdGetClose, 0, nil)
	return value != 0, err
}
