// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"bytes"
	"io"
)

// Memory channels store data in a byte buffer. A writable memory
// channel (created with [New] and [MemMethod]) recalls written data
// when read; a read-only one (created with [NewMemBuf]) serves a fixed
// buffer. Resetting a writable channel discards everything stored;
// resetting a read-only one restores the original contents.

// memState is the backend state of a memory channel.
type memState struct {
	// buf holds the bytes not yet consumed by reads.
	buf []byte

	// orig holds the original contents of a read-only channel,
	// used by reset.
	orig []byte

	// eofValue selects the drained-buffer behavior: zero means hard
	// EOF, nonzero means would-block with the read retry flag set.
	eofValue int
}

// memMethod is shared by every memory channel.
var memMethod = &Method{
	Type:   TypeMem,
	Name:   "memory buffer",
	Create: memCreate,
	Read:   memRead,
	Write:  memWrite,
	Gets:   memGets,
	Ctrl:   memCtrl,
}

// MemMethod returns the [Method] for memory channels. Channels created
// directly from it are writable and return [ErrWouldBlock] once
// drained, so that more data can be written and read back later; use
// [SetMemEOFReturn] to get hard EOF semantics instead.
func MemMethod() *Method {
	return memMethod
}

// NewMemBuf creates a read-only memory channel serving the given
// bytes. The channel does not copy data: the caller must not mutate it
// while the channel is alive. A drained read-only channel reports EOF.
func NewMemBuf(data []byte) (*Channel, error) {
	c, err := New(MemMethod())
	if err != nil {
		return nil, err
	}
	st := c.Data().(*memState)
	st.buf = data
	st.orig = data
	st.eofValue = 0
	c.SetFlags(flagMemReadOnly)
	return c, nil
}

// SetMemEOFReturn configures what reading a drained memory channel
// does. With eofValue zero the channel reports hard EOF; with a
// nonzero eofValue (conventionally -1) it fails with [ErrWouldBlock]
// and sets the read retry flag, so a caller can write more data and
// retry. The default is zero for read-only channels and -1 for
// writable ones.
func SetMemEOFReturn(c *Channel, eofValue int) error {
	_, err := c.Control(CmdSetMemEOFReturn, int64(eofValue), nil)
	return err
}

// MemContents returns the bytes currently stored in a memory channel
// without consuming them. The result aliases the channel's buffer and
// is invalidated by the next read, write, or reset.
func MemContents(c *Channel) ([]byte, error) {
	var out []byte
	if _, err := c.Control(CmdMemContents, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func memCreate(c *Channel) error {
	c.SetData(&memState{eofValue: -1})
	c.SetInit(true)
	return nil
}

func memRead(c *Channel, data []byte) (int, error) {
	st := c.Data().(*memState)
	if len(st.buf) == 0 {
		if st.eofValue == 0 {
			return 0, io.EOF
		}
		c.SetRetryRead()
		return 0, ErrWouldBlock
	}
	count := copy(data, st.buf)
	st.buf = st.buf[count:]
	return count, nil
}

func memWrite(c *Channel, data []byte) (int, error) {
	if c.TestFlags(flagMemReadOnly) != 0 {
		return 0, ErrUnsupported
	}
	st := c.Data().(*memState)
	st.buf = append(st.buf, data...)
	return len(data), nil
}

func memGets(c *Channel, size int) (string, error) {
	st := c.Data().(*memState)
	if len(st.buf) == 0 {
		if st.eofValue == 0 {
			return "", io.EOF
		}
		c.SetRetryRead()
		return "", ErrWouldBlock
	}
	limit := min(size-1, len(st.buf))
	count := limit
	if idx := bytes.IndexByte(st.buf[:limit], '\n'); idx >= 0 {
		count = idx + 1
	}
	line := string(st.buf[:count])
	st.buf = st.buf[count:]
	return line, nil
}

func memCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	st := c.Data().(*memState)
	switch cmd {
	case CmdReset:
		if c.TestFlags(flagMemReadOnly) != 0 {
			st.buf = st.orig
		} else {
			st.buf = nil
		}
		return 1, nil

	case CmdEOF:
		if len(st.buf) == 0 {
			return 1, nil
		}
		return 0, nil

	case CmdPending:
		return int64(len(st.buf)), nil

	case CmdWPending:
		return 0, nil

	case CmdFlush:
		return 1, nil

	case CmdGetClose:
		return boolToInt64(c.Shutdown()), nil

	case CmdSetClose:
		c.SetShutdown(arg != 0)
		return 1, nil

	case CmdSetMemEOFReturn:
		st.eofValue = int(arg)
		return 1, nil

	case CmdMemContents:
		switch out := ptr.(type) {
		case *[]byte:
			*out = st.buf
		case *any:
			*out = st.buf
		default:
			return 0, ErrInvalidArgument
		}
		return int64(len(st.buf)), nil

	default:
		return 0, ErrUnsupported
	}
}

// boolToInt64 converts a bool to the 0/1 convention used by control
// return values.
func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}
