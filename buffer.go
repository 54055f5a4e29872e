// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"bytes"
	"errors"
	"io"
)

// Buffer channels coalesce writes into a fixed-size buffer that is
// pushed to the next channel when full or on flush, and read from the
// next channel in buffer-size chunks. They also provide line reads
// over the buffered input, which makes [*Channel.ReadLine] usable on
// transports that do not implement it natively.

// DefaultBufferSize is the buffer capacity used when [NewBuffer] is
// given a non-positive size.
const DefaultBufferSize = 4096

// bufferState is the backend state of a buffer channel.
type bufferState struct {
	// rbuf holds input read from next and not yet consumed.
	rbuf []byte

	// wbuf holds output not yet pushed to next.
	wbuf []byte

	// size is the buffer capacity.
	size int
}

// bufferMethod is shared by every buffer channel.
var bufferMethod = &Method{
	Type:   TypeBuffer,
	Name:   "buffer",
	Create: bufferCreate,
	Read:   bufferRead,
	Write:  bufferWrite,
	Gets:   bufferGets,
	Ctrl:   bufferCtrl,
}

// BufferMethod returns the [Method] for buffer channels.
func BufferMethod() *Method {
	return bufferMethod
}

// NewBuffer creates a buffering filter with the given buffer size, or
// [DefaultBufferSize] if size is not positive.
func NewBuffer(size int) (*Channel, error) {
	c, err := New(BufferMethod())
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = DefaultBufferSize
	}
	c.Data().(*bufferState).size = size
	return c, nil
}

func bufferCreate(c *Channel) error {
	c.SetData(&bufferState{size: DefaultBufferSize})
	c.SetInit(true)
	return nil
}

// bufferDrainWrites pushes buffered output to next until the buffer is
// empty or next fails. On failure the retry state is mirrored onto c.
func bufferDrainWrites(c *Channel, next *Channel, st *bufferState) error {
	for len(st.wbuf) > 0 {
		count, err := next.Write(st.wbuf)
		st.wbuf = append(st.wbuf[:0], st.wbuf[count:]...)
		if err != nil {
			c.CopyNextRetry()
			return err
		}
	}
	st.wbuf = nil
	return nil
}

func bufferWrite(c *Channel, data []byte) (int, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*bufferState)
	total := 0
	for len(data) > 0 {
		if space := st.size - len(st.wbuf); space > 0 {
			count := min(space, len(data))
			st.wbuf = append(st.wbuf, data[:count]...)
			data = data[count:]
			total += count
			continue
		}
		if err := bufferDrainWrites(c, next, st); err != nil {
			// Bytes already accepted into the buffer are safe, so a
			// partial count with a nil error takes precedence over a
			// transient failure.
			if total > 0 && errors.Is(err, ErrWouldBlock) {
				c.ClearRetryFlags()
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

// bufferFill reads one chunk from next into the read buffer. On
// failure the retry state is mirrored onto c.
func bufferFill(c *Channel, next *Channel, st *bufferState) error {
	chunk := make([]byte, st.size)
	count, err := next.Read(chunk)
	if err != nil {
		c.CopyNextRetry()
		return err
	}
	st.rbuf = append(st.rbuf, chunk[:count]...)
	return nil
}

func bufferRead(c *Channel, data []byte) (int, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*bufferState)
	if len(st.rbuf) == 0 {
		if err := bufferFill(c, next, st); err != nil {
			return 0, err
		}
	}
	count := copy(data, st.rbuf)
	st.rbuf = st.rbuf[count:]
	return count, nil
}

func bufferGets(c *Channel, size int) (string, error) {
	next := c.Next()
	if next == nil {
		return "", errNoNext
	}
	st := c.Data().(*bufferState)
	for {
		if idx := bytes.IndexByte(st.rbuf, '\n'); idx >= 0 && idx < size-1 {
			break
		}
		if len(st.rbuf) >= size-1 {
			break
		}
		if err := bufferFill(c, next, st); err != nil {
			if errors.Is(err, io.EOF) && len(st.rbuf) > 0 {
				c.ClearRetryFlags()
				break
			}
			return "", err
		}
	}
	limit := min(size-1, len(st.rbuf))
	count := limit
	if idx := bytes.IndexByte(st.rbuf[:limit], '\n'); idx >= 0 {
		count = idx + 1
	}
	line := string(st.rbuf[:count])
	st.rbuf = st.rbuf[count:]
	return line, nil
}

func bufferCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*bufferState)
	switch cmd {
	case CmdFlush:
		if err := bufferDrainWrites(c, next, st); err != nil {
			return 0, err
		}
		if err := next.Flush(); err != nil {
			return 0, err
		}
		return 1, nil

	case CmdReset:
		st.rbuf = nil
		st.wbuf = nil
		return next.Control(cmd, arg, ptr)

	case CmdEOF:
		if len(st.rbuf) > 0 {
			return 0, nil
		}
		return next.Control(cmd, arg, ptr)

	case CmdPending:
		return int64(len(st.rbuf) + next.Pending()), nil

	case CmdWPending:
		return int64(len(st.wbuf) + next.WPending()), nil

	default:
		return next.Control(cmd, arg, ptr)
	}
}
