// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "io"

// Pair channels provide an in-process loopback: data written to one
// half can be read from the other and vice versa, through bounded
// buffers. A full buffer makes writes fail with [ErrWouldBlock] and
// the write retry flag; an empty one makes reads fail the same way
// with the read retry flag, recording how many bytes the reader asked
// for (see [GetReadRequest]). This makes pairs the natural harness for
// exercising non-blocking chains without sockets.
//
// Pairs assume single-goroutine use, like every other channel kind:
// they are a same-goroutine rendezvous, not a concurrency primitive.

// DefaultPairBufferSize is the buffer capacity used when [NewPair] is
// given a non-positive size.
const DefaultPairBufferSize = 1024

// pairState is the backend state of one half of a pair.
type pairState struct {
	// peer is the state of the other half.
	peer *pairState

	// wbuf holds bytes written by this half, readable by the peer.
	wbuf []byte

	// size is the write buffer capacity.
	size int

	// closed records that this half's write side was shut down.
	closed bool

	// readRequest is the size of this half's last failed read.
	readRequest int
}

// pairMethod is shared by every pair channel.
var pairMethod = &Method{
	Type:    TypePair,
	Name:    "pair",
	Create:  pairCreate,
	Destroy: pairDestroy,
	Read:    pairRead,
	Write:   pairWrite,
	Ctrl:    pairCtrl,
}

// PairMethod returns the [Method] for pair channels.
func PairMethod() *Method {
	return pairMethod
}

// NewPair creates two connected channels: what is written to one can
// be read from the other. The size arguments give each half's write
// buffer capacity; non-positive values mean [DefaultPairBufferSize].
func NewPair(size1, size2 int) (*Channel, *Channel, error) {
	c1, err := New(PairMethod())
	if err != nil {
		return nil, nil, err
	}
	c2, err := New(PairMethod())
	if err != nil {
		c1.Free()
		return nil, nil, err
	}
	if size1 <= 0 {
		size1 = DefaultPairBufferSize
	}
	if size2 <= 0 {
		size2 = DefaultPairBufferSize
	}
	st1 := c1.Data().(*pairState)
	st2 := c2.Data().(*pairState)
	st1.size = size1
	st2.size = size2
	st1.peer = st2
	st2.peer = st1
	return c1, c2, nil
}

// GetWriteGuarantee returns the number of bytes the next write on this
// pair channel is guaranteed to accept.
func GetWriteGuarantee(c *Channel) int {
	value, err := c.Control(CmdGetWriteGuarantee, 0, nil)
	if err != nil || value < 0 {
		return 0
	}
	return int(value)
}

// GetReadRequest returns the number of bytes the other half of the
// pair tried, unsuccessfully, to read.
func GetReadRequest(c *Channel) int {
	value, err := c.Control(CmdGetReadRequest, 0, nil)
	if err != nil || value < 0 {
		return 0
	}
	return int(value)
}

// ShutdownWrite closes the write side of this pair channel: future
// writes on it fail, and the peer sees EOF once it drains the bytes
// already buffered.
func ShutdownWrite(c *Channel) error {
	_, err := c.Control(CmdShutdownWrite, 0, nil)
	return err
}

func pairCreate(c *Channel) error {
	c.SetData(&pairState{})
	c.SetInit(true)
	return nil
}

func pairDestroy(c *Channel) {
	st := c.Data().(*pairState)
	st.closed = true
}

func pairRead(c *Channel, data []byte) (int, error) {
	st := c.Data().(*pairState)
	src := st.peer
	if len(src.wbuf) == 0 {
		if src.closed {
			return 0, io.EOF
		}
		st.readRequest = len(data)
		c.SetRetryRead()
		return 0, ErrWouldBlock
	}
	count := copy(data, src.wbuf)
	src.wbuf = append(src.wbuf[:0], src.wbuf[count:]...)
	st.readRequest = 0
	return count, nil
}

func pairWrite(c *Channel, data []byte) (int, error) {
	st := c.Data().(*pairState)
	if st.closed {
		return 0, io.ErrClosedPipe
	}
	space := st.size - len(st.wbuf)
	if space == 0 {
		c.SetRetryWrite()
		return 0, ErrWouldBlock
	}
	count := min(space, len(data))
	st.wbuf = append(st.wbuf, data[:count]...)
	return count, nil
}

func pairCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	st := c.Data().(*pairState)
	switch cmd {
	case CmdReset:
		st.wbuf = nil
		st.readRequest = 0
		return 1, nil

	case CmdEOF:
		return boolToInt64(st.peer.closed && len(st.peer.wbuf) == 0), nil

	case CmdPending:
		return int64(len(st.peer.wbuf)), nil

	case CmdWPending:
		return int64(len(st.wbuf)), nil

	case CmdFlush:
		return 1, nil

	case CmdGetWriteGuarantee:
		return int64(st.size - len(st.wbuf)), nil

	case CmdGetReadRequest:
		return int64(st.peer.readRequest), nil

	case CmdShutdownWrite:
		st.closed = true
		return 1, nil

	case CmdGetClose:
		return boolToInt64(c.Shutdown()), nil

	case CmdSetClose:
		c.SetShutdown(arg != 0)
		return 1, nil

	default:
		return 0, ErrUnsupported
	}
}
