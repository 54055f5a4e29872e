// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"io"
	"net"
	"os"
	"testing"

	"github.com/bassosimone/netstub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/nettest"
)

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network]
// during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// A conn channel forwards reads and writes to the wrapped connection
// and emits per-I/O debug events.
func TestConnReadWrite(t *testing.T) {
	mockConn := newMinimalConn()
	mockConn.ReadFunc = func(b []byte) (int, error) {
		return copy(b, "pong"), nil
	}
	var written []byte
	mockConn.WriteFunc = func(b []byte) (int, error) {
		written = append(written, b...)
		return len(b), nil
	}

	logger, records := newCapturingLogger()
	c, err := NewConn(NewConfig(), logger, mockConn, false)
	require.NoError(t, err)
	defer c.Free()

	count, err := c.Write([]byte("ping"))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, []byte("ping"), written)

	buf := make([]byte, 8)
	count, err = c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), buf[:count])

	messages := recordMessages(records)
	assert.Contains(t, messages, "writeStart")
	assert.Contains(t, messages, "writeDone")
	assert.Contains(t, messages, "readStart")
	assert.Contains(t, messages, "readDone")
}

// Deadline expiry on the wrapped connection maps to ErrWouldBlock with
// the matching retry flag.
func TestConnTimeoutMapsToWouldBlock(t *testing.T) {
	mockConn := newMinimalConn()
	mockConn.ReadFunc = func(b []byte) (int, error) {
		return 0, os.ErrDeadlineExceeded
	}
	mockConn.WriteFunc = func(b []byte) (int, error) {
		return 0, os.ErrDeadlineExceeded
	}

	c, err := NewConn(NewConfig(), DefaultSLogger(), mockConn, false)
	require.NoError(t, err)
	defer c.Free()

	_, err = c.Read(make([]byte, 4))
	require.ErrorIs(t, err, ErrWouldBlock)
	assert.True(t, c.ShouldRead())
	assert.False(t, c.ShouldWrite())

	_, err = c.Write([]byte("x"))
	require.ErrorIs(t, err, ErrWouldBlock)
	assert.True(t, c.ShouldWrite())
	assert.False(t, c.ShouldRead())
}

// A permanent error from the wrapped connection passes through
// without setting retry flags.
func TestConnPermanentError(t *testing.T) {
	mockConn := newMinimalConn()
	mockConn.ReadFunc = func(b []byte) (int, error) {
		return 0, net.ErrClosed
	}

	c, err := NewConn(NewConfig(), DefaultSLogger(), mockConn, false)
	require.NoError(t, err)
	defer c.Free()

	_, err = c.Read(make([]byte, 4))

	require.ErrorIs(t, err, net.ErrClosed)
	assert.False(t, c.ShouldRetry())
}

// With close ownership, destroying the channel closes the wrapped
// connection and logs the close; without it, the connection survives.
func TestConnCloseOwnership(t *testing.T) {
	closeCalled := false
	mockConn := newMinimalConn()
	mockConn.CloseFunc = func() error {
		closeCalled = true
		return nil
	}

	logger, records := newCapturingLogger()
	c, err := NewConn(NewConfig(), logger, mockConn, true)
	require.NoError(t, err)
	c.Free()

	assert.True(t, closeCalled)
	messages := recordMessages(records)
	assert.Contains(t, messages, "closeStart")
	assert.Contains(t, messages, "closeDone")

	closeCalled = false
	c, err = NewConn(NewConfig(), DefaultSLogger(), mockConn, false)
	require.NoError(t, err)
	c.Free()

	assert.False(t, closeCalled)
}

// A conn channel carries real traffic over a local listener.
func TestConnLocalRoundTrip(t *testing.T) {
	listener, err := nettest.NewLocalListener("tcp")
	require.NoError(t, err)
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		if _, err := io.ReadFull(conn, buf); err != nil {
			return
		}
		conn.Write(buf)
	}()

	conn, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)

	c, err := NewConn(NewConfig(), DefaultSLogger(), conn, true)
	require.NoError(t, err)
	defer c.Free()

	_, err = c.WriteAll([]byte("hello"))
	require.NoError(t, err)

	buf := make([]byte, 5)
	total := 0
	for total < 5 {
		count, err := c.Read(buf[total:])
		require.NoError(t, err)
		total += count
	}
	assert.Equal(t, []byte("hello"), buf)
	assert.Equal(t, uint64(5), c.NumRead())
	assert.Equal(t, uint64(5), c.NumWritten())
}
