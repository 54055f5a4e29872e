// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Data written to one half of a pair is readable from the other, in
// both directions.
func TestPairRoundTrip(t *testing.T) {
	c1, c2, err := NewPair(0, 0)
	require.NoError(t, err)
	defer c1.Free()
	defer c2.Free()

	_, err = c1.WriteAll([]byte("ping"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	count, err := c2.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("ping"), buf[:count])

	_, err = c2.WriteAll([]byte("pong"))
	require.NoError(t, err)

	count, err = c1.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("pong"), buf[:count])
}

// Reading from an empty pair would-blocks and records the read request
// for the peer to inspect.
func TestPairReadWouldBlock(t *testing.T) {
	c1, c2, err := NewPair(0, 0)
	require.NoError(t, err)
	defer c1.Free()
	defer c2.Free()

	_, err = c2.Read(make([]byte, 10))

	require.ErrorIs(t, err, ErrWouldBlock)
	assert.True(t, c2.ShouldRead())
	assert.Equal(t, 10, GetReadRequest(c1))

	// A successful read clears the recorded request.
	_, err = c1.WriteAll([]byte("x"))
	require.NoError(t, err)
	_, err = c2.Read(make([]byte, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, GetReadRequest(c1))
}

// Writing to a full pair would-blocks; the write guarantee tracks the
// remaining capacity.
func TestPairWriteWouldBlock(t *testing.T) {
	c1, c2, err := NewPair(4, 4)
	require.NoError(t, err)
	defer c1.Free()
	defer c2.Free()

	assert.Equal(t, 4, GetWriteGuarantee(c1))

	count, err := c1.Write([]byte("123456"))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Equal(t, 0, GetWriteGuarantee(c1))

	_, err = c1.Write([]byte("x"))
	require.ErrorIs(t, err, ErrWouldBlock)
	assert.True(t, c1.ShouldWrite())

	// Draining the peer restores capacity.
	_, err = c2.Read(make([]byte, 8))
	require.NoError(t, err)
	assert.Equal(t, 4, GetWriteGuarantee(c1))
}

// Pending on one half reflects the bytes buffered by the peer.
func TestPairPending(t *testing.T) {
	c1, c2, err := NewPair(0, 0)
	require.NoError(t, err)
	defer c1.Free()
	defer c2.Free()

	_, err = c1.WriteAll([]byte("abc"))
	require.NoError(t, err)

	assert.Equal(t, 3, c2.Pending())
	assert.Equal(t, 3, c1.WPending())
	assert.Equal(t, 0, c1.Pending())
}

// After a write shutdown, writes on that half fail and the peer sees
// EOF once the buffered bytes are drained.
func TestPairShutdownWrite(t *testing.T) {
	c1, c2, err := NewPair(0, 0)
	require.NoError(t, err)
	defer c1.Free()
	defer c2.Free()

	_, err = c1.WriteAll([]byte("last"))
	require.NoError(t, err)
	require.NoError(t, ShutdownWrite(c1))

	_, err = c1.Write([]byte("more"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	// Buffered bytes are still served before EOF.
	assert.False(t, c2.AtEOF())
	buf := make([]byte, 8)
	count, err := c2.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("last"), buf[:count])

	_, err = c2.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
	assert.True(t, c2.AtEOF())
}

// Destroying one half behaves like a write shutdown for the survivor.
func TestPairFreePeer(t *testing.T) {
	c1, c2, err := NewPair(0, 0)
	require.NoError(t, err)
	defer c2.Free()

	c1.Free()

	_, err = c2.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)
}

// Reset discards buffered bytes and the recorded read request.
func TestPairReset(t *testing.T) {
	c1, c2, err := NewPair(0, 0)
	require.NoError(t, err)
	defer c1.Free()
	defer c2.Free()

	_, err = c1.WriteAll([]byte("junk"))
	require.NoError(t, err)
	_, err = c1.Read(make([]byte, 6))
	require.ErrorIs(t, err, ErrWouldBlock)

	require.NoError(t, c1.Reset())

	assert.Equal(t, 0, c2.Pending())
	assert.Equal(t, 0, GetReadRequest(c2))
}
