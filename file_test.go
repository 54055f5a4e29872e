// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A file channel writes to and reads back from the underlying file,
// with reset seeking back to the start.
func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	c, err := NewFile(path, os.O_CREATE|os.O_RDWR)
	require.NoError(t, err)
	defer c.Free()

	count, err := c.WriteAll([]byte("file contents"))
	require.NoError(t, err)
	assert.Equal(t, 13, count)

	offset, err := Tell(c)
	require.NoError(t, err)
	assert.Equal(t, int64(13), offset)
	assert.True(t, c.AtEOF())

	require.NoError(t, c.Reset())

	offset, err = Tell(c)
	require.NoError(t, err)
	assert.Equal(t, int64(0), offset)

	buf := make([]byte, 32)
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("file contents"), buf[:n])

	_, err = c.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
}

// Seek repositions the file offset via the control protocol.
func TestFileSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	c, err := NewFile(path, os.O_CREATE|os.O_RDWR)
	require.NoError(t, err)
	defer c.Free()

	_, err = c.WriteAll([]byte("0123456789"))
	require.NoError(t, err)

	offset, err := Seek(c, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(4), offset)

	buf := make([]byte, 3)
	n, err := c.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("456"), buf[:n])
}

// ReadLine reads newline-terminated lines from a file.
func TestFileReadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt")
	require.NoError(t, os.WriteFile(path, []byte("first\nsecond\n"), 0644))

	c, err := NewFile(path, os.O_RDONLY)
	require.NoError(t, err)
	defer c.Free()

	line, err := c.ReadLine(64)
	require.NoError(t, err)
	assert.Equal(t, "first\n", line)

	line, err = c.ReadLine(64)
	require.NoError(t, err)
	assert.Equal(t, "second\n", line)

	_, err = c.ReadLine(64)
	assert.ErrorIs(t, err, io.EOF)
}

// NewFilePtr without close ownership leaves the handle open after the
// channel is destroyed.
func TestFilePtrOwnership(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer file.Close()

	c, err := NewFilePtr(file, false)
	require.NoError(t, err)

	own, err := c.GetClose()
	require.NoError(t, err)
	assert.False(t, own)

	c.Free()

	// The handle must still be usable.
	_, err = file.WriteString("still open")
	assert.NoError(t, err)
}

// NewFile owns the handle it opens and closes it on destroy.
func TestFileCloseOnFree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	c, err := NewFile(path, os.O_CREATE|os.O_RDWR)
	require.NoError(t, err)

	own, err := c.GetClose()
	require.NoError(t, err)
	assert.True(t, own)

	st := c.Data().(*fileState)
	file := st.file
	c.Free()

	_, err = file.WriteString("closed")
	assert.Error(t, err)
}

// NewFile propagates open errors.
func TestFileOpenError(t *testing.T) {
	c, err := NewFile(filepath.Join(t.TempDir(), "missing", "file"), os.O_RDONLY)

	require.Error(t, err)
	assert.Nil(t, c)
}
