// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"io"
	"os"
)

// File channels wrap an [*os.File]. Resetting seeks back to the start
// of the file; the close-ownership bit controls whether destroying the
// channel closes the handle.

// fileState is the backend state of a file channel.
type fileState struct {
	file *os.File
}

// fileMethod is shared by every file channel.
var fileMethod = &Method{
	Type:    TypeFile,
	Name:    "file",
	Create:  fileCreate,
	Destroy: fileDestroy,
	Read:    fileRead,
	Write:   fileWrite,
	Gets:    fileGets,
	Ctrl:    fileCtrl,
}

// FileMethod returns the [Method] for file channels.
func FileMethod() *Method {
	return fileMethod
}

// NewFile opens the named file with the given [os.OpenFile] flags and
// wraps it in a channel that owns the handle.
func NewFile(path string, flag int) (*Channel, error) {
	file, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}
	c, err := NewFilePtr(file, true)
	if err != nil {
		file.Close()
		return nil, err
	}
	return c, nil
}

// NewFilePtr wraps an existing [*os.File]. With closeOnFree true the
// channel owns the handle and closes it when destroyed; otherwise the
// handle stays open and the caller keeps responsibility for it. The
// ownership bit can be changed later with [*Channel.SetClose].
func NewFilePtr(file *os.File, closeOnFree bool) (*Channel, error) {
	c, err := New(FileMethod())
	if err != nil {
		return nil, err
	}
	st := c.Data().(*fileState)
	st.file = file
	c.SetShutdown(closeOnFree)
	c.SetInit(true)
	return c, nil
}

// Tell returns the current file offset of a file channel.
func Tell(c *Channel) (int64, error) {
	return c.Control(CmdFileTell, 0, nil)
}

// Seek sets the file offset of a file channel and returns the
// resulting offset.
func Seek(c *Channel, offset int64) (int64, error) {
	return c.Control(CmdFileSeek, offset, nil)
}

func fileCreate(c *Channel) error {
	c.SetData(&fileState{})
	return nil
}

func fileDestroy(c *Channel) {
	st := c.Data().(*fileState)
	if c.Shutdown() && st.file != nil {
		st.file.Close()
		st.file = nil
	}
}

func fileRead(c *Channel, data []byte) (int, error) {
	st := c.Data().(*fileState)
	count, err := st.file.Read(data)
	if count > 0 {
		return count, nil
	}
	return 0, err
}

func fileWrite(c *Channel, data []byte) (int, error) {
	st := c.Data().(*fileState)
	return st.file.Write(data)
}

func fileGets(c *Channel, size int) (string, error) {
	st := c.Data().(*fileState)
	line := make([]byte, 0, size-1)
	one := make([]byte, 1)
	for len(line) < size-1 {
		count, err := st.file.Read(one)
		if count > 0 {
			line = append(line, one[0])
			if one[0] == '\n' {
				break
			}
			continue
		}
		if err == io.EOF {
			if len(line) > 0 {
				break
			}
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
	}
	return string(line), nil
}

func fileCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	st := c.Data().(*fileState)
	switch cmd {
	case CmdReset:
		if _, err := st.file.Seek(0, io.SeekStart); err != nil {
			return 0, err
		}
		return 1, nil

	case CmdEOF:
		offset, err := st.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		info, err := st.file.Stat()
		if err != nil {
			return 0, err
		}
		return boolToInt64(offset >= info.Size()), nil

	case CmdFileSeek:
		offset, err := st.file.Seek(arg, io.SeekStart)
		if err != nil {
			return 0, err
		}
		return offset, nil

	case CmdFileTell:
		offset, err := st.file.Seek(0, io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		return offset, nil

	case CmdFlush:
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
