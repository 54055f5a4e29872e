// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"io"
)

// Base64 channels are filters that base64-encode data written into
// them and decode data read from them. Written data is held back until
// [*Channel.Flush], which encodes it and pushes the text to the next
// channel: call Flush when done writing to signal that no more data is
// to be encoded. Reading pulls the full encoded text from the next
// channel before serving decoded bytes.
//
// By default the encoder wraps its output at 64 characters per line
// and ends it with a newline. Setting [FlagBase64NoNewline] on the
// channel emits a single line with no trailing newline instead.
//
// Line reads are not supported.

// base64LineLength is the wrap column of the multi-line encoding.
const base64LineLength = 64

// base64State is the backend state of a base64 channel.
type base64State struct {
	// decoded holds decoded bytes not yet served to the reader.
	decoded []byte

	// encoded holds encoded text not yet pushed to next.
	encoded []byte

	// pending holds raw bytes written and not yet encoded.
	pending []byte

	// raw accumulates encoded text pulled from next.
	raw []byte

	// readDone records that next reported EOF and raw was decoded.
	readDone bool
}

// base64Method is shared by every base64 channel.
var base64Method = &Method{
	Type:   TypeBase64,
	Name:   "base64",
	Create: base64Create,
	Read:   base64Read,
	Write:  base64Write,
	Ctrl:   base64Ctrl,
}

// Base64Method returns the [Method] for base64 channels.
func Base64Method() *Method {
	return base64Method
}

// NewBase64 creates a base64 filter.
func NewBase64() (*Channel, error) {
	return New(Base64Method())
}

func base64Create(c *Channel) error {
	c.SetData(&base64State{})
	c.SetInit(true)
	return nil
}

func base64Write(c *Channel, data []byte) (int, error) {
	if c.Next() == nil {
		return 0, errNoNext
	}
	st := c.Data().(*base64State)
	st.pending = append(st.pending, data...)
	return len(data), nil
}

// base64Encode encodes the raw input per the channel's newline flag.
func base64Encode(c *Channel, raw []byte) []byte {
	text := base64.StdEncoding.EncodeToString(raw)
	if c.TestFlags(FlagBase64NoNewline) != 0 {
		return []byte(text)
	}
	var out bytes.Buffer
	for len(text) > 0 {
		count := min(base64LineLength, len(text))
		out.WriteString(text[:count])
		out.WriteByte('\n')
		text = text[count:]
	}
	return out.Bytes()
}

// base64DrainEncoded pushes encoded text to next, keeping the
// unwritten suffix for a later retry. On failure the retry state is
// mirrored onto c.
func base64DrainEncoded(c *Channel, next *Channel, st *base64State) error {
	for len(st.encoded) > 0 {
		count, err := next.Write(st.encoded)
		st.encoded = append(st.encoded[:0], st.encoded[count:]...)
		if err != nil {
			c.CopyNextRetry()
			return err
		}
	}
	st.encoded = nil
	return nil
}

func base64Read(c *Channel, data []byte) (int, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*base64State)

	// Pull the whole encoded text before decoding: standard base64
	// has no self-delimiting frames, so decoding is done once the
	// source is exhausted. Encoded bytes pulled before a transient
	// failure are kept for the retry.
	for len(st.decoded) == 0 && !st.readDone {
		chunk := make([]byte, 512)
		count, err := next.Read(chunk)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				c.CopyNextRetry()
				return 0, err
			}
			text := bytes.ReplaceAll(st.raw, []byte("\n"), nil)
			text = bytes.ReplaceAll(text, []byte("\r"), nil)
			decoded := make([]byte, base64.StdEncoding.DecodedLen(len(text)))
			n, err := base64.StdEncoding.Decode(decoded, text)
			if err != nil {
				return 0, err
			}
			st.decoded = decoded[:n]
			st.raw = nil
			st.readDone = true
			break
		}
		st.raw = append(st.raw, chunk[:count]...)
	}

	if len(st.decoded) == 0 {
		return 0, io.EOF
	}
	count := copy(data, st.decoded)
	st.decoded = st.decoded[count:]
	return count, nil
}

func base64Ctrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*base64State)
	switch cmd {
	case CmdFlush:
		if len(st.pending) > 0 {
			st.encoded = append(st.encoded, base64Encode(c, st.pending)...)
			st.pending = nil
		}
		if err := base64DrainEncoded(c, next, st); err != nil {
			return 0, err
		}
		if err := next.Flush(); err != nil {
			return 0, err
		}
		return 1, nil

	case CmdReset:
		*st = base64State{}
		return next.Control(cmd, arg, ptr)

	case CmdEOF:
		if !st.readDone || len(st.decoded) > 0 {
			return 0, nil
		}
		return 1, nil

	case CmdPending:
		return int64(len(st.decoded)), nil

	case CmdWPending:
		return int64(len(st.pending) + len(st.encoded)), nil

	default:
		return next.Control(cmd, arg, ptr)
	}
}
