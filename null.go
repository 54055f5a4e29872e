// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "io"

// nullMethod is shared by every null channel.
var nullMethod = &Method{
	Type:   TypeNull,
	Name:   "null",
	Create: nullCreate,
	Read:   nullRead,
	Write:  nullWrite,
	Ctrl:   nullCtrl,
}

// NullMethod returns the [Method] for null channels: reads report EOF
// and writes discard their input. Useful as a sink at the end of a
// filter chain and as a trivial backend in tests.
func NullMethod() *Method {
	return nullMethod
}

func nullCreate(c *Channel) error {
	c.SetInit(true)
	return nil
}

func nullRead(c *Channel, data []byte) (int, error) {
	return 0, io.EOF
}

func nullWrite(c *Channel, data []byte) (int, error) {
	return len(data), nil
}

func nullCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	switch cmd {
	case CmdReset, CmdFlush:
		return 1, nil
	case CmdEOF:
		return 1, nil
	case CmdPending, CmdWPending:
		return 0, nil
	case CmdGetClose:
		return boolToInt64(c.Shutdown()), nil
	case CmdSetClose:
		c.SetShutdown(arg != 0)
		return 1, nil
	default:
		return 0, ErrUnsupported
	}
}
