// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"errors"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// Conn channels wrap a [net.Conn]. Timeout errors from the connection
// (deadline expiry on a connection configured for non-blocking style
// I/O) surface as [ErrWouldBlock] with the matching retry flag set;
// every other error passes through verbatim. All I/O operations emit
// Debug events and close emits Info events, in the structured schema
// shared by this package (localAddr, remoteAddr, protocol, t, and on
// completion t0, err, errClass).

// connState is the backend state of a conn channel.
type connState struct {
	closeonce     sync.Once
	conn          net.Conn
	errClassifier ErrClassifier
	laddr         string
	logger        SLogger
	protocol      string
	raddr         string
	timeNow       func() time.Time
}

// connMethod is shared by every conn channel.
var connMethod = &Method{
	Type:    TypeConn,
	Name:    "conn",
	Create:  connCreate,
	Destroy: connDestroy,
	Read:    connRead,
	Write:   connWrite,
	Ctrl:    connCtrl,
}

// ConnMethod returns the [Method] for conn channels.
func ConnMethod() *Method {
	return connMethod
}

// NewConn wraps an established [net.Conn] in a channel.
//
// The cfg argument contains the common configuration for chanio
// channels. The logger argument is the [SLogger] to use for structured
// logging. With closeOnFree true the channel owns the connection and
// closes it when destroyed.
func NewConn(cfg *Config, logger SLogger, conn net.Conn, closeOnFree bool) (*Channel, error) {
	c, err := New(ConnMethod())
	if err != nil {
		return nil, err
	}
	st := c.Data().(*connState)
	st.conn = conn
	st.errClassifier = cfg.ErrClassifier
	st.laddr = safeconn.LocalAddr(conn)
	st.logger = logger
	st.protocol = safeconn.Network(conn)
	st.raddr = safeconn.RemoteAddr(conn)
	st.timeNow = cfg.TimeNow
	c.SetShutdown(closeOnFree)
	c.SetInit(true)
	return c, nil
}

// isTransientIOError returns whether err is a temporary I/O failure
// that maps to the would-block retry protocol. Deadline expiry is the
// way Go surfaces EAGAIN-style conditions to portable code.
func isTransientIOError(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func connCreate(c *Channel) error {
	c.SetData(&connState{})
	return nil
}

func connDestroy(c *Channel) {
	st := c.Data().(*connState)
	if !c.Shutdown() || st.conn == nil {
		return
	}
	st.closeonce.Do(func() {
		t0 := st.timeNow()
		st.logger.Info(
			"closeStart",
			slog.String("localAddr", st.laddr),
			slog.String("protocol", st.protocol),
			slog.String("remoteAddr", st.raddr),
			slog.Time("t", t0),
		)

		err := st.conn.Close()

		st.logger.Info(
			"closeDone",
			slog.Any("err", err),
			slog.String("errClass", st.errClassifier.Classify(err)),
			slog.String("localAddr", st.laddr),
			slog.String("protocol", st.protocol),
			slog.String("remoteAddr", st.raddr),
			slog.Time("t0", t0),
			slog.Time("t", st.timeNow()),
		)
	})
}

func connRead(c *Channel, data []byte) (int, error) {
	st := c.Data().(*connState)
	t0 := st.timeNow()
	st.logger.Debug(
		"readStart",
		slog.Int("ioBufferSize", len(data)),
		slog.String("localAddr", st.laddr),
		slog.String("protocol", st.protocol),
		slog.String("remoteAddr", st.raddr),
		slog.Time("t", t0),
	)

	count, err := st.conn.Read(data)

	st.logger.Debug(
		"readDone",
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", st.errClassifier.Classify(err)),
		slog.String("localAddr", st.laddr),
		slog.String("protocol", st.protocol),
		slog.String("remoteAddr", st.raddr),
		slog.Time("t0", t0),
		slog.Time("t", st.timeNow()),
	)

	if count > 0 {
		return count, nil
	}
	if err != nil && isTransientIOError(err) {
		c.SetRetryRead()
		return 0, ErrWouldBlock
	}
	return 0, err
}

func connWrite(c *Channel, data []byte) (int, error) {
	st := c.Data().(*connState)
	t0 := st.timeNow()
	st.logger.Debug(
		"writeStart",
		slog.Int("ioBufferSize", len(data)),
		slog.String("localAddr", st.laddr),
		slog.String("protocol", st.protocol),
		slog.String("remoteAddr", st.raddr),
		slog.Time("t", t0),
	)

	count, err := st.conn.Write(data)

	st.logger.Debug(
		"writeDone",
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", st.errClassifier.Classify(err)),
		slog.String("localAddr", st.laddr),
		slog.String("protocol", st.protocol),
		slog.String("remoteAddr", st.raddr),
		slog.Time("t0", t0),
		slog.Time("t", st.timeNow()),
	)

	if count > 0 {
		return count, nil
	}
	if err != nil && isTransientIOError(err) {
		c.SetRetryWrite()
		return 0, ErrWouldBlock
	}
	return 0, err
}

func connCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	switch cmd {
	case CmdFlush:
		return 1, nil
	case CmdEOF:
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
