// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// Connect channels establish a TCP connection on demand: the dial
// happens on the first read or write, or eagerly via [DoConnect]. A
// dial that times out fails with [ErrWouldBlock], the special-I/O
// retry flag, and [RetryConnect] as the retry reason.
//
// The channel owns the connection it establishes and closes it when
// destroyed (changeable with [*Channel.SetClose]).

// connectState is the backend state of a connect channel.
type connectState struct {
	address       string
	callback      InfoCallback
	closeonce     sync.Once
	conn          net.Conn
	dialer        Dialer
	errClassifier ErrClassifier
	logger        SLogger
	timeNow       func() time.Time
}

// connectMethod is shared by every connect channel.
var connectMethod = &Method{
	Type:         TypeConnect,
	Name:         "connect",
	Create:       connectCreate,
	Destroy:      connectDestroy,
	Read:         connectRead,
	Write:        connectWrite,
	Ctrl:         connectCtrl,
	CallbackCtrl: connectCallbackCtrl,
}

// ConnectMethod returns the [Method] for connect channels.
func ConnectMethod() *Method {
	return connectMethod
}

// NewConnect creates a channel that will connect to the given
// "host:port" address when first used.
//
// The cfg argument contains the common configuration for chanio
// channels; the dial uses [Config.Dialer]. The logger argument is the
// [SLogger] to use for structured logging.
func NewConnect(cfg *Config, logger SLogger, address string) (*Channel, error) {
	c, err := New(ConnectMethod())
	if err != nil {
		return nil, err
	}
	st := c.Data().(*connectState)
	st.address = address
	st.dialer = cfg.Dialer
	st.errClassifier = cfg.ErrClassifier
	st.logger = logger
	st.timeNow = cfg.TimeNow
	c.SetShutdown(true)
	c.SetInit(true)
	return c, nil
}

// DoConnect dials now if the channel is not connected yet. A timed-out
// dial returns [ErrWouldBlock] with [RetryConnect] as the retry
// reason; retry by calling DoConnect again.
func DoConnect(c *Channel) error {
	_, err := c.Control(CmdDoConnect, 0, nil)
	return err
}

// connectDial dials the configured address unless already connected.
func connectDial(c *Channel) error {
	st := c.Data().(*connectState)
	if st.conn != nil {
		return nil
	}

	t0 := st.timeNow()
	st.logger.Info(
		"connectStart",
		slog.String("protocol", "tcp"),
		slog.String("remoteAddr", st.address),
		slog.Time("t", t0),
	)

	conn, err := st.dialer.DialContext(context.Background(), "tcp", st.address)

	st.logger.Info(
		"connectDone",
		slog.Any("err", err),
		slog.String("errClass", st.errClassifier.Classify(err)),
		slog.String("localAddr", safeconn.LocalAddr(conn)),
		slog.String("protocol", "tcp"),
		slog.String("remoteAddr", st.address),
		slog.Time("t0", t0),
		slog.Time("t", st.timeNow()),
	)

	if st.callback != nil {
		ret := 1
		if err != nil {
			ret = 0
		}
		st.callback(c, InfoConnectDone, ret)
	}

	if err != nil {
		if isTransientIOError(err) {
			c.SetRetrySpecial()
			c.SetRetryReason(RetryConnect)
			return ErrWouldBlock
		}
		return err
	}
	st.conn = conn
	return nil
}

func connectCreate(c *Channel) error {
	c.SetData(&connectState{})
	return nil
}

func connectDestroy(c *Channel) {
	st := c.Data().(*connectState)
	if !c.Shutdown() || st.conn == nil {
		return
	}
	st.closeonce.Do(func() {
		st.conn.Close()
	})
}

func connectRead(c *Channel, data []byte) (int, error) {
	if err := connectDial(c); err != nil {
		return 0, err
	}
	st := c.Data().(*connectState)
	count, err := st.conn.Read(data)
	if count > 0 {
		return count, nil
	}
	if err != nil && isTransientIOError(err) {
		c.SetRetryRead()
		return 0, ErrWouldBlock
	}
	return 0, err
}

func connectWrite(c *Channel, data []byte) (int, error) {
	if err := connectDial(c); err != nil {
		return 0, err
	}
	st := c.Data().(*connectState)
	count, err := st.conn.Write(data)
	if count > 0 {
		return count, nil
	}
	if err != nil && isTransientIOError(err) {
		c.SetRetryWrite()
		return 0, ErrWouldBlock
	}
	return 0, err
}

func connectCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	switch cmd {
	case CmdDoConnect:
		if err := connectDial(c); err != nil {
			return 0, err
		}
		return 1, nil
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

func connectCallbackCtrl(c *Channel, cmd Cmd, callback InfoCallback) (int64, error) {
	st := c.Data().(*connectState)
	switch cmd {
	case CmdSetCallback:
		st.callback = callback
		return 1, nil
	default:
		return 0, ErrUnsupported
	}
}
