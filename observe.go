// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"log/slog"
	"time"
)

// Observe channels are pass-through filters that log every read and
// write crossing them, together with the outcome and its error class.
// They transform nothing: push one on top of any chain to get
// visibility into the traffic reaching the wrapped transport.
//
// On a transient failure from the next channel, the filter mirrors the
// retry flags onto itself, so callers keep polling retry state on the
// chain head as usual.

// observeState is the backend state of an observe channel.
type observeState struct {
	errClassifier ErrClassifier
	logger        SLogger
	timeNow       func() time.Time
}

// observeMethod is shared by every observe channel.
var observeMethod = &Method{
	Type:         TypeObserve,
	Name:         "observe",
	Create:       observeCreate,
	Read:         observeRead,
	Write:        observeWrite,
	Gets:         observeGets,
	Ctrl:         observeCtrl,
	CallbackCtrl: observeCallbackCtrl,
}

// ObserveMethod returns the [Method] for observe channels.
func ObserveMethod() *Method {
	return observeMethod
}

// NewObserve creates an observe filter.
//
// The cfg argument contains the common configuration for chanio
// channels. The logger argument is the [SLogger] to use for structured
// logging.
func NewObserve(cfg *Config, logger SLogger) (*Channel, error) {
	c, err := New(ObserveMethod())
	if err != nil {
		return nil, err
	}
	st := c.Data().(*observeState)
	st.errClassifier = cfg.ErrClassifier
	st.logger = logger
	st.timeNow = cfg.TimeNow
	return c, nil
}

func observeCreate(c *Channel) error {
	c.SetData(&observeState{})
	c.SetInit(true)
	return nil
}

func observeRead(c *Channel, data []byte) (int, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*observeState)

	t0 := st.timeNow()
	st.logger.Debug(
		"readStart",
		slog.Int("ioBufferSize", len(data)),
		slog.String("channelType", next.Method().Name),
		slog.Time("t", t0),
	)

	count, err := next.Read(data)

	st.logger.Debug(
		"readDone",
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", st.errClassifier.Classify(err)),
		slog.String("channelType", next.Method().Name),
		slog.Time("t0", t0),
		slog.Time("t", st.timeNow()),
	)

	if err != nil {
		c.CopyNextRetry()
	}
	return count, err
}

func observeWrite(c *Channel, data []byte) (int, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	st := c.Data().(*observeState)

	t0 := st.timeNow()
	st.logger.Debug(
		"writeStart",
		slog.Int("ioBufferSize", len(data)),
		slog.String("channelType", next.Method().Name),
		slog.Time("t", t0),
	)

	count, err := next.Write(data)

	st.logger.Debug(
		"writeDone",
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", st.errClassifier.Classify(err)),
		slog.String("channelType", next.Method().Name),
		slog.Time("t0", t0),
		slog.Time("t", st.timeNow()),
	)

	if err != nil {
		c.CopyNextRetry()
	}
	return count, err
}

func observeGets(c *Channel, size int) (string, error) {
	next := c.Next()
	if next == nil {
		return "", errNoNext
	}
	line, err := next.ReadLine(size)
	if err != nil {
		c.CopyNextRetry()
	}
	return line, err
}

func observeCtrl(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	return next.Control(cmd, arg, ptr)
}

func observeCallbackCtrl(c *Channel, cmd Cmd, callback InfoCallback) (int64, error) {
	next := c.Next()
	if next == nil {
		return 0, errNoNext
	}
	return next.CallbackCtrl(cmd, callback)
}
