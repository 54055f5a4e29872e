// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"context"
	"io"
	"log/slog"

	"github.com/bassosimone/slogstub"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var records []slog.Record
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			records = append(records, record)
			return nil
		},
	}
	return slog.New(handler), &records
}

// recordMessages extracts the message of each captured record.
func recordMessages(records *[]slog.Record) []string {
	var out []string
	for _, record := range *records {
		out = append(out, record.Message)
	}
	return out
}

// testBackend is an in-memory backend used to exercise the channel
// core with controlled behavior.
type testBackend struct {
	// created counts Create hook invocations.
	created int

	// destroyed counts Destroy hook invocations.
	destroyed int

	// readData is the data served by reads.
	readData []byte

	// writeLimit caps the bytes accepted per write (0 = no cap).
	writeLimit int

	// writeBlockAfter makes writes fail with ErrWouldBlock once
	// this many bytes have been accepted in total (0 = never).
	writeBlockAfter int

	// written accumulates all bytes accepted by writes.
	written []byte
}

// newTestMethod returns a fresh [*Method] driving the given backend.
// Each call allocates a new type id so that tests can tell channels
// of different test methods apart.
func newTestMethod(be *testBackend) *Method {
	return &Method{
		Type: NewTypeIndex() | TypeSourceSink,
		Name: "test backend",
		Create: func(c *Channel) error {
			be.created++
			c.SetData(be)
			c.SetInit(true)
			return nil
		},
		Destroy: func(c *Channel) {
			be.destroyed++
		},
		Read: func(c *Channel, data []byte) (int, error) {
			if len(be.readData) == 0 {
				return 0, io.EOF
			}
			count := copy(data, be.readData)
			be.readData = be.readData[count:]
			return count, nil
		},
		Write: func(c *Channel, data []byte) (int, error) {
			if be.writeBlockAfter > 0 && len(be.written) >= be.writeBlockAfter {
				c.SetRetryWrite()
				return 0, ErrWouldBlock
			}
			count := len(data)
			if be.writeLimit > 0 {
				count = min(count, be.writeLimit)
			}
			if be.writeBlockAfter > 0 {
				count = min(count, be.writeBlockAfter-len(be.written))
			}
			be.written = append(be.written, data[:count]...)
			return count, nil
		},
		Ctrl: func(c *Channel, cmd Cmd, arg int64, ptr any) (int64, error) {
			switch cmd {
			case CmdFlush:
				return 1, nil
			default:
				return 0, ErrUnsupported
			}
		},
	}
}
