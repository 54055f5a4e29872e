// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "sync/atomic"

// exDataIndex counts the extension-data indices handed out so far.
var exDataIndex atomic.Int64

// NewExDataIndex allocates a fresh extension-data index. The counter
// is process wide, monotonic, and safe for concurrent use. Callers
// typically allocate one index per subsystem at startup and then use
// it with [*Channel.SetExData] on every channel they touch.
func NewExDataIndex() int {
	return int(exDataIndex.Add(1)) - 1
}

// SetExData associates value with the given extension index on this
// channel. Extension data lets callers attach auxiliary state to a
// channel without modifying its type; the channel never interprets it.
func (c *Channel) SetExData(index int, value any) {
	if c.exData == nil {
		c.exData = make(map[int]any)
	}
	c.exData[index] = value
}

// ExData returns the value associated with the given extension index,
// or nil if none was set.
func (c *Channel) ExData(index int) any {
	return c.exData[index]
}
