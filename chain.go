// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import "github.com/bassosimone/runtimex"

// Push appends tail, which may itself be a chain, to the end of the
// chain headed by c and returns c. The chain takes ownership of the
// caller's reference to tail: do not Free tail afterwards unless you
// Retain it first.
//
// There is no cycle detection. Pushing a channel onto its own chain,
// directly or transitively, is a caller error that makes chain
// traversal unbounded.
func (c *Channel) Push(tail *Channel) *Channel {
	end := c
	for end.next != nil {
		end = end.next
	}
	end.next = tail
	return c
}

// Pop detaches c from the front of its chain and returns the remainder
// (the new head), or nil if c was the last link. Ownership of the
// chain's reference to c transfers back to the caller, who must Free
// it or keep using it standalone.
func (c *Channel) Pop() *Channel {
	next := c.next
	c.next = nil
	return next
}

// Next returns the next channel in the chain, or nil.
func (c *Channel) Next() *Channel {
	return c.next
}

// FindType walks the chain forward from c and returns the first
// channel whose method type equals t, or nil if there is no match.
func (c *Channel) FindType(t Type) *Channel {
	for cur := c; cur != nil; cur = cur.next {
		if cur.method.Type == t {
			return cur
		}
	}
	return nil
}

// CopyNextRetry copies the retry flags and retry reason from the next
// channel in the chain onto c. Filter backends call this after a
// transient failure from the wrapped transport so that the caller can
// inspect retry state on the chain head.
func (c *Channel) CopyNextRetry() {
	next := c.next
	runtimex.Assert(next != nil)
	c.ClearFlags(flagsRetryMask)
	c.SetFlags(next.RetryFlags())
	c.retryReason = next.retryReason
}
