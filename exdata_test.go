// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewExDataIndex allocates distinct indices.
func TestNewExDataIndex(t *testing.T) {
	idx1 := NewExDataIndex()
	idx2 := NewExDataIndex()

	assert.NotEqual(t, idx1, idx2)
}

// SetExData and ExData round-trip caller state; unset indices yield nil.
func TestExDataRoundTrip(t *testing.T) {
	c, err := New(MemMethod())
	require.NoError(t, err)
	defer c.Free()

	idx := NewExDataIndex()
	other := NewExDataIndex()

	assert.Nil(t, c.ExData(idx))

	type appState struct{ name string }
	state := &appState{name: "app"}
	c.SetExData(idx, state)

	assert.Same(t, state, c.ExData(idx).(*appState))
	assert.Nil(t, c.ExData(other))
}

// Extension data is per channel, not per index.
func TestExDataPerChannel(t *testing.T) {
	c1, err := New(MemMethod())
	require.NoError(t, err)
	defer c1.Free()
	c2, err := New(MemMethod())
	require.NoError(t, err)
	defer c2.Free()

	idx := NewExDataIndex()
	c1.SetExData(idx, "one")

	assert.Equal(t, "one", c1.ExData(idx))
	assert.Nil(t, c2.ExData(idx))
}

// NewTypeIndex allocates distinct custom type ids at or above TypeStart.
func TestNewTypeIndex(t *testing.T) {
	t1 := NewTypeIndex()
	t2 := NewTypeIndex()

	assert.NotEqual(t, t1, t2)
	assert.GreaterOrEqual(t, int(t1), TypeStart)
	assert.GreaterOrEqual(t, int(t2), TypeStart)
}
