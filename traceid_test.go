// SPDX-License-Identifier: GPL-3.0-or-later

package chanio

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTraceID returns distinct, well-formed UUIDs.
func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	assert.NotEqual(t, id1, id2)

	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
