// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreshNodeIsHealthy(t *testing.T) {
	h := &Health{}

	status, err := h.Status()
	require.NoError(t, err)

	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(0), status.Journal.Head)
	assert.Nil(t, status.Journal.LastCommitTimestamp)
	assert.Equal(t, uint64(0), status.IndexLag)
}

func TestIndexLagMakesUnhealthy(t *testing.T) {
	h := &Health{}

	h.JournalCommit(5)
	h.IndexedHead(3)

	status, err := h.Status()
	require.NoError(t, err)

	assert.False(t, status.Healthy)
	assert.Equal(t, uint64(5), status.Journal.Head)
	assert.NotNil(t, status.Journal.LastCommitTimestamp)
	assert.Equal(t, uint64(2), status.IndexLag)
}

func TestIndexCaughtUp(t *testing.T) {
	h := &Health{}

	h.JournalCommit(5)
	h.IndexedHead(5)

	status, err := h.Status()
	require.NoError(t, err)

	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(0), status.IndexLag)
}

func TestIndexAheadIsNotLag(t *testing.T) {
	h := &Health{}

	// the index is rebuilt before the tracker sees the first commit
	h.IndexedHead(7)

	status, err := h.Status()
	require.NoError(t, err)

	assert.True(t, status.Healthy)
	assert.Equal(t, uint64(0), status.IndexLag)
}
