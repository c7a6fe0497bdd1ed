// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package health

import (
	"sync"
	"time"
)

// JournalStatus reports how far the ledger journal has advanced and when
// the most recent entry was committed.
type JournalStatus struct {
	Head                uint64     `json:"head"`
	LastCommitTimestamp *time.Time `json:"lastCommitTimestamp"`
}

type Status struct {
	Healthy  bool           `json:"healthy"`
	Journal  *JournalStatus `json:"journal"`
	IndexLag uint64         `json:"indexLag"`
}

// Health tracks journal and index progress reported by the running node.
// It holds no reference to the ledger itself; callers push observations in.
type Health struct {
	lock        sync.RWMutex
	head        uint64
	lastCommit  time.Time
	indexedHead uint64
}

// JournalCommit records that the journal head moved to head.
func (h *Health) JournalCommit(head uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.head = head
	h.lastCommit = time.Now()
}

// IndexedHead records that the event index has replicated the journal up to head.
func (h *Health) IndexedHead(head uint64) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.indexedHead = head
}

func (h *Health) Status() (*Status, error) {
	h.lock.RLock()
	defer h.lock.RUnlock()

	journal := &JournalStatus{
		Head: h.head,
	}
	if !h.lastCommit.IsZero() {
		ts := h.lastCommit
		journal.LastCommitTimestamp = &ts
	}

	var lag uint64
	if h.indexedHead < h.head {
		lag = h.head - h.indexedHead
	}

	return &Status{
		Healthy:  lag == 0,
		Journal:  journal,
		IndexLag: lag,
	}, nil
}
