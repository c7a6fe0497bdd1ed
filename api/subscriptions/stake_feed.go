// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/stakelock/lockbox/ledger"
)

type stakeFeed struct {
	ledger    *ledger.Ledger
	listeners map[chan *ledger.Entry]struct{}
	mu        sync.RWMutex
	knownSeq  *lru.Cache
}

func newStakeFeed(ldgr *ledger.Ledger) *stakeFeed {
	cache, _ := lru.New(2000)

	return &stakeFeed{
		ledger:    ldgr,
		listeners: make(map[chan *ledger.Entry]struct{}),
		knownSeq:  cache,
	}
}

func (f *stakeFeed) Subscribe(ch chan *ledger.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listeners[ch] = struct{}{}
}

func (f *stakeFeed) Unsubscribe(ch chan *ledger.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.listeners, ch)
}

func (f *stakeFeed) DispatchLoop(done <-chan struct{}) {
	entryCh := make(chan *ledger.Entry)
	sub := f.ledger.SubscribeEntries(entryCh)
	defer sub.Unsubscribe()

	for {
		select {
		case entry := <-entryCh:
			// journal seqs never repeat, drop replays
			if _, ok := f.knownSeq.Get(entry.Seq); ok {
				continue
			}
			f.knownSeq.Add(entry.Seq, struct{}{})

			f.mu.RLock()
			for lsn := range f.listeners {
				select {
				case lsn <- entry:
				case <-done:
					f.mu.RUnlock()
					return
				default: // broadcast in a non-blocking manner, so there's no guarantee that all subscribers receive it
				}
			}
			f.mu.RUnlock()
		case <-done:
			return
		}
	}
}
