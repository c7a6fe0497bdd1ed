// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
)

// EntryMessage is the wire form of a journal entry pushed to subscribers.
type EntryMessage struct {
	Seq      uint64                `json:"seq"`
	Ts       uint64                `json:"ts"`
	Kind     string                `json:"kind"`
	Account  lockbox.Address       `json:"account"`
	Index    uint64                `json:"index"`
	Amount   *math.HexOrDecimal256 `json:"amount,string"`
	Reward   *math.HexOrDecimal256 `json:"reward,string"`
	Duration uint64                `json:"duration"`
	Rate     uint64                `json:"rate"`
}

func convertEntry(entry *ledger.Entry) *EntryMessage {
	return &EntryMessage{
		Seq:      entry.Seq,
		Ts:       entry.Time,
		Kind:     entry.Kind.String(),
		Account:  entry.Account,
		Index:    entry.Index,
		Amount:   (*math.HexOrDecimal256)(entry.Amount),
		Reward:   (*math.HexOrDecimal256)(entry.Reward),
		Duration: entry.Duration,
		Rate:     entry.Rate,
	}
}
