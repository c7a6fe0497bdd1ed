// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/stakelock/lockbox/builtin/staking"
	"github.com/stakelock/lockbox/lockbox"
)

// Stake is the wire form of a stake record. Claimed records keep their
// slot with amount and reward zeroed.
type Stake struct {
	Amount   *math.HexOrDecimal256 `json:"amount,string"`
	Start    uint64                `json:"start"`
	Duration uint64                `json:"duration"`
	Reward   *math.HexOrDecimal256 `json:"reward,string"`
	Rate     uint64                `json:"rate"`
	Claimed  bool                  `json:"claimed"`
}

func convertStake(stake *staking.Stake) *Stake {
	return &Stake{
		Amount:   (*math.HexOrDecimal256)(stake.Amount),
		Start:    stake.Start,
		Duration: stake.Duration,
		Reward:   (*math.HexOrDecimal256)(stake.Reward),
		Rate:     stake.Rate,
		Claimed:  stake.Claimed(),
	}
}

// Stakes lists all records of an account in index order.
type Stakes struct {
	Stakes []*Stake `json:"stakes"`
	Count  uint64   `json:"count"`
}

// StakeDetail is a single record plus its remaining lock time.
type StakeDetail struct {
	Stake    *Stake `json:"stake"`
	TimeLeft uint64 `json:"timeLeft"`
}

// StakeRequest is the body of a stake creation.
type StakeRequest struct {
	Caller   *lockbox.Address      `json:"caller"`
	Amount   *math.HexOrDecimal256 `json:"amount,string"`
	Duration uint64                `json:"duration"`
}

// StakeResult reports the position a new stake was recorded at.
type StakeResult struct {
	Index uint64 `json:"index"`
	Stake *Stake `json:"stake"`
}

// ClaimRequest is the body of a claim. Index is a pointer so an
// absent field is told apart from a claim of position zero.
type ClaimRequest struct {
	Caller *lockbox.Address `json:"caller"`
	Index  *uint64          `json:"index"`
}

// ClaimResult reports the payout of a claim.
type ClaimResult struct {
	Amount *math.HexOrDecimal256 `json:"amount,string"`
	Reward *math.HexOrDecimal256 `json:"reward,string"`
}

// TotalStaked is the aggregate unclaimed principal across all accounts.
type TotalStaked struct {
	Total *math.HexOrDecimal256 `json:"total,string"`
}

// Status is the ledger-wide staking state.
type Status struct {
	Paused     bool                  `json:"paused"`
	Admin      lockbox.Address       `json:"admin"`
	RewardPool *math.HexOrDecimal256 `json:"rewardPool,string"`
	Total      *math.HexOrDecimal256 `json:"total,string"`
}

// Rate is one row of the rate table. Durations without a configured
// rate read as zero.
type Rate struct {
	Duration uint64 `json:"duration"`
	Rate     uint64 `json:"rate"`
}
