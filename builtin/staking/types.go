// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/stakelock/lockbox/lockbox"
)

// Stake is a single lock-up position of an account. Positions are
// append-only per account; a claimed position is zeroed in place so
// indices of later positions never move.
type Stake struct {
	Amount   *big.Int // principal locked
	Duration uint64   // lock-up length in seconds
	Start    uint64   // unix time the lock began
	Rate     uint64   // reward percentage frozen at creation
	Reward   *big.Int // reward payable at maturity
}

// UnlockTime returns the earliest time the position can be claimed.
func (s *Stake) UnlockTime() uint64 {
	return s.Start + s.Duration
}

// Claimed returns whether the position was already paid out.
func (s *Stake) Claimed() bool {
	return s.Amount.Sign() == 0
}

// Payout returns principal plus reward.
func (s *Stake) Payout() *big.Int {
	return new(big.Int).Add(s.Amount, s.Reward)
}

// CalcReward computes the reward a position earns at maturity. The
// rate is applied to the principal first, truncating, then scaled by
// the number of whole reward periods the lock-up spans. Partial token
// units and partial periods earn nothing.
func CalcReward(amount *big.Int, rate, duration uint64) *big.Int {
	reward := new(big.Int).Mul(amount, new(big.Int).SetUint64(rate))
	reward.Div(reward, big.NewInt(100))
	return reward.Mul(reward, new(big.Int).SetUint64(duration/lockbox.UnitPeriod))
}
