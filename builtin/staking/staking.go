// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/stakelock/lockbox/builtin/params"
	"github.com/stakelock/lockbox/builtin/token"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/log"
	"github.com/stakelock/lockbox/state"
)

var logger = log.WithContext("pkg", "staking")

func SetLogger(l log.Logger) {
	logger = l
}

// Staking implements native methods of `Staking` contract. It keeps
// every lock-up position ever created and the principal total, and
// holds locked tokens in custody at its own address.
type Staking struct {
	addr   lockbox.Address
	state  *state.State
	params *params.Params
	token  *token.Token
}

// New create a new instance.
func New(addr lockbox.Address, state *state.State, params *params.Params, token *token.Token) *Staking {
	return &Staking{addr, state, params, token}
}

// Address returns the custody address locked tokens are held at.
func (s *Staking) Address() lockbox.Address {
	return s.addr
}

//
// Getters - no state change
//

// Paused returns whether new stakes are currently rejected.
func (s *Staking) Paused() (bool, error) {
	return s.getPaused()
}

// TotalStaked returns the principal locked across all accounts.
func (s *Staking) TotalStaked() (*big.Int, error) {
	return s.getAmount(slotTotalStaked)
}

// StakeCount returns the number of positions the account has created,
// claimed ones included.
func (s *Staking) StakeCount(addr lockbox.Address) (uint64, error) {
	return s.getCount(addr)
}

// GetStake returns the position at the given index.
func (s *Staking) GetStake(addr lockbox.Address, index uint64) (*Stake, error) {
	count, err := s.getCount(addr)
	if err != nil {
		return nil, err
	}
	if index >= count {
		return nil, ErrInvalidIndex
	}
	return s.getStake(addr, index)
}

// StakeAmount returns the outstanding principal of the position at
// the given index. Claimed positions read as zero.
func (s *Staking) StakeAmount(addr lockbox.Address, index uint64) (*big.Int, error) {
	stake, err := s.GetStake(addr, index)
	if err != nil {
		return nil, err
	}
	return stake.Amount, nil
}

// StakeDuration returns the lock-up duration of the position at the
// given index.
func (s *Staking) StakeDuration(addr lockbox.Address, index uint64) (uint64, error) {
	stake, err := s.GetStake(addr, index)
	if err != nil {
		return 0, err
	}
	return stake.Duration, nil
}

// StakeStart returns the creation time of the position at the given
// index.
func (s *Staking) StakeStart(addr lockbox.Address, index uint64) (uint64, error) {
	stake, err := s.GetStake(addr, index)
	if err != nil {
		return 0, err
	}
	return stake.Start, nil
}

// StakeReward returns the frozen reward of the position at the given
// index. Claimed positions read as zero.
func (s *Staking) StakeReward(addr lockbox.Address, index uint64) (*big.Int, error) {
	stake, err := s.GetStake(addr, index)
	if err != nil {
		return nil, err
	}
	return stake.Reward, nil
}

// StakeRate returns the rate the position at the given index was
// created with, regardless of the current rate table.
func (s *Staking) StakeRate(addr lockbox.Address, index uint64) (uint64, error) {
	stake, err := s.GetStake(addr, index)
	if err != nil {
		return 0, err
	}
	return stake.Rate, nil
}

// TimeLeft returns the seconds until the position at the given index
// unlocks, zero once it has matured.
func (s *Staking) TimeLeft(addr lockbox.Address, index, now uint64) (uint64, error) {
	stake, err := s.GetStake(addr, index)
	if err != nil {
		return 0, err
	}
	if unlock := stake.UnlockTime(); unlock > now {
		return unlock - now, nil
	}
	return 0, nil
}

// ListStakes returns all positions of the account in creation order.
func (s *Staking) ListStakes(addr lockbox.Address) ([]*Stake, error) {
	count, err := s.getCount(addr)
	if err != nil {
		return nil, err
	}
	stakes := make([]*Stake, 0, count)
	for i := uint64(0); i < count; i++ {
		stake, err := s.getStake(addr, i)
		if err != nil {
			return nil, err
		}
		stakes = append(stakes, stake)
	}
	return stakes, nil
}

// LockRate returns the reward percentage for the duration. Durations
// without a configured rate read as zero.
func (s *Staking) LockRate(duration uint64) (uint64, error) {
	v, err := s.params.Get(lockbox.KeyLockRate(duration))
	if err != nil {
		return 0, err
	}
	return v.Uint64(), nil
}

// Admin returns the configured admin address.
func (s *Staking) Admin() (lockbox.Address, error) {
	return s.params.GetAddress(lockbox.KeyAdmin)
}

// RewardPool returns the custody balance not backing principal, the
// amount available to pay rewards from.
func (s *Staking) RewardPool() (*big.Int, error) {
	bal, err := s.token.BalanceOf(s.addr)
	if err != nil {
		return nil, err
	}
	total, err := s.TotalStaked()
	if err != nil {
		return nil, err
	}
	return bal.Sub(bal, total), nil
}

//
// Setters - state change
//

// AddStake locks amount for duration, recording a new position for
// the caller with the rate and reward frozen at creation time.
// It returns the index of the new position.
func (s *Staking) AddStake(caller lockbox.Address, amount *big.Int, duration, now uint64) (uint64, *Stake, error) {
	logger.Debug("adding stake", "caller", caller, "amount", amount, "duration", duration)

	if err := s.checkAddStake(amount, duration); err != nil {
		logger.Info("add stake failed", "caller", caller, "error", err)
		return 0, nil, err
	}

	rate, err := s.LockRate(duration)
	if err != nil {
		return 0, nil, err
	}
	stake := &Stake{
		Amount:   amount,
		Duration: duration,
		Start:    now,
		Rate:     rate,
		Reward:   CalcReward(amount, rate, duration),
	}

	// take custody before recording the position
	ok, err := s.token.Transfer(caller, s.addr, amount)
	if err != nil {
		return 0, nil, err
	}
	if !ok {
		logger.Info("add stake failed", "caller", caller, "error", ErrInsufficientBalance)
		return 0, nil, ErrInsufficientBalance
	}

	index, err := s.getCount(caller)
	if err != nil {
		return 0, nil, err
	}
	if err := s.setStake(caller, index, stake); err != nil {
		return 0, nil, err
	}
	if err := s.setCount(caller, index+1); err != nil {
		return 0, nil, err
	}
	total, err := s.TotalStaked()
	if err != nil {
		return 0, nil, err
	}
	if err := s.setAmount(slotTotalStaked, total.Add(total, amount)); err != nil {
		return 0, nil, err
	}

	logger.Info("added stake", "caller", caller, "index", index, "amount", amount, "reward", stake.Reward)
	return index, stake, nil
}

func (s *Staking) checkAddStake(amount *big.Int, duration uint64) error {
	paused, err := s.getPaused()
	if err != nil {
		return err
	}
	switch {
	case paused:
		return ErrPaused
	case amount.Sign() <= 0:
		return ErrZeroAmount
	case duration < lockbox.MinLockDuration:
		return ErrDurationTooShort
	}
	return nil
}

// Claim pays out a matured position, principal plus reward, and zeroes
// it in place so indices of later positions hold. It returns the
// position as it was before the claim.
func (s *Staking) Claim(caller lockbox.Address, index, now uint64) (*Stake, error) {
	logger.Debug("claiming stake", "caller", caller, "index", index)

	count, err := s.getCount(caller)
	if err != nil {
		return nil, err
	}
	if index >= count {
		logger.Info("claim failed", "caller", caller, "index", index, "error", ErrInvalidIndex)
		return nil, ErrInvalidIndex
	}
	stake, err := s.getStake(caller, index)
	if err != nil {
		return nil, err
	}
	if now < stake.UnlockTime() {
		logger.Info("claim failed", "caller", caller, "index", index, "error", ErrTokensLocked)
		return nil, ErrTokensLocked
	}
	if stake.Claimed() {
		logger.Info("claim failed", "caller", caller, "index", index, "error", ErrNothingStaked)
		return nil, ErrNothingStaked
	}

	// pay out before zeroing the position
	ok, err := s.token.Transfer(s.addr, caller, stake.Payout())
	if err != nil {
		return nil, err
	}
	if !ok {
		// custody cannot cover the reward
		logger.Info("claim failed", "caller", caller, "index", index, "error", ErrInsufficientBalance)
		return nil, ErrInsufficientBalance
	}

	zeroed := &Stake{
		Amount:   new(big.Int),
		Duration: stake.Duration,
		Start:    stake.Start,
		Rate:     stake.Rate,
		Reward:   new(big.Int),
	}
	if err := s.setStake(caller, index, zeroed); err != nil {
		return nil, err
	}
	total, err := s.TotalStaked()
	if err != nil {
		return nil, err
	}
	if err := s.setAmount(slotTotalStaked, total.Sub(total, stake.Amount)); err != nil {
		return nil, err
	}

	logger.Info("claimed stake", "caller", caller, "index", index, "payout", stake.Payout())
	return stake, nil
}

// Pause stops acceptance of new stakes. Claims stay open.
func (s *Staking) Pause(caller lockbox.Address) error {
	logger.Debug("pausing", "caller", caller)

	if err := s.checkAdmin(caller); err != nil {
		logger.Info("pause failed", "caller", caller, "error", err)
		return err
	}
	paused, err := s.getPaused()
	if err != nil {
		return err
	}
	if paused {
		logger.Info("pause failed", "caller", caller, "error", ErrAlreadyPaused)
		return ErrAlreadyPaused
	}
	if err := s.setPaused(true); err != nil {
		return err
	}

	logger.Info("paused", "admin", caller)
	return nil
}

// Resume reopens acceptance of new stakes.
func (s *Staking) Resume(caller lockbox.Address) error {
	logger.Debug("resuming", "caller", caller)

	if err := s.checkAdmin(caller); err != nil {
		logger.Info("resume failed", "caller", caller, "error", err)
		return err
	}
	paused, err := s.getPaused()
	if err != nil {
		return err
	}
	if !paused {
		logger.Info("resume failed", "caller", caller, "error", ErrNotPaused)
		return ErrNotPaused
	}
	if err := s.setPaused(false); err != nil {
		return err
	}

	logger.Info("resumed", "admin", caller)
	return nil
}

// SetLockRate sets the reward percentage for a duration. Existing
// positions keep the rate they were created with; a zero rate clears
// the entry. Allowed while paused.
func (s *Staking) SetLockRate(caller lockbox.Address, duration, rate uint64) error {
	logger.Debug("setting lock rate", "caller", caller, "duration", duration, "rate", rate)

	if err := s.checkAdmin(caller); err != nil {
		logger.Info("set lock rate failed", "caller", caller, "error", err)
		return err
	}
	if err := s.params.Set(lockbox.KeyLockRate(duration), new(big.Int).SetUint64(rate)); err != nil {
		return err
	}

	logger.Info("lock rate set", "duration", duration, "rate", rate)
	return nil
}

func (s *Staking) checkAdmin(caller lockbox.Address) error {
	admin, err := s.Admin()
	if err != nil {
		return err
	}
	if admin.IsZero() || admin != caller {
		return ErrNotAdmin
	}
	return nil
}
