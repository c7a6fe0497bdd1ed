// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/builtin"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/state"
)

// NewCustomNet create custom network genesis.
func NewCustomNet(gen *CustomGenesis) (*Genesis, error) {
	if gen.Admin.IsZero() {
		return nil, errors.New("admin must be set")
	}
	for _, a := range gen.Accounts {
		if a.Balance == nil {
			return nil, errors.Errorf("%s: balance must be set", a.Address)
		}
		if (*big.Int)(a.Balance).Sign() < 1 {
			return nil, errors.Errorf("%s: balance must be a non-zero integer", a.Address)
		}
	}
	if gen.RewardPool != nil && (*big.Int)(gen.RewardPool).Sign() < 0 {
		return nil, errors.New("rewardPool must be a non-negative integer")
	}

	builder := new(Builder).
		Timestamp(gen.LaunchTime).
		State(func(state *state.State) error {
			params := builtin.Params.WithState(state)
			token := builtin.Token.WithState(state)

			if err := params.SetAddress(lockbox.KeyAdmin, gen.Admin); err != nil {
				return err
			}
			for _, r := range gen.Rates {
				if err := params.Set(lockbox.KeyLockRate(r.Duration), new(big.Int).SetUint64(r.Rate)); err != nil {
					return err
				}
			}
			for _, a := range gen.Accounts {
				if err := token.Mint(a.Address, (*big.Int)(a.Balance)); err != nil {
					return err
				}
			}
			if gen.RewardPool != nil {
				return token.Mint(builtin.Staking.Address, (*big.Int)(gen.RewardPool))
			}
			return nil
		})

	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, "customnet"}, nil
}
