// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/stakelock/lockbox/builtin/params"
	"github.com/stakelock/lockbox/builtin/staking"
	"github.com/stakelock/lockbox/builtin/token"
	"github.com/stakelock/lockbox/state"
)

// Builtin contracts binding.
var (
	Params  = &paramsContract{newContract("Params")}
	Token   = &tokenContract{newContract("Token")}
	Staking = &stakingContract{newContract("Staking")}
)

type (
	paramsContract  struct{ *contract }
	tokenContract   struct{ *contract }
	stakingContract struct{ *contract }
)

func (p *paramsContract) WithState(state *state.State) *params.Params {
	return params.New(p.Address, state)
}

func (t *tokenContract) WithState(state *state.State) *token.Token {
	return token.New(t.Address, state)
}

func (s *stakingContract) WithState(state *state.State) *staking.Staking {
	return staking.New(s.Address, state, Params.WithState(state), Token.WithState(state))
}
