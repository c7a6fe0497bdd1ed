// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/state"
)

// Params binder of `Params` contract.
// It keeps the governed key/value registry, including the admin
// address and the lock rate table.
type Params struct {
	addr  lockbox.Address
	state *state.State
}

func New(addr lockbox.Address, state *state.State) *Params {
	return &Params{addr, state}
}

// Get native way to get param. Absent keys read as zero.
func (p *Params) Get(key lockbox.Bytes32) (*big.Int, error) {
	var v big.Int
	if err := p.state.DecodeStorage(p.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &v)
	}); err != nil {
		return nil, err
	}
	return &v, nil
}

// Set native way to set param. A zero value clears the entry.
func (p *Params) Set(key lockbox.Bytes32, value *big.Int) error {
	return p.state.EncodeStorage(p.addr, key, func() ([]byte, error) {
		if value.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(value)
	})
}

// GetAddress gets an address valued param. Absent keys read as the
// zero address.
func (p *Params) GetAddress(key lockbox.Bytes32) (addr lockbox.Address, err error) {
	err = p.state.DecodeStorage(p.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		var b []byte
		if err := rlp.DecodeBytes(raw, &b); err != nil {
			return err
		}
		addr = lockbox.BytesToAddress(b)
		return nil
	})
	return
}

// SetAddress sets an address valued param.
func (p *Params) SetAddress(key lockbox.Bytes32, addr lockbox.Address) error {
	return p.state.EncodeStorage(p.addr, key, func() ([]byte, error) {
		if addr.IsZero() {
			return nil, nil
		}
		return rlp.EncodeToBytes(addr.Bytes())
	})
}
