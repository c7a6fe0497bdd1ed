// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/state"
)

var tokenSupplyKey = lockbox.Blake2b([]byte("token-supply"))

func balanceKey(addr lockbox.Address) lockbox.Bytes32 {
	return lockbox.BytesToBytes32(append([]byte("b"), addr.Bytes()...))
}

// Token binder of `Token` contract, the fungible token ledger all
// stakes draw from and pay back into.
type Token struct {
	addr  lockbox.Address
	state *state.State
}

func New(addr lockbox.Address, state *state.State) *Token {
	return &Token{addr, state}
}

func (t *Token) getAmount(key lockbox.Bytes32) (*big.Int, error) {
	var v big.Int
	if err := t.state.DecodeStorage(t.addr, key, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &v)
	}); err != nil {
		return nil, err
	}
	return &v, nil
}

// setAmount stores an amount. Zero clears the entry.
func (t *Token) setAmount(key lockbox.Bytes32, v *big.Int) error {
	return t.state.EncodeStorage(t.addr, key, func() ([]byte, error) {
		if v.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(v)
	})
}

// TotalSupply returns the total amount of tokens minted so far.
func (t *Token) TotalSupply() (*big.Int, error) {
	return t.getAmount(tokenSupplyKey)
}

// BalanceOf returns token balance of the account.
func (t *Token) BalanceOf(addr lockbox.Address) (*big.Int, error) {
	return t.getAmount(balanceKey(addr))
}

// Mint credits the account and grows total supply.
func (t *Token) Mint(addr lockbox.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	bal, err := t.BalanceOf(addr)
	if err != nil {
		return err
	}
	if err := t.setAmount(balanceKey(addr), new(big.Int).Add(bal, amount)); err != nil {
		return err
	}
	supply, err := t.TotalSupply()
	if err != nil {
		return err
	}
	return t.setAmount(tokenSupplyKey, new(big.Int).Add(supply, amount))
}

// Transfer moves amount between accounts.
// It returns false, leaving balances untouched, if the sender cannot
// cover the amount.
func (t *Token) Transfer(from, to lockbox.Address, amount *big.Int) (bool, error) {
	fromBal, err := t.BalanceOf(from)
	if err != nil {
		return false, err
	}
	if fromBal.Cmp(amount) < 0 {
		return false, nil
	}
	if amount.Sign() == 0 || from == to {
		return true, nil
	}
	if err := t.setAmount(balanceKey(from), new(big.Int).Sub(fromBal, amount)); err != nil {
		return false, err
	}
	toBal, err := t.BalanceOf(to)
	if err != nil {
		return false, err
	}
	if err := t.setAmount(balanceKey(to), new(big.Int).Add(toBal, amount)); err != nil {
		return false, err
	}
	return true, nil
}
