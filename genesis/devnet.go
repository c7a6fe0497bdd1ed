// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/stakelock/lockbox/builtin"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/state"
)

// DevAccount account for development.
type DevAccount struct {
	Address    lockbox.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts atomic.Value

// DevAccounts returns pre-alloced accounts for solo mode.
func DevAccounts() []DevAccount {
	if accs := devAccounts.Load(); accs != nil {
		return accs.([]DevAccount)
	}

	var accs []DevAccount
	privKeys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
		"fbb9e7ba5fe9969a71c6599052237b91adeb1e5fc0c96727b66e56ff5d02f9d0",
		"547fb081e73dc2e22b4aae5c60e2970b008ac4fc3073aebc27d41ace9c4f53e9",
		"c8c53657e41a8d669349fc287f57457bd746cb1fcfc38cf94d235deb2cfca81b",
		"87e0eba9c86c494d98353800571089f316740b0cb84c9a7cdf2fe5c9997c7966",
	}
	for _, str := range privKeys {
		pk, err := crypto.HexToECDSA(str)
		if err != nil {
			panic(err)
		}
		addr := crypto.PubkeyToAddress(pk.PublicKey)
		accs = append(accs, DevAccount{lockbox.Address(addr), pk})
	}
	devAccounts.Store(accs)
	return accs
}

// NewDevnet create genesis for solo mode: every dev account funded,
// the first one as admin, a funded reward pool and a starter rate
// table.
func NewDevnet() *Genesis {
	launchTime := uint64(1735689600) // 'Wed Jan 01 2025 00:00:00 GMT'

	admin := DevAccounts()[0].Address

	builder := new(Builder).
		Timestamp(launchTime).
		State(func(state *state.State) error {
			params := builtin.Params.WithState(state)
			token := builtin.Token.WithState(state)

			if err := params.SetAddress(lockbox.KeyAdmin, admin); err != nil {
				return err
			}
			rates := []struct{ duration, rate uint64 }{
				{lockbox.UnitPeriod, 3},
				{4 * lockbox.UnitPeriod, 12},
			}
			for _, r := range rates {
				if err := params.Set(lockbox.KeyLockRate(r.duration), new(big.Int).SetUint64(r.rate)); err != nil {
					return err
				}
			}

			for _, a := range DevAccounts() {
				bal, _ := new(big.Int).SetString("1000000000000000000000000000", 10)
				if err := token.Mint(a.Address, bal); err != nil {
					return err
				}
			}
			pool, _ := new(big.Int).SetString("1000000000000000000000000000", 10)
			return token.Mint(builtin.Staking.Address, pool)
		})

	id, err := builder.ComputeID()
	if err != nil {
		panic(err)
	}

	return &Genesis{builder, id, "devnet"}
}
