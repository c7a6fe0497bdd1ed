// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis_test

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stakelock/lockbox/builtin"
	"github.com/stakelock/lockbox/genesis"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/lvldb"
	"github.com/stakelock/lockbox/state"
)

func TestNewDevnet(t *testing.T) {
	gene := genesis.NewDevnet()
	assert.Equal(t, "devnet", gene.Name())
	assert.False(t, gene.ID().IsZero())

	// the ID is a pure function of the preset
	assert.Equal(t, gene.ID(), genesis.NewDevnet().ID())

	db, _ := lvldb.NewMem()
	defer db.Close()
	id, err := genesis.Commit(db, gene)
	assert.Nil(t, err)
	assert.Equal(t, gene.ID(), id)

	st := state.New(db)
	stk := builtin.Staking.WithState(st)

	admin, err := stk.Admin()
	assert.Nil(t, err)
	assert.Equal(t, genesis.DevAccounts()[0].Address, admin)

	rate, err := stk.LockRate(4 * lockbox.UnitPeriod)
	assert.Nil(t, err)
	assert.Equal(t, uint64(12), rate)

	bal, err := builtin.Token.WithState(st).BalanceOf(genesis.DevAccounts()[1].Address)
	assert.Nil(t, err)
	assert.True(t, bal.Sign() > 0)

	pool, err := stk.RewardPool()
	assert.Nil(t, err)
	assert.True(t, pool.Sign() > 0)
}

func TestCommitTwice(t *testing.T) {
	gene := genesis.NewDevnet()

	db, _ := lvldb.NewMem()
	defer db.Close()
	_, err := genesis.Commit(db, gene)
	assert.Nil(t, err)

	st := state.New(db)
	before, err := builtin.Token.WithState(st).TotalSupply()
	assert.Nil(t, err)

	// recommit is a no-op, not a second mint
	id, err := genesis.Commit(db, gene)
	assert.Nil(t, err)
	assert.Equal(t, gene.ID(), id)

	after, err := builtin.Token.WithState(state.New(db)).TotalSupply()
	assert.Nil(t, err)
	assert.Equal(t, before, after)
}

func TestCommitMismatch(t *testing.T) {
	db, _ := lvldb.NewMem()
	defer db.Close()
	_, err := genesis.Commit(db, genesis.NewDevnet())
	assert.Nil(t, err)

	other, err := genesis.NewCustomNet(&genesis.CustomGenesis{
		LaunchTime: 1735689600,
		Admin:      lockbox.BytesToAddress([]byte("other-admin")),
	})
	assert.Nil(t, err)

	_, err = genesis.Commit(db, other)
	assert.Error(t, err)
}

func TestNewCustomNet(t *testing.T) {
	balance := genesis.HexOrDecimal256(*big.NewInt(1000))
	gene, err := genesis.NewCustomNet(&genesis.CustomGenesis{
		LaunchTime: 1735689600,
		Admin:      lockbox.BytesToAddress([]byte("admin")),
		Accounts: []genesis.Account{
			{Address: lockbox.BytesToAddress([]byte("acc")), Balance: &balance},
		},
		Rates: []genesis.Rate{
			{Duration: lockbox.UnitPeriod, Rate: 5},
		},
	})
	assert.NoError(t, err, "NewCustomNet should not return an error")
	assert.NotNil(t, gene, "NewCustomNet should return a non-nil Genesis object")
	assert.Equal(t, "customnet", gene.Name())

	db, _ := lvldb.NewMem()
	defer db.Close()
	_, err = genesis.Commit(db, gene)
	assert.Nil(t, err)

	st := state.New(db)
	rate, err := builtin.Staking.WithState(st).LockRate(lockbox.UnitPeriod)
	assert.Nil(t, err)
	assert.Equal(t, uint64(5), rate)
}

func TestNewCustomNetInvalid(t *testing.T) {
	_, err := genesis.NewCustomNet(&genesis.CustomGenesis{LaunchTime: 1})
	assert.Error(t, err, "zero admin should be rejected")

	_, err = genesis.NewCustomNet(&genesis.CustomGenesis{
		LaunchTime: 1,
		Admin:      lockbox.BytesToAddress([]byte("admin")),
		Accounts:   []genesis.Account{{Address: lockbox.BytesToAddress([]byte("acc"))}},
	})
	assert.Error(t, err, "missing balance should be rejected")

	zero := genesis.HexOrDecimal256(*big.NewInt(0))
	_, err = genesis.NewCustomNet(&genesis.CustomGenesis{
		LaunchTime: 1,
		Admin:      lockbox.BytesToAddress([]byte("admin")),
		Accounts:   []genesis.Account{{Address: lockbox.BytesToAddress([]byte("acc")), Balance: &zero}},
	})
	assert.Error(t, err, "zero balance should be rejected")
}

func TestHexOrDecimal256JSON(t *testing.T) {
	var v genesis.HexOrDecimal256
	assert.Nil(t, json.Unmarshal([]byte(`"0x64"`), &v))
	assert.Equal(t, big.NewInt(100), (*big.Int)(&v))

	assert.Nil(t, json.Unmarshal([]byte(`"100"`), &v))
	assert.Equal(t, big.NewInt(100), (*big.Int)(&v))

	data, err := json.Marshal(genesis.HexOrDecimal256(*big.NewInt(255)))
	assert.Nil(t, err)
	assert.Equal(t, `"0xff"`, string(data))
}
