// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/lvldb"
	"github.com/stakelock/lockbox/state"
)

func TestParamsGetSet(t *testing.T) {
	db, _ := lvldb.NewMem()
	defer db.Close()
	st := state.New(db)

	setv := big.NewInt(10)
	key := lockbox.BytesToBytes32([]byte("key"))
	p := New(lockbox.BytesToAddress([]byte("par")), st)
	assert.Nil(t, p.Set(key, setv))

	getv, err := p.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, setv, getv)

	absent, err := p.Get(lockbox.BytesToBytes32([]byte("absent")))
	assert.Nil(t, err)
	assert.Zero(t, absent.Sign())
}

func TestParamsZeroClears(t *testing.T) {
	db, _ := lvldb.NewMem()
	defer db.Close()
	st := state.New(db)

	key := lockbox.BytesToBytes32([]byte("key"))
	p := New(lockbox.BytesToAddress([]byte("par")), st)
	assert.Nil(t, p.Set(key, big.NewInt(7)))
	assert.Nil(t, p.Set(key, big.NewInt(0)))

	raw, err := st.GetRawStorage(p.addr, key)
	assert.Nil(t, err)
	assert.Zero(t, len(raw))
}

func TestParamsAddress(t *testing.T) {
	db, _ := lvldb.NewMem()
	defer db.Close()
	st := state.New(db)

	key := lockbox.BytesToBytes32([]byte("admin"))
	admin := lockbox.BytesToAddress([]byte("a1"))
	p := New(lockbox.BytesToAddress([]byte("par")), st)

	got, err := p.GetAddress(key)
	assert.Nil(t, err)
	assert.True(t, got.IsZero())

	assert.Nil(t, p.SetAddress(key, admin))
	got, err = p.GetAddress(key)
	assert.Nil(t, err)
	assert.Equal(t, admin, got)
}
