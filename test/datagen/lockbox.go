// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package datagen

import (
	"crypto/rand"
	"math/big"

	"github.com/stakelock/lockbox/lockbox"
)

func RandBytes32() (b lockbox.Bytes32) {
	rand.Read(b[:])
	return
}

func RandAddress() (addr lockbox.Address) {
	rand.Read(addr[:])
	return
}

// RandAmount returns a positive amount below 1e18.
func RandAmount() *big.Int {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	n, _ := rand.Int(rand.Reader, max)
	return n.Add(n, big.NewInt(1))
}

// RandDuration returns a whole number of lock-up unit periods, at
// least one.
func RandDuration() uint64 {
	return uint64(RandIntN(52)+1) * lockbox.UnitPeriod
}
