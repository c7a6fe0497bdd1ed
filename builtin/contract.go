// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/stakelock/lockbox/lockbox"
)

type contract struct {
	name    string
	Address lockbox.Address
}

// newContract binds a builtin contract to its well-known address,
// derived from the contract name.
func newContract(name string) *contract {
	return &contract{
		name,
		lockbox.BytesToAddress([]byte(name)),
	}
}
