// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockbox

import "encoding/binary"

// Constants of the lock-up protocol.
const (
	UnitPeriod      uint64 = 7 * 24 * 60 * 60 // seconds per reward unit, one week
	MinLockDuration uint64 = UnitPeriod       // shortest accepted lock-up duration
)

// Keys of ledger params.
var (
	KeyAdmin = Blake2b([]byte("admin-address"))
)

// KeyLockRate returns the param key holding the reward rate of the given lock duration.
func KeyLockRate(duration uint64) Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], duration)
	return Blake2b([]byte("lock-rate"), b[:])
}
