// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProtocolConstants(t *testing.T) {
	assert.Equal(t, uint64(604800), UnitPeriod)
	assert.Equal(t, UnitPeriod, MinLockDuration)
}

func TestKeyLockRate(t *testing.T) {
	assert.NotEqual(t, KeyLockRate(UnitPeriod), KeyLockRate(4*UnitPeriod))
	assert.Equal(t, KeyLockRate(UnitPeriod), KeyLockRate(UnitPeriod))
	assert.NotEqual(t, KeyAdmin, KeyLockRate(0))
}
