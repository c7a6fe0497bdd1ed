// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lockbox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		input string
		err   string
	}{
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", ""},
		{"7567d83b7b8d80addcb281a71d54fc7b3364ffed", ""},
		{"0X7567d83b7b8d80addcb281a71d54fc7b3364ffed", ""},
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ffe", "invalid length"},
		{"zz7567d83b7b8d80addcb281a71d54fc7b3364ffed", "invalid prefix"},
		{"0x7567d83b7b8d80addcb281a71d54fc7b3364ffzz", "encoding/hex: invalid byte: U+007A 'z'"},
	}

	for _, tt := range tests {
		addr, err := ParseAddress(tt.input)
		if tt.err == "" {
			assert.NoError(t, err)
			assert.Equal(t, "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed", addr.String())
		} else {
			assert.EqualError(t, err, tt.err)
		}
	}
}

func TestMustParseAddress(t *testing.T) {
	assert.Panics(t, func() { MustParseAddress("not an address") })
	assert.NotPanics(t, func() { MustParseAddress("0x7567d83b7b8d80addcb281a71d54fc7b3364ffed") })
}

func TestAddressJSON(t *testing.T) {
	raw := `"0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"`

	var addr Address
	assert.NoError(t, json.Unmarshal([]byte(raw), &addr))

	data, err := json.Marshal(&addr)
	assert.NoError(t, err)
	assert.Equal(t, raw, string(data))
}

func TestBytesToAddress(t *testing.T) {
	assert.Equal(t, Address{}, BytesToAddress(nil))

	// shorter input is left padded
	addr := BytesToAddress([]byte("lock"))
	assert.Equal(t, "0x000000000000000000000000000000006c6f636b", addr.String())
	assert.False(t, addr.IsZero())
	assert.True(t, Address{}.IsZero())
}
