// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakelock/lockbox/lockbox"
)

var (
	slotTotalStaked = lockbox.Blake2b([]byte("total-staked"))
	slotPaused      = lockbox.Blake2b([]byte("paused"))
)

func countKey(addr lockbox.Address) lockbox.Bytes32 {
	return lockbox.BytesToBytes32(append([]byte("n"), addr.Bytes()...))
}

func stakeKey(addr lockbox.Address, index uint64) lockbox.Bytes32 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], index)
	return lockbox.Blake2b(addr.Bytes(), b[:])
}

func (s *Staking) getAmount(key lockbox.Bytes32) (*big.Int, error) {
	var v big.Int
	if err := s.state.DecodeStorage(s.addr, key, func(raw []byte) error {
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
func (s *Staking) setAmount(key lockbox.Bytes32, v *big.Int) error {
	return s.state.EncodeStorage(s.addr, key, func() ([]byte, error) {
		if v.Sign() == 0 {
			return nil, nil
		}
		return rlp.EncodeToBytes(v)
	})
}

func (s *Staking) getCount(addr lockbox.Address) (count uint64, err error) {
	err = s.state.DecodeStorage(s.addr, countKey(addr), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &count)
	})
	return
}

func (s *Staking) setCount(addr lockbox.Address, count uint64) error {
	return s.state.EncodeStorage(s.addr, countKey(addr), func() ([]byte, error) {
		return rlp.EncodeToBytes(count)
	})
}

func (s *Staking) getPaused() (paused bool, err error) {
	err = s.state.DecodeStorage(s.addr, slotPaused, func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &paused)
	})
	return
}

// setPaused stores the pause flag. The cleared flag reads as absent.
func (s *Staking) setPaused(paused bool) error {
	return s.state.EncodeStorage(s.addr, slotPaused, func() ([]byte, error) {
		if !paused {
			return nil, nil
		}
		return rlp.EncodeToBytes(paused)
	})
}

func (s *Staking) getStake(addr lockbox.Address, index uint64) (*Stake, error) {
	stake := Stake{Amount: new(big.Int), Reward: new(big.Int)}
	if err := s.state.DecodeStorage(s.addr, stakeKey(addr, index), func(raw []byte) error {
		if len(raw) == 0 {
			return nil
		}
		return rlp.DecodeBytes(raw, &stake)
	}); err != nil {
		return nil, err
	}
	return &stake, nil
}

// setStake stores a position. Claimed positions still encode, keeping
// the slot occupied.
func (s *Staking) setStake(addr lockbox.Address, index uint64, stake *Stake) error {
	return s.state.EncodeStorage(s.addr, stakeKey(addr, index), func() ([]byte, error) {
		return rlp.EncodeToBytes(stake)
	})
}
