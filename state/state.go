// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/stakelock/lockbox/kv"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// State manages contract storage over a backing kv store.
// Writes are buffered until CommitTo, with checkpoint/revert in between.
type State struct {
	db kv.GetPutter
	sm *stackedmap.StackedMap // keeps revisions of storage writes
}

// New create state object bound to the given backing store.
func New(db kv.GetPutter) *State {
	state := State{db: db}
	state.sm = stackedmap.New(func(key any) (any, bool, error) {
		return state.cacheGetter(key)
	})
	return &state
}

// cacheGetter implements stackedmap.MapGetter.
func (s *State) cacheGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case storageKey:
		data, err := s.db.Get(storageDBKey(k.addr, k.key))
		if err != nil {
			if s.db.IsNotFound(err) {
				return rlp.RawValue(nil), true, nil
			}
			return nil, false, err
		}
		return rlp.RawValue(data), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr lockbox.Address, key lockbox.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
// An empty raw deletes the storage entry.
func (s *State) SetRawStorage(addr lockbox.Address, key lockbox.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
// An empty encoding result deletes the storage entry.
func (s *State) EncodeStorage(addr lockbox.Address, key lockbox.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr lockbox.Address, key lockbox.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// CommitTo replays all buffered writes onto w, later writes of the
// same key winning. The buffer is kept; call Reset once w is durable.
func (s *State) CommitTo(w kv.Putter) error {
	var err error
	s.sm.Journal(func(k, v any) bool {
		key := k.(storageKey)
		raw := v.(rlp.RawValue)
		if len(raw) > 0 {
			err = w.Put(storageDBKey(key.addr, key.key), raw)
		} else {
			err = w.Delete(storageDBKey(key.addr, key.key))
		}
		return err == nil
	})
	if err != nil {
		return &Error{err}
	}
	return nil
}

// Reset drops all buffered writes and checkpoints, so subsequent
// reads hit the backing store.
func (s *State) Reset() {
	s.sm = stackedmap.New(func(key any) (any, bool, error) {
		return s.cacheGetter(key)
	})
}

type storageKey struct {
	addr lockbox.Address
	key  lockbox.Bytes32
}

// StoragePrefix tags every storage key in the backing store.
const StoragePrefix = byte('s')

// key space of the backing store: StoragePrefix + address + key.
func storageDBKey(addr lockbox.Address, key lockbox.Bytes32) []byte {
	k := make([]byte, 0, 1+lockbox.AddressLength+32)
	k = append(k, StoragePrefix)
	k = append(k, addr.Bytes()...)
	return append(k, key.Bytes()...)
}
