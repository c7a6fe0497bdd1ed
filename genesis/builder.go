// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/kv"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/lvldb"
	"github.com/stakelock/lockbox/state"
)

// Builder helper to build genesis state.
type Builder struct {
	timestamp uint64

	stateProcs []func(state *state.State) error
}

// Timestamp set timestamp.
func (b *Builder) Timestamp(t uint64) *Builder {
	b.timestamp = t
	return b
}

// State add a state process
func (b *Builder) State(proc func(state *state.State) error) *Builder {
	b.stateProcs = append(b.stateProcs, proc)
	return b
}

// Build stages the initial state according to presets.
func (b *Builder) Build(state *state.State) error {
	for _, proc := range b.stateProcs {
		if err := proc(state); err != nil {
			return errors.Wrap(err, "state process")
		}
	}
	return nil
}

// ComputeID computes the genesis ID, a digest of the launch time and
// every initial storage write in key order.
func (b *Builder) ComputeID() (lockbox.Bytes32, error) {
	db, err := lvldb.NewMem()
	if err != nil {
		return lockbox.Bytes32{}, err
	}
	defer db.Close()

	st := state.New(db)
	if err := b.Build(st); err != nil {
		return lockbox.Bytes32{}, err
	}
	batch := db.NewBatch()
	if err := st.CommitTo(batch); err != nil {
		return lockbox.Bytes32{}, err
	}
	if err := batch.Write(); err != nil {
		return lockbox.Bytes32{}, err
	}

	// scope the digest to storage keys, bookkeeping keys don't identify the preset
	iter := db.NewIterator(kv.PrefixRange([]byte{state.StoragePrefix}))
	defer iter.Release()

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], b.timestamp)
	id := lockbox.Blake2bFn(func(w io.Writer) {
		w.Write(ts[:])
		for iter.Next() {
			w.Write(iter.Key())
			w.Write(iter.Value())
		}
	})
	if err := iter.Error(); err != nil {
		return lockbox.Bytes32{}, err
	}
	return id, nil
}
