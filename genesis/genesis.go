// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/kv"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/state"
)

// Genesis to present genesis state.
type Genesis struct {
	builder *Builder
	id      lockbox.Bytes32
	name    string
}

// Build stages the initial state.
func (g *Genesis) Build(state *state.State) error {
	return g.builder.Build(state)
}

// ID returns genesis ID.
func (g *Genesis) ID() lockbox.Bytes32 {
	return g.id
}

// Name returns network name.
func (g *Genesis) Name() string {
	return g.name
}

var genesisIDKey = []byte("m:genesis-id")

// Commit applies genesis to an empty store, or verifies that an
// initialized store was built from the same genesis. It returns the
// genesis ID either way.
func Commit(db kv.GetPutter, g *Genesis) (lockbox.Bytes32, error) {
	stored, err := db.Get(genesisIDKey)
	if err == nil {
		id := lockbox.BytesToBytes32(stored)
		if id != g.ID() {
			return lockbox.Bytes32{}, errors.Errorf("store built from genesis %v, want %v", id, g.ID())
		}
		return id, nil
	}
	if !db.IsNotFound(err) {
		return lockbox.Bytes32{}, errors.Wrap(err, "read genesis id")
	}

	st := state.New(db)
	if err := g.Build(st); err != nil {
		return lockbox.Bytes32{}, err
	}
	batch := db.NewBatch()
	if err := st.CommitTo(batch); err != nil {
		return lockbox.Bytes32{}, err
	}
	id := g.ID()
	if err := batch.Put(genesisIDKey, id.Bytes()); err != nil {
		return lockbox.Bytes32{}, err
	}
	if err := batch.Write(); err != nil {
		return lockbox.Bytes32{}, errors.Wrap(err, "commit genesis")
	}
	return id, nil
}
