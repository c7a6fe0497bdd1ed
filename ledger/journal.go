// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/kv"
	"github.com/stakelock/lockbox/lockbox"
)

// Kind tells journal entries apart.
type Kind uint8

const (
	KindStaked Kind = iota + 1
	KindClaimed
	KindPaused
	KindResumed
	KindRateSet
)

func (k Kind) String() string {
	switch k {
	case KindStaked:
		return "staked"
	case KindClaimed:
		return "claimed"
	case KindPaused:
		return "paused"
	case KindResumed:
		return "resumed"
	case KindRateSet:
		return "rate-set"
	}
	return "unknown"
}

// ParseKind parses the textual form produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "staked":
		return KindStaked, nil
	case "claimed":
		return KindClaimed, nil
	case "paused":
		return KindPaused, nil
	case "resumed":
		return KindResumed, nil
	case "rate-set":
		return KindRateSet, nil
	}
	return 0, errors.Errorf("unrecognized kind %q", s)
}

// Entry is one committed operation. The journal is the append-only
// history every derived view is rebuilt from.
type Entry struct {
	Seq      uint64          // position in the journal
	Kind     Kind
	Time     uint64          // unix time the operation committed
	Account  lockbox.Address // caller
	Index    uint64          // position index for staked/claimed
	Amount   *big.Int        // principal staked, or payout claimed
	Reward   *big.Int        // reward frozen at creation
	Duration uint64          // lock-up length, or rate table key
	Rate     uint64          // frozen or newly set percentage
}

// key space of the backing store: 'j' + big-endian sequence, plus the
// head counter under the meta prefix.
var journalHeadKey = []byte("m:journal-head")

func journalEntryKey(seq uint64) []byte {
	key := make([]byte, 9)
	key[0] = 'j'
	binary.BigEndian.PutUint64(key[1:], seq)
	return key
}

func loadJournalHead(db kv.Getter) (uint64, error) {
	data, err := db.Get(journalHeadKey)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "load journal head")
	}
	if len(data) != 8 {
		return 0, errors.New("journal head corrupted")
	}
	return binary.BigEndian.Uint64(data), nil
}

// appendJournal stages the entry and moves the head past it.
func appendJournal(w kv.Putter, entry *Entry) error {
	data, err := rlp.EncodeToBytes(entry)
	if err != nil {
		return errors.Wrap(err, "encode journal entry")
	}
	if err := w.Put(journalEntryKey(entry.Seq), data); err != nil {
		return err
	}
	var head [8]byte
	binary.BigEndian.PutUint64(head[:], entry.Seq+1)
	return w.Put(journalHeadKey, head[:])
}

// JournalEntry reads the committed entry at seq.
func (l *Ledger) JournalEntry(seq uint64) (*Entry, error) {
	data, err := l.db.Get(journalEntryKey(seq))
	if err != nil {
		if l.db.IsNotFound(err) {
			return nil, errors.Errorf("no journal entry at %d", seq)
		}
		return nil, err
	}
	var entry Entry
	if err := rlp.DecodeBytes(data, &entry); err != nil {
		return nil, errors.Wrap(err, "decode journal entry")
	}
	return &entry, nil
}

// JournalRange walks committed entries with seq in [from, to), in
// order, until cb returns false. Safe without the writer lock, the
// journal is append-only.
func (l *Ledger) JournalRange(from, to uint64, cb func(entry *Entry) bool) error {
	iter := l.db.NewIterator(kv.Range{
		From: journalEntryKey(from),
		To:   journalEntryKey(to),
	})
	defer iter.Release()

	for iter.Next() {
		var entry Entry
		if err := rlp.DecodeBytes(iter.Value(), &entry); err != nil {
			return errors.Wrap(err, "decode journal entry")
		}
		if !cb(&entry) {
			break
		}
	}
	return iter.Error()
}
