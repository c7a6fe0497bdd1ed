// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/stakelock/lockbox/eventdb"
	"github.com/stakelock/lockbox/ledger"
)

const syncBatchSize = 2048

// syncEventDB brings the event index in line with the ledger journal,
// replaying missing entries. With verify set the already indexed part
// is checked row by row first.
func syncEventDB(ctx context.Context, ldgr *ledger.Ledger, eventDB *eventdb.EventDB, verify bool) error {
	head := ldgr.Head()

	startPos, err := seekEventDBSyncPosition(ldgr, eventDB)
	if err != nil {
		return errors.Wrap(err, "seek event db sync position")
	}

	if verify && startPos > 0 {
		if err := verifyEventDB(ctx, startPos, ldgr, eventDB); err != nil {
			return errors.Wrap(err, "verify event db")
		}
	}

	if head == startPos {
		return nil
	}

	if startPos == 0 {
		fmt.Println(">> Rebuilding event index <<")
	} else {
		fmt.Println(">> Syncing event index <<")
	}

	bar := pb.New64(int64(head)).
		Set64(int64(startPos)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	var (
		batch   []*ledger.Entry
		walkErr error
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := eventDB.Insert(batch...); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	if err := ldgr.JournalRange(startPos, head, func(entry *ledger.Entry) bool {
		batch = append(batch, entry)
		if len(batch) >= syncBatchSize {
			if walkErr = flush(); walkErr != nil {
				return false
			}
		}
		bar.Add64(1)

		select {
		case <-ctx.Done():
			walkErr = ctx.Err()
			return false
		default:
			return true
		}
	}); err != nil {
		return err
	}
	if walkErr != nil {
		return walkErr
	}
	if err := flush(); err != nil {
		return err
	}
	bar.Finish()
	return nil
}

// seekEventDBSyncPosition returns the seq replay should start at.
func seekEventDBSyncPosition(ldgr *ledger.Ledger, eventDB *eventdb.EventDB) (uint64, error) {
	newest, ok, err := eventDB.NewestSeq()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if newest+1 > ldgr.Head() {
		// index claims entries the journal does not have, refuse to
		// guess which side is wrong
		return 0, errors.Errorf("event index ahead of journal (indexed %d, journal head %d)", newest, ldgr.Head())
	}
	return newest + 1, nil
}

// verifyEventDB checks indexed rows below top against the journal and
// reports the first mismatch as a unified diff.
func verifyEventDB(ctx context.Context, top uint64, ldgr *ledger.Ledger, eventDB *eventdb.EventDB) error {
	fmt.Println(">> Verifying event index <<")
	bar := pb.New64(int64(top)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	for from := uint64(0); from < top; from += syncBatchSize {
		to := from + syncBatchSize
		if to > top {
			to = top
		}
		indexed, err := eventDB.Filter(ctx, &eventdb.Filter{
			Range: &eventdb.Range{Unit: eventdb.Seq, From: from, To: to - 1},
		})
		if err != nil {
			return err
		}

		var (
			i           int
			mismatchErr error
		)
		if err := ldgr.JournalRange(from, to, func(entry *ledger.Entry) bool {
			if i >= len(indexed) || !sameEntry(entry, indexed[i]) {
				var got *ledger.Entry
				if i < len(indexed) {
					got = indexed[i]
				}
				mismatchErr = entryMismatch(entry, got)
				return false
			}
			i++
			bar.Add64(1)
			return true
		}); err != nil {
			return err
		}
		if mismatchErr != nil {
			return mismatchErr
		}
		if i != len(indexed) {
			return errors.Errorf("event index has %d extra rows in range [%d, %d)", len(indexed)-i, from, to)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	bar.Finish()
	return nil
}

// sameEntry compares by JSON form; the journal decodes amounts from
// rlp and the index from decimal text, which DeepEqual tells apart.
func sameEntry(a, b *ledger.Entry) bool {
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	return bytes.Equal(aj, bj)
}

func entryMismatch(want, got *ledger.Entry) error {
	wantJSON, _ := json.MarshalIndent(want, "", "  ")
	gotJSON, _ := json.MarshalIndent(got, "", "  ")

	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(wantJSON)),
		B:        difflib.SplitLines(string(gotJSON)),
		FromFile: "journal",
		ToFile:   "index",
		Context:  3,
	})
	return errors.Errorf("event index mismatch at seq %d:\n%s", want.Seq, diff)
}
