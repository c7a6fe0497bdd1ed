// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"
	"math/big"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
)

type RangeType string

const (
	Seq  RangeType = "seq"
	Time RangeType = "time"
)

type OrderType string

const (
	ASC  OrderType = "asc"
	DESC OrderType = "desc"
)

// Range bounds entries by journal position or commit time, inclusive
// on both ends. A To below From leaves the range open-ended.
type Range struct {
	Unit RangeType
	From uint64
	To   uint64
}

type Options struct {
	Offset uint64
	Limit  uint64
}

// Filter selects journal entries. Zero-value fields match everything.
type Filter struct {
	Account *lockbox.Address
	Kinds   []ledger.Kind
	Range   *Range
	Order   OrderType // defaults to ascending seq
	Options *Options
}

// EventDB is a queryable SQLite index of the ledger journal. It is a
// derived view: losing it costs nothing but a rebuild.
type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New creates or opens the event db at the given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if _, err := db.Exec(entryTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem creates an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close closes the event db.
func (db *EventDB) Close() {
	db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

// Insert writes the entries in one transaction. Re-inserting a seq
// replaces the row, so replaying the journal over a stale index is
// harmless.
func (db *EventDB) Insert(entries ...*ledger.Entry) error {
	return db.execInTx(func(tx *sql.Tx) error {
		for _, entry := range entries {
			if _, err := tx.Exec("INSERT OR REPLACE INTO entry(seq, ts, kind, account, stakeIndex, amount, reward, duration, rate) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);",
				entry.Seq,
				entry.Time,
				uint8(entry.Kind),
				entry.Account.Bytes(),
				entry.Index,
				amountValue(entry.Amount),
				amountValue(entry.Reward),
				entry.Duration,
				entry.Rate,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// NewestSeq returns the highest indexed journal position. ok is false
// when the index is empty.
func (db *EventDB) NewestSeq() (seq uint64, ok bool, err error) {
	row := db.db.QueryRow("SELECT MAX(seq) FROM entry")
	var newest sql.NullInt64
	if err := row.Scan(&newest); err != nil {
		return 0, false, err
	}
	if !newest.Valid {
		return 0, false, nil
	}
	return uint64(newest.Int64), true, nil
}

// Filter returns entries matching the filter, ordered by seq.
func (db *EventDB) Filter(ctx context.Context, filter *Filter) ([]*ledger.Entry, error) {
	if filter == nil {
		return db.query(ctx, "SELECT * FROM entry")
	}
	var args []interface{}
	stmt := "SELECT * FROM entry WHERE 1"
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ? "
	}
	if len(filter.Kinds) > 0 {
		placeholders := make([]string, len(filter.Kinds))
		for i, kind := range filter.Kinds {
			args = append(args, uint8(kind))
			placeholders[i] = "?"
		}
		stmt += " AND kind IN (" + strings.Join(placeholders, ",") + ") "
	}
	if filter.Range != nil {
		condition := "seq"
		if filter.Range.Unit == Time {
			condition = "ts"
		}
		args = append(args, filter.Range.From)
		stmt += " AND " + condition + " >= ? "
		if filter.Range.To >= filter.Range.From {
			args = append(args, filter.Range.To)
			stmt += " AND " + condition + " <= ? "
		}
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC "
	} else {
		stmt += " ORDER BY seq ASC "
	}

	if filter.Options != nil {
		stmt += " limit ?, ? "
		args = append(args, filter.Options.Offset, filter.Options.Limit)
	}
	return db.query(ctx, stmt, args...)
}

func (db *EventDB) query(ctx context.Context, stmt string, args ...interface{}) ([]*ledger.Entry, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq        uint64
			ts         uint64
			kind       uint8
			account    []byte
			stakeIndex uint64
			amount     string
			reward     string
			duration   uint64
			rate       uint64
		)
		if err := rows.Scan(
			&seq,
			&ts,
			&kind,
			&account,
			&stakeIndex,
			&amount,
			&reward,
			&duration,
			&rate,
		); err != nil {
			return nil, err
		}
		entry := &ledger.Entry{
			Seq:      seq,
			Kind:     ledger.Kind(kind),
			Time:     ts,
			Account:  lockbox.BytesToAddress(account),
			Index:    stakeIndex,
			Duration: duration,
			Rate:     rate,
		}
		if entry.Amount, err = parseAmount(amount); err != nil {
			return nil, errors.WithMessagef(err, "entry %d", seq)
		}
		if entry.Reward, err = parseAmount(reward); err != nil {
			return nil, errors.WithMessagef(err, "entry %d", seq)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (db *EventDB) execInTx(proc func(*sql.Tx) error) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// amounts are stored as decimal text, sqlite integers top out at 64
// bits
func amountValue(amount *big.Int) string {
	if amount == nil {
		return "0"
	}
	return amount.String()
}

func parseAmount(text string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, errors.Errorf("corrupted amount %q", text)
	}
	return amount, nil
}
