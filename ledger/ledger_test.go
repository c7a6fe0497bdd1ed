// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger_test

import (
	"math/big"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakelock/lockbox/builtin/staking"
	"github.com/stakelock/lockbox/genesis"
	"github.com/stakelock/lockbox/kv"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/lvldb"
)

const week = lockbox.UnitPeriod

// launch time of the devnet preset
const genesisTime = uint64(1735689600)

type testClock struct{ now uint64 }

func (c *testClock) Now() uint64          { return atomic.LoadUint64(&c.now) }
func (c *testClock) Set(t uint64)         { atomic.StoreUint64(&c.now, t) }
func (c *testClock) Advance(delta uint64) { atomic.AddUint64(&c.now, delta) }

func newTestLedger(t *testing.T, db kv.GetPutter) (*ledger.Ledger, *testClock) {
	if db == nil {
		mem, _ := lvldb.NewMem()
		t.Cleanup(func() { mem.Close() })
		db = mem
	}
	_, err := genesis.Commit(db, genesis.NewDevnet())
	assert.Nil(t, err)

	clock := &testClock{now: genesisTime}
	l, err := ledger.New(db, clock.Now)
	assert.Nil(t, err)
	t.Cleanup(l.Close)
	return l, clock
}

func TestLedgerStakeClaim(t *testing.T) {
	l, clock := newTestLedger(t, nil)

	admin := genesis.DevAccounts()[0].Address
	user := genesis.DevAccounts()[1].Address

	got, err := l.Admin()
	assert.Nil(t, err)
	assert.Equal(t, admin, got)

	before, err := l.BalanceOf(user)
	assert.Nil(t, err)

	index, stake, err := l.Stake(user, big.NewInt(1000), 4*week)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), index)
	assert.Equal(t, uint64(12), stake.Rate)
	assert.Equal(t, big.NewInt(480), stake.Reward)
	assert.Equal(t, genesisTime, stake.Start)
	assert.Equal(t, uint64(1), l.Head())

	after, err := l.BalanceOf(user)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(1000), new(big.Int).Sub(before, after))

	entry, err := l.JournalEntry(0)
	assert.Nil(t, err)
	assert.Equal(t, ledger.KindStaked, entry.Kind)
	assert.Equal(t, user, entry.Account)
	assert.Equal(t, big.NewInt(1000), entry.Amount)
	assert.Equal(t, big.NewInt(480), entry.Reward)
	assert.Equal(t, uint64(12), entry.Rate)

	// locked until start+duration
	_, err = l.Claim(user, 0)
	assert.ErrorIs(t, err, staking.ErrTokensLocked)

	clock.Set(genesisTime + 4*week)
	claimed, err := l.Claim(user, 0)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(1480), claimed.Payout())
	assert.Equal(t, uint64(2), l.Head())

	final, err := l.BalanceOf(user)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(480), new(big.Int).Sub(final, before))

	entry, err = l.JournalEntry(1)
	assert.Nil(t, err)
	assert.Equal(t, ledger.KindClaimed, entry.Kind)
	assert.Equal(t, big.NewInt(1480), entry.Amount)
	assert.Equal(t, uint64(1), entry.Seq)
}

func TestLedgerRejectedOpLeavesNoTrace(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	user := genesis.DevAccounts()[1].Address

	before, err := l.BalanceOf(user)
	assert.Nil(t, err)

	_, _, err = l.Stake(user, new(big.Int), 4*week)
	assert.ErrorIs(t, err, staking.ErrZeroAmount)
	_, _, err = l.Stake(user, big.NewInt(10), week-1)
	assert.ErrorIs(t, err, staking.ErrDurationTooShort)
	_, err = l.Claim(user, 0)
	assert.ErrorIs(t, err, staking.ErrInvalidIndex)

	assert.Equal(t, uint64(0), l.Head())
	count, err := l.StakeCount(user)
	assert.Nil(t, err)
	assert.Zero(t, count)
	after, err := l.BalanceOf(user)
	assert.Nil(t, err)
	assert.Equal(t, before, after)
	total, err := l.TotalStaked()
	assert.Nil(t, err)
	assert.Zero(t, total.Sign())
}

func TestLedgerAdminOps(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	admin := genesis.DevAccounts()[0].Address
	user := genesis.DevAccounts()[1].Address

	assert.ErrorIs(t, l.Pause(user), staking.ErrNotAdmin)
	assert.Nil(t, l.Pause(admin))
	assert.ErrorIs(t, l.Pause(admin), staking.ErrAlreadyPaused)

	paused, err := l.Paused()
	assert.Nil(t, err)
	assert.True(t, paused)

	_, _, err = l.Stake(user, big.NewInt(10), week)
	assert.ErrorIs(t, err, staking.ErrPaused)

	assert.Nil(t, l.SetLockRate(admin, 2*week, 7))
	rate, err := l.LockRate(2 * week)
	assert.Nil(t, err)
	assert.Equal(t, uint64(7), rate)

	assert.Nil(t, l.Resume(admin))
	assert.ErrorIs(t, l.Resume(admin), staking.ErrNotPaused)

	// failed attempts leave no journal entries
	assert.Equal(t, uint64(3), l.Head())

	kinds := []ledger.Kind{}
	assert.Nil(t, l.JournalRange(0, l.Head(), func(entry *ledger.Entry) bool {
		kinds = append(kinds, entry.Kind)
		return true
	}))
	assert.Equal(t, []ledger.Kind{ledger.KindPaused, ledger.KindRateSet, ledger.KindResumed}, kinds)
}

func TestLedgerPersistence(t *testing.T) {
	dir := t.TempDir()
	db, err := lvldb.New(dir, lvldb.Options{})
	require.Nil(t, err)

	gene := genesis.NewDevnet()
	_, err = genesis.Commit(db, gene)
	require.Nil(t, err)

	clock := &testClock{now: genesisTime}
	l, err := ledger.New(db, clock.Now)
	require.Nil(t, err)

	user := genesis.DevAccounts()[2].Address
	_, _, err = l.Stake(user, big.NewInt(500), week)
	require.Nil(t, err)
	l.Close()
	require.Nil(t, db.Close())

	// reopen: committed state and journal survive
	db, err = lvldb.New(dir, lvldb.Options{})
	require.Nil(t, err)
	defer db.Close()
	_, err = genesis.Commit(db, gene)
	require.Nil(t, err)

	l, err = ledger.New(db, clock.Now)
	require.Nil(t, err)
	defer l.Close()

	assert.Equal(t, uint64(1), l.Head())
	stake, err := l.GetStake(user, 0)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(500), stake.Amount)

	clock.Advance(week)
	claimed, err := l.Claim(user, 0)
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(515), claimed.Payout())
}

func TestLedgerSubscription(t *testing.T) {
	l, clock := newTestLedger(t, nil)
	user := genesis.DevAccounts()[3].Address

	ch := make(chan *ledger.Entry, 8)
	sub := l.SubscribeEntries(ch)
	defer sub.Unsubscribe()

	_, _, err := l.Stake(user, big.NewInt(100), week)
	assert.Nil(t, err)
	clock.Advance(week)
	_, err = l.Claim(user, 0)
	assert.Nil(t, err)

	got := map[ledger.Kind]bool{}
	for range 2 {
		select {
		case entry := <-ch:
			got[entry.Kind] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timeout waiting for entry")
		}
	}
	assert.True(t, got[ledger.KindStaked])
	assert.True(t, got[ledger.KindClaimed])
}

func TestLedgerSerializesWriters(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	user := genesis.DevAccounts()[4].Address

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(amount int64) {
			defer wg.Done()
			_, _, err := l.Stake(user, big.NewInt(amount), week)
			assert.Nil(t, err)
		}(int64(i))
	}
	wg.Wait()

	count, err := l.StakeCount(user)
	assert.Nil(t, err)
	assert.Equal(t, uint64(8), count)

	total, err := l.TotalStaked()
	assert.Nil(t, err)
	assert.Equal(t, big.NewInt(36), total)
	assert.Equal(t, uint64(8), l.Head())

	// indices are dense and amounts all recorded
	stakes, err := l.Stakes(user)
	assert.Nil(t, err)
	sum := new(big.Int)
	for _, s := range stakes {
		sum.Add(sum, s.Amount)
	}
	assert.Equal(t, big.NewInt(36), sum)
}

func TestJournalRange(t *testing.T) {
	l, _ := newTestLedger(t, nil)
	user := genesis.DevAccounts()[5].Address

	for i := range 5 {
		_, _, err := l.Stake(user, big.NewInt(int64(i+1)), week)
		assert.Nil(t, err)
	}

	var seqs []uint64
	assert.Nil(t, l.JournalRange(1, 4, func(entry *ledger.Entry) bool {
		seqs = append(seqs, entry.Seq)
		return true
	}))
	assert.Equal(t, []uint64{1, 2, 3}, seqs)

	// early abort
	seqs = seqs[:0]
	assert.Nil(t, l.JournalRange(0, 5, func(entry *ledger.Entry) bool {
		seqs = append(seqs, entry.Seq)
		return len(seqs) < 2
	}))
	assert.Equal(t, []uint64{0, 1}, seqs)
}

func TestLedgerTimeLeft(t *testing.T) {
	l, clock := newTestLedger(t, nil)
	user := genesis.DevAccounts()[1].Address

	_, _, err := l.Stake(user, big.NewInt(100), 4*week)
	assert.Nil(t, err)

	left, err := l.TimeLeft(user, 0)
	assert.Nil(t, err)
	assert.Equal(t, 4*week, left)

	clock.Advance(week)
	left, err = l.TimeLeft(user, 0)
	assert.Nil(t, err)
	assert.Equal(t, 3*week, left)

	clock.Advance(5 * week)
	left, err = l.TimeLeft(user, 0)
	assert.Nil(t, err)
	assert.Equal(t, uint64(0), left)

	_, err = l.TimeLeft(user, 1)
	assert.ErrorIs(t, err, staking.ErrInvalidIndex)
}
