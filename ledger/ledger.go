// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/builtin"
	"github.com/stakelock/lockbox/builtin/staking"
	"github.com/stakelock/lockbox/builtin/token"
	"github.com/stakelock/lockbox/co"
	"github.com/stakelock/lockbox/kv"
	"github.com/stakelock/lockbox/lockbox"
	"github.com/stakelock/lockbox/log"
	"github.com/stakelock/lockbox/metrics"
	"github.com/stakelock/lockbox/state"
)

var (
	logger        = log.WithContext("pkg", "ledger")
	metricOpCount = metrics.LazyLoadCounterVec("ledger_op_count", []string{"kind"})
)

// Ledger runs staking operations over one backing store, one at a
// time. Each operation stages its writes, then commits them together
// with a journal entry in a single batch, or leaves no trace at all.
type Ledger struct {
	db    kv.GetPutter
	state *state.State
	stk   *staking.Staking
	tok   *token.Token

	mu  sync.Mutex // serializes state access and commits
	now func() uint64
	seq uint64 // next journal sequence

	feed  event.Feed
	scope event.SubscriptionScope
	goes  co.Goes
}

// New create a ledger over db. The now function supplies operation
// timestamps; nil defaults to the wall clock.
func New(db kv.GetPutter, now func() uint64) (*Ledger, error) {
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	seq, err := loadJournalHead(db)
	if err != nil {
		return nil, err
	}
	st := state.New(db)
	return &Ledger{
		db:    db,
		state: st,
		stk:   builtin.Staking.WithState(st),
		tok:   builtin.Token.WithState(st),
		now:   now,
		seq:   seq,
	}, nil
}

// execute runs one operation under the writer lock. A failed
// operation reverts every staged write; a successful one commits them
// atomically with its journal entry, then publishes the entry.
func (l *Ledger) execute(op func(now uint64) (*Entry, error)) (*Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	chk := l.state.NewCheckpoint()
	entry, err := op(l.now())
	if err == nil {
		entry.Seq = l.seq
		err = l.commit(entry)
	}
	if err != nil {
		l.state.RevertTo(chk)
		return nil, err
	}
	l.state.Reset()
	l.seq++

	l.goes.Go(func() { l.feed.Send(entry) })
	metricOpCount().AddWithLabel(1, map[string]string{"kind": entry.Kind.String()})
	return entry, nil
}

func (l *Ledger) commit(entry *Entry) error {
	batch := l.db.NewBatch()
	if err := l.state.CommitTo(batch); err != nil {
		return err
	}
	if err := appendJournal(batch, entry); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit")
	}
	return nil
}

// Stake locks amount of the caller's tokens for duration and returns
// the index of the recorded position.
func (l *Ledger) Stake(caller lockbox.Address, amount *big.Int, duration uint64) (uint64, *staking.Stake, error) {
	var (
		index uint64
		stake *staking.Stake
	)
	_, err := l.execute(func(now uint64) (*Entry, error) {
		var err error
		if index, stake, err = l.stk.AddStake(caller, amount, duration, now); err != nil {
			return nil, err
		}
		return &Entry{
			Kind:     KindStaked,
			Time:     now,
			Account:  caller,
			Index:    index,
			Amount:   stake.Amount,
			Reward:   stake.Reward,
			Duration: stake.Duration,
			Rate:     stake.Rate,
		}, nil
	})
	if err != nil {
		return 0, nil, err
	}
	return index, stake, nil
}

// Claim pays out the caller's matured position at index and returns
// the position as it was before the claim.
func (l *Ledger) Claim(caller lockbox.Address, index uint64) (*staking.Stake, error) {
	var stake *staking.Stake
	_, err := l.execute(func(now uint64) (*Entry, error) {
		var err error
		if stake, err = l.stk.Claim(caller, index, now); err != nil {
			return nil, err
		}
		return &Entry{
			Kind:     KindClaimed,
			Time:     now,
			Account:  caller,
			Index:    index,
			Amount:   stake.Payout(),
			Reward:   stake.Reward,
			Duration: stake.Duration,
			Rate:     stake.Rate,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return stake, nil
}

// Pause stops acceptance of new stakes.
func (l *Ledger) Pause(caller lockbox.Address) error {
	_, err := l.execute(func(now uint64) (*Entry, error) {
		if err := l.stk.Pause(caller); err != nil {
			return nil, err
		}
		return &Entry{
			Kind:    KindPaused,
			Time:    now,
			Account: caller,
			Amount:  new(big.Int),
			Reward:  new(big.Int),
		}, nil
	})
	return err
}

// Resume reopens acceptance of new stakes.
func (l *Ledger) Resume(caller lockbox.Address) error {
	_, err := l.execute(func(now uint64) (*Entry, error) {
		if err := l.stk.Resume(caller); err != nil {
			return nil, err
		}
		return &Entry{
			Kind:    KindResumed,
			Time:    now,
			Account: caller,
			Amount:  new(big.Int),
			Reward:  new(big.Int),
		}, nil
	})
	return err
}

// SetLockRate sets the reward percentage for a duration.
func (l *Ledger) SetLockRate(caller lockbox.Address, duration, rate uint64) error {
	_, err := l.execute(func(now uint64) (*Entry, error) {
		if err := l.stk.SetLockRate(caller, duration, rate); err != nil {
			return nil, err
		}
		return &Entry{
			Kind:     KindRateSet,
			Time:     now,
			Account:  caller,
			Amount:   new(big.Int),
			Reward:   new(big.Int),
			Duration: duration,
			Rate:     rate,
		}, nil
	})
	return err
}

//
// Reads - committed state only
//

// Stakes returns all positions of the account in creation order.
func (l *Ledger) Stakes(addr lockbox.Address) ([]*staking.Stake, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.ListStakes(addr)
}

// GetStake returns the position of the account at index.
func (l *Ledger) GetStake(addr lockbox.Address, index uint64) (*staking.Stake, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.GetStake(addr, index)
}

// TimeLeft returns the seconds until the position of the account at
// index unlocks, zero once it has matured.
func (l *Ledger) TimeLeft(addr lockbox.Address, index uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.TimeLeft(addr, index, l.now())
}

// StakeCount returns the number of positions the account has created.
func (l *Ledger) StakeCount(addr lockbox.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.StakeCount(addr)
}

// TotalStaked returns the principal locked across all accounts.
func (l *Ledger) TotalStaked() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.TotalStaked()
}

// Paused returns whether new stakes are currently rejected.
func (l *Ledger) Paused() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.Paused()
}

// LockRate returns the reward percentage configured for duration.
func (l *Ledger) LockRate(duration uint64) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.LockRate(duration)
}

// Admin returns the configured admin address.
func (l *Ledger) Admin() (lockbox.Address, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.Admin()
}

// RewardPool returns the custody balance available to pay rewards.
func (l *Ledger) RewardPool() (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stk.RewardPool()
}

// BalanceOf returns the token balance of the account.
func (l *Ledger) BalanceOf(addr lockbox.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tok.BalanceOf(addr)
}

// Head returns the journal length, the seq the next entry will take.
func (l *Ledger) Head() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// SubscribeEntries receivers will receive committed entries.
func (l *Ledger) SubscribeEntries(ch chan *Entry) event.Subscription {
	return l.scope.Track(l.feed.Subscribe(ch))
}

// Close cleanup inner go routines.
func (l *Ledger) Close() {
	l.scope.Close()
	l.goes.Wait()
	logger.Debug("closed")
}
