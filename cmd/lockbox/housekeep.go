// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"time"

	"github.com/beevik/ntp"
	"github.com/ethereum/go-ethereum/common"

	"github.com/stakelock/lockbox/co"
	"github.com/stakelock/lockbox/eventdb"
	"github.com/stakelock/lockbox/health"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/metrics"
)

var (
	metricTotalStaked = metrics.LazyLoadGauge("staking_total_staked")
	metricRewardPool  = metrics.LazyLoadGauge("staking_reward_pool")
)

// maxClockOffset is how far the host clock may drift before lock
// expiries start landing visibly early or late.
const maxClockOffset = 10 * time.Second

func runLoops(ctx context.Context, ldgr *ledger.Ledger, eventDB *eventdb.EventDB, hlth *health.Health) error {
	var goes co.Goes
	defer goes.Wait()

	goes.Go(func() { indexLoop(ctx, ldgr, eventDB, hlth) })
	goes.Go(func() { houseKeeping(ctx, ldgr) })

	<-ctx.Done()
	return nil
}

// indexLoop mirrors committed journal entries into the event index.
func indexLoop(ctx context.Context, ldgr *ledger.Ledger, eventDB *eventdb.EventDB, hlth *health.Health) {
	logger.Debug("enter index loop")
	defer logger.Debug("leave index loop")

	entryCh := make(chan *ledger.Entry, 256)
	sub := ldgr.SubscribeEntries(entryCh)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-sub.Err():
			if err != nil {
				logger.Warn("entry subscription failed", "err", err)
			}
			return
		case entry := <-entryCh:
			hlth.JournalCommit(entry.Seq + 1)
			if err := eventDB.Insert(entry); err != nil {
				logger.Warn("failed to index entry", "seq", entry.Seq, "err", err)
				continue
			}
			hlth.IndexedHead(entry.Seq + 1)
		}
	}
}

func houseKeeping(ctx context.Context, ldgr *ledger.Ledger) {
	logger.Debug("enter house keeping")
	defer logger.Debug("leave house keeping")

	clockSyncTicker := time.NewTicker(10 * time.Minute)
	defer clockSyncTicker.Stop()
	gaugeTicker := time.NewTicker(15 * time.Second)
	defer gaugeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-clockSyncTicker.C:
			go checkClockOffset()
		case <-gaugeTicker.C:
			updateStakingGauges(ldgr)
		}
	}
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected, lock expiries will be mistimed", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func updateStakingGauges(ldgr *ledger.Ledger) {
	if total, err := ldgr.TotalStaked(); err == nil && total.IsInt64() {
		metricTotalStaked().Set(total.Int64())
	}
	if pool, err := ldgr.RewardPool(); err == nil && pool.IsInt64() {
		metricRewardPool().Set(pool.Int64())
	}
}
