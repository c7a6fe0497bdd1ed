// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/stakelock/lockbox/api/utils"
	"github.com/stakelock/lockbox/builtin/staking"
	"github.com/stakelock/lockbox/ledger"
	"github.com/stakelock/lockbox/lockbox"
)

type Staking struct {
	ledger *ledger.Ledger
}

func New(ledger *ledger.Ledger) *Staking {
	return &Staking{ledger}
}

// ConvertError maps ledger rejections to HTTP errors; anything not in
// the business taxonomy passes through as a 500.
func ConvertError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, staking.ErrNotAdmin):
		return utils.Forbidden(err)
	case errors.Is(err, staking.ErrPaused),
		errors.Is(err, staking.ErrAlreadyPaused),
		errors.Is(err, staking.ErrNotPaused),
		errors.Is(err, staking.ErrZeroAmount),
		errors.Is(err, staking.ErrDurationTooShort),
		errors.Is(err, staking.ErrInsufficientBalance),
		errors.Is(err, staking.ErrNothingStaked),
		errors.Is(err, staking.ErrTokensLocked),
		errors.Is(err, staking.ErrInvalidIndex):
		return utils.BadRequest(err)
	}
	return err
}

func (s *Staking) handleGetStakes(w http.ResponseWriter, req *http.Request) error {
	addr, err := lockbox.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	list, err := s.ledger.Stakes(addr)
	if err != nil {
		return err
	}
	stakes := make([]*Stake, len(list))
	for i, stake := range list {
		stakes[i] = convertStake(stake)
	}
	return utils.WriteJSON(w, &Stakes{Stakes: stakes, Count: uint64(len(stakes))})
}

func (s *Staking) handleGetStake(w http.ResponseWriter, req *http.Request) error {
	addr, err := lockbox.ParseAddress(mux.Vars(req)["address"])
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "address"))
	}
	index, err := strconv.ParseUint(mux.Vars(req)["index"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "index"))
	}
	stake, err := s.ledger.GetStake(addr, index)
	if err != nil {
		return ConvertError(err)
	}
	timeLeft, err := s.ledger.TimeLeft(addr, index)
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, &StakeDetail{Stake: convertStake(stake), TimeLeft: timeLeft})
}

func (s *Staking) handleCreateStake(w http.ResponseWriter, req *http.Request) error {
	var payload StakeRequest
	if err := utils.ParseJSON(req.Body, &payload); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if payload.Caller == nil {
		return utils.BadRequest(errors.New("caller: missing"))
	}
	if payload.Amount == nil {
		return utils.BadRequest(errors.New("amount: missing"))
	}
	index, stake, err := s.ledger.Stake(*payload.Caller, (*big.Int)(payload.Amount), payload.Duration)
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, &StakeResult{Index: index, Stake: convertStake(stake)})
}

func (s *Staking) handleClaimStake(w http.ResponseWriter, req *http.Request) error {
	var payload ClaimRequest
	if err := utils.ParseJSON(req.Body, &payload); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	if payload.Caller == nil {
		return utils.BadRequest(errors.New("caller: missing"))
	}
	if payload.Index == nil {
		return utils.BadRequest(errors.New("index: missing"))
	}
	stake, err := s.ledger.Claim(*payload.Caller, *payload.Index)
	if err != nil {
		return ConvertError(err)
	}
	return utils.WriteJSON(w, &ClaimResult{
		Amount: (*math.HexOrDecimal256)(stake.Amount),
		Reward: (*math.HexOrDecimal256)(stake.Reward),
	})
}

func (s *Staking) handleGetTotal(w http.ResponseWriter, _ *http.Request) error {
	total, err := s.ledger.TotalStaked()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &TotalStaked{Total: (*math.HexOrDecimal256)(total)})
}

func (s *Staking) handleGetStatus(w http.ResponseWriter, _ *http.Request) error {
	paused, err := s.ledger.Paused()
	if err != nil {
		return err
	}
	admin, err := s.ledger.Admin()
	if err != nil {
		return err
	}
	pool, err := s.ledger.RewardPool()
	if err != nil {
		return err
	}
	total, err := s.ledger.TotalStaked()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Status{
		Paused:     paused,
		Admin:      admin,
		RewardPool: (*math.HexOrDecimal256)(pool),
		Total:      (*math.HexOrDecimal256)(total),
	})
}

func (s *Staking) handleGetRate(w http.ResponseWriter, req *http.Request) error {
	duration, err := strconv.ParseUint(mux.Vars(req)["duration"], 10, 64)
	if err != nil {
		return utils.BadRequest(errors.WithMessage(err, "duration"))
	}
	rate, err := s.ledger.LockRate(duration)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Rate{Duration: duration, Rate: rate})
}

func (s *Staking) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/accounts/{address}/stakes").
		Methods(http.MethodGet).
		Name("staking_get_stakes").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStakes))
	sub.Path("/accounts/{address}/stakes/{index}").
		Methods(http.MethodGet).
		Name("staking_get_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStake))
	sub.Path("/stakes").
		Methods(http.MethodPost).
		Name("staking_create_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleCreateStake))
	sub.Path("/claims").
		Methods(http.MethodPost).
		Name("staking_claim_stake").
		HandlerFunc(utils.WrapHandlerFunc(s.handleClaimStake))
	sub.Path("/total").
		Methods(http.MethodGet).
		Name("staking_get_total").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetTotal))
	sub.Path("/status").
		Methods(http.MethodGet).
		Name("staking_get_status").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetStatus))
	sub.Path("/rates/{duration}").
		Methods(http.MethodGet).
		Name("staking_get_rate").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetRate))
}
