// Copyright (c) 2025 The Lockbox developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import "github.com/pkg/errors"

// Business failures of staking operations. Callers match these with
// errors.Is to tell rejected operations apart from storage faults.
var (
	ErrNotAdmin            = errors.New("caller is not the admin")
	ErrPaused              = errors.New("staking is paused")
	ErrAlreadyPaused       = errors.New("staking is already paused")
	ErrNotPaused           = errors.New("staking is not paused")
	ErrZeroAmount          = errors.New("amount must be positive")
	ErrDurationTooShort    = errors.New("duration shorter than minimum lock-up")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrNothingStaked       = errors.New("stake already claimed")
	ErrTokensLocked        = errors.New("tokens still locked")
	ErrInvalidIndex        = errors.New("no stake at index")
)
