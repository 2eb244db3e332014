// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// ErrRevert is an error that aborts a ledger operation leaving no mutation behind.
type ErrRevert struct {
	message string
}

func New(message string) *ErrRevert {
	return &ErrRevert{
		message: message,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// IsRevertErr reports whether err is, or wraps, an ErrRevert.
func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// The operation error set. Callers classify failures with errors.Is.
var (
	// validation
	ErrPaused             = New("staking is currently paused")
	ErrInvalidTier        = New("invalid staking tier specified")
	ErrZeroAmount         = New("amount must be greater than zero")
	ErrRateTooHigh        = New("rate exceeds maximum allowed value")
	ErrInvalidEmissionCap = New("new emission cap cannot be less than distributed rewards")

	// state
	ErrInsufficientStake = New("insufficient staked balance")
	ErrNoActiveStake     = New("no active stake found")
	ErrNoRewards         = New("no rewards available to claim")
	ErrTierChange        = New("cannot change tier with active stake")

	// temporal
	ErrLockNotEnded = New("lock period has not ended yet")

	// emission accounting
	ErrEmissionCapExceeded = New("emission cap would be exceeded")

	// arithmetic
	ErrOverflow  = New("arithmetic overflow occurred")
	ErrUnderflow = New("arithmetic underflow occurred")
	ErrNarrowing = New("value does not fit the result domain")

	// authorization
	ErrUnauthorized = New("unauthorized: caller is not admin")
	ErrNotOwner     = New("unauthorized: caller is not the position owner")

	// binding
	ErrPoolExists           = New("pool already exists for this asset")
	ErrPoolNotFound         = New("no pool found for this asset")
	ErrInsufficientTreasury = New("insufficient treasury funds for reward payout")
	ErrZeroAuthority        = New("authority cannot be the zero address")
	ErrZeroAsset            = New("asset cannot be the zero address")
)
