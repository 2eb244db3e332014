// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package accrual implements the pure linear reward computation.
package accrual

import (
	"github.com/holiman/uint256"

	"github.com/tidelock/tide/ledger/reverts"
	"github.com/tidelock/tide/tide"
)

// Calc returns the reward earned by staked tokens at rateBps (annualized,
// basis points) over elapsedSeconds:
//
//	reward = floor(staked * rateBps * elapsed / (10_000 * secondsPerYear))
//
// Intermediates are carried in 256-bit width. It fails with ErrOverflow if a
// step cannot be represented even widened, and with ErrNarrowing if the final
// quotient does not fit uint64.
func Calc(staked uint64, rateBps uint16, elapsedSeconds uint64) (uint64, error) {
	if staked == 0 || rateBps == 0 || elapsedSeconds == 0 {
		return 0, nil
	}

	x := uint256.NewInt(staked)
	if _, overflow := x.MulOverflow(x, uint256.NewInt(uint64(rateBps))); overflow {
		return 0, reverts.ErrOverflow
	}
	if _, overflow := x.MulOverflow(x, uint256.NewInt(elapsedSeconds)); overflow {
		return 0, reverts.ErrOverflow
	}

	denom := uint256.NewInt(tide.BasisPointsDenominator)
	if _, overflow := denom.MulOverflow(denom, uint256.NewInt(tide.SecondsPerYear)); overflow {
		return 0, reverts.ErrOverflow
	}

	x.Div(x, denom)
	if !x.IsUint64() {
		return 0, reverts.ErrNarrowing
	}
	return x.Uint64(), nil
}

// Elapsed returns now-last, treating a regressed clock as zero elapsed time.
func Elapsed(last, now uint64) uint64 {
	if now <= last {
		return 0
	}
	return now - last
}
