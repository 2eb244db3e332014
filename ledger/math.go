// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math"

	"github.com/tidelock/tide/ledger/reverts"
)

// checkedAdd returns a+b, failing instead of wrapping.
func checkedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, reverts.ErrOverflow
	}
	return a + b, nil
}

// checkedSub returns a-b, failing instead of wrapping.
func checkedSub(a, b uint64) (uint64, error) {
	if a < b {
		return 0, reverts.ErrUnderflow
	}
	return a - b, nil
}

// saturatingAdd returns a+b clamped to the uint64 domain.
func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

// saturatingSub returns a-b clamped to zero.
func saturatingSub(a, b uint64) uint64 {
	if a < b {
		return 0
	}
	return a - b
}
