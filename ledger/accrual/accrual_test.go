// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accrual

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelock/tide/ledger/reverts"
	"github.com/tidelock/tide/tide"
)

func TestCalc(t *testing.T) {
	tests := []struct {
		name    string
		staked  uint64
		rateBps uint16
		elapsed uint64
		want    uint64
	}{
		{"one year at flex rate", 1_000_000, tide.DefaultFlexRateBps, tide.SecondsPerYear, 40_000},
		{"one year at core rate", 1_000_000, tide.DefaultCoreRateBps, tide.SecondsPerYear, 100_000},
		{"one year at prime rate", 1_000_000, tide.DefaultPrimeRateBps, tide.SecondsPerYear, 140_000},
		{"half year at flex rate", 1_000_000, tide.DefaultFlexRateBps, tide.SecondsPerYear / 2, 20_000},
		{"one day at core rate", 1_000_000, tide.DefaultCoreRateBps, tide.SecondsPerDay, 273},
		{"max rate", 1_000_000, tide.MaxRateBps, tide.SecondsPerYear, 500_000},
		{"zero staked", 0, tide.DefaultCoreRateBps, tide.SecondsPerYear, 0},
		{"zero rate", 1_000_000, 0, tide.SecondsPerYear, 0},
		{"zero elapsed", 1_000_000, tide.DefaultCoreRateBps, 0, 0},
		{"dust rounds down to zero", 1, tide.DefaultFlexRateBps, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Calc(tt.staked, tt.rateBps, tt.elapsed)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalcMonotonic(t *testing.T) {
	// longer elapsed time never yields less reward
	var prev uint64
	for _, elapsed := range []uint64{0, 1, 60, 3600, tide.SecondsPerDay, 90 * tide.SecondsPerDay, tide.SecondsPerYear} {
		got, err := Calc(1_000_000, tide.DefaultCoreRateBps, elapsed)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestCalcWideIntermediates(t *testing.T) {
	// staked * rate * elapsed overflows uint64 but the quotient fits
	staked := uint64(math.MaxUint64 / 10_000)
	got, err := Calc(staked, tide.DefaultFlexRateBps, tide.SecondsPerYear)
	require.NoError(t, err)
	assert.Equal(t, staked*400/10_000, got)
}

func TestCalcNarrowing(t *testing.T) {
	// quotient exceeding uint64 is rejected, not truncated
	_, err := Calc(math.MaxUint64, tide.MaxRateBps, math.MaxUint64)
	assert.ErrorIs(t, err, reverts.ErrNarrowing)
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, uint64(0), Elapsed(100, 100))
	assert.Equal(t, uint64(0), Elapsed(100, 50))
	assert.Equal(t, uint64(50), Elapsed(50, 100))
	assert.Equal(t, uint64(0), Elapsed(math.MaxUint64, 0))
}
