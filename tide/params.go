// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tide

// Constants of the staking protocol.
const (
	SecondsPerDay  uint64 = 86_400
	SecondsPerYear uint64 = 365 * SecondsPerDay

	// BasisPointsDenominator 100% expressed in basis points.
	BasisPointsDenominator uint64 = 10_000

	// MaxRateBps ceiling for any tier rate (50%).
	MaxRateBps uint16 = 5000

	// Default annualized tier rates in basis points.
	DefaultFlexRateBps  uint16 = 400
	DefaultCoreRateBps  uint16 = 1000
	DefaultPrimeRateBps uint16 = 1400
)

// Lock durations per tier, in seconds.
const (
	FlexLockPeriod  uint64 = 0
	CoreLockPeriod  uint64 = 90 * SecondsPerDay
	PrimeLockPeriod uint64 = 180 * SecondsPerDay
)
