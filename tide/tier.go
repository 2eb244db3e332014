// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tide

import "fmt"

// Tier selects one of the fixed reward classes.
type Tier uint8

const (
	// TierFlex no lock period, lowest rate.
	TierFlex Tier = 0
	// TierCore 90 day lock, medium rate.
	TierCore Tier = 1
	// TierPrime 180 day lock, highest rate.
	TierPrime Tier = 2
)

// IsValid returns whether t is a recognized tier.
func (t Tier) IsValid() bool {
	return t == TierFlex || t == TierCore || t == TierPrime
}

// LockPeriod returns the lock duration of the tier in seconds.
// An unrecognized tier has no lock.
func (t Tier) LockPeriod() uint64 {
	switch t {
	case TierCore:
		return CoreLockPeriod
	case TierPrime:
		return PrimeLockPeriod
	default:
		return FlexLockPeriod
	}
}

// String implements the stringer interface.
func (t Tier) String() string {
	switch t {
	case TierFlex:
		return "flex"
	case TierCore:
		return "core"
	case TierPrime:
		return "prime"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseTier converts a string presented tier into Tier type.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "flex":
		return TierFlex, nil
	case "core":
		return TierCore, nil
	case "prime":
		return TierPrime, nil
	default:
		return 0, fmt.Errorf("invalid tier: %q", s)
	}
}
