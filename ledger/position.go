// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"math"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tidelock/tide/tide"
)

// Position is the per-depositor record of a pool. It is created lazily on
// first stake and persists forever; a fully unstaked position is Closed
// (inactive) and reopens on the next stake.
type Position struct {
	Owner tide.Address
	Pool  tide.Address

	StakedAmount uint64
	Tier         tide.Tier

	StakeStartTime  uint64
	LastAccrualTime uint64

	TotalClaimed   uint64
	PendingRewards uint64

	Active bool
}

// IsEmpty returns whether the record has never been created.
func (p *Position) IsEmpty() bool {
	return p.Owner.IsZero() && p.Pool.IsZero()
}

// LockEndTime returns the timestamp at which the principal unlocks,
// saturating instead of wrapping.
func (p *Position) LockEndTime() uint64 {
	period := p.Tier.LockPeriod()
	if p.StakeStartTime > math.MaxUint64-period {
		return math.MaxUint64
	}
	return p.StakeStartTime + period
}

// LockEnded returns whether the lock period has elapsed at now.
// The flex tier is always unlocked.
func (p *Position) LockEnded(now uint64) bool {
	if p.Tier.LockPeriod() == 0 {
		return true
	}
	return now >= p.LockEndTime()
}

// RemainingLock returns the seconds left until the principal unlocks,
// zero for any position LockEnded reports as unlocked.
func (p *Position) RemainingLock(now uint64) uint64 {
	if p.LockEnded(now) {
		return 0
	}
	return p.LockEndTime() - now
}

// Encode implements the storage codec. Empty records encode to nil.
func (p *Position) Encode() ([]byte, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(p)
}

// Decode implements the storage codec.
func (p *Position) Decode(data []byte) error {
	if len(data) == 0 {
		*p = Position{}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}
