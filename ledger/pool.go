// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/tidelock/tide/tide"
)

// Pool is the global registry record of a staked asset.
type Pool struct {
	Authority   tide.Address
	Asset       tide.Address
	StakeVault  tide.Address
	RewardVault tide.Address

	FlexRateBps  uint16
	CoreRateBps  uint16
	PrimeRateBps uint16

	EmissionCap      uint64
	TotalDistributed uint64

	TotalStaked uint64
	StakerCount uint64

	Paused bool

	CreatedAt   uint64
	LastUpdated uint64
}

// IsEmpty returns whether the record has never been initialized.
func (p *Pool) IsEmpty() bool {
	return p.Asset.IsZero() && p.Authority.IsZero()
}

// RateForTier returns the annualized rate in basis points for the tier.
// An unrecognized stored tier yields zero rate.
func (p *Pool) RateForTier(tier tide.Tier) uint16 {
	switch tier {
	case tide.TierFlex:
		return p.FlexRateBps
	case tide.TierCore:
		return p.CoreRateBps
	case tide.TierPrime:
		return p.PrimeRateBps
	default:
		return 0
	}
}

// RemainingEmission returns the rewards still payable under the cap.
func (p *Pool) RemainingEmission() uint64 {
	if p.TotalDistributed >= p.EmissionCap {
		return 0
	}
	return p.EmissionCap - p.TotalDistributed
}

// Encode implements the storage codec. Empty records encode to nil.
func (p *Pool) Encode() ([]byte, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	return rlp.EncodeToBytes(p)
}

// Decode implements the storage codec.
func (p *Pool) Decode(data []byte) error {
	if len(data) == 0 {
		*p = Pool{}
		return nil
	}
	return rlp.DecodeBytes(data, p)
}
