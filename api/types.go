// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"github.com/tidelock/tide/eventdb"
	"github.com/tidelock/tide/ledger"
	"github.com/tidelock/tide/tide"
)

// InitializePool is the request body of POST /pools.
type InitializePool struct {
	Authority    tide.Address `json:"authority"`
	Asset        tide.Address `json:"asset"`
	EmissionCap  uint64       `json:"emissionCap"`
	FlexRateBps  uint16       `json:"flexRateBps"`
	CoreRateBps  uint16       `json:"coreRateBps"`
	PrimeRateBps uint16       `json:"primeRateBps"`
}

// StakeRequest is the request body of POST /pools/{asset}/stake.
type StakeRequest struct {
	Caller tide.Address `json:"caller"`
	Amount uint64       `json:"amount"`
	Tier   string       `json:"tier"`
}

// UnstakeRequest is the request body of POST /pools/{asset}/unstake.
type UnstakeRequest struct {
	Caller tide.Address `json:"caller"`
	Amount uint64       `json:"amount"`
}

// CallerRequest carries just the caller identity.
type CallerRequest struct {
	Caller tide.Address `json:"caller"`
}

// FundRequest is the request body of POST /pools/{asset}/fund.
type FundRequest struct {
	Caller tide.Address `json:"caller"`
	Amount uint64       `json:"amount"`
}

// SetPausedRequest is the request body of POST /pools/{asset}/paused.
type SetPausedRequest struct {
	Caller tide.Address `json:"caller"`
	Paused bool         `json:"paused"`
}

// AdjustRatesRequest is the request body of POST /pools/{asset}/rates.
type AdjustRatesRequest struct {
	Caller       tide.Address `json:"caller"`
	FlexRateBps  uint16       `json:"flexRateBps"`
	CoreRateBps  uint16       `json:"coreRateBps"`
	PrimeRateBps uint16       `json:"primeRateBps"`
}

// UpdateEmissionCapRequest is the request body of POST /pools/{asset}/emission-cap.
type UpdateEmissionCapRequest struct {
	Caller tide.Address `json:"caller"`
	NewCap uint64       `json:"newCap"`
}

// TransferAuthorityRequest is the request body of POST /pools/{asset}/authority.
type TransferAuthorityRequest struct {
	Caller       tide.Address `json:"caller"`
	NewAuthority tide.Address `json:"newAuthority"`
}

// PoolResponse describes a pool record.
type PoolResponse struct {
	Authority        tide.Address `json:"authority"`
	Asset            tide.Address `json:"asset"`
	StakeVault       tide.Address `json:"stakeVault"`
	RewardVault      tide.Address `json:"rewardVault"`
	FlexRateBps      uint16       `json:"flexRateBps"`
	CoreRateBps      uint16       `json:"coreRateBps"`
	PrimeRateBps     uint16       `json:"primeRateBps"`
	EmissionCap      uint64       `json:"emissionCap"`
	TotalDistributed uint64       `json:"totalDistributed"`
	TotalStaked      uint64       `json:"totalStaked"`
	StakerCount      uint64       `json:"stakerCount"`
	Paused           bool         `json:"paused"`
	CreatedAt        uint64       `json:"createdAt"`
	LastUpdated      uint64       `json:"lastUpdated"`
}

func convertPool(pool *ledger.Pool) *PoolResponse {
	return &PoolResponse{
		Authority:        pool.Authority,
		Asset:            pool.Asset,
		StakeVault:       pool.StakeVault,
		RewardVault:      pool.RewardVault,
		FlexRateBps:      pool.FlexRateBps,
		CoreRateBps:      pool.CoreRateBps,
		PrimeRateBps:     pool.PrimeRateBps,
		EmissionCap:      pool.EmissionCap,
		TotalDistributed: pool.TotalDistributed,
		TotalStaked:      pool.TotalStaked,
		StakerCount:      pool.StakerCount,
		Paused:           pool.Paused,
		CreatedAt:        pool.CreatedAt,
		LastUpdated:      pool.LastUpdated,
	}
}

// PositionResponse describes a position record with derived fields.
type PositionResponse struct {
	Owner           tide.Address `json:"owner"`
	Pool            tide.Address `json:"pool"`
	StakedAmount    uint64       `json:"stakedAmount"`
	Tier            string       `json:"tier"`
	StakeStartTime  uint64       `json:"stakeStartTime"`
	LastAccrualTime uint64       `json:"lastAccrualTime"`
	TotalClaimed    uint64       `json:"totalClaimed"`
	PendingRewards  uint64       `json:"pendingRewards"`
	Active          bool         `json:"active"`
	RemainingLock   uint64       `json:"remainingLock"`
}

func convertPosition(pos *ledger.Position, pending, now uint64) *PositionResponse {
	return &PositionResponse{
		Owner:           pos.Owner,
		Pool:            pos.Pool,
		StakedAmount:    pos.StakedAmount,
		Tier:            pos.Tier.String(),
		StakeStartTime:  pos.StakeStartTime,
		LastAccrualTime: pos.LastAccrualTime,
		TotalClaimed:    pos.TotalClaimed,
		PendingRewards:  pending,
		Active:          pos.Active,
		RemainingLock:   pos.RemainingLock(now),
	}
}

// ClaimResponse reports the paid out reward amount.
type ClaimResponse struct {
	Claimed uint64 `json:"claimed"`
}

// EventResponse describes a stored operation event.
type EventResponse struct {
	Seq    int64        `json:"seq"`
	Time   uint64       `json:"time"`
	Op     string       `json:"op"`
	Pool   tide.Address `json:"pool"`
	Actor  tide.Address `json:"actor"`
	Amount uint64       `json:"amount"`
}

func convertEvent(ev *eventdb.Event) *EventResponse {
	return &EventResponse{
		Seq:    ev.Seq,
		Time:   ev.Time,
		Op:     ev.Op,
		Pool:   ev.Pool,
		Actor:  ev.Actor,
		Amount: ev.Amount,
	}
}
