// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger implements the time-locked staking ledger: one pool record
// per staked asset, one position record per (pool, owner), linear reward
// accrual bounded by an emission cap, and the authority-scoped admin surface.
//
// Every operation is atomic: preconditions are validated against committed
// state, accrual is computed by the pure engine, the external value transfer
// runs, and only then are record mutations committed in a single batch.
package ledger

import (
	"github.com/tidelock/tide/kv"
	"github.com/tidelock/tide/ledger/accrual"
	"github.com/tidelock/tide/ledger/reverts"
	"github.com/tidelock/tide/log"
	"github.com/tidelock/tide/metrics"
	"github.com/tidelock/tide/tide"
)

var logger = log.WithContext("pkg", "ledger")

var (
	metricOps      = metrics.LazyLoadCounterVec("ledger_ops_total", []string{"op"})
	metricStaked   = metrics.LazyLoadGauge("ledger_total_staked")
	metricRewarded = metrics.LazyLoadCounter("ledger_rewards_distributed_total")
)

// Transferor is the external value-transfer collaborator. Transfer is atomic
// and all-or-nothing, rejecting when the source balance is insufficient.
type Transferor interface {
	Transfer(from, to tide.Address, amount uint64) error
	Balance(addr tide.Address) (uint64, error)
}

// Ledger orchestrates the staking operations over the record store.
type Ledger struct {
	storage   *storage
	transfers Transferor
	events    EventRecorder
}

// New creates a ledger over the given store and transfer collaborator.
// events may be nil to disable the operation history.
func New(store kv.GetPutter, transfers Transferor, events EventRecorder) *Ledger {
	return &Ledger{
		storage:   newStorage(store),
		transfers: transfers,
		events:    events,
	}
}

// StakeVaultAddress derives the stake-custody vault identity of an asset.
func StakeVaultAddress(asset tide.Address) tide.Address {
	return tide.BytesToAddress(tide.Keccak([]byte("stake-vault"), asset.Bytes()).Bytes())
}

// RewardVaultAddress derives the reward-custody vault identity of an asset.
func RewardVaultAddress(asset tide.Address) tide.Address {
	return tide.BytesToAddress(tide.Keccak([]byte("reward-vault"), asset.Bytes()).Bytes())
}

//
// Getters - no state change
//

// GetPool returns the pool record of an asset.
func (l *Ledger) GetPool(asset tide.Address) (*Pool, error) {
	pool, err := l.storage.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if pool.IsEmpty() {
		return nil, reverts.ErrPoolNotFound
	}
	return pool, nil
}

// GetPosition returns the position record of (asset, owner).
// Never-created positions are reported as ErrNoActiveStake.
func (l *Ledger) GetPosition(asset, owner tide.Address) (*Position, error) {
	pos, err := l.storage.GetPosition(asset, owner)
	if err != nil {
		return nil, err
	}
	if pos.IsEmpty() {
		return nil, reverts.ErrNoActiveStake
	}
	return pos, nil
}

// PendingRewards returns the total rewards claimable at now: stored pending
// plus freshly accrued since the last accrual time.
func (l *Ledger) PendingRewards(asset, owner tide.Address, now uint64) (uint64, error) {
	pool, err := l.GetPool(asset)
	if err != nil {
		return 0, err
	}
	pos, err := l.GetPosition(asset, owner)
	if err != nil {
		return 0, err
	}
	fresh, err := l.accrue(pool, pos, now)
	if err != nil {
		return 0, err
	}
	return checkedAdd(pos.PendingRewards, fresh)
}

// accrue computes the freshly earned reward of a position since its last
// accrual time. Inactive positions and regressed clocks accrue nothing.
func (l *Ledger) accrue(pool *Pool, pos *Position, now uint64) (uint64, error) {
	if !pos.Active || pos.StakedAmount == 0 {
		return 0, nil
	}
	elapsed := accrual.Elapsed(pos.LastAccrualTime, now)
	return accrual.Calc(pos.StakedAmount, pool.RateForTier(pos.Tier), elapsed)
}

//
// Setters - state change
//

// Initialize creates the pool record of an asset. It rejects zero addresses,
// a zero emission cap and rates above the ceiling, and fails if the pool
// already exists.
func (l *Ledger) Initialize(
	authority tide.Address,
	asset tide.Address,
	emissionCap uint64,
	flexRate, coreRate, primeRate uint16,
	now uint64,
) (*Pool, error) {
	logger.Debug("initializing pool", "asset", asset, "authority", authority, "emissionCap", emissionCap)

	if authority.IsZero() {
		return nil, reverts.ErrZeroAuthority
	}
	if asset.IsZero() {
		return nil, reverts.ErrZeroAsset
	}
	if emissionCap == 0 {
		return nil, reverts.ErrInvalidEmissionCap
	}
	if err := checkRates(flexRate, coreRate, primeRate); err != nil {
		return nil, err
	}

	existing, err := l.storage.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if !existing.IsEmpty() {
		return nil, reverts.ErrPoolExists
	}

	pool := &Pool{
		Authority:    authority,
		Asset:        asset,
		StakeVault:   StakeVaultAddress(asset),
		RewardVault:  RewardVaultAddress(asset),
		FlexRateBps:  flexRate,
		CoreRateBps:  coreRate,
		PrimeRateBps: primeRate,
		EmissionCap:  emissionCap,
		CreatedAt:    now,
		LastUpdated:  now,
	}

	stage := l.storage.NewStage()
	if err := stage.PutPool(pool); err != nil {
		return nil, err
	}
	if err := stage.Commit(); err != nil {
		return nil, err
	}

	l.recordEvent(&Event{Time: now, Op: OpInitialize, Pool: asset, Actor: authority, Amount: emissionCap})
	metricOps().AddWithLabel(1, map[string]string{"op": OpInitialize})
	logger.Info("initialized pool", "asset", asset, "emissionCap", emissionCap)
	return pool, nil
}

// Stake locks amount into the caller's position at the given tier, creating
// the position on first stake. The stored tier is immutable while any amount
// remains staked. Paused pools reject new stakes.
func (l *Ledger) Stake(asset, caller tide.Address, amount uint64, tier tide.Tier, now uint64) (*Position, error) {
	logger.Debug("staking", "asset", asset, "caller", caller, "amount", amount, "tier", tier)

	pool, err := l.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if pool.Paused {
		return nil, reverts.ErrPaused
	}
	if amount == 0 {
		return nil, reverts.ErrZeroAmount
	}
	if !tier.IsValid() {
		return nil, reverts.ErrInvalidTier
	}

	pos, err := l.storage.GetPosition(asset, caller)
	if err != nil {
		return nil, err
	}
	if pos.Active && pos.StakedAmount > 0 && pos.Tier != tier {
		return nil, reverts.ErrTierChange
	}

	// flush accrued rewards before the staked amount changes
	fresh, err := l.accrue(pool, pos, now)
	if err != nil {
		return nil, err
	}

	if err := l.transfers.Transfer(caller, pool.StakeVault, amount); err != nil {
		logger.Info("stake failed", "asset", asset, "caller", caller, "error", err)
		return nil, err
	}

	if pos.IsEmpty() || !pos.Active {
		if pos.IsEmpty() {
			pos.Owner = caller
			pos.Pool = asset
			pos.TotalClaimed = 0
		}
		pos.Tier = tier
		pos.StakeStartTime = now
		pos.LastAccrualTime = now
		pos.Active = true
		pool.StakerCount = saturatingAdd(pool.StakerCount, 1)
	} else {
		if pos.PendingRewards, err = checkedAdd(pos.PendingRewards, fresh); err != nil {
			return nil, err
		}
		pos.LastAccrualTime = now
	}

	if pos.StakedAmount, err = checkedAdd(pos.StakedAmount, amount); err != nil {
		return nil, err
	}
	if pool.TotalStaked, err = checkedAdd(pool.TotalStaked, amount); err != nil {
		return nil, err
	}
	pool.LastUpdated = now

	if err := l.commit(pool, pos); err != nil {
		return nil, err
	}

	l.recordEvent(&Event{Time: now, Op: OpStake, Pool: asset, Actor: caller, Amount: amount})
	metricOps().AddWithLabel(1, map[string]string{"op": OpStake})
	metricStaked().Add(int64(amount))
	logger.Info("staked", "asset", asset, "caller", caller, "amount", amount, "total", pos.StakedAmount)
	return pos, nil
}

// Unstake releases amount of the caller's principal once the tier's lock
// period has elapsed. Fully unstaking closes the position. Unstaking remains
// available while the pool is paused.
func (l *Ledger) Unstake(asset, caller tide.Address, amount uint64, now uint64) (*Position, error) {
	logger.Debug("unstaking", "asset", asset, "caller", caller, "amount", amount)

	pool, err := l.GetPool(asset)
	if err != nil {
		return nil, err
	}
	pos, err := l.storage.GetPosition(asset, caller)
	if err != nil {
		return nil, err
	}

	if amount == 0 {
		return nil, reverts.ErrZeroAmount
	}
	if pos.IsEmpty() || !pos.Active {
		return nil, reverts.ErrNoActiveStake
	}
	if pos.Owner != caller {
		return nil, reverts.ErrNotOwner
	}
	if pos.StakedAmount < amount {
		return nil, reverts.ErrInsufficientStake
	}
	if !pos.LockEnded(now) {
		logger.Info("unstake rejected, lock not ended", "asset", asset, "caller", caller, "remaining", pos.RemainingLock(now))
		return nil, reverts.ErrLockNotEnded
	}

	fresh, err := l.accrue(pool, pos, now)
	if err != nil {
		return nil, err
	}

	if err := l.transfers.Transfer(pool.StakeVault, caller, amount); err != nil {
		logger.Info("unstake failed", "asset", asset, "caller", caller, "error", err)
		return nil, err
	}

	if pos.PendingRewards, err = checkedAdd(pos.PendingRewards, fresh); err != nil {
		return nil, err
	}
	pos.LastAccrualTime = now

	if pos.StakedAmount, err = checkedSub(pos.StakedAmount, amount); err != nil {
		return nil, err
	}
	if pos.StakedAmount == 0 {
		pos.Active = false
		pool.StakerCount = saturatingSub(pool.StakerCount, 1)
	}

	if pool.TotalStaked, err = checkedSub(pool.TotalStaked, amount); err != nil {
		return nil, err
	}
	pool.LastUpdated = now

	if err := l.commit(pool, pos); err != nil {
		return nil, err
	}

	l.recordEvent(&Event{Time: now, Op: OpUnstake, Pool: asset, Actor: caller, Amount: amount})
	metricOps().AddWithLabel(1, map[string]string{"op": OpUnstake})
	metricStaked().Add(-int64(amount))
	logger.Info("unstaked", "asset", asset, "caller", caller, "amount", amount, "remaining", pos.StakedAmount)
	return pos, nil
}

// Claim pays out all pending plus freshly accrued rewards from the reward
// vault. It rejects a zero payout, an underfunded reward vault, and any
// payout that would push the pool past its emission cap. Claiming remains
// available while the pool is paused, and on closed positions with leftover
// pending rewards.
func (l *Ledger) Claim(asset, caller tide.Address, now uint64) (uint64, error) {
	logger.Debug("claiming rewards", "asset", asset, "caller", caller)

	pool, err := l.GetPool(asset)
	if err != nil {
		return 0, err
	}
	pos, err := l.storage.GetPosition(asset, caller)
	if err != nil {
		return 0, err
	}
	if pos.IsEmpty() {
		return 0, reverts.ErrNoActiveStake
	}
	if pos.Owner != caller {
		return 0, reverts.ErrNotOwner
	}

	fresh, err := l.accrue(pool, pos, now)
	if err != nil {
		return 0, err
	}
	claimable, err := checkedAdd(pos.PendingRewards, fresh)
	if err != nil {
		return 0, err
	}
	if claimable == 0 {
		return 0, reverts.ErrNoRewards
	}

	treasury, err := l.transfers.Balance(pool.RewardVault)
	if err != nil {
		return 0, err
	}
	if treasury < claimable {
		logger.Info("claim rejected, treasury underfunded", "asset", asset, "claimable", claimable, "treasury", treasury)
		return 0, reverts.ErrInsufficientTreasury
	}

	distributed, err := checkedAdd(pool.TotalDistributed, claimable)
	if err != nil {
		return 0, err
	}
	if distributed > pool.EmissionCap {
		logger.Info("claim rejected, emission cap", "asset", asset, "claimable", claimable, "cap", pool.EmissionCap)
		return 0, reverts.ErrEmissionCapExceeded
	}

	if err := l.transfers.Transfer(pool.RewardVault, caller, claimable); err != nil {
		logger.Info("claim failed", "asset", asset, "caller", caller, "error", err)
		return 0, err
	}

	pos.PendingRewards = 0
	pos.LastAccrualTime = now
	if pos.TotalClaimed, err = checkedAdd(pos.TotalClaimed, claimable); err != nil {
		return 0, err
	}
	pool.TotalDistributed = distributed
	pool.LastUpdated = now

	if err := l.commit(pool, pos); err != nil {
		return 0, err
	}

	l.recordEvent(&Event{Time: now, Op: OpClaim, Pool: asset, Actor: caller, Amount: claimable})
	metricOps().AddWithLabel(1, map[string]string{"op": OpClaim})
	metricRewarded().Add(int64(claimable))
	logger.Info("claimed rewards", "asset", asset, "caller", caller, "amount", claimable, "distributed", pool.TotalDistributed)
	return claimable, nil
}

// FundTreasury deposits amount into the reward vault. Permissionless; the
// only ledger side effect is the pool's last-updated timestamp.
func (l *Ledger) FundTreasury(asset, funder tide.Address, amount uint64, now uint64) error {
	logger.Debug("funding treasury", "asset", asset, "funder", funder, "amount", amount)

	pool, err := l.GetPool(asset)
	if err != nil {
		return err
	}
	if amount == 0 {
		return reverts.ErrZeroAmount
	}

	if err := l.transfers.Transfer(funder, pool.RewardVault, amount); err != nil {
		logger.Info("treasury funding failed", "asset", asset, "funder", funder, "error", err)
		return err
	}

	pool.LastUpdated = now
	if err := l.commit(pool, nil); err != nil {
		return err
	}

	l.recordEvent(&Event{Time: now, Op: OpFundTreasury, Pool: asset, Actor: funder, Amount: amount})
	metricOps().AddWithLabel(1, map[string]string{"op": OpFundTreasury})
	logger.Info("funded treasury", "asset", asset, "funder", funder, "amount", amount)
	return nil
}

// SetPaused pauses or resumes new stakes. Unstaking and claiming are never
// blocked by a pause. Admin only.
func (l *Ledger) SetPaused(asset, caller tide.Address, paused bool, now uint64) error {
	pool, err := l.requireAuthority(asset, caller)
	if err != nil {
		return err
	}

	pool.Paused = paused
	pool.LastUpdated = now
	if err := l.commit(pool, nil); err != nil {
		return err
	}

	l.recordEvent(&Event{Time: now, Op: OpSetPaused, Pool: asset, Actor: caller})
	metricOps().AddWithLabel(1, map[string]string{"op": OpSetPaused})
	logger.Info("set paused", "asset", asset, "paused", paused)
	return nil
}

// AdjustRates sets the three tier rates, each capped at the ceiling. The new
// rates apply to future accrual only; already-accrued pending rewards keep
// their value. Admin only.
func (l *Ledger) AdjustRates(asset, caller tide.Address, flexRate, coreRate, primeRate uint16, now uint64) error {
	pool, err := l.requireAuthority(asset, caller)
	if err != nil {
		return err
	}
	if err := checkRates(flexRate, coreRate, primeRate); err != nil {
		return err
	}

	logger.Debug("adjusting rates", "asset", asset,
		"flex", pool.FlexRateBps, "core", pool.CoreRateBps, "prime", pool.PrimeRateBps,
		"newFlex", flexRate, "newCore", coreRate, "newPrime", primeRate,
	)

	pool.FlexRateBps = flexRate
	pool.CoreRateBps = coreRate
	pool.PrimeRateBps = primeRate
	pool.LastUpdated = now
	if err := l.commit(pool, nil); err != nil {
		return err
	}

	l.recordEvent(&Event{Time: now, Op: OpAdjustRates, Pool: asset, Actor: caller})
	metricOps().AddWithLabel(1, map[string]string{"op": OpAdjustRates})
	logger.Info("adjusted rates", "asset", asset, "flex", flexRate, "core", coreRate, "prime", primeRate)
	return nil
}

// UpdateEmissionCap moves the emission cap. The cap can never drop below the
// rewards already distributed and can never be zero. Admin only.
func (l *Ledger) UpdateEmissionCap(asset, caller tide.Address, newCap uint64, now uint64) error {
	pool, err := l.requireAuthority(asset, caller)
	if err != nil {
		return err
	}
	if newCap == 0 || newCap < pool.TotalDistributed {
		return reverts.ErrInvalidEmissionCap
	}

	oldCap := pool.EmissionCap
	pool.EmissionCap = newCap
	pool.LastUpdated = now
	if err := l.commit(pool, nil); err != nil {
		return err
	}

	l.recordEvent(&Event{Time: now, Op: OpUpdateEmissionCap, Pool: asset, Actor: caller, Amount: newCap})
	metricOps().AddWithLabel(1, map[string]string{"op": OpUpdateEmissionCap})
	logger.Info("updated emission cap", "asset", asset, "oldCap", oldCap, "newCap", newCap, "distributed", pool.TotalDistributed)
	return nil
}

// TransferAuthority hands the pool over to a new non-zero authority. Admin only.
func (l *Ledger) TransferAuthority(asset, caller, newAuthority tide.Address, now uint64) error {
	pool, err := l.requireAuthority(asset, caller)
	if err != nil {
		return err
	}
	if newAuthority.IsZero() {
		return reverts.ErrZeroAuthority
	}

	pool.Authority = newAuthority
	pool.LastUpdated = now
	if err := l.commit(pool, nil); err != nil {
		return err
	}

	l.recordEvent(&Event{Time: now, Op: OpTransferAuthority, Pool: asset, Actor: caller})
	metricOps().AddWithLabel(1, map[string]string{"op": OpTransferAuthority})
	logger.Info("transferred authority", "asset", asset, "newAuthority", newAuthority)
	return nil
}

func (l *Ledger) requireAuthority(asset, caller tide.Address) (*Pool, error) {
	pool, err := l.GetPool(asset)
	if err != nil {
		return nil, err
	}
	if pool.Authority != caller {
		logger.Info("admin op rejected", "asset", asset, "caller", caller)
		return nil, reverts.ErrUnauthorized
	}
	return pool, nil
}

func (l *Ledger) commit(pool *Pool, pos *Position) error {
	stage := l.storage.NewStage()
	if pool != nil {
		if err := stage.PutPool(pool); err != nil {
			return err
		}
	}
	if pos != nil {
		if err := stage.PutPosition(pos); err != nil {
			return err
		}
	}
	return stage.Commit()
}

func (l *Ledger) recordEvent(ev *Event) {
	if l.events == nil {
		return
	}
	if err := l.events.Record(ev); err != nil {
		logger.Warn("failed to record event", "op", ev.Op, "pool", ev.Pool, "error", err)
	}
}

func checkRates(rates ...uint16) error {
	for _, rate := range rates {
		if rate > tide.MaxRateBps {
			return reverts.ErrRateTooHigh
		}
	}
	return nil
}
