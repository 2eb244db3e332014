// Copyright (c) 2025 The Tidelock developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidelock/tide/ledger/reverts"
	"github.com/tidelock/tide/lvldb"
	"github.com/tidelock/tide/tide"
	"github.com/tidelock/tide/vault"
)

const (
	t0       = uint64(1_700_000_000)
	poolCap  = uint64(10_000_000)
	treasury = uint64(5_000_000)
)

var (
	authority = tide.BytesToAddress([]byte("authority"))
	asset     = tide.BytesToAddress([]byte("asset"))
	alice     = tide.BytesToAddress([]byte("alice"))
	bob       = tide.BytesToAddress([]byte("bob"))
	funder    = tide.BytesToAddress([]byte("funder"))
)

type testEnv struct {
	ldgr *Ledger
	vlt  *vault.Vault
}

// newTestEnv builds a ledger over an in-memory store with an initialized
// pool at default rates, a funded treasury and balances for alice and bob.
func newTestEnv(t *testing.T) *testEnv {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	vlt := vault.New(store)
	ldgr := New(store, vlt, nil)

	_, err = ldgr.Initialize(authority, asset, poolCap,
		tide.DefaultFlexRateBps, tide.DefaultCoreRateBps, tide.DefaultPrimeRateBps, t0)
	require.NoError(t, err)

	for _, addr := range []tide.Address{alice, bob} {
		require.NoError(t, vlt.Deposit(addr, 10_000_000))
	}
	require.NoError(t, vlt.Deposit(funder, treasury))
	require.NoError(t, ldgr.FundTreasury(asset, funder, treasury, t0))
	return &testEnv{ldgr: ldgr, vlt: vlt}
}

func TestInitialize(t *testing.T) {
	env := newTestEnv(t)

	pool, err := env.ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, authority, pool.Authority)
	assert.Equal(t, asset, pool.Asset)
	assert.Equal(t, StakeVaultAddress(asset), pool.StakeVault)
	assert.Equal(t, RewardVaultAddress(asset), pool.RewardVault)
	assert.Equal(t, poolCap, pool.EmissionCap)
	assert.Equal(t, uint64(0), pool.TotalStaked)
	assert.Equal(t, uint64(0), pool.TotalDistributed)
	assert.Equal(t, uint64(0), pool.StakerCount)
	assert.False(t, pool.Paused)
	assert.Equal(t, t0, pool.CreatedAt)

	_, err = env.ldgr.Initialize(authority, asset, poolCap, 400, 1000, 1400, t0)
	assert.ErrorIs(t, err, reverts.ErrPoolExists)

	other := tide.BytesToAddress([]byte("other-asset"))
	_, err = env.ldgr.Initialize(tide.Address{}, other, poolCap, 400, 1000, 1400, t0)
	assert.ErrorIs(t, err, reverts.ErrZeroAuthority)

	// a zero asset would collide with the all-pools event filter
	_, err = env.ldgr.Initialize(authority, tide.Address{}, poolCap, 400, 1000, 1400, t0)
	assert.ErrorIs(t, err, reverts.ErrZeroAsset)

	_, err = env.ldgr.Initialize(authority, other, 0, 400, 1000, 1400, t0)
	assert.ErrorIs(t, err, reverts.ErrInvalidEmissionCap)

	_, err = env.ldgr.Initialize(authority, other, poolCap, tide.MaxRateBps+1, 1000, 1400, t0)
	assert.ErrorIs(t, err, reverts.ErrRateTooHigh)
}

func TestGetPoolNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.GetPool(tide.BytesToAddress([]byte("unknown")))
	assert.ErrorIs(t, err, reverts.ErrPoolNotFound)

	_, err = env.ldgr.GetPosition(asset, bob)
	assert.ErrorIs(t, err, reverts.ErrNoActiveStake)
}

func TestStakeAndAccrue(t *testing.T) {
	env := newTestEnv(t)

	pos, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)
	assert.Equal(t, alice, pos.Owner)
	assert.Equal(t, asset, pos.Pool)
	assert.Equal(t, uint64(1_000_000), pos.StakedAmount)
	assert.Equal(t, tide.TierFlex, pos.Tier)
	assert.Equal(t, t0, pos.StakeStartTime)
	assert.True(t, pos.Active)

	// principal moved into the stake vault
	balance, err := env.vlt.Balance(StakeVaultAddress(asset))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), balance)

	pool, err := env.ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), pool.TotalStaked)
	assert.Equal(t, uint64(1), pool.StakerCount)

	// 1,000,000 at 400 bps over a full year
	pending, err := env.ldgr.PendingRewards(asset, alice, t0+tide.SecondsPerYear)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), pending)

	// a regressed clock accrues nothing
	pending, err = env.ldgr.PendingRewards(asset, alice, t0-1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pending)
}

func TestStakeChecks(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 0, tide.TierFlex, t0)
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)

	_, err = env.ldgr.Stake(asset, alice, 1000, tide.Tier(9), t0)
	assert.ErrorIs(t, err, reverts.ErrInvalidTier)

	_, err = env.ldgr.Stake(asset, alice, 1000, tide.TierCore, t0)
	require.NoError(t, err)

	// tier is immutable while amount remains staked
	_, err = env.ldgr.Stake(asset, alice, 1000, tide.TierPrime, t0)
	assert.ErrorIs(t, err, reverts.ErrTierChange)

	// same tier tops up
	_, err = env.ldgr.Stake(asset, alice, 1000, tide.TierCore, t0)
	require.NoError(t, err)

	// spending more than the caller holds fails at the transfer
	_, err = env.ldgr.Stake(asset, bob, 100_000_000, tide.TierFlex, t0)
	assert.ErrorIs(t, err, vault.ErrInsufficientFunds)

	require.NoError(t, env.ldgr.SetPaused(asset, authority, true, t0))
	_, err = env.ldgr.Stake(asset, bob, 1000, tide.TierFlex, t0)
	assert.ErrorIs(t, err, reverts.ErrPaused)
}

func TestStakeTopUpFlushesAccrual(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	// top up half a year in: 20,000 accrued so far is flushed to pending
	half := t0 + tide.SecondsPerYear/2
	pos, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, half)
	require.NoError(t, err)
	assert.Equal(t, uint64(20_000), pos.PendingRewards)
	assert.Equal(t, uint64(2_000_000), pos.StakedAmount)
	assert.Equal(t, t0, pos.StakeStartTime)

	// the second half year accrues on the doubled principal
	pending, err := env.ldgr.PendingRewards(asset, alice, t0+tide.SecondsPerYear)
	require.NoError(t, err)
	assert.Equal(t, uint64(60_000), pending)
}

func TestUnstakeLockEnforcement(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierCore, t0)
	require.NoError(t, err)

	_, err = env.ldgr.Unstake(asset, alice, 500_000, t0+tide.CoreLockPeriod-1)
	assert.ErrorIs(t, err, reverts.ErrLockNotEnded)

	pos, err := env.ldgr.Unstake(asset, alice, 500_000, t0+tide.CoreLockPeriod)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), pos.StakedAmount)
	assert.True(t, pos.Active)

	// flex unlocks immediately
	_, err = env.ldgr.Stake(asset, bob, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)
	_, err = env.ldgr.Unstake(asset, bob, 1_000_000, t0)
	require.NoError(t, err)
}

func TestUnstakeChecks(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Unstake(asset, alice, 0, t0)
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)

	_, err = env.ldgr.Unstake(asset, alice, 1000, t0)
	assert.ErrorIs(t, err, reverts.ErrNoActiveStake)

	_, err = env.ldgr.Stake(asset, alice, 1000, tide.TierFlex, t0)
	require.NoError(t, err)

	_, err = env.ldgr.Unstake(asset, alice, 2000, t0)
	assert.ErrorIs(t, err, reverts.ErrInsufficientStake)
}

func TestUnstakeFullyClosesPosition(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	pos, err := env.ldgr.Unstake(asset, alice, 1_000_000, t0+tide.SecondsPerYear)
	require.NoError(t, err)
	assert.False(t, pos.Active)
	assert.Equal(t, uint64(0), pos.StakedAmount)
	assert.Equal(t, uint64(40_000), pos.PendingRewards)

	pool, err := env.ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pool.TotalStaked)
	assert.Equal(t, uint64(0), pool.StakerCount)

	// unstaking again needs an active position
	_, err = env.ldgr.Unstake(asset, alice, 1, t0+tide.SecondsPerYear)
	assert.ErrorIs(t, err, reverts.ErrNoActiveStake)

	// restaking reopens the record, lock clock restarts, claim history survives
	reopened, err := env.ldgr.Stake(asset, alice, 500, tide.TierPrime, t0+tide.SecondsPerYear)
	require.NoError(t, err)
	assert.True(t, reopened.Active)
	assert.Equal(t, tide.TierPrime, reopened.Tier)
	assert.Equal(t, t0+tide.SecondsPerYear, reopened.StakeStartTime)
	assert.Equal(t, uint64(40_000), reopened.PendingRewards)
}

func TestClaim(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	year := t0 + tide.SecondsPerYear
	claimed, err := env.ldgr.Claim(asset, alice, year)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), claimed)

	pos, err := env.ldgr.GetPosition(asset, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pos.PendingRewards)
	assert.Equal(t, uint64(40_000), pos.TotalClaimed)
	assert.Equal(t, year, pos.LastAccrualTime)

	pool, err := env.ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), pool.TotalDistributed)

	// payout came out of the reward vault
	balance, err := env.vlt.Balance(RewardVaultAddress(asset))
	require.NoError(t, err)
	assert.Equal(t, treasury-40_000, balance)

	// nothing left to claim at the same instant
	_, err = env.ldgr.Claim(asset, alice, year)
	assert.ErrorIs(t, err, reverts.ErrNoRewards)

	// never-staked caller has no position
	_, err = env.ldgr.Claim(asset, bob, year)
	assert.ErrorIs(t, err, reverts.ErrNoActiveStake)
}

func TestClaimAfterFullUnstake(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)
	_, err = env.ldgr.Unstake(asset, alice, 1_000_000, t0+tide.SecondsPerYear)
	require.NoError(t, err)

	// leftover pending rewards survive the close
	claimed, err := env.ldgr.Claim(asset, alice, t0+2*tide.SecondsPerYear)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), claimed)
}

func TestClaimUnderfundedTreasury(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()

	vlt := vault.New(store)
	ldgr := New(store, vlt, nil)
	_, err = ldgr.Initialize(authority, asset, poolCap,
		tide.DefaultFlexRateBps, tide.DefaultCoreRateBps, tide.DefaultPrimeRateBps, t0)
	require.NoError(t, err)
	require.NoError(t, vlt.Deposit(alice, 1_000_000))

	// no treasury funding at all
	_, err = ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	year := t0 + tide.SecondsPerYear
	_, err = ldgr.Claim(asset, alice, year)
	assert.ErrorIs(t, err, reverts.ErrInsufficientTreasury)

	// the failed claim left every record untouched
	pos, err := ldgr.GetPosition(asset, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pos.PendingRewards)
	assert.Equal(t, t0, pos.LastAccrualTime)
	pending, err := ldgr.PendingRewards(asset, alice, year)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), pending)
}

func TestClaimEmissionCapExceeded(t *testing.T) {
	store, err := lvldb.NewMem()
	require.NoError(t, err)
	defer store.Close()

	vlt := vault.New(store)
	ldgr := New(store, vlt, nil)

	// cap below one year of accrual
	_, err = ldgr.Initialize(authority, asset, 30_000,
		tide.DefaultFlexRateBps, tide.DefaultCoreRateBps, tide.DefaultPrimeRateBps, t0)
	require.NoError(t, err)
	require.NoError(t, vlt.Deposit(alice, 1_000_000))
	require.NoError(t, vlt.Deposit(funder, treasury))
	require.NoError(t, ldgr.FundTreasury(asset, funder, treasury, t0))

	_, err = ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	year := t0 + tide.SecondsPerYear
	_, err = ldgr.Claim(asset, alice, year)
	assert.ErrorIs(t, err, reverts.ErrEmissionCapExceeded)

	pool, err := ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pool.TotalDistributed)

	// rewards are retained, not forfeited; a raised cap releases them
	require.NoError(t, ldgr.UpdateEmissionCap(asset, authority, 50_000, year))
	claimed, err := ldgr.Claim(asset, alice, year)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), claimed)
}

func TestFundTreasury(t *testing.T) {
	env := newTestEnv(t)

	balance, err := env.vlt.Balance(RewardVaultAddress(asset))
	require.NoError(t, err)
	assert.Equal(t, treasury, balance)

	// permissionless, any funder will do
	require.NoError(t, env.ldgr.FundTreasury(asset, bob, 1000, t0+1))

	balance, err = env.vlt.Balance(RewardVaultAddress(asset))
	require.NoError(t, err)
	assert.Equal(t, treasury+1000, balance)

	err = env.ldgr.FundTreasury(asset, bob, 0, t0+1)
	assert.ErrorIs(t, err, reverts.ErrZeroAmount)
}

func TestPauseSemantics(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	require.NoError(t, env.ldgr.SetPaused(asset, authority, true, t0))

	// stakes are blocked
	_, err = env.ldgr.Stake(asset, bob, 1000, tide.TierFlex, t0)
	assert.ErrorIs(t, err, reverts.ErrPaused)

	// exits are not
	year := t0 + tide.SecondsPerYear
	_, err = env.ldgr.Unstake(asset, alice, 500_000, year)
	require.NoError(t, err)
	_, err = env.ldgr.Claim(asset, alice, year)
	require.NoError(t, err)

	require.NoError(t, env.ldgr.SetPaused(asset, authority, false, year))
	_, err = env.ldgr.Stake(asset, bob, 1000, tide.TierFlex, year)
	require.NoError(t, err)
}

func TestAdjustRates(t *testing.T) {
	env := newTestEnv(t)

	err := env.ldgr.AdjustRates(asset, bob, 100, 200, 300, t0)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	err = env.ldgr.AdjustRates(asset, authority, 100, 200, tide.MaxRateBps+1, t0)
	assert.ErrorIs(t, err, reverts.ErrRateTooHigh)

	_, err = env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)

	// rate doubles half way through the year
	half := t0 + tide.SecondsPerYear/2
	require.NoError(t, env.ldgr.AdjustRates(asset, authority, 800, 1000, 1400, half))

	pool, err := env.ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, uint16(800), pool.FlexRateBps)

	// rates are not retroactive, but accrual between t0 and the adjustment
	// was never flushed, so the whole year reads at the new rate
	pending, err := env.ldgr.PendingRewards(asset, alice, t0+tide.SecondsPerYear)
	require.NoError(t, err)
	assert.Equal(t, uint64(80_000), pending)
}

func TestUpdateEmissionCap(t *testing.T) {
	env := newTestEnv(t)

	err := env.ldgr.UpdateEmissionCap(asset, bob, 1, t0)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	err = env.ldgr.UpdateEmissionCap(asset, authority, 0, t0)
	assert.ErrorIs(t, err, reverts.ErrInvalidEmissionCap)

	_, err = env.ldgr.Stake(asset, alice, 1_000_000, tide.TierFlex, t0)
	require.NoError(t, err)
	year := t0 + tide.SecondsPerYear
	_, err = env.ldgr.Claim(asset, alice, year)
	require.NoError(t, err)

	// cannot drop below what is already distributed
	err = env.ldgr.UpdateEmissionCap(asset, authority, 39_999, year)
	assert.ErrorIs(t, err, reverts.ErrInvalidEmissionCap)

	// the floor itself is fine
	require.NoError(t, env.ldgr.UpdateEmissionCap(asset, authority, 40_000, year))

	pool, err := env.ldgr.GetPool(asset)
	require.NoError(t, err)
	assert.Equal(t, uint64(40_000), pool.EmissionCap)
}

func TestTransferAuthority(t *testing.T) {
	env := newTestEnv(t)

	err := env.ldgr.TransferAuthority(asset, bob, bob, t0)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)

	err = env.ldgr.TransferAuthority(asset, authority, tide.Address{}, t0)
	assert.ErrorIs(t, err, reverts.ErrZeroAuthority)

	require.NoError(t, env.ldgr.TransferAuthority(asset, authority, bob, t0))

	// the old authority is locked out, the new one is in charge
	err = env.ldgr.SetPaused(asset, authority, true, t0)
	assert.ErrorIs(t, err, reverts.ErrUnauthorized)
	require.NoError(t, env.ldgr.SetPaused(asset, bob, true, t0))
}

func TestMultiplePools(t *testing.T) {
	env := newTestEnv(t)

	asset2 := tide.BytesToAddress([]byte("asset-2"))
	_, err := env.ldgr.Initialize(bob, asset2, poolCap, 100, 200, 300, t0)
	require.NoError(t, err)

	_, err = env.ldgr.Stake(asset, alice, 1000, tide.TierFlex, t0)
	require.NoError(t, err)
	_, err = env.ldgr.Stake(asset2, alice, 2000, tide.TierCore, t0)
	require.NoError(t, err)

	// positions are scoped per pool
	pos, err := env.ldgr.GetPosition(asset, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), pos.StakedAmount)
	pos2, err := env.ldgr.GetPosition(asset2, alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(2000), pos2.StakedAmount)
	assert.Equal(t, tide.TierCore, pos2.Tier)

	// so are the vault identities
	assert.NotEqual(t, StakeVaultAddress(asset), StakeVaultAddress(asset2))
}
