package staking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/currency"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/indices"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/internal/modules/staking"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/types"
)

var (
	alice = moduletest.Account(1)
	bob   = moduletest.Account(2)
)

func setup(t *testing.T) (*moduletest.Env, *balances.Module, *staking.Module) {
	cfg := config.TestRuntimeConfig()
	idx := indices.New()
	bal := balances.New(cfg, idx, idx)
	stk := staking.New(cfg, currency.NewConverter(bal, 100))
	env := moduletest.NewEnv(t, cfg, idx, bal, stk)
	env.Genesis(t, moduletest.Genesis(
		types.GenesisAccount{Account: alice, Balance: 6000},
		types.GenesisAccount{Account: bob, Balance: 4000},
	))
	return env, bal, stk
}

// finalizeBlocks runs staking's finalize hook up to and including block n.
func finalizeBlocks(t *testing.T, env *moduletest.Env, n types.BlockNumber) {
	for ; env.Ctx.Number <= n; env.Ctx.Number++ {
		require.NoError(t, env.Registry.Finalize(env.Ctx, env.Ctx.Number))
	}
}

func TestBondLocksFunds(t *testing.T) {
	env, bal, stk := setup(t)
	require.Nil(t, env.Dispatch(t, stk.Bond(5000), types.SignedOrigin(alice)))

	l, ok := staking.LedgerOf(env.Overlay, alice)
	require.True(t, ok)
	assert.Equal(t, staking.Ledger{Total: 5000, Active: 5000}, l)
	assert.EqualValues(t, 1000, balances.UsableBalance(env.Overlay, alice, env.Ctx.Number))

	derr := env.Dispatch(t, bal.Transfer(types.AddressFromID(bob), 2000), types.SignedOrigin(alice))
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, balances.ErrLiquidityRestrictions))

	derr = env.Dispatch(t, stk.Bond(10), types.SignedOrigin(alice))
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, staking.ErrAlreadyBonded))
}

func TestBondCapsAtFreeBalance(t *testing.T) {
	env, _, stk := setup(t)
	require.Nil(t, env.Dispatch(t, stk.Bond(1<<40), types.SignedOrigin(bob)))
	l, _ := staking.LedgerOf(env.Overlay, bob)
	assert.EqualValues(t, 4000, l.Total)

	derr := env.Dispatch(t, stk.Bond(1), types.SignedOrigin(moduletest.Account(9)))
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, staking.ErrInsufficientValue))
}

func TestUnbondAndWithdraw(t *testing.T) {
	env, _, stk := setup(t)
	require.Nil(t, env.Dispatch(t, stk.Bond(5000), types.SignedOrigin(alice)))
	require.Nil(t, env.Dispatch(t, stk.Unbond(2000), types.SignedOrigin(alice)))

	l, _ := staking.LedgerOf(env.Overlay, alice)
	require.Len(t, l.Unlocking, 1)
	assert.EqualValues(t, env.Config.BondingDuration, l.Unlocking[0].Era)
	assert.EqualValues(t, 3000, l.Active)
	assert.EqualValues(t, 5000, l.Total)

	// too early: nothing unlocked yet
	require.Nil(t, env.Dispatch(t, stk.WithdrawUnbonded(), types.SignedOrigin(alice)))
	l, _ = staking.LedgerOf(env.Overlay, alice)
	assert.EqualValues(t, 5000, l.Total)

	eraLength := env.Config.SessionPeriod * env.Config.SessionsPerEra
	finalizeBlocks(t, env, eraLength*env.Config.BondingDuration)
	assert.EqualValues(t, env.Config.BondingDuration, staking.CurrentEra(env.Overlay))

	require.Nil(t, env.Dispatch(t, stk.WithdrawUnbonded(), types.SignedOrigin(alice)))
	l, _ = staking.LedgerOf(env.Overlay, alice)
	assert.Equal(t, staking.Ledger{Total: 3000, Active: 3000}, l)
	assert.Contains(t, env.EventNames(), "Withdrawn")

	// unbonding everything removes the ledger and the lock
	require.Nil(t, env.Dispatch(t, stk.Unbond(3000), types.SignedOrigin(alice)))
	finalizeBlocks(t, env, env.Ctx.Number+eraLength*env.Config.BondingDuration)
	require.Nil(t, env.Dispatch(t, stk.WithdrawUnbonded(), types.SignedOrigin(alice)))
	_, ok := staking.LedgerOf(env.Overlay, alice)
	assert.False(t, ok)
	assert.Empty(t, balances.Locks(env.Overlay, alice))
}

func TestUnbondChunkLimit(t *testing.T) {
	env, _, stk := setup(t)
	require.Nil(t, env.Dispatch(t, stk.Bond(5000), types.SignedOrigin(alice)))
	for i := 0; i < staking.MaxUnlockingChunks; i++ {
		require.Nil(t, env.Dispatch(t, stk.Unbond(1), types.SignedOrigin(alice)))
	}
	derr := env.Dispatch(t, stk.Unbond(1), types.SignedOrigin(alice))
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, staking.ErrNoMoreChunks))
}

func TestVoteWeight(t *testing.T) {
	env, _, stk := setup(t)
	// issuance 10000 narrowed into [0, 100]: factor 100
	require.Nil(t, env.Dispatch(t, stk.Bond(5000), types.SignedOrigin(alice)))
	assert.EqualValues(t, 50, stk.VoteWeight(env.Overlay, alice))
	assert.Zero(t, stk.VoteWeight(env.Overlay, bob))
}

func TestOffchainWorkerSubmitsWithdraw(t *testing.T) {
	env, _, stk := setup(t)
	require.Nil(t, env.Dispatch(t, stk.Bond(5000), types.SignedOrigin(alice)))
	require.Nil(t, env.Dispatch(t, stk.Unbond(100), types.SignedOrigin(alice)))

	var submitted []types.Call
	oc := &registry.OffchainContext{
		State: env.Overlay,
		Local: alice,
		Submit: func(c types.Call) error {
			submitted = append(submitted, c)
			return nil
		},
	}
	require.NoError(t, stk.OffchainWorker(context.Background(), oc))
	assert.Empty(t, submitted)

	finalizeBlocks(t, env, env.Config.SessionPeriod*env.Config.SessionsPerEra*env.Config.BondingDuration)
	require.NoError(t, stk.OffchainWorker(context.Background(), oc))
	assert.Equal(t, []types.Call{stk.WithdrawUnbonded()}, submitted)
}
