package balances_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/indices"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/types"
)

var (
	alice = moduletest.Account(1)
	bob   = moduletest.Account(2)
	carol = moduletest.Account(3)
)

func setup(t *testing.T) (*moduletest.Env, *balances.Module) {
	cfg := config.TestRuntimeConfig()
	idx := indices.New()
	bal := balances.New(cfg, idx, idx)
	env := moduletest.NewEnv(t, cfg, idx, bal)
	env.Genesis(t, moduletest.Genesis(
		types.GenesisAccount{Account: alice, Balance: 1000},
		types.GenesisAccount{Account: bob, Balance: 500},
	))
	return env, bal
}

func TestGenesis(t *testing.T) {
	env, bal := setup(t)
	assert.EqualValues(t, 1500, bal.TotalIssuance(env.Overlay))
	assert.EqualValues(t, 1000, balances.FreeBalance(env.Overlay, alice))
	i, ok := indices.IndexOf(env.Overlay, bob)
	require.True(t, ok)
	assert.EqualValues(t, 1, i)
}

func TestTransfer(t *testing.T) {
	env, bal := setup(t)
	fee := env.Config.TransferFee

	require.Nil(t, env.Dispatch(t, bal.Transfer(types.AddressFromIndex(1), 100), types.SignedOrigin(alice)))
	assert.EqualValues(t, 1000-100-fee, balances.FreeBalance(env.Overlay, alice))
	assert.EqualValues(t, 600, balances.FreeBalance(env.Overlay, bob))
	assert.EqualValues(t, 1500-fee, bal.TotalIssuance(env.Overlay))
}

func TestTransferCreatesAccount(t *testing.T) {
	env, bal := setup(t)
	fee := env.Config.TransferFee + env.Config.CreationFee

	require.Nil(t, env.Dispatch(t, bal.Transfer(types.AddressFromID(carol), 50), types.SignedOrigin(alice)))
	assert.EqualValues(t, 50, balances.FreeBalance(env.Overlay, carol))
	assert.EqualValues(t, 1000-50-fee, balances.FreeBalance(env.Overlay, alice))
	_, ok := indices.IndexOf(env.Overlay, carol)
	assert.True(t, ok, "new accounts get an index")
	assert.Contains(t, env.EventNames(), "NewAccount")
}

func TestTransferErrors(t *testing.T) {
	env, bal := setup(t)
	ed := env.Config.ExistentialDeposit

	testCases := []struct {
		name string
		call types.Call
		err  error
	}{
		{"below existential deposit", bal.Transfer(types.AddressFromID(carol), ed-1), balances.ErrExistentialDeposit},
		{"insufficient balance", bal.Transfer(types.AddressFromID(bob), 1000), balances.ErrInsufficientBalance},
		{"overflow", bal.Transfer(types.AddressFromID(bob), ^uint64(0)), balances.ErrOverflow},
		{"unknown index", bal.Transfer(types.AddressFromIndex(9), 1), indices.ErrUnknownIndex},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			derr := env.Dispatch(t, tc.call, types.SignedOrigin(alice))
			require.NotNil(t, derr)
			assert.True(t, errors.Is(derr, tc.err), derr)
			assert.EqualValues(t, 1000, balances.FreeBalance(env.Overlay, alice))
		})
	}
}

func TestTransferReapsSender(t *testing.T) {
	env, bal := setup(t)
	fee := env.Config.TransferFee
	// leave less than the existential deposit behind
	value := 1000 - fee - 1
	require.Nil(t, env.Dispatch(t, bal.Transfer(types.AddressFromID(bob), value), types.SignedOrigin(alice)))
	assert.False(t, balances.Exists(env.Overlay, alice))
	assert.Contains(t, env.EventNames(), "ReapedAccount")
	assert.EqualValues(t, 1500-fee-1, bal.TotalIssuance(env.Overlay))
}

func TestLocks(t *testing.T) {
	env, bal := setup(t)
	id := balances.LockID{'t', 'e', 's', 't'}
	balances.SetLock(env.Overlay, alice, balances.Lock{ID: id, Amount: 900, Until: 5})
	assert.EqualValues(t, 100, balances.UsableBalance(env.Overlay, alice, 1))

	derr := env.Dispatch(t, bal.Transfer(types.AddressFromID(bob), 200), types.SignedOrigin(alice))
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, balances.ErrLiquidityRestrictions))

	// expired
	assert.EqualValues(t, 1000, balances.UsableBalance(env.Overlay, alice, 5))

	balances.RemoveLock(env.Overlay, alice, id)
	assert.Empty(t, balances.Locks(env.Overlay, alice))
	require.Nil(t, env.Dispatch(t, bal.Transfer(types.AddressFromID(bob), 200), types.SignedOrigin(alice)))
}

func TestWithdrawKeepAlive(t *testing.T) {
	env, bal := setup(t)
	_, err := bal.Withdraw(env.Ctx, alice, 995, balances.KeepAlive)
	assert.Equal(t, balances.ErrKeepAlive, err)
	_, err = bal.Withdraw(env.Ctx, alice, 1001, balances.AllowDeath)
	assert.Equal(t, balances.ErrInsufficientBalance, err)

	imb, err := bal.Withdraw(env.Ctx, alice, 400, balances.KeepAlive)
	require.NoError(t, err)
	assert.EqualValues(t, 600, balances.FreeBalance(env.Overlay, alice))
	// the withdrawn value is still part of the issuance until resolved
	assert.EqualValues(t, 1500, bal.TotalIssuance(env.Overlay))

	small, rest := imb.Split(5)
	bal.ResolveCreating(env.Ctx, carol, small)
	assert.False(t, balances.Exists(env.Overlay, carol), "credit below the existential deposit is burned")
	bal.ResolveCreating(env.Ctx, carol, rest)
	assert.EqualValues(t, 395, balances.FreeBalance(env.Overlay, carol))
	assert.EqualValues(t, 1495, bal.TotalIssuance(env.Overlay))
}

func TestWithdrawFromEmptyAccount(t *testing.T) {
	env, bal := setup(t)
	for _, req := range []balances.ExistenceRequirement{balances.KeepAlive, balances.AllowDeath} {
		_, err := bal.Withdraw(env.Ctx, carol, 10, req)
		assert.Equal(t, balances.ErrInsufficientBalance, err)
	}
	_, err := bal.Withdraw(env.Ctx, bob, 501, balances.AllowDeath)
	assert.Equal(t, balances.ErrInsufficientBalance, err)

	assert.Zero(t, balances.FreeBalance(env.Overlay, carol))
	assert.EqualValues(t, 500, balances.FreeBalance(env.Overlay, bob))
	assert.EqualValues(t, 1500, bal.TotalIssuance(env.Overlay))
}

func TestResolveCreatingCreditsExistingAccount(t *testing.T) {
	env, bal := setup(t)
	imb, err := bal.Withdraw(env.Ctx, alice, 100, balances.KeepAlive)
	require.NoError(t, err)
	bal.ResolveCreating(env.Ctx, bob, imb)
	assert.EqualValues(t, 900, balances.FreeBalance(env.Overlay, alice))
	assert.EqualValues(t, 600, balances.FreeBalance(env.Overlay, bob))
	assert.EqualValues(t, 1500, bal.TotalIssuance(env.Overlay))
}

func TestTransferMoreThanFree(t *testing.T) {
	env, bal := setup(t)
	derr := env.Dispatch(t, bal.Transfer(types.AddressFromID(alice), 10), types.SignedOrigin(carol))
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, balances.ErrInsufficientBalance), derr)
	assert.Zero(t, balances.FreeBalance(env.Overlay, carol))
	assert.EqualValues(t, 1000, balances.FreeBalance(env.Overlay, alice))
}

func TestSetBalance(t *testing.T) {
	env, bal := setup(t)

	derr := env.Dispatch(t, bal.SetBalance(types.AddressFromID(bob), 10), types.SignedOrigin(alice))
	require.NotNil(t, derr)
	assert.Equal(t, types.DispatchErrorBadOrigin, derr.Kind)

	require.Nil(t, env.Dispatch(t, bal.SetBalance(types.AddressFromID(carol), 700), types.RootOrigin()))
	assert.EqualValues(t, 2200, bal.TotalIssuance(env.Overlay))

	require.Nil(t, env.Dispatch(t, bal.SetBalance(types.AddressFromID(bob), 1), types.RootOrigin()))
	assert.False(t, balances.Exists(env.Overlay, bob))
	assert.EqualValues(t, 1700, bal.TotalIssuance(env.Overlay))
}

func TestForceTransfer(t *testing.T) {
	env, bal := setup(t)
	call := bal.ForceTransfer(types.AddressFromID(bob), types.AddressFromID(alice), 100)
	require.NotNil(t, env.Dispatch(t, call, types.SignedOrigin(bob)))
	require.Nil(t, env.Dispatch(t, call, types.RootOrigin()))
	assert.EqualValues(t, 1100, balances.FreeBalance(env.Overlay, alice))
}

func TestIssuanceMatchesBalances(t *testing.T) {
	accounts := []types.AccountID{alice, bob, carol, moduletest.Account(4)}
	rapid.Check(t, func(rt *rapid.T) {
		env, bal := setup(t)
		steps := rapid.IntRange(1, 20).Draw(rt, "steps").(int)
		for i := 0; i < steps; i++ {
			from := rapid.SampledFrom(accounts).Draw(rt, "from").(types.AccountID)
			to := rapid.SampledFrom(accounts).Draw(rt, "to").(types.AccountID)
			value := rapid.Uint64Range(0, 1200).Draw(rt, "value").(uint64)
			env.Dispatch(t, bal.Transfer(types.AddressFromID(to), value), types.SignedOrigin(from))
		}
		var sum types.Balance
		for _, a := range accounts {
			free := balances.FreeBalance(env.Overlay, a)
			if free > 0 && free < env.Config.ExistentialDeposit {
				rt.Fatalf("account %v holds dust %d", a, free)
			}
			sum += free
		}
		if issuance := bal.TotalIssuance(env.Overlay); sum != issuance {
			rt.Fatalf("balances sum to %d, issuance is %d", sum, issuance)
		}
	})
}
