package system_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/modules/moduletest"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/types"
)

func setup(t *testing.T) (*moduletest.Env, *system.Module) {
	cfg := config.TestRuntimeConfig()
	cfg.BlockHashCount = 3
	sys := system.New(cfg)
	env := moduletest.NewEnv(t, cfg, sys)
	env.Genesis(t, moduletest.Genesis())
	return env, sys
}

func header(n types.BlockNumber, parent types.Hash) types.Header {
	return types.Header{Number: n, ParentHash: parent}
}

func TestInitializeAndFinalize(t *testing.T) {
	env, sys := setup(t)
	kv := env.Overlay
	genesis := system.GenesisHash(kv)
	require.False(t, genesis.IsZero())

	h := header(1, genesis)
	h.Digest.Push(types.DigestItem{Kind: types.DigestOther, Data: []byte("x")})
	sys.Initialize(kv, h)
	system.NoteExtrinsic(kv, 10, 100)
	system.NoteExtrinsic(kv, 5, 50)
	system.DepositLog(kv, types.DigestItem{Kind: types.DigestOther, Data: []byte("y")})

	assert.EqualValues(t, 1, system.BlockNumber(kv))
	assert.EqualValues(t, 2, system.ExtrinsicCount(kv))
	assert.EqualValues(t, 15, system.AllExtrinsicsWeight(kv))
	assert.EqualValues(t, 150, system.AllExtrinsicsLen(kv))

	out := sys.Finalize(kv)
	assert.EqualValues(t, 1, out.Number)
	assert.Equal(t, genesis, out.ParentHash)
	require.Len(t, out.Digest.Logs, 2)
	assert.Equal(t, []byte("y"), []byte(out.Digest.Logs[1].Data))

	// per-block items don't survive the block
	assert.Zero(t, system.ExtrinsicCount(kv))
	assert.Empty(t, system.Digest(kv).Logs)
}

func TestBlockHashRingKeepsGenesis(t *testing.T) {
	env, sys := setup(t)
	kv := env.Overlay
	parent := system.GenesisHash(kv)
	for n := types.BlockNumber(1); n <= 8; n++ {
		sys.Initialize(kv, header(n, parent))
		out := sys.Finalize(kv)
		parent = out.Hash()
	}
	_, ok := system.BlockHash(kv, 0)
	assert.True(t, ok, "genesis hash is never pruned")
	_, ok = system.BlockHash(kv, 4)
	assert.False(t, ok)
	for n := types.BlockNumber(5); n <= 7; n++ {
		_, ok = system.BlockHash(kv, n)
		assert.True(t, ok, "block %d", n)
	}
}

func TestNonces(t *testing.T) {
	env, _ := setup(t)
	who := moduletest.Account(1)
	assert.Zero(t, system.AccountNonce(env.Overlay, who))
	system.IncAccountNonce(env.Overlay, who)
	system.IncAccountNonce(env.Overlay, who)
	assert.EqualValues(t, 2, system.AccountNonce(env.Overlay, who))
	assert.Zero(t, system.AccountNonce(env.Overlay, moduletest.Account(2)))
}

func TestCallOrigins(t *testing.T) {
	env, sys := setup(t)
	who := moduletest.Account(1)

	derr := env.Dispatch(t, sys.Remark([]byte("hello")), types.RootOrigin())
	require.NotNil(t, derr)
	assert.True(t, errors.Is(derr, types.ErrBadOrigin))
	assert.Nil(t, env.Dispatch(t, sys.Remark([]byte("hello")), types.SignedOrigin(who)))

	set := sys.SetStorage([]system.KeyValue{{Key: []byte("k"), Value: []byte("v")}})
	require.NotNil(t, env.Dispatch(t, set, types.SignedOrigin(who)))
	assert.Nil(t, env.Overlay.Get([]byte("k")))

	require.Nil(t, env.Dispatch(t, set, types.RootOrigin()))
	assert.Equal(t, []byte("v"), env.Overlay.Get([]byte("k")))

	require.Nil(t, env.Dispatch(t, sys.KillStorage([][]byte{[]byte("k")}), types.RootOrigin()))
	assert.False(t, env.Overlay.Has([]byte("k")))
}

func TestDecodeRejectsOversizedLength(t *testing.T) {
	_, sys := setup(t)
	args := types.NewEncoder().Uint64(1 << 40).Result()
	_, err := sys.DecodeCall(system.CallKillStorage, args)
	assert.True(t, errors.Is(err, types.ErrMalformed))
}

func TestNoteApplied(t *testing.T) {
	env, sys := setup(t)
	sys.NoteApplied(env.Ctx, types.ApplyResult{})
	sys.NoteApplied(env.Ctx, types.ApplyResult{Err: &types.DispatchError{Kind: types.DispatchErrorOther}})
	assert.Equal(t, []string{"ExtrinsicSuccess", "ExtrinsicFailed"}, env.EventNames())
}

func TestRandomSeed(t *testing.T) {
	env, sys := setup(t)
	kv := env.Overlay
	parent := system.GenesisHash(kv)
	sys.Initialize(kv, header(1, parent))
	s1 := system.RandomSeed(kv)
	assert.Equal(t, s1, system.RandomSeed(kv))

	out := sys.Finalize(kv)
	sys.Initialize(kv, header(2, out.Hash()))
	assert.NotEqual(t, s1, system.RandomSeed(kv))
}
