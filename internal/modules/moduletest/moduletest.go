// Package moduletest builds dispatch contexts over in-memory storage for
// module tests.
package moduletest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

// Env is a registry with a block overlay on top of an empty memdb store.
type Env struct {
	Registry *registry.Registry
	Store    *storage.Store
	Overlay  *storage.Overlay
	Events   *registry.EventLog
	Config   *config.RuntimeConfig
	Ctx      *registry.Context
}

// NewEnv registers mods and returns a context for block 1.
func NewEnv(t testing.TB, cfg *config.RuntimeConfig, mods ...registry.Module) *Env {
	t.Helper()
	reg, err := registry.New(mods...)
	require.NoError(t, err)

	store := storage.NewStore(dbm.NewMemDB())
	t.Cleanup(func() { _ = store.Close() })

	env := &Env{
		Registry: reg,
		Store:    store,
		Overlay:  store.NewOverlay(),
		Events:   &registry.EventLog{},
		Config:   cfg,
	}
	env.Ctx = registry.NewContext(reg, env.Overlay, env.Events, 1, cfg.MaxCallDepth, log.NewTestingLogger(t))
	return env
}

// Genesis runs InitGenesis of every module against doc.
func (env *Env) Genesis(t testing.TB, doc *types.GenesisDoc) {
	t.Helper()
	require.NoError(t, doc.ValidateAndComplete())
	require.NoError(t, env.Registry.InitGenesis(env.Ctx, doc))
}

// Dispatch resolves and runs call like the executive does and returns the
// classified error.
func (env *Env) Dispatch(t testing.TB, call types.Call, origin types.Origin) *types.DispatchError {
	t.Helper()
	d, err := env.Registry.Resolve(call)
	require.NoError(t, err)
	return env.Registry.Execute(env.Ctx, call.Module, d, origin)
}

// EventNames returns the names of the deposited events in order.
func (env *Env) EventNames() []string {
	var names []string
	for _, rec := range env.Events.Records() {
		names = append(names, rec.Event.Name)
	}
	return names
}

// Account returns a deterministic account id derived from b.
func Account(b byte) types.AccountID {
	var a types.AccountID
	for i := range a {
		a[i] = b
	}
	return a
}

// Genesis returns a genesis document endowing accounts, with a single aura
// and grandpa authority.
func Genesis(accounts ...types.GenesisAccount) *types.GenesisDoc {
	return &types.GenesisDoc{
		GenesisTime:        time.Date(2019, 10, 1, 0, 0, 0, 0, time.UTC),
		ChainID:            "test-chain",
		Accounts:           accounts,
		AuraAuthorities:    []types.AccountID{Account(0xaa)},
		GrandpaAuthorities: []types.GenesisAuthority{{ID: Account(0xaa), Weight: 1}},
	}
}
