// Package runtime composes the modules into the registry and wires the
// capabilities they lend each other: address lookup, currency, block author
// and the privileged key.
package runtime

import (
	"fmt"

	dbm "github.com/tendermint/tm-db"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/currency"
	"github.com/tendermint/executive/internal/executive"
	"github.com/tendermint/executive/internal/fees"
	"github.com/tendermint/executive/internal/modules/aura"
	"github.com/tendermint/executive/internal/modules/authorship"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/finalitytracker"
	"github.com/tendermint/executive/internal/modules/grandpa"
	"github.com/tendermint/executive/internal/modules/indices"
	"github.com/tendermint/executive/internal/modules/staking"
	"github.com/tendermint/executive/internal/modules/sudo"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/modules/timestamp"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/internal/store"
	"github.com/tendermint/executive/libs/log"
)

// Runtime is the composed chain logic: every module, in registration
// order, and the executive driving them.
type Runtime struct {
	Config *config.RuntimeConfig

	System          *system.Module
	Aura            *aura.Module
	Timestamp       *timestamp.Module
	Authorship      *authorship.Module
	Indices         *indices.Module
	Balances        *balances.Module
	Staking         *staking.Module
	FinalityTracker *finalitytracker.Module
	Grandpa         *grandpa.Module
	Sudo            *sudo.Module

	Registry  *registry.Registry
	Splitter  *fees.Splitter
	Executive *executive.Executive
}

// New builds the runtime over the state and block databases. The order in
// which modules are registered fixes their indices and hook order and must
// never change for an existing chain.
func New(
	cfg *config.RuntimeConfig,
	stateDB, blockDB dbm.DB,
	logger log.Logger,
	options ...executive.Option,
) (*Runtime, error) {
	if err := cfg.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("error in runtime config: %w", err)
	}

	rt := &Runtime{Config: cfg}
	rt.System = system.New(cfg)
	rt.Aura = aura.New(cfg)
	rt.Timestamp = timestamp.New(cfg, rt.Aura)
	rt.Authorship = authorship.New(rt.Aura)
	rt.Indices = indices.New()
	rt.Balances = balances.New(cfg, rt.Indices, rt.Indices)
	rt.Staking = staking.New(cfg, currency.NewVoteConverter(rt.Balances))
	rt.Grandpa = grandpa.New()
	rt.FinalityTracker = finalitytracker.New(cfg, rt.Grandpa)
	rt.Sudo = sudo.New(cfg, rt.Indices)

	reg, err := registry.New(
		rt.System,
		rt.Aura,
		rt.Timestamp,
		rt.Authorship,
		rt.Indices,
		rt.Balances,
		rt.Staking,
		rt.FinalityTracker,
		rt.Grandpa,
		rt.Sudo,
	)
	if err != nil {
		return nil, err
	}
	rt.Registry = reg

	treasury := fees.TreasurySink{Currency: rt.Balances, Keys: rt.Sudo}
	author := fees.AuthorSink{Currency: rt.Balances, Authors: rt.Authorship, Fallback: treasury}
	rt.Splitter = fees.NewSplitter(cfg, treasury, author, logger.With("module", "fees"))

	rt.Executive = executive.New(
		cfg,
		reg,
		rt.System,
		rt.Indices,
		rt.Balances,
		rt.Splitter,
		storage.NewStore(stateDB),
		store.NewBlockStore(blockDB),
		logger.With("module", "executive"),
		options...,
	)
	return rt, nil
}

// Close closes the underlying databases.
func (rt *Runtime) Close() error {
	if err := rt.Executive.Store().Close(); err != nil {
		return err
	}
	return rt.Executive.BlockStore().Close()
}
