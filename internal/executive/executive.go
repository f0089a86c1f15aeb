// Package executive drives block execution: it opens a block over the
// committed state, applies extrinsics one by one through the module
// registry, finalizes the header and hands the result to the host to commit
// or discard.
package executive

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/crypto/merkle"
	"github.com/tendermint/executive/internal/fees"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/internal/store"
	tmbytes "github.com/tendermint/executive/libs/bytes"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

type blockState uint8

const (
	stateUninitialized blockState = iota
	stateBlockOpen
	stateFinalized
)

func (s blockState) String() string {
	switch s {
	case stateUninitialized:
		return "Uninitialized"
	case stateBlockOpen:
		return "BlockOpen"
	case stateFinalized:
		return "Finalized"
	default:
		return fmt.Sprintf("blockState(%d)", uint8(s))
	}
}

// Lookup resolves the address of a signed extrinsic.
type Lookup interface {
	Lookup(r storage.Reader, addr types.Address) (types.AccountID, error)
}

// Currency withdraws transaction fees.
type Currency interface {
	Withdraw(
		ctx *registry.Context,
		who types.AccountID,
		amount types.Balance,
		req balances.ExistenceRequirement,
	) (*types.NegativeImbalance, error)
}

// Option sets an optional parameter on the Executive.
type Option func(*Executive)

// WithMetrics sets the metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(e *Executive) {
		e.metrics = metrics
	}
}

// Executive runs blocks against the committed state.
//
// An Executive is not goroutine safe: blocks are built and imported
// strictly one after another. ValidateTransaction and OffchainWorker only
// read committed state and may be called between blocks.
type Executive struct {
	cfg      *config.RuntimeConfig
	registry *registry.Registry
	system   *system.Module
	lookup   Lookup
	currency Currency
	splitter *fees.Splitter
	schedule fees.Schedule

	store      *storage.Store
	blockStore *store.BlockStore

	logger  log.Logger
	metrics *Metrics

	// block in progress
	state      blockState
	overlay    *storage.Overlay
	events     *registry.EventLog
	ctx        *registry.Context
	extrinsics []tmbytes.HexBytes
	block      *types.Block
}

// New returns an Executive over the committed state in stateStore and the
// block history in blockStore.
func New(
	cfg *config.RuntimeConfig,
	reg *registry.Registry,
	sys *system.Module,
	lookup Lookup,
	currency Currency,
	splitter *fees.Splitter,
	stateStore *storage.Store,
	blockStore *store.BlockStore,
	logger log.Logger,
	options ...Option,
) *Executive {
	e := &Executive{
		cfg:        cfg,
		registry:   reg,
		system:     sys,
		lookup:     lookup,
		currency:   currency,
		splitter:   splitter,
		schedule:   fees.NewSchedule(cfg),
		store:      stateStore,
		blockStore: blockStore,
		logger:     logger,
		metrics:    NopMetrics(),
		events:     &registry.EventLog{},
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Registry returns the module registry blocks are dispatched through.
func (e *Executive) Registry() *registry.Registry { return e.registry }

// Store returns the committed state.
func (e *Executive) Store() *storage.Store { return e.store }

// BlockStore returns the committed block history.
func (e *Executive) BlockStore() *store.BlockStore { return e.blockStore }

// InitChain writes the genesis state and returns its root. It fails if the
// state was already initialized.
func (e *Executive) InitChain(genesis *types.GenesisDoc) (types.Hash, error) {
	if _, ok := system.BlockHash(e.store, 0); ok {
		return types.Hash{}, errors.New("chain is already initialized")
	}
	if err := genesis.ValidateAndComplete(); err != nil {
		return types.Hash{}, err
	}

	overlay := e.store.NewOverlay()
	ctx := registry.NewContext(e.registry, overlay, &registry.EventLog{}, 0, e.cfg.MaxCallDepth, e.logger)
	err := e.protect(func() error {
		if err := e.registry.InitGenesis(ctx, genesis); err != nil {
			return err
		}
		overlay.Commit()
		return nil
	})
	if err != nil {
		return types.Hash{}, err
	}

	root := storage.Root(e.store)
	e.logger.Info("initialized chain", "chain_id", genesis.ChainID, "genesis_hash", genesis.Hash(), "state_root", root)
	return root, nil
}

// Head returns the number and hash of the last committed block. Block zero
// is identified by the genesis hash.
func (e *Executive) Head() (types.BlockNumber, types.Hash, error) {
	genesis, ok := system.BlockHash(e.store, 0)
	if !ok {
		return 0, types.Hash{}, errors.New("chain is not initialized")
	}
	height := e.blockStore.Height()
	if height == 0 {
		return 0, genesis, nil
	}
	header := e.blockStore.LoadHeader(height)
	if header == nil {
		return 0, types.Hash{}, fmt.Errorf("missing header of block %d", height)
	}
	return height, header.Hash(), nil
}

// InitializeBlock opens a new block on top of the last committed one and
// runs the initialization hooks. Only the number, parent hash and digest of
// header are used.
func (e *Executive) InitializeBlock(header types.Header) error {
	if e.state == stateBlockOpen {
		return fmt.Errorf("%w: %v", ErrWrongState, e.state)
	}
	e.reset()

	if err := e.checkLinkage(header); err != nil {
		return fatal(err)
	}

	e.overlay = e.store.NewOverlay()
	e.ctx = registry.NewContext(e.registry, e.overlay, e.events, header.Number, e.cfg.MaxCallDepth, e.logger.With("height", header.Number))
	err := e.protect(func() error {
		e.system.Initialize(e.overlay, header)
		return e.registry.Initialize(e.ctx, header.Number)
	})
	if err != nil {
		e.abort(err)
		return fatal(err)
	}

	e.state = stateBlockOpen
	e.logger.Debug("initialized block", "height", header.Number, "parent", header.ParentHash)
	return nil
}

func (e *Executive) checkLinkage(header types.Header) error {
	if err := header.ValidateBasic(); err != nil {
		return ErrWrongLinkage{Reason: err.Error()}
	}
	height, hash, err := e.Head()
	if err != nil {
		return err
	}
	if header.Number != height+1 {
		return ErrWrongLinkage{Reason: fmt.Sprintf("expected block %d, got %d", height+1, header.Number)}
	}
	if header.ParentHash != hash {
		return ErrWrongLinkage{Reason: fmt.Sprintf("expected parent %v, got %v", hash, header.ParentHash)}
	}
	return nil
}

// FinalizeBlock runs the finalization hooks and returns the complete
// header of the block, with its state and extrinsics roots.
func (e *Executive) FinalizeBlock() (types.Header, error) {
	if e.state != stateBlockOpen {
		return types.Header{}, fmt.Errorf("%w: %v", ErrWrongState, e.state)
	}

	var header types.Header
	count := system.ExtrinsicCount(e.overlay)
	weight := system.AllExtrinsicsWeight(e.overlay)
	length := system.AllExtrinsicsLen(e.overlay)
	err := e.protect(func() error {
		ctx := e.ctx.WithPhase(types.Phase{Kind: types.PhaseFinalization})
		if err := e.registry.Finalize(ctx, e.ctx.Number); err != nil {
			return err
		}
		header = e.system.Finalize(e.overlay)
		header.ExtrinsicsRoot = extrinsicsRoot(e.extrinsics)
		header.StateRoot = storage.Root(e.overlay)
		return nil
	})
	if err != nil {
		e.abort(err)
		return types.Header{}, fatal(err)
	}

	e.block = &types.Block{Header: header, Extrinsics: e.extrinsics}
	e.state = stateFinalized

	e.metrics.NumExtrinsics.Set(float64(count))
	e.metrics.BlockWeight.Set(float64(weight))
	e.metrics.BlockLength.Observe(float64(length))
	e.logger.Debug("finalized block",
		"height", header.Number,
		"num_extrinsics", count,
		"state_root", header.StateRoot,
	)
	return header, nil
}

// Commit persists the finalized block: its state writes and the block
// itself. It returns the committed block.
func (e *Executive) Commit() (*types.Block, error) {
	if e.state != stateFinalized {
		return nil, fmt.Errorf("%w: %v", ErrWrongState, e.state)
	}
	block := e.block
	err := e.protect(func() error {
		e.overlay.Commit()
		e.blockStore.SaveBlock(block)
		return nil
	})
	e.reset()
	if err != nil {
		return nil, err
	}

	e.metrics.Height.Set(float64(block.Header.Number))
	e.logger.Info("committed block",
		"height", block.Header.Number,
		"hash", block.Hash(),
		"num_extrinsics", len(block.Extrinsics),
	)
	return block, nil
}

// Discard drops the block in progress without touching committed state.
func (e *Executive) Discard() {
	if e.state != stateUninitialized {
		e.logger.Debug("discarding block", "height", e.ctx.Number, "state", e.state)
	}
	e.reset()
}

// Events returns the events deposited by the open or finalized block. They
// are dropped on commit.
func (e *Executive) Events() []types.EventRecord {
	return e.events.Records()
}

// ExecuteBlock imports a block produced elsewhere: it replays the block on
// top of the last committed one, checks the resulting header against the
// given one and commits. Any failure is fatal to the block and leaves the
// committed state untouched.
func (e *Executive) ExecuteBlock(block *types.Block) error {
	if e.state != stateUninitialized {
		return fmt.Errorf("%w: %v", ErrWrongState, e.state)
	}

	if err := e.executeBlock(block); err != nil {
		e.Discard()
		e.metrics.ImportFailures.Add(1)
		e.logger.Error("failed to import block", "height", block.Header.Number, "err", err)
		return fatal(err)
	}
	_, err := e.Commit()
	return err
}

func (e *Executive) executeBlock(block *types.Block) error {
	// seals are added after execution and are not known to the runtime
	init := types.Header{
		ParentHash: block.Header.ParentHash,
		Number:     block.Header.Number,
		Digest:     filterDigest(block.Header.Digest, types.DigestPreRuntime),
	}
	if err := e.InitializeBlock(init); err != nil {
		return err
	}

	signedSeen := false
	for i, bz := range block.Extrinsics {
		xt, err := types.DecodeExtrinsic(bz)
		if err != nil {
			return fmt.Errorf("extrinsic %d: %w", i, err)
		}
		if !xt.IsSigned() && signedSeen {
			return fmt.Errorf("extrinsic %d: inherent after signed extrinsic", i)
		}
		signedSeen = signedSeen || xt.IsSigned()

		if _, err := e.ApplyExtrinsic(bz); err != nil {
			return fmt.Errorf("extrinsic %d: %w", i, err)
		}
	}

	header, err := e.FinalizeBlock()
	if err != nil {
		return err
	}
	if header.StateRoot != block.Header.StateRoot {
		return ErrRootMismatch{Root: "state", Expected: block.Header.StateRoot[:], Got: header.StateRoot[:]}
	}
	if header.ExtrinsicsRoot != block.Header.ExtrinsicsRoot {
		return ErrRootMismatch{Root: "extrinsics", Expected: block.Header.ExtrinsicsRoot[:], Got: header.ExtrinsicsRoot[:]}
	}
	expected := withoutSeals(block.Header)
	if got := withoutSeals(header); got.Hash() != expected.Hash() {
		return fmt.Errorf("header mismatch: expected %v, got %v", expected.Hash(), got.Hash())
	}

	// keep the block as given, seals included
	e.block = block
	return nil
}

// RandomSeed returns the seed of the block in progress, or of the last
// committed block between blocks.
func (e *Executive) RandomSeed() types.Hash {
	return system.RandomSeed(e.reader())
}

// StateRoot returns the root of the state of the block in progress, or of
// the committed state between blocks.
func (e *Executive) StateRoot() types.Hash {
	return storage.Root(e.reader())
}

func (e *Executive) reader() storage.Reader {
	if e.state == stateUninitialized {
		return e.store
	}
	return e.overlay
}

func (e *Executive) reset() {
	e.state = stateUninitialized
	if e.overlay != nil {
		e.overlay.Discard()
	}
	e.overlay = nil
	e.ctx = nil
	e.extrinsics = nil
	e.block = nil
	e.events.Reset()
}

// abort drops the block after a fatal error.
func (e *Executive) abort(err error) {
	e.logger.Error("aborting block", "err", err)
	e.reset()
}

// protect runs fn and turns a panic into a fatal error. Storage failures
// and broken invariants panic deep inside modules; they must never take the
// node down with a half written block.
func (e *Executive) protect(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic in block execution", "err", r, "stack", string(debug.Stack()))
			err = fatal(fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

func extrinsicsRoot(extrinsics []tmbytes.HexBytes) types.Hash {
	items := make([][]byte, len(extrinsics))
	for i, x := range extrinsics {
		items[i] = x
	}
	var h types.Hash
	copy(h[:], merkle.HashFromByteSlices(items))
	return h
}

func filterDigest(dg types.Digest, kind types.DigestItemKind) types.Digest {
	var out types.Digest
	for _, it := range dg.Logs {
		if it.Kind == kind {
			out.Push(it)
		}
	}
	return out
}

func withoutSeals(h types.Header) types.Header {
	var dg types.Digest
	for _, it := range h.Digest.Logs {
		if it.Kind != types.DigestSeal {
			dg.Push(it)
		}
	}
	h.Digest = dg
	return h
}
