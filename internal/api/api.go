// Package api is the surface a host calls into: version negotiation, block
// building and import, transaction validation, offchain workers and the
// consensus queries of aura and grandpa.
//
// Like the executive it wraps, an API is not safe for concurrent use except
// for OffchainWorker, which only reads committed state.
package api

import (
	"context"

	"github.com/tendermint/executive/internal/executive"
	"github.com/tendermint/executive/internal/modules/aura"
	"github.com/tendermint/executive/internal/modules/grandpa"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/runtime"
	"github.com/tendermint/executive/types"
	"github.com/tendermint/executive/version"
)

// Names of the exposed APIs.
const (
	CoreAPI            = "Core"
	MetadataAPI        = "Metadata"
	BlockBuilderAPI    = "BlockBuilder"
	TxQueueAPI         = "TaggedTransactionQueue"
	OffchainWorkerAPI  = "OffchainWorkerApi"
	AuraAPI            = "AuraApi"
	GrandpaAPI         = "GrandpaApi"
	runtimeConstantsID = "Executive"
)

// APIs lists the exposed APIs with their versions.
func APIs() []version.API {
	list := []struct {
		name string
		v    version.Protocol
	}{
		{CoreAPI, 2},
		{MetadataAPI, 1},
		{BlockBuilderAPI, 3},
		{TxQueueAPI, 1},
		{OffchainWorkerAPI, 1},
		{AuraAPI, 1},
		{GrandpaAPI, 1},
	}
	out := make([]version.API, len(list))
	for i, a := range list {
		out[i] = version.API{ID: version.NewAPIID(a.name), Name: a.name, Version: a.v}
	}
	return out
}

// API exposes a runtime to the host.
type API struct {
	rt      *runtime.Runtime
	ex      *executive.Executive
	version version.Runtime
}

// New returns the API of rt.
func New(rt *runtime.Runtime) *API {
	return &API{
		rt:      rt,
		ex:      rt.Executive,
		version: version.NewRuntime(APIs()...),
	}
}

//-----------------------------------------------------------------------------
// Core

// Version returns the runtime version and the APIs it exposes.
func (a *API) Version() version.Runtime { return a.version }

// ExecuteBlock imports a block produced elsewhere.
func (a *API) ExecuteBlock(block *types.Block) error { return a.ex.ExecuteBlock(block) }

// InitializeBlock opens a block for building.
func (a *API) InitializeBlock(header types.Header) error { return a.ex.InitializeBlock(header) }

// Commit persists the finalized block.
func (a *API) Commit() (*types.Block, error) { return a.ex.Commit() }

//-----------------------------------------------------------------------------
// Metadata

// Metadata describes the modules in registration order, followed by a
// pseudo module carrying the executive's constants.
func (a *API) Metadata() registry.Metadata {
	md := a.rt.Registry.Metadata()
	md.Modules = append(md.Modules, registry.ModuleMetadata{
		Name:      runtimeConstantsID,
		Index:     uint8(len(md.Modules)),
		Constants: a.Constants(),
	})
	return md
}

// Constants lists the constants governing block execution.
func (a *API) Constants() []registry.ConstantMetadata {
	cfg := a.rt.Config
	return []registry.ConstantMetadata{
		{Name: "MaximumBlockWeight", Value: cfg.MaximumBlockWeight},
		{Name: "MaximumBlockLength", Value: cfg.MaximumBlockLength},
		{Name: "TransactionBaseFee", Value: cfg.TransactionBaseFee},
		{Name: "TransactionByteFee", Value: cfg.TransactionByteFee},
		{Name: "WeightToFee", Value: cfg.WeightToFee},
		{Name: "BlockGasLimit", Value: cfg.BlockGasLimit},
		{Name: "MaxCallDepth", Value: cfg.MaxCallDepth},
	}
}

//-----------------------------------------------------------------------------
// BlockBuilder

// ApplyExtrinsic applies an encoded extrinsic to the open block.
func (a *API) ApplyExtrinsic(bz []byte) (types.ApplyResult, error) { return a.ex.ApplyExtrinsic(bz) }

// FinalizeBlock closes the open block and returns its header.
func (a *API) FinalizeBlock() (types.Header, error) { return a.ex.FinalizeBlock() }

// InherentExtrinsics builds the inherents of the open block.
func (a *API) InherentExtrinsics(data *types.InherentData) ([][]byte, error) {
	return a.ex.InherentExtrinsics(data)
}

// CheckInherents checks a block's inherents against local data.
func (a *API) CheckInherents(block *types.Block, data *types.InherentData) *types.CheckInherentsResult {
	return a.ex.CheckInherents(block, data)
}

// RandomSeed returns the seed of the open block, or of the last committed
// one.
func (a *API) RandomSeed() types.Hash { return a.ex.RandomSeed() }

//-----------------------------------------------------------------------------
// TaggedTransactionQueue

// ValidateTransaction checks a transaction for pool admission.
func (a *API) ValidateTransaction(bz []byte) types.TransactionValidity {
	return a.ex.ValidateTransaction(bz)
}

//-----------------------------------------------------------------------------
// OffchainWorkerApi

// OffchainWorker runs the offchain workers for block number.
func (a *API) OffchainWorker(
	ctx context.Context,
	number types.BlockNumber,
	local types.AccountID,
	submit func(types.Call) error,
) error {
	return a.ex.OffchainWorker(ctx, number, local, submit)
}

//-----------------------------------------------------------------------------
// AuraApi

// AuraSlotDuration returns the slot duration in milliseconds.
func (a *API) AuraSlotDuration() uint64 { return a.rt.Aura.SlotDuration() }

// AuraAuthorities returns the current authoring set.
func (a *API) AuraAuthorities() []types.AccountID { return aura.Authorities(a.ex.Store()) }

//-----------------------------------------------------------------------------
// GrandpaApi

// GrandpaPendingChange returns the scheduled authority change announced in
// digest, if any.
func (a *API) GrandpaPendingChange(digest types.Digest) (*grandpa.ScheduledChange, bool) {
	c, ok := grandpa.PendingChange(digest)
	if !ok {
		return nil, false
	}
	return &c, true
}

// GrandpaForcedChange returns the forced authority change announced in
// digest, if any.
func (a *API) GrandpaForcedChange(digest types.Digest) (*grandpa.ForcedChange, bool) {
	c, ok := grandpa.ForcedChangeOf(digest)
	if !ok {
		return nil, false
	}
	return &c, true
}

// GrandpaAuthorities returns the current finality voters and weights.
func (a *API) GrandpaAuthorities() []grandpa.Authority { return grandpa.Authorities(a.ex.Store()) }
