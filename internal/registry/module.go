package registry

import (
	"context"
	"fmt"

	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// Module is a state transition unit: it owns a storage namespace, declares
// calls, events and errors, and decodes its own calls.
//
// DecodeCall must be pure. It is used to reject malformed extrinsics before
// any storage is touched.
type Module interface {
	Name() string
	Index() uint8
	// Bind is called once by the registry with the module's registration
	// index.
	Bind(index uint8)
	Metadata() ModuleMetadata
	DecodeCall(tag uint8, args []byte) (Dispatchable, error)
}

// Dispatchable is a decoded call, ready to run under an origin.
type Dispatchable interface {
	Info() types.DispatchInfo
	Dispatch(ctx *Context, origin types.Origin) error
}

// Initializer is implemented by modules with per-block setup. Hooks run in
// ascending registration order before any extrinsic is applied.
type Initializer interface {
	OnInitialize(ctx *Context, number types.BlockNumber) error
}

// Finalizer is implemented by modules with per-block teardown. Hooks run in
// descending registration order after all extrinsics are applied.
type Finalizer interface {
	OnFinalize(ctx *Context, number types.BlockNumber) error
}

// GenesisBuilder is implemented by modules that seed state at chain
// initialization.
type GenesisBuilder interface {
	InitGenesis(ctx *Context, genesis *types.GenesisDoc) error
}

// InherentProvider is implemented by modules that create an inherent
// extrinsic from author supplied data.
type InherentProvider interface {
	InherentIdentifier() types.InherentIdentifier
	// CreateInherent returns the inherent call for data or nil if none is
	// needed.
	CreateInherent(r storage.Reader, data *types.InherentData) (*types.Call, error)
	// CheckInherent verifies a call of this module found in a block against
	// local data and the state the block builds on. Calls that are not
	// inherents are ignored.
	CheckInherent(r storage.Reader, call types.Call, data *types.InherentData) error
	// IsInherent reports whether call is this module's inherent.
	IsInherent(call types.Call) bool
}

// BaseModule implements the index bookkeeping of Module and helpers to
// build calls and deposit events. Modules embed it.
type BaseModule struct {
	name  string
	index uint8
	bound bool
}

// NewBaseModule returns an unbound module base.
func NewBaseModule(name string) BaseModule {
	return BaseModule{name: name}
}

func (b *BaseModule) Name() string { return b.name }

// Index returns the registration index. It panics if the module was never
// registered, which would make every call it builds point elsewhere.
func (b *BaseModule) Index() uint8 {
	if !b.bound {
		panic(fmt.Sprintf("module %s is not registered", b.name))
	}
	return b.index
}

func (b *BaseModule) Bind(index uint8) {
	if b.bound && b.index != index {
		panic(fmt.Sprintf("module %s already bound at index %d", b.name, b.index))
	}
	b.index = index
	b.bound = true
}

// NewCall builds a call to this module.
func (b *BaseModule) NewCall(tag uint8, enc func(*types.Encoder)) types.Call {
	return types.NewCall(b.Index(), tag, enc)
}

// Emit deposits an event of this module into the block's event log.
func (b *BaseModule) Emit(ctx *Context, variant uint8, name string, data interface{}) {
	ctx.deposit(types.Event{
		Module:  b.Index(),
		Variant: variant,
		Name:    name,
		Data:    data,
	})
}

// UnknownCall is returned by DecodeCall for an unrecognized tag.
func UnknownCall(module string, tag uint8) error {
	return fmt.Errorf("%w: module %s has no call %d", types.ErrMalformed, module, tag)
}

// DecodeArgs decodes args with fn and requires the whole input be consumed.
func DecodeArgs(args []byte, fn func(*types.Decoder)) error {
	d := types.NewDecoder(args)
	fn(d)
	return d.Finish()
}

// OffchainContext is what an offchain worker sees: a read-only view of
// committed state and a way to submit calls signed by the local key.
type OffchainContext struct {
	State  storage.Reader
	Number types.BlockNumber
	// Local is the account of the node's signing key.
	Local types.AccountID
	// Submit queues call for signing with the local key and submission.
	Submit func(call types.Call) error
}

// OffchainWorker is implemented by modules with offchain logic. Workers
// must not write state; their only effect is submitting calls.
type OffchainWorker interface {
	OffchainWorker(ctx context.Context, oc *OffchainContext) error
}

// Attacher is implemented by modules that dispatch nested calls and so need
// the registry they are registered in.
type Attacher interface {
	Attach(r *Registry)
}
