// Package sudo holds the privileged key. Its holder may dispatch any call
// under the root origin; the key also receives the treasury share of fees.
package sudo

import (
	"fmt"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Sudo"

// Call tags.
const (
	CallSudo uint8 = iota
	CallSetKey
)

// Event variants.
const (
	EventSudid uint8 = iota
	EventKeyChanged
)

const (
	sudoWeight   types.Weight = 10000
	setKeyWeight types.Weight = 10000
)

// ErrRequireSudo is returned when the sender is not the key.
var ErrRequireSudo = types.NewModuleError(ModuleName, 0, "sender must be the sudo key")

// Sudid is the payload of the Sudid event. Error is the inner call's
// failure, if any.
type Sudid struct {
	Ok    bool                 `json:"ok"`
	Error *types.DispatchError `json:"error,omitempty"`
}

// KeyChanged is the payload of the KeyChanged event.
type KeyChanged struct {
	Old types.AccountID `json:"old"`
	New types.AccountID `json:"new"`
}

// Lookup resolves the new key of set_key.
type Lookup interface {
	Lookup(r storage.Reader, addr types.Address) (types.AccountID, error)
}

var keyKey = storage.NewNamespace(ModuleName).Key("Key")

// Module is the sudo module.
type Module struct {
	registry.BaseModule

	maxDepth uint64
	lookup   Lookup
	registry *registry.Registry
}

var (
	_ registry.Module   = (*Module)(nil)
	_ registry.Attacher = (*Module)(nil)
)

func New(cfg *config.RuntimeConfig, lookup Lookup) *Module {
	return &Module{
		BaseModule: registry.NewBaseModule(ModuleName),
		maxDepth:   cfg.MaxCallDepth,
		lookup:     lookup,
	}
}

// Attach keeps the registry used to decode wrapped calls.
func (m *Module) Attach(r *registry.Registry) { m.registry = r }

func (m *Module) InitGenesis(ctx *registry.Context, genesis *types.GenesisDoc) error {
	if !genesis.SudoKey.IsZero() {
		storage.SetAccount(ctx.Store, keyKey, genesis.SudoKey)
	}
	return nil
}

// Key returns the privileged account.
func (m *Module) Key(r storage.Reader) (types.AccountID, bool) {
	return storage.GetAccount(r, keyKey)
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallSudo, Name: "sudo", Args: []registry.ArgMetadata{registry.Arg("proposal", "Call")}},
			{Tag: CallSetKey, Name: "set_key", Args: []registry.ArgMetadata{registry.Arg("new", "Address")}},
		},
		Events: []registry.EventMetadata{
			{Variant: EventSudid, Name: "Sudid", Args: []string{"bool"}},
			{Variant: EventKeyChanged, Name: "KeyChanged", Args: []string{"AccountId"}},
		},
		Errors: registry.ErrorsOf(ErrRequireSudo),
		Storage: []registry.StorageMetadata{
			{Name: "Key", Value: "AccountId"},
		},
	}
}

// Sudo builds a sudo call wrapping proposal.
func (m *Module) Sudo(proposal types.Call) types.Call {
	return m.NewCall(CallSudo, func(e *types.Encoder) { proposal.Encode(e) })
}

// SetKey builds a set_key call.
func (m *Module) SetKey(next types.Address) types.Call {
	return m.NewCall(CallSetKey, func(e *types.Encoder) { next.Encode(e) })
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	switch tag {
	case CallSudo:
		return m.decodeSudo(args)
	case CallSetKey:
		c := &setKeyCall{m: m}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) { c.next = types.DecodeAddress(d) })
	default:
		return nil, registry.UnknownCall(m.Name(), tag)
	}
}

// decodeSudo decodes and resolves the wrapped call. The nesting of sudo
// calls is bounded before resolving so that decoding stays shallow.
func (m *Module) decodeSudo(args []byte) (registry.Dispatchable, error) {
	var proposal types.Call
	if err := registry.DecodeArgs(args, func(d *types.Decoder) { proposal = types.DecodeCall(d) }); err != nil {
		return nil, err
	}

	depth := uint64(1)
	for c := proposal; c.Module == m.Index() && c.Tag == CallSudo; depth++ {
		if depth >= m.maxDepth {
			return nil, fmt.Errorf("%w: sudo nested deeper than %d", types.ErrMalformed, m.maxDepth)
		}
		if err := registry.DecodeArgs(c.Args, func(d *types.Decoder) { c = types.DecodeCall(d) }); err != nil {
			return nil, err
		}
	}

	inner, err := m.registry.Resolve(proposal)
	if err != nil {
		return nil, err
	}
	return &sudoCall{m: m, proposal: proposal, inner: inner}, nil
}

type sudoCall struct {
	m        *Module
	proposal types.Call
	inner    registry.Dispatchable
}

func (c *sudoCall) Info() types.DispatchInfo {
	return types.DispatchInfo{
		Weight:  c.inner.Info().Weight + sudoWeight,
		Class:   types.DispatchOperational,
		PaysFee: true,
	}
}

// Dispatch runs the proposal under the root origin. The proposal's failure
// is reported in the Sudid event; the sudo call itself succeeds.
func (c *sudoCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	who, err := types.EnsureSigned(origin)
	if err != nil {
		return err
	}
	if key, ok := c.m.Key(ctx.Store); !ok || key != who {
		return ErrRequireSudo
	}

	ev := Sudid{Ok: true}
	if err := ctx.Dispatch(c.proposal, types.RootOrigin()); err != nil {
		ev.Ok = false
		ev.Error = types.NewDispatchError(c.proposal.Module, err)
		ctx.Logger.Debug("sudo proposal failed", "err", err)
	}
	c.m.Emit(ctx, EventSudid, "Sudid", ev)
	return nil
}

type setKeyCall struct {
	m    *Module
	next types.Address
}

func (c *setKeyCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: setKeyWeight, Class: types.DispatchOperational, PaysFee: true}
}

func (c *setKeyCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	who, err := types.EnsureSigned(origin)
	if err != nil {
		return err
	}
	if key, ok := c.m.Key(ctx.Store); !ok || key != who {
		return ErrRequireSudo
	}
	next, err := c.m.lookup.Lookup(ctx.Store, c.next)
	if err != nil {
		return err
	}
	storage.SetAccount(ctx.Store, keyKey, next)
	c.m.Emit(ctx, EventKeyChanged, "KeyChanged", KeyChanged{Old: who, New: next})
	return nil
}
