// Package timestamp keeps the block time. The author sets it once per block
// through an inherent; it must advance by at least the minimum period.
package timestamp

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Timestamp"

// MaxDrift is how far in milliseconds an inherent timestamp may run ahead
// of the local clock.
const MaxDrift types.Moment = 30 * 1000

// CallSet is the tag of the set inherent.
const CallSet uint8 = 0

const setWeight types.Weight = 10000

var (
	ErrAlreadySet = types.NewModuleError(ModuleName, 0, "timestamp must be updated only once in the block")
	ErrTooEarly   = types.NewModuleError(ModuleName, 1, "timestamp must increment by at least the minimum period")

	// ErrNotSet is returned from finalization of a block without timestamp.
	ErrNotSet = errors.New("timestamp must be updated once in the block")
	// ErrTooFarInFuture rejects an inherent beyond the allowed drift.
	ErrTooFarInFuture = errors.New("timestamp too far in the future")
	// ErrValidAtTimestamp rejects an inherent earlier than allowed.
	ErrValidAtTimestamp = errors.New("timestamp is earlier than the minimum")
)

var ns = storage.NewNamespace(ModuleName)

var (
	keyNow       = ns.Key("Now")
	keyDidUpdate = ns.Key("DidUpdate")
)

// Observer is notified when the block time is set.
type Observer interface {
	OnTimestampSet(ctx *registry.Context, now types.Moment) error
}

// Module is the timestamp module.
type Module struct {
	registry.BaseModule

	minimumPeriod types.Moment
	observer      Observer
}

var (
	_ registry.Module           = (*Module)(nil)
	_ registry.InherentProvider = (*Module)(nil)
)

// New returns the timestamp module. observer may be nil.
func New(cfg *config.RuntimeConfig, observer Observer) *Module {
	return &Module{
		BaseModule:    registry.NewBaseModule(ModuleName),
		minimumPeriod: cfg.MinimumPeriod,
		observer:      observer,
	}
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallSet, Name: "set", Args: []registry.ArgMetadata{registry.Arg("now", "Moment")}},
		},
		Errors: registry.ErrorsOf(ErrAlreadySet, ErrTooEarly),
		Storage: []registry.StorageMetadata{
			{Name: "Now", Value: "Moment"},
			{Name: "DidUpdate", Value: "bool"},
		},
		Constants: []registry.ConstantMetadata{
			{Name: "MinimumPeriod", Value: m.minimumPeriod},
		},
	}
}

// Set builds the set inherent.
func (m *Module) Set(now types.Moment) types.Call {
	return m.NewCall(CallSet, func(e *types.Encoder) { e.Uint64(now) })
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	if tag != CallSet {
		return nil, registry.UnknownCall(m.Name(), tag)
	}
	c := &setCall{m: m}
	return c, registry.DecodeArgs(args, func(d *types.Decoder) { c.now = d.Uint64() })
}

// Now returns the time of the current block, or of the previous block
// before the inherent ran.
func Now(r storage.Reader) types.Moment {
	return storage.GetUint64(r, keyNow)
}

func (m *Module) OnFinalize(ctx *registry.Context, _ types.BlockNumber) error {
	if !ctx.Store.Has(keyDidUpdate) {
		return ErrNotSet
	}
	ctx.Store.Delete(keyDidUpdate)
	return nil
}

type setCall struct {
	m   *Module
	now types.Moment
}

func (c *setCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: setWeight, Class: types.DispatchMandatory, PaysFee: false}
}

func (c *setCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureNone(origin); err != nil {
		return err
	}
	if ctx.Store.Has(keyDidUpdate) {
		return ErrAlreadySet
	}
	if prev := Now(ctx.Store); prev != 0 && c.now < prev+c.m.minimumPeriod {
		return ErrTooEarly
	}
	storage.SetUint64(ctx.Store, keyNow, c.now)
	ctx.Store.Set(keyDidUpdate, []byte{1})
	if c.m.observer != nil {
		return c.m.observer.OnTimestampSet(ctx, c.now)
	}
	return nil
}

//-----------------------------------------------------------------------------
// inherent

func (m *Module) InherentIdentifier() types.InherentIdentifier { return types.TimestampInherent }

// CreateInherent sets the block time from the author's clock, moved forward
// to the earliest valid time if needed.
func (m *Module) CreateInherent(r storage.Reader, data *types.InherentData) (*types.Call, error) {
	now, ok, err := data.GetUint64(types.TimestampInherent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("inherent data has no %s", types.TimestampInherent)
	}
	if next := Now(r) + m.minimumPeriod; now < next {
		now = next
	}
	call := m.Set(now)
	return &call, nil
}

func (m *Module) CheckInherent(r storage.Reader, call types.Call, data *types.InherentData) error {
	if !m.IsInherent(call) {
		return nil
	}
	d, err := m.DecodeCall(call.Tag, call.Args)
	if err != nil {
		return err
	}
	t := d.(*setCall).now

	local, ok, err := data.GetUint64(types.TimestampInherent)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("inherent data has no %s", types.TimestampInherent)
	}
	if t > local+MaxDrift {
		return fmt.Errorf("%w: %d > %d", ErrTooFarInFuture, t, local+MaxDrift)
	}
	if minimum := Now(r) + m.minimumPeriod; t < minimum {
		return fmt.Errorf("%w: valid at %d", ErrValidAtTimestamp, minimum)
	}
	return nil
}

func (m *Module) IsInherent(call types.Call) bool {
	return call.Module == m.Index() && call.Tag == CallSet
}
