// Package finalitytracker follows the finalized height reported by block
// authors and reports a stall when the median over a window of reports
// falls too far behind the chain head.
package finalitytracker

import (
	"sort"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "FinalityTracker"

// CallFinalHint is the tag of the final_hint inherent.
const CallFinalHint uint8 = 0

const finalHintWeight types.Weight = 10000

// Errors, in declaration order.
var (
	ErrAlreadyUpdated = types.NewModuleError(ModuleName, 0, "final hint must be updated only once in the block")
	ErrBadHint        = types.NewModuleError(ModuleName, 1, "finalized height above block number")
)

// StallHandler is told when finality stalls. furtherWait is the delay to
// apply before acting and median the last height considered final.
type StallHandler interface {
	OnStalled(ctx *registry.Context, furtherWait, median types.BlockNumber)
}

var ns = storage.NewNamespace(ModuleName)

var (
	keyRecentHints = ns.Key("RecentHints")
	keyMedian      = ns.Key("Median")
	keyUpdate      = ns.Key("Update")
)

// Module is the finality tracker.
type Module struct {
	registry.BaseModule

	windowSize    uint64
	reportLatency types.BlockNumber
	onStalled     StallHandler
}

var (
	_ registry.Module           = (*Module)(nil)
	_ registry.InherentProvider = (*Module)(nil)
)

// New returns the finality tracker. onStalled may be nil.
func New(cfg *config.RuntimeConfig, onStalled StallHandler) *Module {
	window := cfg.WindowSize
	if window == 0 {
		window = 1
	}
	return &Module{
		BaseModule:    registry.NewBaseModule(ModuleName),
		windowSize:    window,
		reportLatency: cfg.ReportLatency,
		onStalled:     onStalled,
	}
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallFinalHint, Name: "final_hint", Args: []registry.ArgMetadata{registry.Arg("hint", "BlockNumber")}},
		},
		Errors: registry.ErrorsOf(ErrAlreadyUpdated, ErrBadHint),
		Storage: []registry.StorageMetadata{
			{Name: "RecentHints", Value: "Vec<BlockNumber>"},
			{Name: "Median", Value: "BlockNumber"},
			{Name: "Update", Value: "BlockNumber"},
		},
		Constants: []registry.ConstantMetadata{
			{Name: "WindowSize", Value: m.windowSize},
			{Name: "ReportLatency", Value: m.reportLatency},
		},
	}
}

// FinalHint builds the final_hint inherent.
func (m *Module) FinalHint(hint types.BlockNumber) types.Call {
	return m.NewCall(CallFinalHint, func(e *types.Encoder) { e.Uint64(hint) })
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	if tag != CallFinalHint {
		return nil, registry.UnknownCall(m.Name(), tag)
	}
	c := &finalHintCall{}
	return c, registry.DecodeArgs(args, func(d *types.Decoder) { c.hint = d.Uint64() })
}

// Median is the median of the recent hints.
func Median(r storage.Reader) types.BlockNumber {
	return storage.GetUint64(r, keyMedian)
}

// RecentHints returns the hints in the window, oldest first.
func RecentHints(r storage.Reader) []types.BlockNumber {
	var out []types.BlockNumber
	storage.Decode(r, keyRecentHints, func(d *types.Decoder) {
		n := d.Uint32()
		for i := uint32(0); i < n && d.Err() == nil; i++ {
			out = append(out, d.Uint64())
		}
	})
	return out
}

// OnFinalize records this block's hint, or repeats the last one, and
// reports a stall once a full window's median lags the head by the report
// latency.
func (m *Module) OnFinalize(ctx *registry.Context, number types.BlockNumber) error {
	recent := RecentHints(ctx.Store)
	var hint types.BlockNumber
	switch {
	case ctx.Store.Has(keyUpdate):
		hint = storage.GetUint64(ctx.Store, keyUpdate)
		ctx.Store.Delete(keyUpdate)
	case len(recent) > 0:
		hint = recent[len(recent)-1]
	}

	if uint64(len(recent)) >= m.windowSize {
		recent = recent[uint64(len(recent))-m.windowSize+1:]
	}
	recent = append(recent, hint)
	storage.Encode(ctx.Store, keyRecentHints, func(e *types.Encoder) {
		e.Uint32(uint32(len(recent)))
		for _, h := range recent {
			e.Uint64(h)
		}
	})

	median := median(recent)
	storage.SetUint64(ctx.Store, keyMedian, median)

	if uint64(len(recent)) == m.windowSize && median+m.reportLatency <= number && m.onStalled != nil {
		m.onStalled.OnStalled(ctx, m.windowSize-1, median)
	}
	return nil
}

// median of the hints; the mean of the two middle values for even counts
func median(hints []types.BlockNumber) types.BlockNumber {
	ordered := append([]types.BlockNumber(nil), hints...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	n := len(ordered)
	if n == 0 {
		return 0
	}
	if n%2 == 0 {
		a, b := ordered[n/2-1], ordered[n/2]
		return a + (b-a)/2
	}
	return ordered[n/2]
}

type finalHintCall struct {
	hint types.BlockNumber
}

func (c *finalHintCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: finalHintWeight, Class: types.DispatchMandatory, PaysFee: false}
}

func (c *finalHintCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureNone(origin); err != nil {
		return err
	}
	if ctx.Store.Has(keyUpdate) {
		return ErrAlreadyUpdated
	}
	if c.hint > ctx.Number {
		return ErrBadHint
	}
	storage.SetUint64(ctx.Store, keyUpdate, c.hint)
	return nil
}

//-----------------------------------------------------------------------------
// inherent

func (m *Module) InherentIdentifier() types.InherentIdentifier { return types.FinalNumInherent }

// CreateInherent reports the author's finalized height. Authors without
// one don't report.
func (m *Module) CreateInherent(_ storage.Reader, data *types.InherentData) (*types.Call, error) {
	final, ok, err := data.GetUint64(types.FinalNumInherent)
	if err != nil || !ok {
		return nil, err
	}
	call := m.FinalHint(final)
	return &call, nil
}

// CheckInherent only requires the hint to decode; any finalized height an
// author reports is acceptable to peers that may lag behind it.
func (m *Module) CheckInherent(_ storage.Reader, call types.Call, _ *types.InherentData) error {
	if !m.IsInherent(call) {
		return nil
	}
	_, err := m.DecodeCall(call.Tag, call.Args)
	return err
}

func (m *Module) IsInherent(call types.Call) bool {
	return call.Module == m.Index() && call.Tag == CallFinalHint
}
