package grandpa

import (
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/types"
)

const scheduleChangeWeight types.Weight = 100000

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallScheduleChange, Name: "schedule_change", Args: []registry.ArgMetadata{
				registry.Arg("next_authorities", "Vec<(AuthorityId, AuthorityWeight)>"),
				registry.Arg("delay", "BlockNumber"),
				registry.Arg("forced", "Option<BlockNumber>"),
			}},
		},
		Events: []registry.EventMetadata{
			{Variant: EventNewAuthorities, Name: "NewAuthorities", Args: []string{"Vec<(AuthorityId, AuthorityWeight)>"}},
		},
		Errors: registry.ErrorsOf(ErrChangePending, ErrTooSoon, ErrNoAuthorities),
		Storage: []registry.StorageMetadata{
			{Name: "Authorities", Value: "Vec<(AuthorityId, AuthorityWeight)>"},
			{Name: "PendingChange", Value: "StoredPendingChange"},
			{Name: "NextForced", Value: "BlockNumber"},
			{Name: "Stalled", Value: "(BlockNumber, BlockNumber)"},
			{Name: "CurrentSetId", Value: "SetId"},
		},
	}
}

// ScheduleChangeCall builds a schedule_change call. forced is the median
// finalized height of a forced change, nil for a regular one.
func (m *Module) ScheduleChangeCall(next []Authority, delay types.BlockNumber, forced *types.BlockNumber) types.Call {
	return m.NewCall(CallScheduleChange, func(e *types.Encoder) {
		encodeAuthorities(e, next)
		e.Uint64(delay)
		e.Bool(forced != nil)
		if forced != nil {
			e.Uint64(*forced)
		}
	})
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	if tag != CallScheduleChange {
		return nil, registry.UnknownCall(m.Name(), tag)
	}
	c := &scheduleChangeCall{m: m}
	return c, registry.DecodeArgs(args, func(d *types.Decoder) {
		c.next = decodeAuthorities(d)
		c.delay = d.Uint64()
		if d.Bool() {
			median := d.Uint64()
			c.forced = &median
		}
	})
}

type scheduleChangeCall struct {
	m      *Module
	next   []Authority
	delay  types.BlockNumber
	forced *types.BlockNumber
}

func (c *scheduleChangeCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: scheduleChangeWeight, Class: types.DispatchOperational, PaysFee: true}
}

func (c *scheduleChangeCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureRoot(origin); err != nil {
		return err
	}
	return c.m.ScheduleChange(ctx, c.next, c.delay, c.forced)
}
