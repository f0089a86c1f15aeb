// Package grandpa keeps the finality authority set and schedules changes
// to it. Changes are announced to the finality gadget through consensus
// logs in the block digest.
package grandpa

import (
	"fmt"

	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Grandpa"

// CallScheduleChange is the tag of schedule_change.
const CallScheduleChange uint8 = 0

// EventNewAuthorities is deposited when a change takes effect.
const EventNewAuthorities uint8 = 0

// Errors, in declaration order.
var (
	ErrChangePending = types.NewModuleError(ModuleName, 0, "attempt to signal a change while one is pending")
	ErrTooSoon       = types.NewModuleError(ModuleName, 1, "cannot signal a forced change so soon after the last")
	ErrNoAuthorities = types.NewModuleError(ModuleName, 2, "authority set can not be empty")
)

// storedChange is a change waiting to be announced and enacted.
type storedChange struct {
	ScheduledAt types.BlockNumber
	Change      ScheduledChange
	Forced      bool
	Median      types.BlockNumber
}

var ns = storage.NewNamespace(ModuleName)

var (
	keyAuthorities   = ns.Key("Authorities")
	keyPendingChange = ns.Key("PendingChange")
	keyNextForced    = ns.Key("NextForced")
	keyStalled       = ns.Key("Stalled")
	keySetID         = ns.Key("CurrentSetId")
)

// Module is the grandpa module.
type Module struct {
	registry.BaseModule
}

var _ registry.Module = (*Module)(nil)

func New() *Module {
	return &Module{BaseModule: registry.NewBaseModule(ModuleName)}
}

func (m *Module) InitGenesis(ctx *registry.Context, genesis *types.GenesisDoc) error {
	auths := make([]Authority, len(genesis.GrandpaAuthorities))
	for i, a := range genesis.GrandpaAuthorities {
		auths[i] = Authority{ID: a.ID, Weight: a.Weight}
	}
	setAuthorities(ctx.Store, auths)
	return nil
}

// Authorities returns the current voters with their weights.
func Authorities(r storage.Reader) []Authority {
	var out []Authority
	storage.Decode(r, keyAuthorities, func(d *types.Decoder) { out = decodeAuthorities(d) })
	return out
}

func setAuthorities(kv storage.KVStore, auths []Authority) {
	storage.Encode(kv, keyAuthorities, func(e *types.Encoder) { encodeAuthorities(e, auths) })
}

// SetID counts the authority set changes enacted so far.
func SetID(r storage.Reader) uint64 {
	return storage.GetUint64(r, keySetID)
}

func pendingChange(r storage.Reader) (storedChange, bool) {
	var sc storedChange
	ok := storage.Decode(r, keyPendingChange, func(d *types.Decoder) {
		sc.ScheduledAt = d.Uint64()
		sc.Forced = d.Bool()
		sc.Median = d.Uint64()
		sc.Change = decodeScheduledChange(d)
	})
	return sc, ok
}

func setPendingChange(kv storage.KVStore, sc storedChange) {
	storage.Encode(kv, keyPendingChange, func(e *types.Encoder) {
		e.Uint64(sc.ScheduledAt).Bool(sc.Forced).Uint64(sc.Median)
		sc.Change.encode(e)
	})
}

// ScheduleChange schedules next to take effect delay blocks after the
// current one. A forced change carries the median finalized height voters
// reset to and may only be signalled once per two delays.
func (m *Module) ScheduleChange(ctx *registry.Context, next []Authority, delay types.BlockNumber, forced *types.BlockNumber) error {
	if len(next) == 0 {
		return ErrNoAuthorities
	}
	if ctx.Store.Has(keyPendingChange) {
		return ErrChangePending
	}
	sc := storedChange{
		ScheduledAt: ctx.Number,
		Change:      ScheduledChange{NextAuthorities: next, Delay: delay},
	}
	if forced != nil {
		if ctx.Number < storage.GetUint64(ctx.Store, keyNextForced) {
			return ErrTooSoon
		}
		storage.SetUint64(ctx.Store, keyNextForced, ctx.Number+2*delay)
		sc.Forced = true
		sc.Median = *forced
	}
	setPendingChange(ctx.Store, sc)
	return nil
}

// OnStalled is called when finality has not advanced for too long. A
// forced change to the current set is scheduled at the next finalization.
func (m *Module) OnStalled(ctx *registry.Context, furtherWait, median types.BlockNumber) {
	storage.Encode(ctx.Store, keyStalled, func(e *types.Encoder) { e.Uint64(furtherWait).Uint64(median) })
	ctx.Logger.Info("finality stalled", "median", median, "further_wait", furtherWait)
}

// OnFinalize schedules the forced change of a stalled chain, announces a
// change in the block it was scheduled in and enacts it after its delay.
func (m *Module) OnFinalize(ctx *registry.Context, number types.BlockNumber) error {
	var furtherWait, median types.BlockNumber
	if storage.Decode(ctx.Store, keyStalled, func(d *types.Decoder) {
		furtherWait, median = d.Uint64(), d.Uint64()
	}) {
		err := m.ScheduleChange(ctx, Authorities(ctx.Store), furtherWait, &median)
		switch err {
		case nil:
			ctx.Store.Delete(keyStalled)
		case ErrChangePending, ErrTooSoon:
			// retried at the next block
		default:
			return fmt.Errorf("schedule forced change: %w", err)
		}
	}

	sc, ok := pendingChange(ctx.Store)
	if !ok {
		return nil
	}
	if number == sc.ScheduledAt {
		if sc.Forced {
			system.DepositLog(ctx.Store, forcedLog(ForcedChange{Median: sc.Median, Change: sc.Change}))
		} else {
			system.DepositLog(ctx.Store, scheduledLog(sc.Change))
		}
	}
	if number == sc.ScheduledAt+sc.Change.Delay {
		setAuthorities(ctx.Store, sc.Change.NextAuthorities)
		storage.SetUint64(ctx.Store, keySetID, SetID(ctx.Store)+1)
		ctx.Store.Delete(keyPendingChange)
		m.Emit(ctx, EventNewAuthorities, "NewAuthorities", sc.Change.NextAuthorities)
		ctx.Logger.Info("enacted authority set change", "height", number, "set_id", SetID(ctx.Store))
	}
	return nil
}
