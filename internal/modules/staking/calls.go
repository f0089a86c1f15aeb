package staking

import (
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/types"
)

// Call tags.
const (
	CallBond uint8 = iota
	CallUnbond
	CallWithdrawUnbonded
)

const (
	bondWeight     types.Weight = 500000
	unbondWeight   types.Weight = 400000
	withdrawWeight types.Weight = 400000
)

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallBond, Name: "bond", Args: []registry.ArgMetadata{registry.Arg("value", "Balance")}},
			{Tag: CallUnbond, Name: "unbond", Args: []registry.ArgMetadata{registry.Arg("value", "Balance")}},
			{Tag: CallWithdrawUnbonded, Name: "withdraw_unbonded"},
		},
		Events: []registry.EventMetadata{
			{Variant: EventBonded, Name: "Bonded", Args: []string{"AccountId", "Balance"}},
			{Variant: EventUnbonded, Name: "Unbonded", Args: []string{"AccountId", "Balance"}},
			{Variant: EventWithdrawn, Name: "Withdrawn", Args: []string{"AccountId", "Balance"}},
			{Variant: EventNewEra, Name: "NewEra", Args: []string{"EraIndex"}},
		},
		Errors: registry.ErrorsOf(ErrAlreadyBonded, ErrNotBonded, ErrInsufficientValue, ErrNoMoreChunks),
		Storage: []registry.StorageMetadata{
			{Name: "CurrentEra", Value: "EraIndex"},
			{Name: "Ledger", Key: "AccountId", Value: "StakingLedger"},
		},
		Constants: []registry.ConstantMetadata{
			{Name: "EraLength", Value: m.eraLength},
			{Name: "BondingDuration", Value: m.bondingDuration},
			{Name: "BondingBlocks", Value: m.bondingBlocks},
		},
	}
}

// Bond builds a bond call.
func (m *Module) Bond(value types.Balance) types.Call {
	return m.NewCall(CallBond, func(e *types.Encoder) { e.Uint64(value) })
}

// Unbond builds an unbond call.
func (m *Module) Unbond(value types.Balance) types.Call {
	return m.NewCall(CallUnbond, func(e *types.Encoder) { e.Uint64(value) })
}

// WithdrawUnbonded builds a withdraw_unbonded call.
func (m *Module) WithdrawUnbonded() types.Call {
	return m.NewCall(CallWithdrawUnbonded, func(*types.Encoder) {})
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	switch tag {
	case CallBond:
		c := &bondCall{m: m}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) { c.value = d.Uint64() })
	case CallUnbond:
		c := &unbondCall{m: m}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) { c.value = d.Uint64() })
	case CallWithdrawUnbonded:
		c := &withdrawCall{m: m}
		return c, registry.DecodeArgs(args, func(*types.Decoder) {})
	default:
		return nil, registry.UnknownCall(m.Name(), tag)
	}
}

type bondCall struct {
	m     *Module
	value types.Balance
}

func (c *bondCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: bondWeight, Class: types.DispatchNormal, PaysFee: true}
}

// Dispatch bonds up to value; the bond is capped at the free balance.
func (c *bondCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	who, err := types.EnsureSigned(origin)
	if err != nil {
		return err
	}
	if _, ok := LedgerOf(ctx.Store, who); ok {
		return ErrAlreadyBonded
	}
	value := c.value
	if free := balances.FreeBalance(ctx.Store, who); value > free {
		value = free
	}
	if value < c.m.existentialDeposit {
		return ErrInsufficientValue
	}
	c.m.setLedger(ctx, who, Ledger{Total: value, Active: value})
	c.m.Emit(ctx, EventBonded, "Bonded", Amount{Account: who, Value: value})
	return nil
}

type unbondCall struct {
	m     *Module
	value types.Balance
}

func (c *unbondCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: unbondWeight, Class: types.DispatchNormal, PaysFee: true}
}

// Dispatch schedules up to value of the active stake for release after the
// bonding duration.
func (c *unbondCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	who, err := types.EnsureSigned(origin)
	if err != nil {
		return err
	}
	l, ok := LedgerOf(ctx.Store, who)
	if !ok {
		return ErrNotBonded
	}
	if len(l.Unlocking) >= MaxUnlockingChunks {
		return ErrNoMoreChunks
	}
	value := c.value
	if value > l.Active {
		value = l.Active
	}
	if value == 0 {
		return nil
	}
	l.Active -= value
	l.Unlocking = append(l.Unlocking, UnlockChunk{
		Value: value,
		Era:   CurrentEra(ctx.Store) + c.m.bondingDuration,
	})
	c.m.setLedger(ctx, who, l)
	c.m.Emit(ctx, EventUnbonded, "Unbonded", Amount{Account: who, Value: value})
	return nil
}

type withdrawCall struct {
	m *Module
}

func (c *withdrawCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: withdrawWeight, Class: types.DispatchNormal, PaysFee: true}
}

// Dispatch releases every unlocked chunk.
func (c *withdrawCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	who, err := types.EnsureSigned(origin)
	if err != nil {
		return err
	}
	l, ok := LedgerOf(ctx.Store, who)
	if !ok {
		return ErrNotBonded
	}
	era := CurrentEra(ctx.Store)
	withdrawn := l.Withdrawable(era)
	kept := l.Unlocking[:0]
	for _, chunk := range l.Unlocking {
		if chunk.Era > era {
			kept = append(kept, chunk)
		}
	}
	l.Unlocking = kept
	l.Total -= withdrawn
	c.m.setLedger(ctx, who, l)
	if withdrawn > 0 {
		c.m.Emit(ctx, EventWithdrawn, "Withdrawn", Amount{Account: who, Value: withdrawn})
	}
	return nil
}
