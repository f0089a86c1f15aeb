package balances

import (
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	tmmath "github.com/tendermint/executive/libs/math"
	"github.com/tendermint/executive/types"
)

// Call tags.
const (
	CallTransfer uint8 = iota
	CallSetBalance
	CallForceTransfer
)

const (
	transferWeight   types.Weight = 1000000
	setBalanceWeight types.Weight = 50000
)

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallTransfer, Name: "transfer", Args: []registry.ArgMetadata{
				registry.Arg("dest", "Address"), registry.Arg("value", "Balance"),
			}},
			{Tag: CallSetBalance, Name: "set_balance", Args: []registry.ArgMetadata{
				registry.Arg("who", "Address"), registry.Arg("new_free", "Balance"),
			}},
			{Tag: CallForceTransfer, Name: "force_transfer", Args: []registry.ArgMetadata{
				registry.Arg("source", "Address"), registry.Arg("dest", "Address"), registry.Arg("value", "Balance"),
			}},
		},
		Events: []registry.EventMetadata{
			{Variant: EventNewAccount, Name: "NewAccount", Args: []string{"AccountId", "Balance"}},
			{Variant: EventReapedAccount, Name: "ReapedAccount", Args: []string{"AccountId", "Balance"}},
			{Variant: EventTransfer, Name: "Transfer", Args: []string{"AccountId", "AccountId", "Balance", "Balance"}},
			{Variant: EventBalanceSet, Name: "BalanceSet", Args: []string{"AccountId", "Balance"}},
		},
		Errors: registry.ErrorsOf(
			ErrInsufficientBalance, ErrExistentialDeposit, ErrLiquidityRestrictions, ErrOverflow, ErrKeepAlive,
		),
		Storage: []registry.StorageMetadata{
			{Name: "TotalIssuance", Value: "Balance"},
			{Name: "FreeBalance", Key: "AccountId", Value: "Balance"},
			{Name: "Locks", Key: "AccountId", Value: "Vec<BalanceLock>"},
		},
		Constants: []registry.ConstantMetadata{
			{Name: "ExistentialDeposit", Value: m.existentialDeposit},
			{Name: "TransferFee", Value: m.transferFee},
			{Name: "CreationFee", Value: m.creationFee},
		},
	}
}

// Transfer builds a transfer call.
func (m *Module) Transfer(dest types.Address, value types.Balance) types.Call {
	return m.NewCall(CallTransfer, func(e *types.Encoder) {
		dest.Encode(e)
		e.Uint64(value)
	})
}

// SetBalance builds a set_balance call.
func (m *Module) SetBalance(who types.Address, free types.Balance) types.Call {
	return m.NewCall(CallSetBalance, func(e *types.Encoder) {
		who.Encode(e)
		e.Uint64(free)
	})
}

// ForceTransfer builds a force_transfer call.
func (m *Module) ForceTransfer(source, dest types.Address, value types.Balance) types.Call {
	return m.NewCall(CallForceTransfer, func(e *types.Encoder) {
		source.Encode(e)
		dest.Encode(e)
		e.Uint64(value)
	})
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	switch tag {
	case CallTransfer:
		c := &transferCall{m: m}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) {
			c.dest = types.DecodeAddress(d)
			c.value = d.Uint64()
		})
	case CallSetBalance:
		c := &setBalanceCall{m: m}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) {
			c.who = types.DecodeAddress(d)
			c.free = d.Uint64()
		})
	case CallForceTransfer:
		c := &forceTransferCall{m: m}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) {
			c.source = types.DecodeAddress(d)
			c.dest = types.DecodeAddress(d)
			c.value = d.Uint64()
		})
	default:
		return nil, registry.UnknownCall(m.Name(), tag)
	}
}

type transferCall struct {
	m     *Module
	dest  types.Address
	value types.Balance
}

func (c *transferCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: transferWeight, Class: types.DispatchNormal, PaysFee: true}
}

func (c *transferCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	from, err := types.EnsureSigned(origin)
	if err != nil {
		return err
	}
	to, err := c.m.lookup.Lookup(ctx.Store, c.dest)
	if err != nil {
		return err
	}
	return c.m.transfer(ctx, from, to, c.value)
}

type setBalanceCall struct {
	m    *Module
	who  types.Address
	free types.Balance
}

func (c *setBalanceCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: setBalanceWeight, Class: types.DispatchOperational, PaysFee: true}
}

func (c *setBalanceCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureRoot(origin); err != nil {
		return err
	}
	who, err := c.m.lookup.Lookup(ctx.Store, c.who)
	if err != nil {
		return err
	}
	return c.m.setBalance(ctx, who, c.free)
}

type forceTransferCall struct {
	m      *Module
	source types.Address
	dest   types.Address
	value  types.Balance
}

func (c *forceTransferCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: transferWeight, Class: types.DispatchOperational, PaysFee: true}
}

func (c *forceTransferCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureRoot(origin); err != nil {
		return err
	}
	from, err := c.m.lookup.Lookup(ctx.Store, c.source)
	if err != nil {
		return err
	}
	to, err := c.m.lookup.Lookup(ctx.Store, c.dest)
	if err != nil {
		return err
	}
	return c.m.transfer(ctx, from, to, c.value)
}

// transfer moves value from one account to another and burns the transfer
// fee, plus the creation fee when the destination is new. Every check runs
// before the first write.
func (m *Module) transfer(ctx *registry.Context, from, to types.AccountID, value types.Balance) error {
	fee := m.transferFee
	toExists := Exists(ctx.Store, to)
	if !toExists {
		if value < m.existentialDeposit {
			return ErrExistentialDeposit
		}
		var ok bool
		if fee, ok = tmmath.SafeAdd(fee, m.creationFee); !ok {
			return ErrOverflow
		}
	}

	debit := fee
	if from != to {
		var ok bool
		if debit, ok = tmmath.SafeAdd(value, fee); !ok {
			return ErrOverflow
		}
	}
	newFrom, ok := tmmath.SafeSub(FreeBalance(ctx.Store, from), debit)
	if !ok {
		return ErrInsufficientBalance
	}
	if newFrom < Locked(ctx.Store, from, ctx.Number) {
		return ErrLiquidityRestrictions
	}
	var newTo types.Balance
	if from != to {
		if newTo, ok = tmmath.SafeAdd(FreeBalance(ctx.Store, to), value); !ok {
			return ErrOverflow
		}
	}

	m.setFree(ctx, from, newFrom)
	if from != to {
		if toExists {
			storage.SetUint64(ctx.Store, freeKey(to), newTo)
		} else {
			m.create(ctx, to, newTo)
		}
	}
	m.reduceIssuance(ctx, fee)
	m.Emit(ctx, EventTransfer, "Transfer", Transfer{From: from, To: to, Value: value, Fee: fee})
	return nil
}

// setBalance forces the free balance of who. Values under the existential
// deposit reap the account.
func (m *Module) setBalance(ctx *registry.Context, who types.AccountID, free types.Balance) error {
	target := free
	if target < m.existentialDeposit {
		target = 0
	}
	old := FreeBalance(ctx.Store, who)
	issuance := tmmath.SaturatingSub(m.TotalIssuance(ctx.Store), old)
	issuance, ok := tmmath.SafeAdd(issuance, target)
	if !ok {
		return ErrOverflow
	}
	storage.SetUint64(ctx.Store, keyTotalIssuance, issuance)

	exists := Exists(ctx.Store, who)
	switch {
	case target == 0 && exists:
		ctx.Store.Delete(freeKey(who))
		ctx.Store.Delete(locksKey(who))
		m.Emit(ctx, EventReapedAccount, "ReapedAccount", ReapedAccount{Account: who, Dust: free})
	case target > 0 && !exists:
		m.create(ctx, who, target)
	case target > 0:
		storage.SetUint64(ctx.Store, freeKey(who), target)
	}
	m.Emit(ctx, EventBalanceSet, "BalanceSet", BalanceSet{Account: who, Free: target})
	return nil
}
