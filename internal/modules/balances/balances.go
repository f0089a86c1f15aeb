// Package balances implements the native currency: free balances, total
// issuance, the existential deposit and account reaping, transfer and
// creation fees and balance locks.
package balances

import (
	"fmt"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	tmmath "github.com/tendermint/executive/libs/math"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Balances"

// Event variants.
const (
	EventNewAccount uint8 = iota
	EventReapedAccount
	EventTransfer
	EventBalanceSet
)

// Errors, in declaration order.
var (
	ErrInsufficientBalance   = types.NewModuleError(ModuleName, 0, "balance too low to send value")
	ErrExistentialDeposit    = types.NewModuleError(ModuleName, 1, "value too low to create account")
	ErrLiquidityRestrictions = types.NewModuleError(ModuleName, 2, "account liquidity restrictions prevent withdrawal")
	ErrOverflow              = types.NewModuleError(ModuleName, 3, "balance overflow")
	ErrKeepAlive             = types.NewModuleError(ModuleName, 4, "payment would kill account")
)

// Event payloads.
type (
	NewAccount struct {
		Account types.AccountID `json:"account"`
		Balance types.Balance   `json:"balance,string"`
	}
	ReapedAccount struct {
		Account types.AccountID `json:"account"`
		Dust    types.Balance   `json:"dust,string"`
	}
	Transfer struct {
		From  types.AccountID `json:"from"`
		To    types.AccountID `json:"to"`
		Value types.Balance   `json:"value,string"`
		Fee   types.Balance   `json:"fee,string"`
	}
	BalanceSet struct {
		Account types.AccountID `json:"account"`
		Free    types.Balance   `json:"free,string"`
	}
)

// ExistenceRequirement tells Withdraw whether it may reap the account.
type ExistenceRequirement uint8

const (
	AllowDeath ExistenceRequirement = iota
	KeepAlive
)

// NewAccountHandler is told about every account the module creates.
type NewAccountHandler interface {
	OnNewAccount(ctx *registry.Context, who types.AccountID)
}

// Lookup resolves transfer destinations.
type Lookup interface {
	Lookup(r storage.Reader, addr types.Address) (types.AccountID, error)
}

var ns = storage.NewNamespace(ModuleName)

var keyTotalIssuance = ns.Key("TotalIssuance")

func freeKey(who types.AccountID) []byte { return ns.Key("FreeBalance", string(who[:])) }

// Module is the balances module.
type Module struct {
	registry.BaseModule

	existentialDeposit types.Balance
	transferFee        types.Balance
	creationFee        types.Balance

	lookup Lookup
	onNew  NewAccountHandler
}

var _ registry.Module = (*Module)(nil)

// New returns the balances module. onNew may be nil.
func New(cfg *config.RuntimeConfig, lookup Lookup, onNew NewAccountHandler) *Module {
	return &Module{
		BaseModule:         registry.NewBaseModule(ModuleName),
		existentialDeposit: cfg.ExistentialDeposit,
		transferFee:        cfg.TransferFee,
		creationFee:        cfg.CreationFee,
		lookup:             lookup,
		onNew:              onNew,
	}
}

func (m *Module) InitGenesis(ctx *registry.Context, genesis *types.GenesisDoc) error {
	var issuance types.Balance
	for _, acc := range genesis.Accounts {
		if acc.Balance < m.existentialDeposit {
			return fmt.Errorf("genesis balance of %v is below the existential deposit", acc.Account)
		}
		total, ok := tmmath.SafeAdd(issuance, acc.Balance)
		if !ok {
			return fmt.Errorf("genesis total issuance overflows")
		}
		issuance = total
		m.create(ctx, acc.Account, acc.Balance)
	}
	storage.SetUint64(ctx.Store, keyTotalIssuance, issuance)
	return nil
}

// ExistentialDeposit is the minimum balance of an existing account.
func (m *Module) ExistentialDeposit() types.Balance { return m.existentialDeposit }

// FreeBalance returns the balance of who; zero for accounts that don't
// exist.
func FreeBalance(r storage.Reader, who types.AccountID) types.Balance {
	return storage.GetUint64(r, freeKey(who))
}

// Exists reports whether who holds at least the existential deposit.
func Exists(r storage.Reader, who types.AccountID) bool {
	return r.Has(freeKey(who))
}

// TotalIssuance returns the sum of all balances.
func (m *Module) TotalIssuance(r storage.Reader) types.Balance {
	return storage.GetUint64(r, keyTotalIssuance)
}

// UsableBalance is the part of the free balance not held by a lock.
func UsableBalance(r storage.Reader, who types.AccountID, now types.BlockNumber) types.Balance {
	return tmmath.SaturatingSub(FreeBalance(r, who), Locked(r, who, now))
}

// Withdraw removes amount from who and returns it as an imbalance the
// caller must resolve.
func (m *Module) Withdraw(
	ctx *registry.Context,
	who types.AccountID,
	amount types.Balance,
	req ExistenceRequirement,
) (*types.NegativeImbalance, error) {
	free := FreeBalance(ctx.Store, who)
	remaining, ok := tmmath.SafeSub(free, amount)
	if !ok {
		return nil, ErrInsufficientBalance
	}
	if req == KeepAlive && remaining < m.existentialDeposit {
		return nil, ErrKeepAlive
	}
	if remaining < Locked(ctx.Store, who, ctx.Number) {
		return nil, ErrLiquidityRestrictions
	}
	m.setFree(ctx, who, remaining)
	return types.NewNegativeImbalance(amount), nil
}

// ResolveCreating credits imb to who, creating the account if needed. A
// credit too small to create the account is burned.
func (m *Module) ResolveCreating(ctx *registry.Context, who types.AccountID, imb *types.NegativeImbalance) {
	amount := imb.Take()
	if amount == 0 {
		return
	}
	if !Exists(ctx.Store, who) {
		if amount < m.existentialDeposit {
			m.reduceIssuance(ctx, amount)
			return
		}
		m.create(ctx, who, amount)
		return
	}
	free, ok := tmmath.SafeAdd(FreeBalance(ctx.Store, who), amount)
	if !ok {
		// unreachable while balances sum to the total issuance
		panic(fmt.Sprintf("balance of %v overflows", who))
	}
	storage.SetUint64(ctx.Store, freeKey(who), free)
}

// Burn destroys imb, reducing the total issuance.
func (m *Module) Burn(ctx *registry.Context, imb *types.NegativeImbalance) {
	m.reduceIssuance(ctx, imb.Take())
}

func (m *Module) reduceIssuance(ctx *registry.Context, amount types.Balance) {
	issuance := m.TotalIssuance(ctx.Store)
	storage.SetUint64(ctx.Store, keyTotalIssuance, tmmath.SaturatingSub(issuance, amount))
}

func (m *Module) create(ctx *registry.Context, who types.AccountID, balance types.Balance) {
	storage.SetUint64(ctx.Store, freeKey(who), balance)
	m.Emit(ctx, EventNewAccount, "NewAccount", NewAccount{Account: who, Balance: balance})
	if m.onNew != nil {
		m.onNew.OnNewAccount(ctx, who)
	}
}

// setFree writes the balance of an existing account, reaping it when the
// balance falls under the existential deposit. The dust is burned.
func (m *Module) setFree(ctx *registry.Context, who types.AccountID, balance types.Balance) {
	if balance >= m.existentialDeposit {
		storage.SetUint64(ctx.Store, freeKey(who), balance)
		return
	}
	ctx.Store.Delete(freeKey(who))
	ctx.Store.Delete(locksKey(who))
	m.reduceIssuance(ctx, balance)
	m.Emit(ctx, EventReapedAccount, "ReapedAccount", ReapedAccount{Account: who, Dust: balance})
}
