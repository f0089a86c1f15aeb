// Package staking locks balances as stake, tracks eras and releases
// unbonded stake after the bonding duration. Stake is converted into
// bounded vote weights for elections.
package staking

import (
	"context"
	"fmt"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/currency"
	"github.com/tendermint/executive/internal/modules/balances"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Staking"

// MaxUnlockingChunks bounds the pending unbonds of one account.
const MaxUnlockingChunks = 32

// LockID is the balance lock held on bonded funds.
var LockID = balances.LockID{'s', 't', 'a', 'k', 'i', 'n', 'g', ' '}

// Event variants.
const (
	EventBonded uint8 = iota
	EventUnbonded
	EventWithdrawn
	EventNewEra
)

// Errors, in declaration order.
var (
	ErrAlreadyBonded     = types.NewModuleError(ModuleName, 0, "account is already bonded")
	ErrNotBonded         = types.NewModuleError(ModuleName, 1, "account is not bonded")
	ErrInsufficientValue = types.NewModuleError(ModuleName, 2, "can not bond with value less than the existential deposit")
	ErrNoMoreChunks      = types.NewModuleError(ModuleName, 3, "can not schedule more unlock chunks")
)

// Amount is the payload of the Bonded, Unbonded and Withdrawn events.
type Amount struct {
	Account types.AccountID `json:"account"`
	Value   types.Balance   `json:"value,string"`
}

// UnlockChunk is stake that becomes free in Era.
type UnlockChunk struct {
	Value types.Balance `json:"value,string"`
	Era   uint64        `json:"era"`
}

// Ledger is the stake of one account. Total is the locked amount: the
// active stake plus every pending unlock chunk.
type Ledger struct {
	Total     types.Balance `json:"total,string"`
	Active    types.Balance `json:"active,string"`
	Unlocking []UnlockChunk `json:"unlocking"`
}

// Withdrawable sums the chunks unlocked at era.
func (l Ledger) Withdrawable(era uint64) types.Balance {
	var sum types.Balance
	for _, c := range l.Unlocking {
		if c.Era <= era {
			sum += c.Value
		}
	}
	return sum
}

var ns = storage.NewNamespace(ModuleName)

var keyCurrentEra = ns.Key("CurrentEra")

func ledgerKey(who types.AccountID) []byte { return ns.Key("Ledger", string(who[:])) }

// Module is the staking module.
type Module struct {
	registry.BaseModule

	existentialDeposit types.Balance
	eraLength          types.BlockNumber
	bondingDuration    uint64
	bondingBlocks      uint64

	converter currency.Converter
}

var (
	_ registry.Module         = (*Module)(nil)
	_ registry.OffchainWorker = (*Module)(nil)
)

// New returns the staking module. Vote weights are narrowed with conv.
func New(cfg *config.RuntimeConfig, conv currency.Converter) *Module {
	return &Module{
		BaseModule:         registry.NewBaseModule(ModuleName),
		existentialDeposit: cfg.ExistentialDeposit,
		eraLength:          cfg.SessionPeriod * cfg.SessionsPerEra,
		bondingDuration:    cfg.BondingDuration,
		bondingBlocks:      cfg.BondingBlocks(),
		converter:          conv,
	}
}

// CurrentEra returns the index of the current era.
func CurrentEra(r storage.Reader) uint64 {
	return storage.GetUint64(r, keyCurrentEra)
}

// LedgerOf returns the stake of who.
func LedgerOf(r storage.Reader, who types.AccountID) (Ledger, bool) {
	var l Ledger
	ok := storage.Decode(r, ledgerKey(who), func(d *types.Decoder) {
		l.Total = d.Uint64()
		l.Active = d.Uint64()
		n := d.Uint32()
		if n > MaxUnlockingChunks {
			d.Failf("%d unlocking chunks", n)
			return
		}
		for i := uint32(0); i < n && d.Err() == nil; i++ {
			l.Unlocking = append(l.Unlocking, UnlockChunk{Value: d.Uint64(), Era: d.Uint64()})
		}
	})
	return l, ok
}

// VoteWeight is the active stake of who narrowed into a vote weight
// against the current total issuance.
func (m *Module) VoteWeight(r storage.Reader, who types.AccountID) types.VoteWeight {
	l, ok := LedgerOf(r, who)
	if !ok {
		return 0
	}
	return m.converter.ToVote(r, l.Active)
}

// OnFinalize starts a new era every SessionPeriod * SessionsPerEra blocks.
func (m *Module) OnFinalize(ctx *registry.Context, number types.BlockNumber) error {
	if m.eraLength == 0 || number%m.eraLength != 0 {
		return nil
	}
	era := CurrentEra(ctx.Store) + 1
	storage.SetUint64(ctx.Store, keyCurrentEra, era)
	m.Emit(ctx, EventNewEra, "NewEra", era)
	ctx.Logger.Info("new staking era", "era", era, "height", number)
	return nil
}

// OffchainWorker submits withdraw_unbonded for the local account once some
// of its stake has unlocked.
func (m *Module) OffchainWorker(ctx context.Context, oc *registry.OffchainContext) error {
	l, ok := LedgerOf(oc.State, oc.Local)
	if !ok || l.Withdrawable(CurrentEra(oc.State)) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := oc.Submit(m.WithdrawUnbonded()); err != nil {
		return fmt.Errorf("submit withdraw_unbonded: %w", err)
	}
	return nil
}

func (m *Module) setLedger(ctx *registry.Context, who types.AccountID, l Ledger) {
	if l.Total == 0 {
		ctx.Store.Delete(ledgerKey(who))
		balances.RemoveLock(ctx.Store, who, LockID)
		return
	}
	storage.Encode(ctx.Store, ledgerKey(who), func(e *types.Encoder) {
		e.Uint64(l.Total).Uint64(l.Active).Uint32(uint32(len(l.Unlocking)))
		for _, c := range l.Unlocking {
			e.Uint64(c.Value).Uint64(c.Era)
		}
	})
	balances.SetLock(ctx.Store, who, balances.Lock{ID: LockID, Amount: l.Total})
}
