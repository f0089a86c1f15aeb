// Package indices assigns short account indices to new accounts and
// resolves addresses given either by index or by full account id.
package indices

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Indices"

// EventNewAccountIndex is deposited when an index is assigned.
const EventNewAccountIndex uint8 = 0

// ErrUnknownIndex is returned by Lookup for an index that was never
// assigned.
var ErrUnknownIndex = errors.New("unknown account index")

// NewAccountIndex is the payload of the NewAccountIndex event.
type NewAccountIndex struct {
	Account types.AccountID    `json:"account"`
	Index   types.AccountIndex `json:"index"`
}

var ns = storage.NewNamespace(ModuleName)

var keyNextIndex = ns.Key("NextIndex")

func indexKey(idx types.AccountIndex) []byte { return ns.Key("Accounts", uint64(idx)) }

func reverseKey(who types.AccountID) []byte { return ns.Key("IndexOf", string(who[:])) }

// Module is the indices module.
type Module struct {
	registry.BaseModule
}

var _ registry.Module = (*Module)(nil)

func New() *Module {
	return &Module{BaseModule: registry.NewBaseModule(ModuleName)}
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Events: []registry.EventMetadata{
			{Variant: EventNewAccountIndex, Name: "NewAccountIndex", Args: []string{"AccountId", "AccountIndex"}},
		},
		Storage: []registry.StorageMetadata{
			{Name: "NextIndex", Value: "AccountIndex"},
			{Name: "Accounts", Key: "AccountIndex", Value: "AccountId"},
			{Name: "IndexOf", Key: "AccountId", Value: "AccountIndex"},
		},
	}
}

func (m *Module) DecodeCall(tag uint8, _ []byte) (registry.Dispatchable, error) {
	return nil, registry.UnknownCall(m.Name(), tag)
}

// OnNewAccount assigns the next free index to who. Accounts that already
// hold an index keep it.
func (m *Module) OnNewAccount(ctx *registry.Context, who types.AccountID) {
	if _, ok := IndexOf(ctx.Store, who); ok {
		return
	}
	idx := types.AccountIndex(storage.GetUint64(ctx.Store, keyNextIndex))
	storage.SetAccount(ctx.Store, indexKey(idx), who)
	storage.SetUint64(ctx.Store, reverseKey(who), uint64(idx))
	storage.SetUint64(ctx.Store, keyNextIndex, uint64(idx)+1)
	m.Emit(ctx, EventNewAccountIndex, "NewAccountIndex", NewAccountIndex{Account: who, Index: idx})
}

// Lookup resolves addr to the account it refers to.
func (m *Module) Lookup(r storage.Reader, addr types.Address) (types.AccountID, error) {
	switch addr.Kind {
	case types.AddressID:
		return addr.ID, nil
	case types.AddressIndex:
		who, ok := storage.GetAccount(r, indexKey(addr.Index))
		if !ok {
			return types.AccountID{}, fmt.Errorf("%w: %d", ErrUnknownIndex, addr.Index)
		}
		return who, nil
	default:
		return types.AccountID{}, fmt.Errorf("unknown address kind %d", addr.Kind)
	}
}

// IndexOf returns the index assigned to who.
func IndexOf(r storage.Reader, who types.AccountID) (types.AccountIndex, bool) {
	key := reverseKey(who)
	if !r.Has(key) {
		return 0, false
	}
	return types.AccountIndex(storage.GetUint64(r, key)), true
}
