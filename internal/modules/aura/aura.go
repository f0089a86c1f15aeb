// Package aura implements slot-based block authoring: the authority set,
// the slot of the current block read from its pre-runtime digest and the
// check that the block timestamp falls into that slot.
package aura

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/modules/system"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "Aura"

var (
	ErrSlotNotIncreasing = errors.New("aura slot must increase")
	ErrSlotMismatch      = errors.New("timestamp slot must match the current slot")
	ErrNoAuthorities     = errors.New("aura has no authorities")
)

var ns = storage.NewNamespace(ModuleName)

var (
	keyAuthorities = ns.Key("Authorities")
	keyCurrentSlot = ns.Key("CurrentSlot")
)

// Module is the aura module.
type Module struct {
	registry.BaseModule

	slotDuration uint64
}

var _ registry.Module = (*Module)(nil)

// New returns the aura module.
func New(cfg *config.RuntimeConfig) *Module {
	return &Module{
		BaseModule:   registry.NewBaseModule(ModuleName),
		slotDuration: cfg.SlotDuration(),
	}
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Storage: []registry.StorageMetadata{
			{Name: "Authorities", Value: "Vec<AuthorityId>"},
			{Name: "CurrentSlot", Value: "u64"},
		},
		Constants: []registry.ConstantMetadata{
			{Name: "SlotDuration", Value: m.slotDuration},
		},
	}
}

func (m *Module) DecodeCall(tag uint8, _ []byte) (registry.Dispatchable, error) {
	return nil, registry.UnknownCall(m.Name(), tag)
}

func (m *Module) InitGenesis(ctx *registry.Context, genesis *types.GenesisDoc) error {
	if len(genesis.AuraAuthorities) == 0 {
		return ErrNoAuthorities
	}
	setAuthorities(ctx.Store, genesis.AuraAuthorities)
	return nil
}

// OnInitialize records the slot claimed by the block's pre-runtime digest.
func (m *Module) OnInitialize(ctx *registry.Context, _ types.BlockNumber) error {
	slot, ok := FindSlot(system.Digest(ctx.Store))
	if !ok {
		return nil
	}
	if current := CurrentSlot(ctx.Store); current != 0 && slot <= current {
		return fmt.Errorf("%w: %d after %d", ErrSlotNotIncreasing, slot, current)
	}
	storage.SetUint64(ctx.Store, keyCurrentSlot, slot)
	return nil
}

// OnTimestampSet checks the block timestamp falls into the claimed slot.
func (m *Module) OnTimestampSet(ctx *registry.Context, now types.Moment) error {
	if m.slotDuration == 0 {
		return nil
	}
	slot, ok := FindSlot(system.Digest(ctx.Store))
	if !ok {
		return nil
	}
	if tsSlot := now / m.slotDuration; tsSlot != slot {
		return fmt.Errorf("%w: timestamp slot %d, current slot %d", ErrSlotMismatch, tsSlot, slot)
	}
	return nil
}

// SlotDuration is the slot length in milliseconds.
func (m *Module) SlotDuration() uint64 { return m.slotDuration }

// Authorities returns the current authority set in order.
func Authorities(r storage.Reader) []types.AccountID {
	var out []types.AccountID
	storage.Decode(r, keyAuthorities, func(d *types.Decoder) {
		n := d.Uint32()
		for i := uint32(0); i < n && d.Err() == nil; i++ {
			out = append(out, d.Account())
		}
	})
	return out
}

func setAuthorities(kv storage.KVStore, auths []types.AccountID) {
	storage.Encode(kv, keyAuthorities, func(e *types.Encoder) {
		e.Uint32(uint32(len(auths)))
		for _, a := range auths {
			e.Account(a)
		}
	})
}

// CurrentSlot is the slot of the most recent block that claimed one.
func CurrentSlot(r storage.Reader) uint64 {
	return storage.GetUint64(r, keyCurrentSlot)
}

// Author returns the authority owning the slot claimed by the current
// block's digest.
func (m *Module) Author(r storage.Reader) (types.AccountID, bool) {
	slot, ok := FindSlot(system.Digest(r))
	if !ok {
		return types.AccountID{}, false
	}
	auths := Authorities(r)
	if len(auths) == 0 {
		return types.AccountID{}, false
	}
	return auths[slot%uint64(len(auths))], true
}

// PreDigest is the pre-runtime digest item claiming slot.
func PreDigest(slot uint64) types.DigestItem {
	return types.DigestItem{
		Kind:   types.DigestPreRuntime,
		Engine: types.AuraEngineID,
		Data:   types.NewEncoder().Uint64(slot).Result(),
	}
}

// FindSlot returns the slot claimed in dg.
func FindSlot(dg types.Digest) (uint64, bool) {
	item, ok := dg.Find(types.DigestPreRuntime, types.AuraEngineID)
	if !ok {
		return 0, false
	}
	d := types.NewDecoder(item.Data)
	slot := d.Uint64()
	if d.Finish() != nil {
		return 0, false
	}
	return slot, true
}
