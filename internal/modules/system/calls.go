package system

import (
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/types"
)

// Call tags.
const (
	CallRemark uint8 = iota
	CallSetStorage
	CallKillStorage
)

const (
	remarkWeight  types.Weight = 10000
	storageWeight types.Weight = 10000
)

// KeyValue is a raw storage item written by set_storage.
type KeyValue struct {
	Key   []byte
	Value []byte
}

func (m *Module) Metadata() registry.ModuleMetadata {
	return registry.ModuleMetadata{
		Calls: []registry.CallMetadata{
			{Tag: CallRemark, Name: "remark", Args: []registry.ArgMetadata{registry.Arg("remark", "Vec<u8>")}},
			{Tag: CallSetStorage, Name: "set_storage", Args: []registry.ArgMetadata{registry.Arg("items", "Vec<KeyValue>")}},
			{Tag: CallKillStorage, Name: "kill_storage", Args: []registry.ArgMetadata{registry.Arg("keys", "Vec<Key>")}},
		},
		Events: []registry.EventMetadata{
			{Variant: EventExtrinsicSuccess, Name: "ExtrinsicSuccess", Args: []string{"DispatchInfo"}},
			{Variant: EventExtrinsicFailed, Name: "ExtrinsicFailed", Args: []string{"DispatchError", "DispatchInfo"}},
		},
		Storage: []registry.StorageMetadata{
			{Name: "AccountNonce", Key: "AccountId", Value: "Nonce"},
			{Name: "BlockHash", Key: "BlockNumber", Value: "Hash"},
			{Name: "Number", Value: "BlockNumber"},
			{Name: "ParentHash", Value: "Hash"},
			{Name: "ExtrinsicCount", Value: "u32"},
			{Name: "AllExtrinsicsWeight", Value: "Weight"},
			{Name: "AllExtrinsicsLen", Value: "u32"},
			{Name: "Digest", Value: "Digest"},
		},
		Constants: []registry.ConstantMetadata{
			{Name: "BlockHashCount", Value: m.blockHashCount},
		},
	}
}

// Remark builds a remark call.
func (m *Module) Remark(data []byte) types.Call {
	return m.NewCall(CallRemark, func(e *types.Encoder) { e.Bytes(data) })
}

// SetStorage builds a set_storage call.
func (m *Module) SetStorage(items []KeyValue) types.Call {
	return m.NewCall(CallSetStorage, func(e *types.Encoder) {
		e.Uint64(uint64(len(items)))
		for _, it := range items {
			e.Bytes(it.Key).Bytes(it.Value)
		}
	})
}

// KillStorage builds a kill_storage call.
func (m *Module) KillStorage(keys [][]byte) types.Call {
	return m.NewCall(CallKillStorage, func(e *types.Encoder) {
		e.Uint64(uint64(len(keys)))
		for _, k := range keys {
			e.Bytes(k)
		}
	})
}

func (m *Module) DecodeCall(tag uint8, args []byte) (registry.Dispatchable, error) {
	switch tag {
	case CallRemark:
		c := &remarkCall{}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) { c.data = d.Bytes() })
	case CallSetStorage:
		c := &setStorageCall{}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) {
			n := decodeLen(d)
			for i := uint64(0); i < n && d.Err() == nil; i++ {
				c.items = append(c.items, KeyValue{Key: d.Bytes(), Value: d.Bytes()})
			}
		})
	case CallKillStorage:
		c := &killStorageCall{}
		return c, registry.DecodeArgs(args, func(d *types.Decoder) {
			n := decodeLen(d)
			for i := uint64(0); i < n && d.Err() == nil; i++ {
				c.keys = append(c.keys, d.Bytes())
			}
		})
	default:
		return nil, registry.UnknownCall(m.Name(), tag)
	}
}

// decodeLen reads a collection length, which can't exceed the remaining
// input since every element takes at least one byte.
func decodeLen(d *types.Decoder) uint64 {
	n := d.Uint64()
	if n > uint64(d.Remaining()) {
		d.Failf("collection length %d exceeds input", n)
		return 0
	}
	return n
}

type remarkCall struct {
	data []byte
}

func (c *remarkCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: remarkWeight, Class: types.DispatchNormal, PaysFee: true}
}

func (c *remarkCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	_, err := types.EnsureSigned(origin)
	return err
}

type setStorageCall struct {
	items []KeyValue
}

func (c *setStorageCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: storageWeight, Class: types.DispatchOperational, PaysFee: true}
}

func (c *setStorageCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureRoot(origin); err != nil {
		return err
	}
	for _, it := range c.items {
		ctx.Store.Set(it.Key, it.Value)
	}
	return nil
}

type killStorageCall struct {
	keys [][]byte
}

func (c *killStorageCall) Info() types.DispatchInfo {
	return types.DispatchInfo{Weight: storageWeight, Class: types.DispatchOperational, PaysFee: true}
}

func (c *killStorageCall) Dispatch(ctx *registry.Context, origin types.Origin) error {
	if err := types.EnsureRoot(origin); err != nil {
		return err
	}
	for _, k := range c.keys {
		ctx.Store.Delete(k)
	}
	return nil
}
