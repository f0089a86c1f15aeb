// Package system implements the core bookkeeping module: block number and
// hashes, account nonces, per-block extrinsic accounting, the header digest
// under construction and the random seed.
package system

import (
	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/registry"
	"github.com/tendermint/executive/internal/storage"
	"github.com/tendermint/executive/types"
)

// ModuleName is the registered name of the module.
const ModuleName = "System"

// number of recent block hashes mixed into the random seed
const randomMaterialLen = 81

// Event variants.
const (
	EventExtrinsicSuccess uint8 = iota
	EventExtrinsicFailed
)

// ExtrinsicFailed is the payload of the ExtrinsicFailed event.
type ExtrinsicFailed struct {
	Error *types.DispatchError `json:"error"`
	Info  types.DispatchInfo   `json:"info"`
}

var ns = storage.NewNamespace(ModuleName)

var (
	keyBlockNumber = ns.Key("Number")
	keyParentHash  = ns.Key("ParentHash")
	keyDigest      = ns.Key("Digest")
	keyExtCount    = ns.Key("ExtrinsicCount")
	keyExtWeight   = ns.Key("AllExtrinsicsWeight")
	keyExtLen      = ns.Key("AllExtrinsicsLen")
)

func nonceKey(who types.AccountID) []byte { return ns.Key("AccountNonce", string(who[:])) }

func blockHashKey(n types.BlockNumber) []byte { return ns.Key("BlockHash", n) }

// Module is the system module.
type Module struct {
	registry.BaseModule

	blockHashCount uint64
}

var _ registry.Module = (*Module)(nil)

// New returns the system module.
func New(cfg *config.RuntimeConfig) *Module {
	return &Module{
		BaseModule:     registry.NewBaseModule(ModuleName),
		blockHashCount: cfg.BlockHashCount,
	}
}

// InitGenesis records the genesis hash as the hash of block zero.
func (m *Module) InitGenesis(ctx *registry.Context, genesis *types.GenesisDoc) error {
	storage.SetHash(ctx.Store, blockHashKey(0), genesis.Hash())
	storage.SetUint64(ctx.Store, keyBlockNumber, 0)
	return nil
}

// Initialize starts a new block. It is called by the executive before any
// module hook runs.
func (m *Module) Initialize(kv storage.KVStore, header types.Header) {
	storage.SetUint64(kv, keyBlockNumber, header.Number)
	storage.SetHash(kv, keyParentHash, header.ParentHash)
	storage.SetHash(kv, blockHashKey(header.Number-1), header.ParentHash)
	setDigest(kv, header.Digest)

	kv.Delete(keyExtCount)
	kv.Delete(keyExtWeight)
	kv.Delete(keyExtLen)

	// prune the hash ring; the genesis hash is kept as the checkpoint of
	// immortal transactions
	if parent := header.Number - 1; parent > m.blockHashCount {
		kv.Delete(blockHashKey(parent - m.blockHashCount))
	}
}

// Finalize clears the per-block items and returns the header fields owned
// by the system module. The state root and extrinsics root are left to the
// caller.
func (m *Module) Finalize(kv storage.KVStore) types.Header {
	header := types.Header{
		Number:     BlockNumber(kv),
		ParentHash: storage.GetHash(kv, keyParentHash),
		Digest:     Digest(kv),
	}
	kv.Delete(keyDigest)
	kv.Delete(keyExtCount)
	kv.Delete(keyExtWeight)
	kv.Delete(keyExtLen)
	return header
}

// BlockNumber returns the number of the block being built, or of the last
// finalized block between blocks.
func BlockNumber(r storage.Reader) types.BlockNumber {
	return storage.GetUint64(r, keyBlockNumber)
}

// ParentHash returns the parent hash of the block being built.
func ParentHash(r storage.Reader) types.Hash {
	return storage.GetHash(r, keyParentHash)
}

// BlockHash returns the hash of block n if it is still in the ring.
func BlockHash(r storage.Reader, n types.BlockNumber) (types.Hash, bool) {
	key := blockHashKey(n)
	if !r.Has(key) {
		return types.Hash{}, false
	}
	return storage.GetHash(r, key), true
}

// GenesisHash returns the hash of block zero.
func GenesisHash(r storage.Reader) types.Hash {
	return storage.GetHash(r, blockHashKey(0))
}

// AccountNonce returns the next nonce expected from who.
func AccountNonce(r storage.Reader, who types.AccountID) types.Nonce {
	return storage.GetUint64(r, nonceKey(who))
}

// IncAccountNonce advances the nonce of who by one.
func IncAccountNonce(kv storage.KVStore, who types.AccountID) {
	storage.SetUint64(kv, nonceKey(who), AccountNonce(kv, who)+1)
}

// Digest returns the digest of the block being built.
func Digest(r storage.Reader) types.Digest {
	var dg types.Digest
	storage.Decode(r, keyDigest, func(d *types.Decoder) {
		h := types.DecodeHeader(d)
		dg = h.Digest
	})
	return dg
}

// DepositLog appends a log entry to the digest of the block being built.
func DepositLog(kv storage.KVStore, item types.DigestItem) {
	dg := Digest(kv)
	dg.Push(item)
	setDigest(kv, dg)
}

// digests are stored wrapped in an otherwise empty header
func setDigest(kv storage.KVStore, dg types.Digest) {
	kv.Set(keyDigest, types.Header{Digest: dg}.Bytes())
}

// ExtrinsicCount returns the number of extrinsics noted in this block.
func ExtrinsicCount(r storage.Reader) uint32 {
	return uint32(storage.GetUint64(r, keyExtCount))
}

// AllExtrinsicsWeight returns the weight used by this block so far.
func AllExtrinsicsWeight(r storage.Reader) types.Weight {
	return storage.GetUint64(r, keyExtWeight)
}

// AllExtrinsicsLen returns the encoded length of this block's extrinsics.
func AllExtrinsicsLen(r storage.Reader) uint64 {
	return storage.GetUint64(r, keyExtLen)
}

// NoteExtrinsic accounts an included extrinsic against the block limits.
func NoteExtrinsic(kv storage.KVStore, weight types.Weight, length uint64) {
	storage.SetUint64(kv, keyExtCount, uint64(ExtrinsicCount(kv))+1)
	storage.SetUint64(kv, keyExtWeight, AllExtrinsicsWeight(kv)+weight)
	storage.SetUint64(kv, keyExtLen, AllExtrinsicsLen(kv)+length)
}

// NoteApplied deposits the outcome event of an included extrinsic.
func (m *Module) NoteApplied(ctx *registry.Context, res types.ApplyResult) {
	if res.Err != nil {
		m.Emit(ctx, EventExtrinsicFailed, "ExtrinsicFailed", ExtrinsicFailed{Error: res.Err, Info: res.Info})
		return
	}
	m.Emit(ctx, EventExtrinsicSuccess, "ExtrinsicSuccess", res.Info)
}

// RandomSeed mixes the most recent block hashes into a seed. It is
// predictable by block authors and must not be used where that matters.
func RandomSeed(r storage.Reader) types.Hash {
	number := BlockNumber(r)
	e := types.NewEncoder()
	for i := uint64(1); i <= randomMaterialLen && i <= number; i++ {
		if h, ok := BlockHash(r, number-i); ok {
			e.Hash(h)
		}
	}
	e.Uint64(number)
	return types.HashOf(e.Result())
}
