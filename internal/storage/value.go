package storage

import (
	"fmt"

	"github.com/tendermint/executive/types"
)

// GetUint64 reads a varint value. Missing keys read as zero.
func GetUint64(r Reader, key []byte) uint64 {
	bz := r.Get(key)
	if bz == nil {
		return 0
	}
	d := types.NewDecoder(bz)
	v := d.Uint64()
	mustFinish(d, key)
	return v
}

// SetUint64 writes a varint value.
func SetUint64(kv KVStore, key []byte, v uint64) {
	kv.Set(key, types.NewEncoder().Uint64(v).Result())
}

// GetHash reads a hash value. Missing keys read as the zero hash.
func GetHash(r Reader, key []byte) types.Hash {
	bz := r.Get(key)
	if bz == nil {
		return types.Hash{}
	}
	h, err := types.HashFromBytes(bz)
	if err != nil {
		panic(fmt.Errorf("corrupt value at %x: %w", key, err))
	}
	return h
}

func SetHash(kv KVStore, key []byte, h types.Hash) {
	kv.Set(key, h.Bytes())
}

// GetAccount reads an account id. ok is false when the key is missing.
func GetAccount(r Reader, key []byte) (types.AccountID, bool) {
	bz := r.Get(key)
	if bz == nil {
		return types.AccountID{}, false
	}
	a, err := types.AccountIDFromBytes(bz)
	if err != nil {
		panic(fmt.Errorf("corrupt value at %x: %w", key, err))
	}
	return a, true
}

func SetAccount(kv KVStore, key []byte, a types.AccountID) {
	kv.Set(key, a.Bytes())
}

// Decode reads the value at key with fn. ok is false when the key is
// missing. A value that does not decode is treated as corruption.
func Decode(r Reader, key []byte, fn func(*types.Decoder)) bool {
	bz := r.Get(key)
	if bz == nil {
		return false
	}
	d := types.NewDecoder(bz)
	fn(d)
	mustFinish(d, key)
	return true
}

// Encode writes the value produced by fn at key.
func Encode(kv KVStore, key []byte, fn func(*types.Encoder)) {
	e := types.NewEncoder()
	fn(e)
	kv.Set(key, e.Result())
}

func mustFinish(d *types.Decoder, key []byte) {
	if err := d.Finish(); err != nil {
		panic(fmt.Errorf("corrupt value at %x: %w", key, err))
	}
}
