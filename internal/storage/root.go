package storage

import (
	"github.com/tendermint/executive/crypto/merkle"
	"github.com/tendermint/executive/types"
)

// Root computes the state root of r: the merkle root over every key value
// pair in key order.
func Root(r Reader) types.Hash {
	var leaves [][]byte
	r.Iterate(nil, func(key, value []byte) bool {
		leaves = append(leaves, types.NewEncoder().Bytes(key).Bytes(value).Result())
		return true
	})
	var h types.Hash
	copy(h[:], merkle.HashFromByteSlices(leaves))
	return h
}
