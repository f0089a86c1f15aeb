package merkle

import (
	"github.com/tendermint/executive/crypto"
)

var (
	leafPrefix  = []byte{0}
	innerPrefix = []byte{1}
)

// returns crypto.Checksum(nil)
func emptyHash() []byte {
	return crypto.Checksum([]byte{})
}

// returns crypto.Checksum(0x00 || leaf)
func leafHash(leaf []byte) []byte {
	return crypto.ChecksumMany(leafPrefix, leaf)
}

// returns crypto.Checksum(0x01 || left || right)
func innerHash(left []byte, right []byte) []byte {
	return crypto.ChecksumMany(innerPrefix, left, right)
}
