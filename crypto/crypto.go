package crypto

import (
	"github.com/tendermint/executive/libs/bytes"
)

const (
	// HashSize is the size in bytes of a blake2b-256 digest.
	HashSize = 32

	// AddressSize is the size of an account address.
	AddressSize = 32
)

// An address is a []byte, but hex-encoded even in JSON.
// Use an alias so Unmarshal methods (with ptr receivers) are available too.
type Address = bytes.HexBytes

// AddressHash derives an account address from arbitrary public key bytes.
func AddressHash(bz []byte) Address {
	return Address(Checksum(bz))
}

type PubKey interface {
	Address() Address
	Bytes() []byte
	VerifySignature(msg []byte, sig []byte) bool
	Equals(PubKey) bool
	Type() string
}

type PrivKey interface {
	Bytes() []byte
	Sign(msg []byte) ([]byte, error)
	PubKey() PubKey
	Equals(PrivKey) bool
	Type() string
}
