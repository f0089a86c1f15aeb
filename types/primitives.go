package types

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/tendermint/executive/crypto"
)

type (
	// Balance is an amount of the native currency in its smallest unit.
	Balance = uint64
	// Nonce is the per-account replay counter.
	Nonce = uint64
	// BlockNumber is the height of a block.
	BlockNumber = uint64
	// Moment is a unix timestamp in milliseconds.
	Moment = uint64
	// Weight is the abstract execution cost of a call.
	Weight = uint64
	// VoteWeight is the narrow type balances are scaled into for elections.
	VoteWeight = uint32
	// AccountIndex is the short form of an account assigned by the indices
	// module.
	AccountIndex = uint32
)

// Currency units.
const (
	Nano  Balance = 1
	Micro Balance = 1000 * Nano
	Milli Balance = 1000 * Micro
	Coin  Balance = 1000 * Milli
)

// AccountID identifies an account. For ed25519 keys it is the public key,
// for secp256k1 keys the blake2b-256 hash of the compressed public key.
type AccountID [32]byte

// AccountIDFromPubKey returns the account controlled by pk.
func AccountIDFromPubKey(pk crypto.PubKey) AccountID {
	var a AccountID
	copy(a[:], pk.Address())
	return a
}

// AccountIDFromBytes copies bz into an AccountID. bz must be 32 bytes long.
func AccountIDFromBytes(bz []byte) (AccountID, error) {
	var a AccountID
	if len(bz) != len(a) {
		return a, fmt.Errorf("account id must be %d bytes, got %d", len(a), len(bz))
	}
	copy(a[:], bz)
	return a, nil
}

func (a AccountID) Bytes() []byte { return a[:] }

func (a AccountID) IsZero() bool { return a == AccountID{} }

func (a AccountID) String() string { return "0x" + hex.EncodeToString(a[:]) }

func (a AccountID) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *AccountID) UnmarshalText(text []byte) error {
	bz, err := decodeHex(string(text))
	if err != nil {
		return err
	}
	id, err := AccountIDFromBytes(bz)
	if err != nil {
		return err
	}
	*a = id
	return nil
}

// Hash is a blake2b-256 digest.
type Hash [32]byte

// HashOf returns the blake2b-256 digest of bz.
func HashOf(bz []byte) Hash {
	var h Hash
	copy(h[:], crypto.Checksum(bz))
	return h
}

// HashFromBytes copies bz into a Hash. bz must be 32 bytes long.
func HashFromBytes(bz []byte) (Hash, error) {
	var h Hash
	if len(bz) != len(h) {
		return h, fmt.Errorf("hash must be %d bytes, got %d", len(h), len(bz))
	}
	copy(h[:], bz)
	return h, nil
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) IsZero() bool { return h == Hash{} }

func (h Hash) String() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

func (h *Hash) UnmarshalText(text []byte) error {
	bz, err := decodeHex(string(text))
	if err != nil {
		return err
	}
	v, err := HashFromBytes(bz)
	if err != nil {
		return err
	}
	*h = v
	return nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	bz, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return bz, nil
}
