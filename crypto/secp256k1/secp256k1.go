package secp256k1

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	secp256k1 "github.com/btcsuite/btcd/btcec"

	"github.com/tendermint/executive/crypto"
)

//-------------------------------------
const (
	PrivKeyName = "executive/PrivKeySecp256k1"
	PubKeyName  = "executive/PubKeySecp256k1"

	KeyType     = "secp256k1"
	PrivKeySize = 32
	// PubKeySize is comprised of 32 bytes for one field element
	// (the x-coordinate), plus one byte for the parity of the y-coordinate.
	PubKeySize = 33
	// SignatureSize is a recoverable signature: one header byte carrying the
	// recovery id followed by R and S.
	SignatureSize = 65
)

var (
	// ErrInvalidSignature is returned when a signature cannot be parsed or
	// does not recover to a valid public key.
	ErrInvalidSignature = errors.New("invalid secp256k1 signature")

	// used to reject malleable signatures
	// see:
	//  - https://github.com/ethereum/go-ethereum/blob/f9401ae011ddf7f8d2d95020b7446c17f8d98dc1/crypto/signature_nocgo.go#L90-L93
	//  - https://github.com/ethereum/go-ethereum/blob/f9401ae011ddf7f8d2d95020b7446c17f8d98dc1/crypto/crypto.go#L39
	secp256k1halfN = new(big.Int).Rsh(secp256k1.S256().N, 1)
)

var _ crypto.PrivKey = PrivKey{}

// PrivKey implements PrivKey.
type PrivKey []byte

// Bytes returns the raw 32 byte scalar.
func (privKey PrivKey) Bytes() []byte {
	return []byte(privKey)
}

// PubKey performs the point-scalar multiplication from the privKey on the
// generator point to get the pubkey.
func (privKey PrivKey) PubKey() crypto.PubKey {
	_, pubkeyObject := secp256k1.PrivKeyFromBytes(secp256k1.S256(), privKey)

	pk := pubkeyObject.SerializeCompressed()

	return PubKey(pk)
}

// Equals - you probably don't need to use this.
// Runs in constant time based on length of the keys.
func (privKey PrivKey) Equals(other crypto.PrivKey) bool {
	if otherSecp, ok := other.(PrivKey); ok {
		return subtle.ConstantTimeCompare(privKey[:], otherSecp[:]) == 1
	}
	return false
}

func (privKey PrivKey) Type() string {
	return KeyType
}

// GenPrivKey generates a new ECDSA private key on curve secp256k1 private key.
func GenPrivKey() PrivKey {
	priv, err := secp256k1.NewPrivateKey(secp256k1.S256())
	if err != nil {
		panic(err)
	}
	return PrivKey(priv.Serialize())
}

// GenPrivKeySecp256k1 hashes the secret with blake2b-256, and uses
// that 32 byte output to create the private key. The hash is reduced into
// the curve order so every secret yields a valid key.
//
// NOTE: secret should be the output of a KDF like bcrypt,
// if it's derived from user input.
func GenPrivKeySecp256k1(secret []byte) PrivKey {
	one := new(big.Int).SetInt64(1)
	secHash := crypto.Checksum(secret)

	k := new(big.Int).SetBytes(secHash)
	n := new(big.Int).Sub(secp256k1.S256().N, one)
	k.Mod(k, n)
	k.Add(k, one)

	privKey32 := make([]byte, PrivKeySize)
	kb := k.Bytes()
	copy(privKey32[PrivKeySize-len(kb):], kb)
	return PrivKey(privKey32)
}

// Sign creates a recoverable ECDSA signature on curve Secp256k1 over the
// blake2b-256 digest of msg. The signature is always in lower-S form.
func (privKey PrivKey) Sign(msg []byte) ([]byte, error) {
	priv, _ := secp256k1.PrivKeyFromBytes(secp256k1.S256(), privKey)
	return secp256k1.SignCompact(secp256k1.S256(), priv, crypto.Checksum(msg), true)
}

//-------------------------------------

var _ crypto.PubKey = PubKey{}

// PubKey implements crypto.PubKey.
// It is the compressed form of the pubkey. The first byte depends is a 0x02 byte
// if the y-coordinate is the lexicographically largest of the two associated with
// the x-coordinate. Otherwise the first byte is a 0x03.
// This prefix is followed with the x-coordinate.
type PubKey []byte

// Address returns the blake2b-256 hash of the compressed public key.
func (pubKey PubKey) Address() crypto.Address {
	if len(pubKey) != PubKeySize {
		panic("length of pubkey is incorrect")
	}
	return crypto.AddressHash(pubKey)
}

// Bytes returns the compressed pubkey.
func (pubKey PubKey) Bytes() []byte {
	return []byte(pubKey)
}

func (pubKey PubKey) String() string {
	return fmt.Sprintf("PubKeySecp256k1{%X}", []byte(pubKey))
}

func (pubKey PubKey) Equals(other crypto.PubKey) bool {
	if otherSecp, ok := other.(PubKey); ok {
		return bytes.Equal(pubKey[:], otherSecp[:])
	}
	return false
}

func (pubKey PubKey) Type() string {
	return KeyType
}

// VerifySignature recovers the signer of sig and compares it to pubKey.
func (pubKey PubKey) VerifySignature(msg []byte, sig []byte) bool {
	recovered, err := RecoverPubKey(msg, sig)
	if err != nil {
		return false
	}
	return pubKey.Equals(recovered)
}

// RecoverPubKey returns the public key that produced sig over msg.
func RecoverPubKey(msg []byte, sig []byte) (PubKey, error) {
	if len(sig) != SignatureSize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSignature, SignatureSize, len(sig))
	}
	// Reject malleable signatures. libsecp256k1 does this check but btcec doesn't.
	s := new(big.Int).SetBytes(sig[33:])
	if s.Cmp(secp256k1halfN) > 0 {
		return nil, fmt.Errorf("%w: high S value", ErrInvalidSignature)
	}

	pub, _, err := secp256k1.RecoverCompact(secp256k1.S256(), sig, crypto.Checksum(msg))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return PubKey(pub.SerializeCompressed()), nil
}
