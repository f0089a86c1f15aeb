package types

import (
	"errors"
	"fmt"

	"github.com/tendermint/executive/crypto"
	"github.com/tendermint/executive/crypto/ed25519"
	"github.com/tendermint/executive/crypto/secp256k1"
)

// ErrBadSignature is returned when a signature does not verify against the
// claimed signer.
var ErrBadSignature = errors.New("bad signature")

// SignatureScheme selects the key type a Signature was produced with.
type SignatureScheme uint8

const (
	SchemeEd25519 SignatureScheme = iota
	SchemeSecp256k1
)

func (s SignatureScheme) String() string {
	switch s {
	case SchemeEd25519:
		return ed25519.KeyType
	case SchemeSecp256k1:
		return secp256k1.KeyType
	default:
		return fmt.Sprintf("SignatureScheme(%d)", uint8(s))
	}
}

// Signature is a scheme-tagged signature over an extrinsic signing payload.
type Signature struct {
	Scheme SignatureScheme `json:"scheme"`
	Bytes  []byte          `json:"bytes"`
}

// Sign signs msg with priv and tags the result with the key's scheme.
func Sign(priv crypto.PrivKey, msg []byte) (Signature, error) {
	var scheme SignatureScheme
	switch priv.(type) {
	case ed25519.PrivKey:
		scheme = SchemeEd25519
	case secp256k1.PrivKey:
		scheme = SchemeSecp256k1
	default:
		return Signature{}, fmt.Errorf("unsupported key type %s", priv.Type())
	}
	bz, err := priv.Sign(msg)
	if err != nil {
		return Signature{}, err
	}
	return Signature{Scheme: scheme, Bytes: bz}, nil
}

// Verify checks that the signature over msg was produced by the key
// controlling signer.
func (s Signature) Verify(msg []byte, signer AccountID) error {
	switch s.Scheme {
	case SchemeEd25519:
		if !ed25519.PubKey(signer[:]).VerifySignature(msg, s.Bytes) {
			return ErrBadSignature
		}
		return nil
	case SchemeSecp256k1:
		pub, err := secp256k1.RecoverPubKey(msg, s.Bytes)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrBadSignature, err)
		}
		if AccountIDFromPubKey(pub) != signer {
			return ErrBadSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown scheme %d", ErrBadSignature, s.Scheme)
	}
}

func (s Signature) Encode(e *Encoder) {
	e.Uint8(uint8(s.Scheme)).Bytes(s.Bytes)
}

func DecodeSignature(d *Decoder) Signature {
	s := Signature{Scheme: SignatureScheme(d.Uint8())}
	s.Bytes = d.Bytes()
	switch s.Scheme {
	case SchemeEd25519:
		if d.Err() == nil && len(s.Bytes) != ed25519.SignatureSize {
			d.Failf("ed25519 signature must be %d bytes", ed25519.SignatureSize)
		}
	case SchemeSecp256k1:
		if d.Err() == nil && len(s.Bytes) != secp256k1.SignatureSize {
			d.Failf("secp256k1 signature must be %d bytes", secp256k1.SignatureSize)
		}
	default:
		d.Failf("unknown signature scheme %d", s.Scheme)
	}
	return s
}
