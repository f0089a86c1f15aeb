package types

import (
	"fmt"

	"github.com/tendermint/executive/crypto"
)

const (
	// ExtrinsicVersion is the only extrinsic format version accepted.
	ExtrinsicVersion uint8 = 4

	signedBit   = 0x80
	versionMask = 0x7f

	// payloads longer than this are hashed before signing
	maxRawPayloadSize = 256
)

// ExtrinsicSignature is the part of a signed extrinsic that authenticates
// the sender.
type ExtrinsicSignature struct {
	Signer    Address   `json:"signer"`
	Signature Signature `json:"signature"`
	Era       Era       `json:"era"`
	Nonce     Nonce     `json:"nonce"`
}

// Extrinsic is a signed transaction or an unsigned inherent.
type Extrinsic struct {
	Signature *ExtrinsicSignature `json:"signature,omitempty"`
	Call      Call                `json:"call"`
}

// NewInherent wraps call as an unsigned extrinsic.
func NewInherent(call Call) Extrinsic {
	return Extrinsic{Call: call}
}

func (x Extrinsic) IsSigned() bool { return x.Signature != nil }

func (x Extrinsic) String() string {
	if x.IsSigned() {
		return fmt.Sprintf("Extrinsic{%v nonce=%d %v}", x.Signature.Signer, x.Signature.Nonce, x.Call)
	}
	return fmt.Sprintf("Extrinsic{unsigned %v}", x.Call)
}

// Bytes returns the wire encoding of the extrinsic.
func (x Extrinsic) Bytes() []byte {
	e := NewEncoder()
	version := ExtrinsicVersion
	if x.IsSigned() {
		version |= signedBit
	}
	e.Fixed([]byte{version})
	if x.IsSigned() {
		x.Signature.Signer.Encode(e)
		x.Signature.Signature.Encode(e)
		x.Signature.Era.Encode(e)
		e.Uint64(x.Signature.Nonce)
	}
	x.Call.Encode(e)
	return e.Result()
}

// Hash returns the blake2b-256 hash of the encoded extrinsic.
func (x Extrinsic) Hash() Hash { return HashOf(x.Bytes()) }

// DecodeExtrinsic decodes the wire form of an extrinsic. Any error wraps
// ErrMalformed.
func DecodeExtrinsic(bz []byte) (Extrinsic, error) {
	d := NewDecoder(bz)
	first := d.Fixed(1)
	if d.Err() != nil {
		return Extrinsic{}, d.Err()
	}
	if v := first[0] & versionMask; v != ExtrinsicVersion {
		return Extrinsic{}, fmt.Errorf("%w: unsupported extrinsic version %d", ErrMalformed, v)
	}

	var x Extrinsic
	if first[0]&signedBit != 0 {
		x.Signature = &ExtrinsicSignature{
			Signer:    DecodeAddress(d),
			Signature: DecodeSignature(d),
			Era:       DecodeEra(d),
			Nonce:     d.Uint64(),
		}
	}
	x.Call = DecodeCall(d)
	if err := d.Finish(); err != nil {
		return Extrinsic{}, err
	}
	return x, nil
}

// SigningPayload is the message a sender signs: the call, nonce, era and
// the hash of the block the era is checkpointed on (the genesis hash for
// immortal extrinsics).
func SigningPayload(call Call, nonce Nonce, era Era, checkpoint Hash) []byte {
	e := NewEncoder()
	call.Encode(e)
	e.Uint64(nonce)
	era.Encode(e)
	e.Hash(checkpoint)
	if e.Len() > maxRawPayloadSize {
		return crypto.Checksum(e.Result())
	}
	return e.Result()
}

// SignExtrinsic builds a signed extrinsic for call. The signer address is
// derived from priv.
func SignExtrinsic(priv crypto.PrivKey, call Call, nonce Nonce, era Era, checkpoint Hash) (Extrinsic, error) {
	sig, err := Sign(priv, SigningPayload(call, nonce, era, checkpoint))
	if err != nil {
		return Extrinsic{}, err
	}
	return Extrinsic{
		Signature: &ExtrinsicSignature{
			Signer:    AddressFromID(AccountIDFromPubKey(priv.PubKey())),
			Signature: sig,
			Era:       era,
			Nonce:     nonce,
		},
		Call: call,
	}, nil
}
