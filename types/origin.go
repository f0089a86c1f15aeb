package types

import (
	"fmt"
)

// OriginKind enumerates the capabilities a call can be dispatched with.
type OriginKind uint8

const (
	// OriginNone is used for inherents and unsigned extrinsics.
	OriginNone OriginKind = iota
	// OriginRoot is the privileged origin, only reachable through sudo or
	// genesis.
	OriginRoot
	// OriginSigned carries the account that signed the extrinsic.
	OriginSigned
)

func (k OriginKind) String() string {
	switch k {
	case OriginNone:
		return "None"
	case OriginRoot:
		return "Root"
	case OriginSigned:
		return "Signed"
	default:
		return fmt.Sprintf("OriginKind(%d)", uint8(k))
	}
}

// Origin describes the caller of a dispatched call.
type Origin struct {
	Kind    OriginKind
	Account AccountID
}

func SignedOrigin(who AccountID) Origin { return Origin{Kind: OriginSigned, Account: who} }

func RootOrigin() Origin { return Origin{Kind: OriginRoot} }

func NoneOrigin() Origin { return Origin{Kind: OriginNone} }

func (o Origin) String() string {
	if o.Kind == OriginSigned {
		return fmt.Sprintf("Signed(%s)", o.Account)
	}
	return o.Kind.String()
}

// EnsureSigned returns the signing account or ErrBadOrigin.
func EnsureSigned(o Origin) (AccountID, error) {
	if o.Kind != OriginSigned {
		return AccountID{}, fmt.Errorf("%w: expected signed, got %s", ErrBadOrigin, o.Kind)
	}
	return o.Account, nil
}

// EnsureRoot returns ErrBadOrigin unless o is the root origin.
func EnsureRoot(o Origin) error {
	if o.Kind != OriginRoot {
		return fmt.Errorf("%w: expected root, got %s", ErrBadOrigin, o.Kind)
	}
	return nil
}

// EnsureNone returns ErrBadOrigin unless o is the none origin.
func EnsureNone(o Origin) error {
	if o.Kind != OriginNone {
		return fmt.Errorf("%w: expected none, got %s", ErrBadOrigin, o.Kind)
	}
	return nil
}
