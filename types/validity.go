package types

import (
	"fmt"
)

// TransactionTag is an opaque marker a transaction provides or requires.
// The pool orders transactions so requirements are met before inclusion.
type TransactionTag []byte

// NonceTag returns the tag a transaction from who with nonce provides.
func NonceTag(who AccountID, nonce Nonce) TransactionTag {
	e := NewEncoder()
	e.Account(who).Uint64(nonce)
	return e.Result()
}

// ValidTransaction describes how the pool should treat a valid transaction.
type ValidTransaction struct {
	Priority  uint64           `json:"priority"`
	Requires  []TransactionTag `json:"requires"`
	Provides  []TransactionTag `json:"provides"`
	Longevity uint64           `json:"longevity"`
	Propagate bool             `json:"propagate"`
}

// ValidityKind is the verdict of a validity check.
type ValidityKind uint8

const (
	ValidityValid ValidityKind = iota
	ValidityInvalid
	ValidityUnknown
)

func (k ValidityKind) String() string {
	switch k {
	case ValidityValid:
		return "Valid"
	case ValidityInvalid:
		return "Invalid"
	case ValidityUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("ValidityKind(%d)", uint8(k))
	}
}

// TransactionValidity is the answer to a pool admission query. Invalid
// transactions will never become valid; Unknown ones might, e.g. once an
// address index is assigned.
type TransactionValidity struct {
	Kind   ValidityKind      `json:"kind"`
	Valid  *ValidTransaction `json:"valid,omitempty"`
	Reason string            `json:"reason,omitempty"`
}

func (v TransactionValidity) IsValid() bool { return v.Kind == ValidityValid }
