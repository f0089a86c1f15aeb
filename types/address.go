package types

import (
	"fmt"
)

// AddressKind distinguishes the two forms of Address.
type AddressKind uint8

const (
	AddressID AddressKind = iota
	AddressIndex
)

// Address refers to an account either by its full id or by the short index
// the indices module assigned to it.
type Address struct {
	Kind  AddressKind  `json:"kind"`
	ID    AccountID    `json:"id,omitempty"`
	Index AccountIndex `json:"index,omitempty"`
}

func AddressFromID(id AccountID) Address {
	return Address{Kind: AddressID, ID: id}
}

func AddressFromIndex(idx AccountIndex) Address {
	return Address{Kind: AddressIndex, Index: idx}
}

func (a Address) String() string {
	if a.Kind == AddressIndex {
		return fmt.Sprintf("Index(%d)", a.Index)
	}
	return a.ID.String()
}

func (a Address) Encode(e *Encoder) {
	e.Uint8(uint8(a.Kind))
	switch a.Kind {
	case AddressIndex:
		e.Uint32(a.Index)
	default:
		e.Account(a.ID)
	}
}

func DecodeAddress(d *Decoder) Address {
	switch kind := AddressKind(d.Uint8()); kind {
	case AddressID:
		return AddressFromID(d.Account())
	case AddressIndex:
		return AddressFromIndex(d.Uint32())
	default:
		d.Failf("unknown address kind %d", kind)
		return Address{}
	}
}
