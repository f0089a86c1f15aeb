package types

import (
	"fmt"
)

// Call is a tagged union keyed by (module index, intra-module call tag). The
// arguments are encoded by the owning module and only decoded by it.
type Call struct {
	Module uint8  `json:"module"`
	Tag    uint8  `json:"tag"`
	Args   []byte `json:"args,omitempty"`
}

// NewCall builds a call whose arguments are produced by enc. enc may be nil
// for calls without arguments.
func NewCall(module, tag uint8, enc func(*Encoder)) Call {
	c := Call{Module: module, Tag: tag}
	if enc != nil {
		e := NewEncoder()
		enc(e)
		c.Args = e.Result()
	}
	return c
}

func (c Call) String() string {
	return fmt.Sprintf("Call{%d:%d %d bytes}", c.Module, c.Tag, len(c.Args))
}

func (c Call) Encode(e *Encoder) {
	e.Uint8(c.Module).Uint8(c.Tag).Bytes(c.Args)
}

// Bytes returns the canonical encoding of the call.
func (c Call) Bytes() []byte {
	e := NewEncoder()
	c.Encode(e)
	return e.Result()
}

func DecodeCall(d *Decoder) Call {
	return Call{
		Module: d.Uint8(),
		Tag:    d.Uint8(),
		Args:   d.Bytes(),
	}
}

// CallFromBytes decodes a complete call encoding.
func CallFromBytes(bz []byte) (Call, error) {
	d := NewDecoder(bz)
	c := DecodeCall(d)
	if err := d.Finish(); err != nil {
		return Call{}, err
	}
	return c, nil
}
