package types

import (
	"errors"
	"fmt"
	"math"

	"github.com/gogo/protobuf/proto"
)

// ErrMalformed is returned when bytes cannot be decoded into the expected
// shape or reference an unknown call.
var ErrMalformed = errors.New("malformed")

// Encoder appends varint and length-prefixed fields to a buffer. All
// runtime wire formats (extrinsics, calls, headers, storage values) are
// built with it so that encodings are canonical: one value, one byte string.
type Encoder struct {
	buf []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Uint64(v uint64) *Encoder {
	e.buf = append(e.buf, proto.EncodeVarint(v)...)
	return e
}

func (e *Encoder) Uint32(v uint32) *Encoder { return e.Uint64(uint64(v)) }

func (e *Encoder) Uint8(v uint8) *Encoder { return e.Uint64(uint64(v)) }

func (e *Encoder) Bool(v bool) *Encoder {
	if v {
		return e.Uint64(1)
	}
	return e.Uint64(0)
}

// Bytes writes a length-prefixed byte string.
func (e *Encoder) Bytes(bz []byte) *Encoder {
	e.Uint64(uint64(len(bz)))
	e.buf = append(e.buf, bz...)
	return e
}

func (e *Encoder) String(s string) *Encoder { return e.Bytes([]byte(s)) }

// Fixed writes bz without a length prefix; the decoder must know the size.
func (e *Encoder) Fixed(bz []byte) *Encoder {
	e.buf = append(e.buf, bz...)
	return e
}

func (e *Encoder) Account(a AccountID) *Encoder { return e.Fixed(a[:]) }

func (e *Encoder) Hash(h Hash) *Encoder { return e.Fixed(h[:]) }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

// Result returns the encoded bytes.
func (e *Encoder) Result() []byte { return e.buf }

// Decoder reads fields written by an Encoder. The first failure is sticky:
// subsequent reads return zero values and Err reports the original cause.
type Decoder struct {
	buf []byte
	pos int
	err error
}

func NewDecoder(bz []byte) *Decoder {
	return &Decoder{buf: bz}
}

// Failf records a decoding error unless one is already recorded.
func (d *Decoder) Failf(format string, args ...interface{}) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %s at offset %d", ErrMalformed, fmt.Sprintf(format, args...), d.pos)
	}
}

func (d *Decoder) Uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := proto.DecodeVarint(d.buf[d.pos:])
	if n == 0 {
		d.Failf("bad varint")
		return 0
	}
	// reject non-minimal encodings so that every value has one encoding
	if n > 1 && d.buf[d.pos+n-1] == 0 {
		d.Failf("non-canonical varint")
		return 0
	}
	d.pos += n
	return v
}

func (d *Decoder) Uint32() uint32 {
	v := d.Uint64()
	if v > math.MaxUint32 {
		d.Failf("value %d overflows uint32", v)
		return 0
	}
	return uint32(v)
}

func (d *Decoder) Uint8() uint8 {
	v := d.Uint64()
	if v > math.MaxUint8 {
		d.Failf("value %d overflows uint8", v)
		return 0
	}
	return uint8(v)
}

func (d *Decoder) Bool() bool {
	switch d.Uint64() {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Failf("invalid bool")
		return false
	}
}

func (d *Decoder) Bytes() []byte {
	n := d.Uint64()
	if d.err != nil {
		return nil
	}
	if n > uint64(len(d.buf)-d.pos) {
		d.Failf("byte string of length %d exceeds input", n)
		return nil
	}
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+int(n)])
	d.pos += int(n)
	return out
}

func (d *Decoder) String() string { return string(d.Bytes()) }

func (d *Decoder) Fixed(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n > len(d.buf)-d.pos {
		d.Failf("fixed field of length %d exceeds input", n)
		return nil
	}
	out := make([]byte, n)
	copy(out, d.buf[d.pos:d.pos+n])
	d.pos += n
	return out
}

func (d *Decoder) Account() AccountID {
	var a AccountID
	copy(a[:], d.Fixed(len(a)))
	return a
}

func (d *Decoder) Hash() Hash {
	var h Hash
	copy(h[:], d.Fixed(len(h)))
	return h
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Err returns the first decoding error, if any.
func (d *Decoder) Err() error { return d.err }

// Finish returns the first decoding error, or an error if unread bytes
// remain.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.pos != len(d.buf) {
		return fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(d.buf)-d.pos)
	}
	return nil
}
