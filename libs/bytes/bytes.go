package bytes

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// HexBytes is a wrapper around []byte that encodes data as 0x-prefixed
// hexadecimal strings for use in JSON.
type HexBytes []byte

// MarshalText encodes a HexBytes value as 0x-prefixed hexadecimal digits.
// This method is used by json.Marshal.
func (bz HexBytes) MarshalText() ([]byte, error) {
	return []byte("0x" + hex.EncodeToString(bz)), nil
}

// UnmarshalText handles decoding of HexBytes from JSON strings. The 0x
// prefix is optional.
func (bz *HexBytes) UnmarshalText(data []byte) error {
	input := string(data)
	if input == "" || input == "null" {
		return nil
	}
	input = strings.TrimPrefix(strings.TrimPrefix(input, "0x"), "0X")
	dec, err := hex.DecodeString(input)
	if err != nil {
		return fmt.Errorf("invalid hex string %q: %w", string(data), err)
	}
	*bz = HexBytes(dec)
	return nil
}

// Bytes returns the underlying slice.
func (bz HexBytes) Bytes() []byte {
	return bz
}

func (bz HexBytes) ShortString() string {
	if len(bz) < 4 {
		return bz.String()
	}
	return "0x" + hex.EncodeToString(bz[:4]) + "…"
}

func (bz HexBytes) String() string {
	return "0x" + hex.EncodeToString(bz)
}

// Format writes either address of 0th element in a slice in base 16 notation,
// with leading 0x (%p), or the 0x-prefixed hex form.
func (bz HexBytes) Format(s fmt.State, verb rune) {
	switch verb {
	case 'p':
		s.Write([]byte(fmt.Sprintf("%p", bz)))
	default:
		s.Write([]byte(bz.String()))
	}
}

// Copy creates a deep copy of HexBytes. It allocates new buffer and copies data into it.
func (bz HexBytes) Copy() HexBytes {
	if bz == nil {
		return nil
	}
	copied := make(HexBytes, len(bz))
	copy(copied, bz)
	return copied
}

func (bz HexBytes) Equal(b []byte) bool {
	return bytes.Equal(bz, b)
}
