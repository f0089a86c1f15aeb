package crypto

import (
	"golang.org/x/crypto/blake2b"
)

// Checksum returns the blake2b-256 digest of bz.
func Checksum(bz []byte) []byte {
	h := blake2b.Sum256(bz)
	return h[:]
}

// Checksum64 returns the first 8 bytes of the blake2b-256 digest of bz.
func Checksum64(bz []byte) [8]byte {
	var out [8]byte
	h := blake2b.Sum256(bz)
	copy(out[:], h[:8])
	return out
}

// ChecksumMany hashes the concatenation of all slices without copying them
// into one buffer first.
func ChecksumMany(parts ...[]byte) []byte {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err) // only fails for oversized keys
	}
	for _, p := range parts {
		h.Write(p) //nolint:errcheck // hash writes never fail
	}
	return h.Sum(nil)
}
