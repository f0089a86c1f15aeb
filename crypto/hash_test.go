package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum(t *testing.T) {
	// blake2b-256 of the empty string
	expected, err := hex.DecodeString("0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8")
	require.NoError(t, err)
	assert.Equal(t, expected, Checksum(nil))
	assert.Len(t, AddressHash([]byte("key")), AddressSize)
}

func TestChecksumMany(t *testing.T) {
	assert.Equal(t, Checksum([]byte("helloworld")), ChecksumMany([]byte("hello"), []byte("world")))

	c64 := Checksum64([]byte("Core"))
	assert.Equal(t, Checksum([]byte("Core"))[:8], c64[:])
}
