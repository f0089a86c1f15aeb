package ed25519_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/crypto"
	"github.com/tendermint/executive/crypto/ed25519"
)

func TestSignAndValidateEd25519(t *testing.T) {
	privKey := ed25519.GenPrivKey()
	pubKey := privKey.PubKey()

	msg := crypto.CRandBytes(128)
	sig, err := privKey.Sign(msg)
	require.Nil(t, err)

	// Test the signature
	assert.True(t, pubKey.VerifySignature(msg, sig))

	// Mutate the signature, just one bit.
	sig[7] ^= byte(0x01)

	assert.False(t, pubKey.VerifySignature(msg, sig))
}

func TestDeterministicKeys(t *testing.T) {
	a := ed25519.GenPrivKeyFromSecret([]byte("alice"))
	b := ed25519.GenPrivKeyFromSecret([]byte("alice"))
	c := ed25519.GenPrivKeyFromSecret([]byte("bob"))

	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.True(t, a.PubKey().Equals(b.PubKey()))

	// the address of an ed25519 key is the key itself
	assert.Equal(t, a.PubKey().Bytes(), a.PubKey().Address().Bytes())
	assert.Len(t, a.PubKey().Address(), crypto.AddressSize)
}

func TestVerifyRejectsBadSizes(t *testing.T) {
	privKey := ed25519.GenPrivKey()
	sig, err := privKey.Sign([]byte("msg"))
	require.NoError(t, err)

	assert.False(t, privKey.PubKey().VerifySignature([]byte("msg"), sig[:63]))
	assert.False(t, ed25519.PubKey([]byte{1, 2, 3}).VerifySignature([]byte("msg"), sig))

	_, err = ed25519.PrivKey([]byte{1}).Sign([]byte("msg"))
	assert.Error(t, err)
}
