package secp256k1_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/crypto"
	"github.com/tendermint/executive/crypto/secp256k1"
)

func TestSignAndValidateSecp256k1(t *testing.T) {
	privKey := secp256k1.GenPrivKey()
	pubKey := privKey.PubKey()

	msg := crypto.CRandBytes(128)
	sig, err := privKey.Sign(msg)
	require.Nil(t, err)
	require.Len(t, sig, secp256k1.SignatureSize)

	assert.True(t, pubKey.VerifySignature(msg, sig))

	// Mutate the signature, just one bit.
	sig[3] ^= byte(0x01)

	assert.False(t, pubKey.VerifySignature(msg, sig))
}

func TestRecoverPubKey(t *testing.T) {
	privKey := secp256k1.GenPrivKeySecp256k1([]byte("charlie"))
	msg := []byte("transfer 10 to dave")

	sig, err := privKey.Sign(msg)
	require.NoError(t, err)

	recovered, err := secp256k1.RecoverPubKey(msg, sig)
	require.NoError(t, err)
	assert.True(t, privKey.PubKey().Equals(recovered))
	assert.Equal(t, crypto.AddressHash(recovered.Bytes()), privKey.PubKey().Address())

	_, err = secp256k1.RecoverPubKey(msg, sig[:64])
	assert.ErrorIs(t, err, secp256k1.ErrInvalidSignature)
}

func TestGenPrivKeySecp256k1Deterministic(t *testing.T) {
	a := secp256k1.GenPrivKeySecp256k1([]byte("secret"))
	b := secp256k1.GenPrivKeySecp256k1([]byte("secret"))
	assert.True(t, a.Equals(b))
	assert.Len(t, a.Bytes(), secp256k1.PrivKeySize)
	assert.Len(t, a.PubKey().Bytes(), secp256k1.PubKeySize)
}
