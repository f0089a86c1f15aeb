// Package keyfile persists the node's signing key: the key a block author
// signs offchain submissions with.
package keyfile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/creachadair/atomicfile"

	"github.com/tendermint/executive/crypto"
	"github.com/tendermint/executive/crypto/ed25519"
	"github.com/tendermint/executive/crypto/secp256k1"
	tmbytes "github.com/tendermint/executive/libs/bytes"
	tmos "github.com/tendermint/executive/libs/os"
	"github.com/tendermint/executive/types"
)

// FileKey stores a private key in a JSON file.
type FileKey struct {
	Type      string           `json:"type"`
	AccountID types.AccountID  `json:"account_id"`
	PrivKey   tmbytes.HexBytes `json:"priv_key"`

	privKey  crypto.PrivKey
	filePath string
}

// GenFileKey generates a new key of keyType. It is not saved.
func GenFileKey(filePath, keyType string) (*FileKey, error) {
	var priv crypto.PrivKey
	switch keyType {
	case ed25519.KeyType:
		priv = ed25519.GenPrivKey()
	case secp256k1.KeyType:
		priv = secp256k1.GenPrivKey()
	default:
		return nil, fmt.Errorf("key type: %s is not supported", keyType)
	}
	return newFileKey(filePath, priv), nil
}

func newFileKey(filePath string, priv crypto.PrivKey) *FileKey {
	return &FileKey{
		Type:      priv.Type(),
		AccountID: types.AccountIDFromPubKey(priv.PubKey()),
		PrivKey:   priv.Bytes(),
		privKey:   priv,
		filePath:  filePath,
	}
}

// LoadFileKey loads the key at filePath and checks its account id.
func LoadFileKey(filePath string) (*FileKey, error) {
	bz, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading key from %v: %w", filePath, err)
	}
	var fk FileKey
	if err := json.Unmarshal(bz, &fk); err != nil {
		return nil, fmt.Errorf("decoding key from %v: %w", filePath, err)
	}

	switch fk.Type {
	case ed25519.KeyType:
		fk.privKey = ed25519.PrivKey(fk.PrivKey)
	case secp256k1.KeyType:
		fk.privKey = secp256k1.PrivKey(fk.PrivKey)
	default:
		return nil, fmt.Errorf("key type: %s is not supported", fk.Type)
	}
	if id := types.AccountIDFromPubKey(fk.privKey.PubKey()); id != fk.AccountID {
		return nil, fmt.Errorf("key file %v: account id %v does not match key (%v)", filePath, fk.AccountID, id)
	}
	fk.filePath = filePath
	return &fk, nil
}

// LoadOrGenFileKey loads the key at filePath, or generates and saves a new
// ed25519 key if the file does not exist.
func LoadOrGenFileKey(filePath string) (*FileKey, error) {
	if tmos.FileExists(filePath) {
		return LoadFileKey(filePath)
	}
	fk, err := GenFileKey(filePath, ed25519.KeyType)
	if err != nil {
		return nil, err
	}
	if err := fk.Save(); err != nil {
		return nil, err
	}
	return fk, nil
}

// Save persists the key, replacing the file atomically.
func (fk *FileKey) Save() error {
	if fk.filePath == "" {
		return fmt.Errorf("cannot save key: filePath not set")
	}
	bz, err := json.MarshalIndent(fk, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteData(fk.filePath, bz, 0600)
}

// Key returns the private key.
func (fk *FileKey) Key() crypto.PrivKey { return fk.privKey }

func (fk *FileKey) String() string {
	return fmt.Sprintf("FileKey{%s %v}", fk.Type, fk.AccountID)
}
