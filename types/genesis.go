package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"time"

	"github.com/creachadair/atomicfile"
)

const (
	// MaxChainIDLen is a maximum length of the chain ID.
	MaxChainIDLen = 50
)

//------------------------------------------------------------
// core types for a genesis definition

// GenesisAccount is an endowed account.
type GenesisAccount struct {
	Account AccountID `json:"account"`
	Balance Balance   `json:"balance,string"`
}

// GenesisAuthority is an initial finality voter.
type GenesisAuthority struct {
	ID     AccountID `json:"id"`
	Weight uint64    `json:"weight,string"`
}

// GenesisDoc defines the initial state of the runtime: endowments, the
// slot-authoring and finality authority sets and the privileged key.
type GenesisDoc struct {
	GenesisTime        time.Time          `json:"genesis_time"`
	ChainID            string             `json:"chain_id"`
	Accounts           []GenesisAccount   `json:"accounts"`
	AuraAuthorities    []AccountID        `json:"aura_authorities"`
	GrandpaAuthorities []GenesisAuthority `json:"grandpa_authorities"`
	SudoKey            AccountID          `json:"sudo_key"`
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := json.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return atomicfile.WriteData(file, genDocBytes, 0644)
}

// ValidateAndComplete checks that all necessary fields are present
// and fills in defaults for optional fields left empty
func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}
	if len(genDoc.ChainID) > MaxChainIDLen {
		return fmt.Errorf("chain_id in genesis doc is too long (max: %d)", MaxChainIDLen)
	}

	seen := make(map[AccountID]struct{}, len(genDoc.Accounts))
	for _, acc := range genDoc.Accounts {
		if _, ok := seen[acc.Account]; ok {
			return fmt.Errorf("duplicate genesis account %v", acc.Account)
		}
		seen[acc.Account] = struct{}{}
	}

	if len(genDoc.AuraAuthorities) == 0 {
		return errors.New("genesis doc must include at least one aura authority")
	}
	for _, a := range genDoc.GrandpaAuthorities {
		if a.Weight == 0 {
			return fmt.Errorf("the genesis file cannot contain grandpa authorities with no weight: %v", a.ID)
		}
	}

	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = time.Now().UTC().Round(0)
	}

	return nil
}

// Hash identifies the genesis configuration. It checkpoints immortal
// extrinsics, which makes their signatures chain specific.
func (genDoc *GenesisDoc) Hash() Hash {
	e := NewEncoder()
	e.String(genDoc.ChainID)
	e.Uint64(uint64(genDoc.GenesisTime.UnixNano()))
	for _, acc := range genDoc.Accounts {
		e.Account(acc.Account).Uint64(acc.Balance)
	}
	for _, a := range genDoc.AuraAuthorities {
		e.Account(a)
	}
	for _, a := range genDoc.GrandpaAuthorities {
		e.Account(a.ID).Uint64(a.Weight)
	}
	e.Account(genDoc.SudoKey)
	return HashOf(e.Result())
}

//------------------------------------------------------------
// Make genesis state from file

// GenesisDocFromJSON unmarshalls JSON data into a GenesisDoc.
func GenesisDocFromJSON(jsonBlob []byte) (*GenesisDoc, error) {
	genDoc := GenesisDoc{}
	if err := json.Unmarshal(jsonBlob, &genDoc); err != nil {
		return nil, err
	}

	if err := genDoc.ValidateAndComplete(); err != nil {
		return nil, err
	}

	return &genDoc, nil
}

// GenesisDocFromFile reads JSON data from a file and unmarshalls it into a GenesisDoc.
func GenesisDocFromFile(genDocFile string) (*GenesisDoc, error) {
	jsonBlob, err := ioutil.ReadFile(genDocFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't read GenesisDoc file: %w", err)
	}
	genDoc, err := GenesisDocFromJSON(jsonBlob)
	if err != nil {
		return nil, fmt.Errorf("error reading GenesisDoc at %s: %w", genDocFile, err)
	}
	return genDoc, nil
}
