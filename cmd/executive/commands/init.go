package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/internal/keyfile"
	"github.com/tendermint/executive/libs/log"
	tmos "github.com/tendermint/executive/libs/os"
	"github.com/tendermint/executive/types"
)

// MakeInitFilesCommand returns the command to initialize a fresh node.
func MakeInitFilesCommand(conf *config.Config, logger log.Logger) *cobra.Command {
	var (
		chainID string
		endow   uint64
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initializes a single authority chain",
		Long: `Writes the config, an author key and a genesis file in which the
author key is the only aura and grandpa authority, the sudo key and the only
endowed account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initFiles(conf, logger, chainID, types.Balance(endow))
		},
	}
	cmd.Flags().StringVar(&chainID, "chain-id", "", "chain id (random if empty)")
	cmd.Flags().Uint64Var(&endow, "endowment", uint64(1000*types.Coin), "balance of the author account")
	return cmd
}

func initFiles(conf *config.Config, logger log.Logger, chainID string, endow types.Balance) error {
	if err := config.WriteConfigFile(conf.RootDir, conf); err != nil {
		return err
	}

	keyFile := conf.AuthorKeyFile()
	key, err := keyfile.LoadOrGenFileKey(keyFile)
	if err != nil {
		return err
	}
	logger.Info("author key", "path", keyFile, "account", key.AccountID)

	genFile := conf.GenesisFile()
	if tmos.FileExists(genFile) {
		logger.Info("found genesis file", "path", genFile)
		return nil
	}

	if chainID == "" {
		chainID = fmt.Sprintf("test-chain-%v", time.Now().Unix())
	}
	genDoc := types.GenesisDoc{
		ChainID:            chainID,
		GenesisTime:        time.Now().UTC().Round(0),
		Accounts:           []types.GenesisAccount{{Account: key.AccountID, Balance: endow}},
		AuraAuthorities:    []types.AccountID{key.AccountID},
		GrandpaAuthorities: []types.GenesisAuthority{{ID: key.AccountID, Weight: 1}},
		SudoKey:            key.AccountID,
	}
	if err := genDoc.ValidateAndComplete(); err != nil {
		return err
	}
	if err := genDoc.SaveAs(genFile); err != nil {
		return err
	}
	logger.Info("generated genesis file", "path", genFile, "chain_id", chainID)
	return nil
}
