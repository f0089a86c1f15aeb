package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendermint/executive/config"
	"github.com/tendermint/executive/libs/log"
	"github.com/tendermint/executive/types"
)

func testNodeConfig(t *testing.T) *config.Config {
	t.Helper()

	conf := config.TestConfig()
	conf.DBBackend = "goleveldb"
	conf.SetRoot(t.TempDir())
	config.EnsureRoot(conf.RootDir)
	return conf
}

func run(t *testing.T, cmd *cobra.Command, args ...string) []byte {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.Bytes()
}

func TestInitProduceAndImport(t *testing.T) {
	logger := log.NewTestingLogger(t)
	endow := 500 * types.Coin

	author := testNodeConfig(t)
	require.NoError(t, initFiles(author, logger, "test-chain", endow))
	assert.FileExists(t, author.GenesisFile())
	assert.FileExists(t, author.AuthorKeyFile())

	// a second init keeps the existing key and genesis
	genesis, err := os.ReadFile(author.GenesisFile())
	require.NoError(t, err)
	require.NoError(t, initFiles(author, logger, "other-chain", endow))
	again, err := os.ReadFile(author.GenesisFile())
	require.NoError(t, err)
	require.Equal(t, genesis, again)

	blockFile := filepath.Join(t.TempDir(), "block.json")
	run(t, MakeProduceBlockCommand(author, logger), "--out", blockFile)

	var info accountInfo
	require.NoError(t, json.Unmarshal(run(t, MakeShowAccountCommand(author, logger)), &info))
	assert.Equal(t, endow, info.Free)
	assert.EqualValues(t, 0, info.Nonce)

	// a second node with the same genesis imports the block
	follower := testNodeConfig(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(follower.GenesisFile()), 0700))
	require.NoError(t, os.WriteFile(follower.GenesisFile(), genesis, 0600))

	out := run(t, MakeExecuteBlockCommand(follower, logger), "--check-inherents=false", blockFile)
	assert.Contains(t, string(out), "imported block 1")

	// importing it twice fails
	cmd := MakeExecuteBlockCommand(follower, logger)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--check-inherents=false", blockFile})
	require.Error(t, cmd.Execute())
}

func TestMetadataCommand(t *testing.T) {
	logger := log.NewTestingLogger(t)
	conf := testNodeConfig(t)
	require.NoError(t, initFiles(conf, logger, "test-chain", types.Coin))

	out := run(t, MakeMetadataCommand(conf, logger))
	assert.Contains(t, string(out), "Balances")
	assert.Contains(t, string(out), "Executive")
}
