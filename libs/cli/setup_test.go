package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitEnv(t *testing.T) {
	defer viper.Reset()
	t.Setenv("EXHOME", "/tmp/unprefixed")
	t.Setenv("EX_LOG_LEVEL", "debug")

	InitEnv("ex")
	assert.Equal(t, "/tmp/unprefixed", os.Getenv("EX_HOME"))
	assert.Equal(t, "/tmp/unprefixed", viper.GetString(HomeFlag))
	assert.Equal(t, "debug", viper.GetString("log_level"))
}

func TestPrepareBaseCmdLoadsConfig(t *testing.T) {
	defer viper.Reset()
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "config"), 0700))
	require.NoError(t, os.WriteFile(filepath.Join(home, "config", "config.toml"),
		[]byte("log_level = \"error\"\n"), 0600))

	var (
		ranPre   bool
		logLevel string
	)
	root := &cobra.Command{
		Use: "root",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ranPre = true
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel = viper.GetString("log_level")
			return nil
		},
	}
	cmd := PrepareBaseCmd(root, "EXTEST", "/nonexistent")
	cmd.SetArgs([]string{"--home", home})
	require.NoError(t, cmd.Execute())

	assert.True(t, ranPre)
	assert.Equal(t, home, viper.GetString(HomeFlag))
	assert.Equal(t, "error", logLevel)
}
