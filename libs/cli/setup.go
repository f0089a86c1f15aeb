// Package cli holds the flag, environment and config file plumbing shared by
// the commands of the executive binary.
package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	HomeFlag  = "home"
	TraceFlag = "trace"
)

// PrepareBaseCmd adds the home and trace flags to the root command, reads
// settings from envPrefix variables and loads the config file of the home
// directory before any subcommand runs.
func PrepareBaseCmd(cmd *cobra.Command, envPrefix, defaultHome string) *cobra.Command {
	cobra.OnInitialize(func() { InitEnv(envPrefix) })
	flags := cmd.PersistentFlags()
	flags.String(HomeFlag, defaultHome, "directory for config and data")
	flags.Bool(TraceFlag, false, "print out full stack trace on errors")

	next := cmd.PersistentPreRunE
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := BindFlagsLoadViper(cmd, args); err != nil {
			return err
		}
		if next != nil {
			return next(cmd, args)
		}
		return nil
	}
	return cmd
}

// InitEnv makes viper read PREFIX_KEY variables, with dots and dashes of
// nested keys written as underscores (EX_RUNTIME_MAX_CALL_DEPTH). A variable
// missing the underscore after the prefix (EXHOME) is copied to the
// underscored name first.
func InitEnv(prefix string) {
	prefix = strings.ToUpper(prefix)
	sep := prefix + "_"
	for _, kv := range os.Environ() {
		k, v, ok := splitEnv(kv)
		if !ok || !strings.HasPrefix(k, prefix) || strings.HasPrefix(k, sep) {
			continue
		}
		os.Setenv(sep+strings.TrimPrefix(k, prefix), v)
	}

	viper.SetEnvPrefix(prefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func splitEnv(kv string) (key, value string, ok bool) {
	i := strings.IndexByte(kv, '=')
	if i < 0 {
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}

// BindFlagsLoadViper binds the flags of cmd, persistent ones included, and
// reads config.toml from the home directory or its config/ subdirectory. A
// missing file is not an error.
func BindFlagsLoadViper(cmd *cobra.Command, args []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	home := viper.GetString(HomeFlag)
	viper.Set(HomeFlag, home)
	viper.SetConfigName("config")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, "config"))

	var notFound viper.ConfigFileNotFoundError
	if err := viper.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return err
	}
	return nil
}
