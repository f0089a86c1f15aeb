package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tendermint/executive/internal/api"
	"github.com/tendermint/executive/version"
)

var verbose bool

// VersionCmd prints the software version, or the runtime version with
// --verbose.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !verbose {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return nil
		}
		return printJSON(cmd.OutOrStdout(), struct {
			Software string          `json:"software"`
			Runtime  version.Runtime `json:"runtime"`
		}{
			Software: version.Version,
			Runtime:  version.NewRuntime(api.APIs()...),
		})
	},
}

func init() {
	VersionCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show runtime and API versions")
}
