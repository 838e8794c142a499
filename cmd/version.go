package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// SEMVER is the version of the command.
const SEMVER = "0.3.0"

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(cmd *cobra.Command) {
	fmt.Fprintf(cmd.OutOrStdout(), "crt-paillier v%s (%s)\n", SEMVER, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of crt-paillier",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd)
	},
}
