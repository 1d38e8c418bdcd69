// Package cli implements the haystackd command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set by SetVersion before Execute.
var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "haystackd",
	Short: "TCP server answering exact-match line-existence queries",
	Long: `haystackd serves existence queries against a line-oriented text file.
Clients send a NUL-terminated query over TCP (optionally with mutual
TLS) and receive STRING EXISTS or STRING NOT FOUND.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("haystackd %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// SetVersion records build-time version information for the version
// command.
func SetVersion(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
