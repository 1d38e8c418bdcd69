package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haystackd/haystackd/pkg/config"
)

var validateConfigPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file without starting the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(validateConfigPath)
		if err != nil {
			return err
		}
		fmt.Printf("%s is valid (port %d, dataset %s, algorithm %s)\n",
			validateConfigPath, settings.Server.Port, settings.Search.Path, settings.Search.Algorithm)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigPath, "config", "c", "haystackd.yaml", "Path to the configuration file")
	rootCmd.AddCommand(validateCmd)
}
