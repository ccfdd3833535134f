// Package commands implements yeetboxd's CLI commands, grounded on the
// teacher's cmd/dittofs/commands cobra tree.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time via ldflags.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "yeetboxd",
	Short: "yeetbox - a versioned remote filesystem service",
	Long: `yeetboxd serves a network-accessible versioned remote filesystem:
hierarchical paths, directories, single-shot and chunked uploads,
append-creates-a-version, listing, and delete, over an RPC facade.

Use "yeetboxd [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

// GetConfigFile returns the config file path from the global --config flag.
func GetConfigFile() string {
	return cfgFile
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/yeetbox/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
}
