// Package commands implements yeetboxctl's CLI commands, grounded on the
// teacher's cmd/dfs cobra tree.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	authcid    string
	password   string
	mechanism  string
)

var rootCmd = &cobra.Command{
	Use:   "yeetboxctl",
	Short: "yeetboxctl - a client for the yeetbox wire protocol",
	Long: `yeetboxctl drives a yeetboxd server's RPC facade directly: authenticate,
make directories, upload, download, delete, and list.

Each invocation opens its own connection and authenticates once at the
start of the command (a session is bound to the connection it was issued
on, not portable across processes — see "yeetboxctl auth login" for
exercising authentication on its own).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called once from main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:50051", "yeetboxd RPC address")
	rootCmd.PersistentFlags().StringVar(&mechanism, "mechanism", "ANONYMOUS", "SASL mechanism (ANONYMOUS or PLAIN)")
	rootCmd.PersistentFlags().StringVar(&authcid, "user", "", "authentication identity (PLAIN mechanism)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "password (PLAIN mechanism)")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(mkdirCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(configCmd)
}
