package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmVersion uint64

var rmCmd = &cobra.Command{
	Use:   "rm <path>",
	Short: "Delete an object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connectAndAuthenticate(cmd.Context())
		if err != nil {
			return err
		}
		shredded, err := c.Delete(cmd.Context(), args[0], rmVersion)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s (shredded=%v)\n", args[0], shredded)
		return nil
	},
}

func init() {
	rmCmd.Flags().Uint64Var(&rmVersion, "version", 0, "version to delete (must match the object's latest version)")
}
