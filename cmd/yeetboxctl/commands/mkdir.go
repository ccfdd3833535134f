package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connectAndAuthenticate(cmd.Context())
		if err != nil {
			return err
		}
		if err := c.MakeDirectory(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("created %s\n", args[0])
		return nil
	},
}
