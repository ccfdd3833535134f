package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var uploadNext bool

var uploadCmd = &cobra.Command{
	Use:   "upload <path> <local-file>",
	Short: "Upload a file in a single shot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read local file: %w", err)
		}

		c, err := connectAndAuthenticate(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := c.Upload(cmd.Context(), args[0], data, false, uploadNext, nil, 0, 0, 0); err != nil {
			return err
		}
		fmt.Printf("uploaded %d bytes to %s\n", len(data), args[0])
		return nil
	},
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadNext, "next", false, "overwrite an existing object by minting a new version")
}
