package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	downloadVersion uint64
	downloadOffset  uint64
	downloadLength  uint64
)

var downloadCmd = &cobra.Command{
	Use:   "download <path> <local-file>",
	Short: "Download a file (or a range of it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connectAndAuthenticate(cmd.Context())
		if err != nil {
			return err
		}

		length := downloadLength
		if length == 0 {
			length = 8 * 1024 * 1024 // one reply's worth, per spec.md §6's per-reply cap
		}
		data, more, err := c.Download(cmd.Context(), args[0], downloadVersion, downloadOffset, length)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], data, 0o644); err != nil {
			return fmt.Errorf("write local file: %w", err)
		}
		fmt.Printf("downloaded %d bytes to %s (more=%v)\n", len(data), args[1], more)
		return nil
	},
}

func init() {
	downloadCmd.Flags().Uint64Var(&downloadVersion, "version", 0, "version to read (0 = latest)")
	downloadCmd.Flags().Uint64Var(&downloadOffset, "offset", 0, "byte offset to start at")
	downloadCmd.Flags().Uint64Var(&downloadLength, "length", 0, "bytes to read (default: one reply's worth)")
}
