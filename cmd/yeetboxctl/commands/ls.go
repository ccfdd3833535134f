package commands

import (
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/yeetbox/yeetbox/pkg/client"
	"github.com/yeetbox/yeetbox/pkg/engine"
)

const timestampLayout = time.RFC3339

var lsAttrs bool

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List a directory's direct children",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := connectAndAuthenticate(cmd.Context())
		if err != nil {
			return err
		}
		entries, err := c.List(cmd.Context(), args[0], lsAttrs)
		if err != nil {
			return err
		}
		renderEntries(entries)
		return nil
	},
}

func init() {
	lsCmd.Flags().BoolVar(&lsAttrs, "attrs", false, "include timestamps in the listing")
}

func renderEntries(entries []client.Entry) {
	table := tablewriter.NewWriter(os.Stdout)
	if lsAttrs {
		table.SetHeader([]string{"Name", "Type", "Modified", "Accessed"})
	} else {
		table.SetHeader([]string{"Name", "Type"})
	}

	for _, e := range entries {
		typeName := engine.ObjectType(e.Type).String()
		if lsAttrs && e.HasAttrs {
			table.Append([]string{e.RelativeName, typeName, formatTimestamp(e.ModifyTime), formatTimestamp(e.AccessTime)})
		} else if lsAttrs {
			table.Append([]string{e.RelativeName, typeName, "-", "-"})
		} else {
			table.Append([]string{e.RelativeName, typeName})
		}
	}
	table.Render()
}

func formatTimestamp(packed uint64) string {
	ts := engine.Timestamp(packed)
	if !ts.Known() {
		return "-"
	}
	return ts.Time().Local().Format(timestampLayout)
}
