package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Show a save's size, hash and known fields",
		Long: `Show a save's size, hash and every field in the descriptor table.

A field whose descriptor does not fit the file shows the error instead of a
value. When the table has no money descriptor, the locator's guess is
listed and marked as a candidate.

Example:
  savedit info career.sav`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			snap := doc.Snapshot()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "file:      %s\n", snap.Path)
			fmt.Fprintf(out, "size:      %d bytes (%s)\n", snap.Size, humanize.IBytes(uint64(snap.Size)))
			fmt.Fprintf(out, "container: %s\n", snap.Container)
			fmt.Fprintf(out, "hash:      %s\n", snap.Hash)
			fmt.Fprintf(out, "checksum8: 0x%02X\n\n", snap.Checksum8)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FIELD\tOFFSET\tSIZE\tKIND\tVALUE")
			for _, f := range snap.Fields {
				value := fmt.Sprint(f.Value)
				switch {
				case f.Error != "":
					value = "error: " + f.Error
				case f.Value == nil:
					value = f.Hex
				case f.Candidate:
					value += " (candidate)"
				}
				fmt.Fprintf(tw, "%s\t0x%08X\t%d\t%s\t%s\n", f.Name, f.Offset, f.Size, f.Kind, value)
			}
			return tw.Flush()
		},
	}
}
