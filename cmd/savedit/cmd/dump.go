package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newDumpCmd(a *app) *cobra.Command {
	var offset, length, width int

	dumpCmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Hex dump part of a save",
		Long: `Hex dump part of a save.

Example:
  savedit dump career.sav --offset 0x1230 --length 64`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			n := length
			if n <= 0 || offset+n > doc.Len() {
				n = max(doc.Len()-offset, 0)
			}
			data, err := doc.ReadSlice(offset, n)
			if err != nil {
				return err
			}
			return savedit.Dump(cmd.OutOrStdout(), data, int64(offset), width)
		},
	}
	dumpCmd.Flags().IntVar(&offset, "offset", 0, "start offset (0x prefix for hex)")
	dumpCmd.Flags().IntVar(&length, "length", 256, "bytes to dump; 0 dumps to the end")
	dumpCmd.Flags().IntVar(&width, "width", 16, "bytes per line")
	return dumpCmd
}
