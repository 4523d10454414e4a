package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newSearchCmd(a *app) *cobra.Command {
	var (
		from int
		all  bool
	)

	searchCmd := &cobra.Command{
		Use:   "search <file> <pattern>",
		Short: "Find a byte pattern",
		Long: `Find a byte pattern in a save.

The pattern is hex when it consists only of hex digits and spaces (an
optional 0x prefix is allowed), and literal text otherwise. Without --all
the first match at or after --from is printed, wrapping to the start of the
file if needed.

Examples:
  savedit search career.sav "40 42 0F 00"
  savedit search career.sav Career --all`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			pattern, err := savedit.ParsePattern(args[1])
			if err != nil {
				return err
			}
			data := doc.Buffer().Bytes()
			out := cmd.OutOrStdout()

			if all {
				offsets, err := savedit.FindAll(data, pattern)
				if err != nil {
					return err
				}
				for _, off := range offsets {
					fmt.Fprintf(out, "0x%08X\n", off)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d matches\n", len(offsets))
				return nil
			}

			off, ok, err := savedit.FindNext(data, pattern, from)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("pattern %s not found", savedit.FormatHex(pattern, true, true))
			}
			if off < from {
				fmt.Fprintln(cmd.ErrOrStderr(), "search wrapped to start of file")
			}
			row := off - off%16
			return savedit.Dump(out, data[row:min(row+16, len(data))], int64(row), 16)
		},
	}
	searchCmd.Flags().IntVar(&from, "from", 0, "offset to start searching from")
	searchCmd.Flags().BoolVar(&all, "all", false, "list every non-overlapping match")
	return searchCmd
}
