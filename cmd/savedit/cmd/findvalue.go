package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newFindValueCmd(a *app) *cobra.Command {
	var (
		kind string
		big  bool
	)

	findCmd := &cobra.Command{
		Use:   "find-value <file> <value>",
		Short: "Find every offset holding a known integer",
		Long: `Encode an integer and list every offset where those bytes occur. Matches
need not be aligned.

Example:
  savedit find-value career.sav 1000000 --kind int64`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			k, err := savedit.ParseKind(kind)
			if err != nil {
				return err
			}
			v, err := strconv.ParseInt(args[1], 0, 64)
			if err != nil {
				return fmt.Errorf("%w: %v", savedit.ErrValueOutOfRange, err)
			}
			e := savedit.LittleEndian
			if big {
				e = savedit.BigEndian
			}
			offsets, err := savedit.FindValue(doc.Buffer().Bytes(), v, k, e)
			if err != nil {
				return err
			}
			for _, off := range offsets {
				fmt.Fprintf(cmd.OutOrStdout(), "0x%08X\n", off)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d matches\n", len(offsets))
			return nil
		},
	}
	findCmd.Flags().StringVar(&kind, "kind", "int64", "integer kind (int8..int64, uint8..uint64)")
	findCmd.Flags().BoolVar(&big, "big", false, "big-endian encoding")
	return findCmd
}
