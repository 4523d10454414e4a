package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newLocateCmd(a *app) *cobra.Command {
	var (
		slot   int
		lo, hi int64
		all    bool
		limit  int
	)

	locateCmd := &cobra.Command{
		Use:   "locate <file>",
		Short: "Guess where a numeric field lives",
		Long: `Scan the save as fixed-size little-endian slots and report slots whose
value lies strictly between --min and --max and differs from the next
slot. The defaults come from the config's locate section.

Results are guesses. Confirm one by changing the value in the game and
running "savedit find-value" with the new amount.

Example:
  savedit locate career.sav --all --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			opts := a.config.LocateOptions()
			if cmd.Flags().Changed("slot") {
				opts.SlotSize = slot
			}
			if cmd.Flags().Changed("min") {
				opts.Min = lo
			}
			if cmd.Flags().Changed("max") {
				opts.Max = hi
			}
			out := cmd.OutOrStdout()

			if !all {
				c, ok, err := savedit.LocatePlausibleInteger(doc.Buffer().Bytes(), opts)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no plausible slot in range (%d, %d)", opts.Min, opts.Max)
				}
				fmt.Fprintln(out, c)
				return nil
			}

			n := 0
			for c := range savedit.Candidates(doc.Buffer().Bytes(), opts) {
				fmt.Fprintln(out, c)
				n++
				if limit > 0 && n >= limit {
					break
				}
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d candidates\n", n)
			return nil
		},
	}
	locateCmd.Flags().IntVar(&slot, "slot", savedit.DefaultSlotSize, "slot size in bytes (1, 2, 4 or 8)")
	locateCmd.Flags().Int64Var(&lo, "min", savedit.DefaultMinValue, "exclusive lower bound")
	locateCmd.Flags().Int64Var(&hi, "max", savedit.DefaultMaxValue, "exclusive upper bound")
	locateCmd.Flags().BoolVar(&all, "all", false, "list every candidate, not just the first")
	locateCmd.Flags().IntVar(&limit, "limit", 50, "stop after this many candidates with --all (0 for no limit)")
	return locateCmd
}
