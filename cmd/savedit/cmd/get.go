package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newGetCmd(a *app) *cobra.Command {
	var hexOut bool

	getCmd := &cobra.Command{
		Use:   "get <file> <field>",
		Short: "Print the value of a field",
		Long: `Print the value of a field.

A field with no descriptor falls back to the locator; the guessed offset is
reported on stderr so scripts reading stdout get only the value.

Example:
  savedit get career.sav money`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			r, err := doc.Resolve(args[1])
			if err != nil {
				return err
			}
			if r.Candidate {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s has no descriptor; candidate at 0x%08X\n", args[1], r.Field.Offset)
			}
			if hexOut || r.Field.Kind == savedit.KindRaw {
				raw, err := doc.ReadSlice(r.Field.Offset, r.Field.Size)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), savedit.FormatHex(raw, true, true))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Value)
			return nil
		},
	}
	getCmd.Flags().BoolVar(&hexOut, "hex", false, "print the field's raw bytes")
	return getCmd
}
