package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var output string

	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write a JSON snapshot of a save for debugging",
		Long: `Write a JSON snapshot: path, size, hash and every known field with its
decoded value or error.

Example:
  savedit export career.sav -o career.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.open(args[0], false)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return doc.Export(cmd.OutOrStdout())
			}
			if err := doc.ExportFile(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
			return nil
		},
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return exportCmd
}
