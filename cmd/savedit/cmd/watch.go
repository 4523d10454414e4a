package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file> <field>",
		Short: "Print a field every time the game rewrites the save",
		Long: `Print a field's value now and again after every change to the save,
until interrupted. Use it to confirm a located offset: change the amount in
the game, save, and check the printed value follows.

Example:
  savedit watch career.sav money`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dc, err := a.config.DocumentConfig(a.log, nil)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			w := watch.New(args[0], args[1], dc)
			return w.Run(ctx, func(r watch.Reading) {
				fmt.Fprintln(out, r)
			})
		},
	}
}
