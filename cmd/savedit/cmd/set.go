package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newSetCmd(a *app) *cobra.Command {
	var (
		noBackup bool
		discover bool
	)

	setCmd := &cobra.Command{
		Use:   "set <file> <field> <value>",
		Short: "Write a new value into a field and save",
		Long: `Write a new value into a field and save the file.

The current file is backed up and the backup verified before anything is
written; if the backup fails the save is left untouched. The new content
replaces the file atomically.

Integers accept 0x/0o/0b prefixes. Raw fields take hex bytes.

A field without a descriptor is refused unless --discover is given, in which
case the locator's first candidate is used. Check the candidate with
"savedit get" or "savedit find-value" first.

Example:
  savedit set career.sav money 5000000`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, name, text := args[0], args[1], args[2]
			doc, err := a.open(path, !noBackup)
			if err != nil {
				return err
			}

			f, ok := doc.Field(name)
			if !ok {
				if !discover {
					return fmt.Errorf("%w: %q (use --discover to use the locator's candidate)", savedit.ErrUnknownField, name)
				}
				c, err := doc.Discover(name, a.config.LocateOptions())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "using %s\n", c)
				f, _ = doc.Field(name)
			}

			old, err := doc.Get(name)
			if err != nil {
				return err
			}
			value, err := savedit.ParseValue(text, f.Kind)
			if err != nil {
				return err
			}
			if err := doc.Set(name, value); err != nil {
				return err
			}
			if err := doc.Persist("", savedit.PersistOptions{Backup: !noBackup}); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %v -> %v\n", name, old, value)
			if !noBackup {
				if b, err := a.backups.Latest(path); err == nil {
					fmt.Fprintf(out, "backup: %s\n", b.Path)
				}
			}
			return nil
		},
	}
	setCmd.Flags().BoolVar(&noBackup, "no-backup", false, "skip the backup (not recommended)")
	setCmd.Flags().BoolVar(&discover, "discover", false, "locate the field heuristically if it has no descriptor")
	return setCmd
}
