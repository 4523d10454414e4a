package cmd

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
)

func newBackupCmd(a *app) *cobra.Command {
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage verified backups",
		Long: `Create, list, restore and expire backups.

Backups live under the configured backup_root in one directory per day and
are verified by content hash when they are taken.`,
	}
	backupCmd.AddCommand(
		newBackupCreateCmd(a),
		newBackupListCmd(a),
		newBackupRestoreCmd(a),
		newBackupCleanupCmd(a),
		newBackupStatsCmd(a),
	)
	return backupCmd
}

func newBackupCreateCmd(a *app) *cobra.Command {
	var suffix string
	c := &cobra.Command{
		Use:   "create <file>",
		Short: "Back up a save now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			rec, err := s.Create(args[0], suffix)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s, %s)\n", rec.BackupPath, humanize.IBytes(uint64(rec.Size)), rec.Hash)
			return nil
		},
	}
	c.Flags().StringVar(&suffix, "suffix", savedit.DefaultSuffix, "name suffix")
	return c
}

func newBackupListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <file>",
		Short: "List backups of a save, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			entries, err := s.ForFile(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Path, humanize.IBytes(uint64(e.Size)), humanize.Time(e.ModTime))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d backups\n", len(entries))
			return nil
		},
	}
}

func newBackupRestoreCmd(a *app) *cobra.Command {
	var latest bool
	c := &cobra.Command{
		Use:   "restore <backup> <target>",
		Short: "Replace a save with a backup",
		Long: `Replace a save with a backup. The current save is backed up first with
the "prerestore" suffix.

With --latest the single argument is the save, and its newest backup is
restored over it.

Examples:
  savedit backup restore ~/.config/savedit/backups/2024-01-15/14-03-22_career_backup.sav career.sav
  savedit backup restore --latest career.sav`,
		Args: func(cmd *cobra.Command, args []string) error {
			if latest {
				return cobra.ExactArgs(1)(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			backup, target := "", args[len(args)-1]
			if latest {
				e, err := s.Latest(target)
				if err != nil {
					return err
				}
				backup = e.Path
			} else {
				backup = args[0]
			}
			if err := s.Restore(backup, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", target, backup)
			return nil
		},
	}
	c.Flags().BoolVar(&latest, "latest", false, "restore the newest backup of the save")
	return c
}

func newBackupCleanupCmd(a *app) *cobra.Command {
	var days int
	c := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete backups older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("days") {
				days = a.config.RetentionDays
			}
			report, err := s.Cleanup(days)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d directories and %d files\n", report.DirsRemoved, report.FilesRemoved)
			return err
		},
	}
	c.Flags().IntVar(&days, "days", savedit.DefaultRetentionDays, "retention in days (default from config)")
	return c
}

func newBackupStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the backup store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.store()
			if err != nil {
				return err
			}
			st, err := s.Stats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, st)
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, day := range slices.Sorted(maps.Keys(st.ByDate)) {
				d := st.ByDate[day]
				fmt.Fprintf(tw, "%s\t%d\t%s\n", day, d.Count, humanize.IBytes(uint64(d.Size)))
			}
			return tw.Flush()
		},
	}
}
