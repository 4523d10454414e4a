package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jpl-au/savedit"
	"github.com/jpl-au/savedit/internal/config"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE, so subcommands can rely on config and log.
type app struct {
	configPath string
	logLevel   string
	backupRoot string

	config  *config.Config
	log     *savedit.Logger
	backups *savedit.BackupStore
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "savedit",
		Short: "Inspect and edit binary game saves",
		Long: `savedit reads an undocumented binary save file, shows and edits named
fields, searches for byte patterns and keeps verified backups of every
save it writes.

Fields come from the descriptor table in the config file (or the built-in
one). A field with no descriptor is located heuristically and reported as
a candidate.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default "+config.DefaultConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&a.backupRoot, "backup-root", "", "backup directory (overrides config)")

	rootCmd.AddCommand(
		newInfoCmd(a),
		newGetCmd(a),
		newSetCmd(a),
		newSearchCmd(a),
		newDumpCmd(a),
		newLocateCmd(a),
		newFindValueCmd(a),
		newExportCmd(a),
		newBackupCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	path := a.configPath
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		if explicit || config.ConfigExists(path) {
			return err
		}
		cfg = config.DefaultConfig()
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.backupRoot != "" {
		cfg.BackupRoot = a.backupRoot
	}

	log, err := cfg.Logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.config = cfg
	a.log = log
	return nil
}

// store opens the backup store on first use so read-only commands never
// create the backup directory.
func (a *app) store() (*savedit.BackupStore, error) {
	if a.backups != nil {
		return a.backups, nil
	}
	s, err := a.config.BackupStore(a.log)
	if err != nil {
		return nil, err
	}
	a.backups = s
	return s, nil
}

// open loads a save with the configured descriptor table. withBackups wires
// the backup store for commands that persist.
func (a *app) open(path string, withBackups bool) (*savedit.Document, error) {
	var store *savedit.BackupStore
	if withBackups {
		s, err := a.store()
		if err != nil {
			return nil, err
		}
		store = s
	}
	dc, err := a.config.DocumentConfig(a.log, store)
	if err != nil {
		return nil, err
	}
	doc, err := savedit.Open(path, dc)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no such save: %s", path)
	}
	return doc, err
}
