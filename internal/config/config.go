// Package config loads the savedit configuration file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/jpl-au/savedit"
)

// Config represents the savedit configuration
type Config struct {
	BackupRoot     string                    `yaml:"backup_root"`
	RetentionDays  int                       `yaml:"retention_days"`
	HashAlgorithm  string                    `yaml:"hash_algorithm"`
	StringEncoding string                    `yaml:"string_encoding"`
	Containers     bool                      `yaml:"containers"`
	Locate         Locate                    `yaml:"locate"`
	Logging        Logging                   `yaml:"logging"`
	Fields         []savedit.FieldDescriptor `yaml:"fields,omitempty"`
}

// Locate holds the slot scan used when a field has no descriptor
type Locate struct {
	SlotSize int   `yaml:"slot_size"`
	Min      int64 `yaml:"min"`
	Max      int64 `yaml:"max"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		BackupRoot:    DefaultBackupRoot(),
		RetentionDays: savedit.DefaultRetentionDays,
		HashAlgorithm: "xxh3",
		Locate: Locate{
			SlotSize: savedit.DefaultSlotSize,
			Min:      savedit.DefaultMinValue,
			Max:      savedit.DefaultMaxValue,
		},
		Logging: Logging{
			Level:  "warn",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from the specified path. Keys absent from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration path for the current platform
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./savedit.yaml"
	}
	return filepath.Join(dir, "savedit", "config.yaml")
}

// DefaultBackupRoot returns the directory backups go to when none is configured
func DefaultBackupRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./backups"
	}
	return filepath.Join(dir, "savedit", "backups")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}

// Validate checks values that cannot be checked by the YAML decoder.
func (c *Config) Validate() error {
	if c.RetentionDays < 0 {
		return fmt.Errorf("retention_days must not be negative, got %d", c.RetentionDays)
	}
	if _, err := c.Algorithm(); err != nil {
		return err
	}
	if _, err := c.Charmap(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	for _, f := range c.Fields {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Algorithm maps hash_algorithm to a savedit hash constant
func (c *Config) Algorithm() (int, error) {
	switch strings.ToLower(c.HashAlgorithm) {
	case "", "xxh3", "xxhash3":
		return savedit.AlgXXHash3, nil
	case "fnv", "fnv1a":
		return savedit.AlgFNV1a, nil
	case "blake2b":
		return savedit.AlgBlake2b, nil
	}
	return 0, fmt.Errorf("unknown hash_algorithm %q", c.HashAlgorithm)
}

// Charmap maps string_encoding to a single-byte charmap. Empty or "utf-8"
// returns nil, which the codec treats as UTF-8.
func (c *Config) Charmap() (*charmap.Charmap, error) {
	switch strings.ToLower(c.StringEncoding) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "cp437", "ibm437":
		return charmap.CodePage437, nil
	case "koi8-r":
		return charmap.KOI8R, nil
	}
	return nil, fmt.Errorf("unknown string_encoding %q", c.StringEncoding)
}

// LogLevel parses logging.level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Logging.Level == "" {
		return slog.LevelWarn, nil
	}
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return 0, fmt.Errorf("invalid logging.level %q", c.Logging.Level)
	}
	return level, nil
}

// Descriptors returns the configured field table, or nil to select the
// built-in one.
func (c *Config) Descriptors() []savedit.FieldDescriptor {
	if len(c.Fields) == 0 {
		return nil
	}
	return append([]savedit.FieldDescriptor(nil), c.Fields...)
}

// LocateOptions converts the locate section
func (c *Config) LocateOptions() savedit.LocateOptions {
	return savedit.LocateOptions{
		SlotSize: c.Locate.SlotSize,
		Min:      c.Locate.Min,
		Max:      c.Locate.Max,
	}
}

// Logger builds the logger described by the logging section.
func (c *Config) Logger(w io.Writer) (*savedit.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(c.Logging.Format, "json") {
		return savedit.NewJSONLogger(w, level), nil
	}
	return savedit.NewTextLogger(w, level), nil
}

// BackupStore opens the store at backup_root.
func (c *Config) BackupStore(logger *savedit.Logger) (*savedit.BackupStore, error) {
	alg, err := c.Algorithm()
	if err != nil {
		return nil, err
	}
	return savedit.NewBackupStore(c.BackupRoot,
		savedit.WithHashAlgorithm(alg),
		savedit.WithLogger(logger),
	)
}

// DocumentConfig assembles the engine configuration.
func (c *Config) DocumentConfig(logger *savedit.Logger, backups *savedit.BackupStore) (savedit.Config, error) {
	cmap, err := c.Charmap()
	if err != nil {
		return savedit.Config{}, err
	}
	return savedit.Config{
		Fields:     c.Descriptors(),
		Locate:     c.LocateOptions(),
		Strings:    cmap,
		Containers: c.Containers,
		Backups:    backups,
		Logger:     logger,
	}, nil
}
