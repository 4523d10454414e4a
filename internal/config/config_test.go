package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/jpl-au/savedit"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, DefaultBackupRoot(), config.BackupRoot)
	assert.Equal(t, 30, config.RetentionDays)
	assert.Equal(t, "xxh3", config.HashAlgorithm)
	assert.False(t, config.Containers)
	assert.Equal(t, 8, config.Locate.SlotSize)
	assert.Equal(t, int64(-1_000_000), config.Locate.Min)
	assert.Equal(t, int64(10_000_000_000), config.Locate.Max)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Nil(t, config.Descriptors(), "empty fields select the built-in table")
	require.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		expected := &Config{
			BackupRoot:     "/custom/backups",
			RetentionDays:  7,
			HashAlgorithm:  "blake2b",
			StringEncoding: "latin1",
			Containers:     true,
			Locate:         Locate{SlotSize: 4, Min: 0, Max: 1_000_000},
			Logging:        Logging{Level: "debug", Format: "json"},
			Fields: []savedit.FieldDescriptor{
				{Name: "money", Offset: 0x40, Size: 4, Kind: savedit.KindInt32, Endian: savedit.BigEndian},
			},
		}

		require.NoError(t, SaveConfig(expected, configPath))

		loaded, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expected, loaded)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("retention_days: 3\n"), 0644))

		loaded, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, 3, loaded.RetentionDays)
		assert.Equal(t, "xxh3", loaded.HashAlgorithm)
		assert.Equal(t, 8, loaded.Locate.SlotSize)
	})

	t.Run("field kinds and hex offsets by name", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		yml := `fields:
  - name: gold
    offset: 0x1234
    size: 8
    kind: int64
    endian: little
  - name: title
    offset: 16
    size: 32
    kind: string
`
		require.NoError(t, os.WriteFile(configPath, []byte(yml), 0644))

		loaded, err := LoadConfig(configPath)
		require.NoError(t, err)
		require.Len(t, loaded.Fields, 2)
		assert.Equal(t, 0x1234, loaded.Fields[0].Offset)
		assert.Equal(t, savedit.KindInt64, loaded.Fields[0].Kind)
		assert.Equal(t, savedit.KindString, loaded.Fields[1].Kind)
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("load invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "invalid.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644))

		_, err := LoadConfig(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("unknown kind rejected", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		yml := "fields:\n  - {name: x, offset: 0, size: 3, kind: int24}\n"
		require.NoError(t, os.WriteFile(configPath, []byte(yml), 0644))

		_, err := LoadConfig(configPath)
		assert.Error(t, err)
	})

	t.Run("descriptor with wrong size rejected", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		yml := "fields:\n  - {name: x, offset: 0, size: 3, kind: int32}\n"
		require.NoError(t, os.WriteFile(configPath, []byte(yml), 0644))

		_, err := LoadConfig(configPath)
		require.Error(t, err)
		assert.ErrorIs(t, err, savedit.ErrInvalidSize)
	})
}

func TestSaveConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SaveConfig(DefaultConfig(), configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.True(t, ConfigExists(configPath))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"negative retention", func(c *Config) { c.RetentionDays = -1 }},
		{"unknown hash", func(c *Config) { c.HashAlgorithm = "md5" }},
		{"unknown encoding", func(c *Config) { c.StringEncoding = "ebcdic" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.modify(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestConversions(t *testing.T) {
	c := DefaultConfig()

	c.HashAlgorithm = "fnv1a"
	alg, err := c.Algorithm()
	require.NoError(t, err)
	assert.Equal(t, savedit.AlgFNV1a, alg)

	c.StringEncoding = "cp1252"
	cm, err := c.Charmap()
	require.NoError(t, err)
	assert.Equal(t, charmap.Windows1252, cm)

	c.Logging.Level = "error"
	level, err := c.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)

	c.BackupRoot = filepath.Join(t.TempDir(), "backups")
	store, err := c.BackupStore(savedit.NoopLogger())
	require.NoError(t, err)
	assert.DirExists(t, store.Root())

	dc, err := c.DocumentConfig(savedit.NoopLogger(), store)
	require.NoError(t, err)
	assert.Same(t, store, dc.Backups)
	assert.Equal(t, charmap.Windows1252, dc.Strings)
	assert.Equal(t, 8, dc.Locate.SlotSize)
}
