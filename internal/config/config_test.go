package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOverridesNonZeroFields(t *testing.T) {
	c := DefaultConfig()
	c.Apply(Config{LogLevel: "debug", ExportDir: "/tmp/out"})

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "/tmp/out", c.ExportDir)
	assert.Equal(t, "tsv", c.DataFormat)
}

func TestLoadMissingFileReturnsZeroConfig(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, Config{}, c)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")
	want := Config{
		FileFormats: []string{"tsv", "csv"},
		DataFormat:  "json",
		ExportDir:   "./out",
		LogLevel:    "warn",
	}

	require.NoError(t, Save(path, want))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolveLayersDefaultsSettingsAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, Save(path, Config{LogLevel: "warn", ExportDir: "./settings-dir"}))

	resolved, err := Resolve(path, Config{ExportDir: "./flag-dir"})
	require.NoError(t, err)

	assert.Equal(t, "warn", resolved.LogLevel)       // from settings file
	assert.Equal(t, "./flag-dir", resolved.ExportDir) // flags win over settings
	assert.Equal(t, "tsv", resolved.DataFormat)       // default, untouched
}
