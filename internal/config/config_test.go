package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BINGE_HOME", dir)
	t.Setenv("BINGE_DB", "")
	t.Setenv("BINGE_LOG_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "binge.db"), cfg.DatabasePath)
	assert.Equal(t, "optimized", cfg.SortOrder)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, DefaultProductID, cfg.ProductID)
	assert.True(t, cfg.ConfirmDelete)
}

func TestSaveAndLoad(t *testing.T) {
	t.Setenv("BINGE_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.SortOrder = "title"
	cfg.ConfirmDelete = false
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "title", loaded.SortOrder)
	assert.False(t, loaded.ConfirmDelete)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BINGE_HOME", t.TempDir())
	t.Setenv("BINGE_DB", "/tmp/other.db")
	t.Setenv("BINGE_LOG_CONSOLE", "true")

	cfg := DefaultConfig()
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.True(t, cfg.LogConsole)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BINGE_HOME", dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("sort_order: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}
