package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "peepdrive.txt", cfg.Output)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "/var/lib/peepdrive/history.db", cfg.History.Path)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"output: /srv/reports/lvm.txt\nhistory:\n  enabled: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/reports/lvm.txt", cfg.Output)
	assert.True(t, cfg.History.Enabled)
	// Unset values are filled from defaults.
	assert.Equal(t, "/var/lib/peepdrive/history.db", cfg.History.Path)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
