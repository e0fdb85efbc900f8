package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Agents, cfg.Agents)
}

func TestLoadOverridesDefaultsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"addr":":9999","agents":{"vehicles":42}}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 42, cfg.Agents.Vehicles)
}

func TestBoundsRandomPositionWithinRange(t *testing.T) {
	b := DefaultConfig().Bounds
	pos := b.RandomPosition(func() float64 { return 0.5 })
	assert.GreaterOrEqual(t, pos.Latitude, b.MinLat)
	assert.LessOrEqual(t, pos.Latitude, b.MaxLat)
}
