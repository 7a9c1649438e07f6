package config

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsAndResolvesDataDir(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")

	cfg, err := Load(dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.DevMode)
	assert.Equal(t, 60, cfg.Graph.WarmupSteps)
	assert.True(t, cfg.Executor.CommissionRate.Equal(decimal.New(5, -4)))
}

func TestLoadRejectsNonPositiveGridInterval(t *testing.T) {
	t.Setenv("FEATURE_STORE_GRID_INTERVAL", "0s")
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestLoadRejectsArchiveEnabledWithoutBucket(t *testing.T) {
	t.Setenv("ARCHIVE_ENABLED", "true")
	_, err := Load(t.TempDir())
	require.Error(t, err)
}
