package metarule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunConfig_LoadFallsBackToDefaultsForOmittedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weight_limit: 0.5\n"), 0o644))

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.WeightLimit)
	assert.Equal(t, DefaultRunConfig().UnifyDepthLimit, cfg.UnifyDepthLimit)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestRunConfig_SaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := RunConfig{
		UnifyDepthLimit:  5,
		WeightLimit:      0.75,
		OnTheFlyProposal: true,
		LogLevel:         "debug",
	}
	require.NoError(t, SaveRunConfig(cfg, path))

	loaded, err := LoadRunConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
