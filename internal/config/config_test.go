package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "auto", cfg.Clustering.Method)
	assert.Equal(t, 1000, cfg.Clustering.AutoSizeThreshold)
	assert.Equal(t, 0.95, cfg.Preprocessing.VarianceRetained)
	assert.Equal(t, 3, cfg.Profiling.TopDominantFeatures)
	assert.Equal(t, 0.3, cfg.Merge.WeightPrevious)
	assert.Equal(t, 0.7, cfg.Merge.WeightCurrent)
}

func TestLoad_FileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cohort.yaml")
	body := `
clustering:
  method: density
  density_radius_override: 0.8
profiling:
  top_dominant_features: 5
unknown_key: ignored
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "density", cfg.Clustering.Method)
	assert.Equal(t, 0.8, cfg.Clustering.DensityRadiusOverride)
	assert.Equal(t, 5, cfg.Profiling.TopDominantFeatures)
	// Untouched keys keep defaults.
	assert.Equal(t, 1000, cfg.Clustering.AutoSizeThreshold)
	assert.Equal(t, 0.7, cfg.Merge.WeightCurrent)
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clustering: [not a map"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("COHORT_DB overrides database path", func(t *testing.T) {
		t.Setenv("COHORT_DB", "/tmp/override.db")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/tmp/override.db", cfg.Store.DatabasePath)
	})

	t.Run("COHORT_CLUSTERS must be a positive integer", func(t *testing.T) {
		t.Setenv("COHORT_CLUSTERS", "banana")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 0, cfg.Clustering.ClusterCountOverride)

		t.Setenv("COHORT_CLUSTERS", "4")
		cfg.applyEnvOverrides()
		assert.Equal(t, 4, cfg.Clustering.ClusterCountOverride)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"bad method", func(c *Config) { c.Clustering.Method = "kmedoids" }, true},
		{"variance above 1", func(c *Config) { c.Preprocessing.VarianceRetained = 1.5 }, true},
		{"zero dominant features", func(c *Config) { c.Profiling.TopDominantFeatures = 0 }, true},
		{"negative merge weight", func(c *Config) { c.Merge.WeightPrevious = -0.1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
