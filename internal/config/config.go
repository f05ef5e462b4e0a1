// Package config loads cohort engine configuration from YAML with
// documented defaults. Unknown keys in the file are ignored; missing keys
// keep their defaults. A handful of environment variables override the
// file for deployment convenience.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all cohort engine configuration.
type Config struct {
	// Clustering settings
	Clustering ClusteringConfig `yaml:"clustering"`

	// Preprocessing settings
	Preprocessing PreprocessingConfig `yaml:"preprocessing"`

	// Profiling settings
	Profiling ProfilingConfig `yaml:"profiling"`

	// Temporal merge weights
	Merge MergeConfig `yaml:"merge"`

	// Run-history store
	Store StoreConfig `yaml:"store"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ClusteringConfig configures method selection and auto-tuning.
type ClusteringConfig struct {
	// Method: auto, partitional, density, mixture
	Method string `yaml:"method"`

	// ClusterCountOverride skips elbow detection when > 0.
	ClusterCountOverride int `yaml:"cluster_count_override"`

	// DensityRadiusOverride skips eps estimation when > 0.
	DensityRadiusOverride float64 `yaml:"density_radius_override"`

	// AutoSizeThreshold: record count above which auto picks partitional.
	AutoSizeThreshold int `yaml:"auto_size_threshold"`

	// Advisory group size bounds, reported but not enforced by the fitter.
	MinGroupSize int `yaml:"min_group_size"`
	MaxGroupSize int `yaml:"max_group_size"`
}

// PreprocessingConfig configures the feature pipeline.
type PreprocessingConfig struct {
	// VarianceRetained: PCA keeps the fewest components explaining this
	// fraction of variance. 0 disables dimensionality reduction.
	VarianceRetained float64 `yaml:"variance_retained"`

	// ReduceDimensions toggles the PCA step.
	ReduceDimensions bool `yaml:"reduce_dimensions"`
}

// ProfilingConfig configures group profiling.
type ProfilingConfig struct {
	// TopDominantFeatures: how many deviation-ranked features per group.
	TopDominantFeatures int `yaml:"top_dominant_features"`

	// IncludeCorrelation adds the per-group correlation matrix.
	IncludeCorrelation bool `yaml:"include_correlation"`
}

// MergeConfig configures temporal blending of successive runs.
type MergeConfig struct {
	WeightPrevious float64 `yaml:"weight_previous"`
	WeightCurrent  float64 `yaml:"weight_current"`
}

// StoreConfig configures the SQLite run-history store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Enabled    bool            `yaml:"enabled"`
	Directory  string          `yaml:"directory"`
	Level      string          `yaml:"level"` // debug, info
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Clustering: ClusteringConfig{
			Method:            "auto",
			AutoSizeThreshold: 1000,
			MinGroupSize:      3,
			MaxGroupSize:      50,
		},
		Preprocessing: PreprocessingConfig{
			VarianceRetained: 0.95,
			ReduceDimensions: false,
		},
		Profiling: ProfilingConfig{
			TopDominantFeatures: 3,
		},
		Merge: MergeConfig{
			WeightPrevious: 0.3,
			WeightCurrent:  0.7,
		},
		Store: StoreConfig{
			DatabasePath: "data/cohort.db",
		},
		Logging: LoggingConfig{
			Enabled:   false,
			Directory: ".cohort/logs",
			Level:     "info",
		},
	}
}

// Load loads configuration from a YAML file, merging over defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("COHORT_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if method := os.Getenv("COHORT_METHOD"); method != "" {
		c.Clustering.Method = method
	}
	if k := os.Getenv("COHORT_CLUSTERS"); k != "" {
		if n, err := strconv.Atoi(k); err == nil && n > 0 {
			c.Clustering.ClusterCountOverride = n
		}
	}
	if dir := os.Getenv("COHORT_LOG_DIR"); dir != "" {
		c.Logging.Directory = dir
		c.Logging.Enabled = true
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	switch c.Clustering.Method {
	case "auto", "partitional", "density", "mixture":
	default:
		return fmt.Errorf("unknown clustering method %q", c.Clustering.Method)
	}
	if c.Preprocessing.VarianceRetained < 0 || c.Preprocessing.VarianceRetained > 1 {
		return fmt.Errorf("variance_retained must be in [0,1], got %v", c.Preprocessing.VarianceRetained)
	}
	if c.Profiling.TopDominantFeatures < 1 {
		return fmt.Errorf("top_dominant_features must be >= 1, got %d", c.Profiling.TopDominantFeatures)
	}
	if c.Merge.WeightPrevious < 0 || c.Merge.WeightCurrent < 0 {
		return fmt.Errorf("merge weights must be non-negative")
	}
	return nil
}
