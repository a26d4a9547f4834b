// Package config loads ragmesh configuration from a YAML file with
// environment overrides, producing the explicit settings objects the rest of
// the module is constructed with (resolve.Config, logging level, retrieval
// defaults). Nothing reads configuration ambiently at call time.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Default retrieval parameters applied when the file leaves them unset.
const (
	defaultTopK      = 10
	defaultThreshold = 0.5
	defaultLocation  = "us-central1"
)

// Config holds all ragmesh configuration.
type Config struct {
	// Project is the cloud project owning the corpora.
	Project string `yaml:"project"`
	// Location is the region corpora live in.
	Location string `yaml:"location"`

	// Retrieval tunes rag_query defaults.
	Retrieval RetrievalConfig `yaml:"retrieval"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// RetrievalConfig tunes the retrieval pass-through.
type RetrievalConfig struct {
	// TopK is the number of chunks requested per query.
	TopK int `yaml:"top_k"`
	// VectorDistanceThreshold filters chunks by vector distance.
	VectorDistanceThreshold float64 `yaml:"vector_distance_threshold"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns a configuration with sane defaults and no project set.
func Default() *Config {
	return &Config{
		Location: defaultLocation,
		Retrieval: RetrievalConfig{
			TopK:                    defaultTopK,
			VectorDistanceThreshold: defaultThreshold,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path, fills unset fields with defaults, and
// applies environment overrides. A missing file is not an error: defaults
// plus environment are returned, so env-only deployments need no file.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.ApplyEnv()
	return cfg, nil
}

// FromEnv returns the default configuration with environment overrides
// applied, for deployments without a config file.
func FromEnv() *Config {
	cfg := Default()
	cfg.ApplyEnv()
	return cfg
}

// ApplyEnv overrides fields from the process environment. Environment wins
// over file values:
//
//	GOOGLE_CLOUD_PROJECT   -> Project
//	GOOGLE_CLOUD_LOCATION  -> Location
//	RAGMESH_TOP_K          -> Retrieval.TopK
//	RAGMESH_LOG_LEVEL      -> Logging.Level
//	RAGMESH_LOG_FORMAT     -> Logging.Format
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GOOGLE_CLOUD_PROJECT"); v != "" {
		c.Project = v
	}
	if v := os.Getenv("GOOGLE_CLOUD_LOCATION"); v != "" {
		c.Location = v
	}
	if v := os.Getenv("RAGMESH_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.TopK = n
		}
	}
	if v := os.Getenv("RAGMESH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("RAGMESH_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
}

func (c *Config) applyDefaults() {
	if c.Location == "" {
		c.Location = defaultLocation
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = defaultTopK
	}
	if c.Retrieval.VectorDistanceThreshold == 0 {
		c.Retrieval.VectorDistanceThreshold = defaultThreshold
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate reports configuration errors that would break registry access.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project is required (set project in the config file or GOOGLE_CLOUD_PROJECT)")
	}
	if c.Location == "" {
		return fmt.Errorf("location is required")
	}
	if c.Retrieval.TopK < 1 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Retrieval.VectorDistanceThreshold < 0 || c.Retrieval.VectorDistanceThreshold > 1 {
		return fmt.Errorf("retrieval.vector_distance_threshold must be within [0, 1], got %v", c.Retrieval.VectorDistanceThreshold)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
