// Package config loads and validates the sampler tool configuration.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tejas7777/data-sampler/internal/errors"
)

// Config represents the complete tool configuration.
type Config struct {
	// Sampler configures the resampling core.
	Sampler SamplerConfig `yaml:"sampler"`

	// Export configures Parquet export.
	Export ExportConfig `yaml:"export"`

	// Query configures the query service.
	Query QueryConfig `yaml:"query"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// SamplerConfig configures the resampling core.
type SamplerConfig struct {
	// IntervalMinutes is the default sampling interval in minutes.
	IntervalMinutes int `yaml:"interval_minutes"`
}

// ExportConfig configures Parquet export.
type ExportConfig struct {
	// Dir is the directory exported Parquet files are written to.
	Dir string `yaml:"dir"`

	// Compression configures Parquet compression.
	Compression CompressionConfig `yaml:"compression"`
}

// CompressionConfig configures Parquet compression.
type CompressionConfig struct {
	// Algorithm is the compression algorithm: snappy, zstd, lz4, gzip, none.
	Algorithm string `yaml:"algorithm"`

	// Level is the compression level (for zstd: 1-22).
	Level int `yaml:"level"`
}

// QueryConfig configures the query service.
type QueryConfig struct {
	// MemoryLimit is the DuckDB memory limit.
	MemoryLimit string `yaml:"memory_limit"`

	// Timeout is the query timeout.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRows is the maximum number of rows returned.
	MaxRows int `yaml:"max_rows"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `yaml:"level"`

	// JSON switches output to JSON format.
	JSON bool `yaml:"json"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sampler: SamplerConfig{
			IntervalMinutes: 5,
		},
		Export: ExportConfig{
			Dir: "data",
			Compression: CompressionConfig{
				Algorithm: "zstd",
				Level:     3,
			},
		},
		Query: QueryConfig{
			MemoryLimit: "512MB",
			Timeout:     30 * time.Second,
			MaxRows:     1000000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	errs := errors.NewValidationErrors()

	if c.Sampler.IntervalMinutes <= 0 {
		errs.AddField("sampler.interval_minutes", "must be a positive integer")
	}
	if c.Export.Dir == "" {
		errs.AddField("export.dir", "must not be empty")
	}
	switch c.Export.Compression.Algorithm {
	case "", "none", "snappy", "zstd", "lz4", "gzip":
	default:
		errs.AddField("export.compression.algorithm", "must be one of: none, snappy, zstd, lz4, gzip")
	}
	if c.Query.MaxRows < 0 {
		errs.AddField("query.max_rows", "must not be negative")
	}
	if c.Query.Timeout < 0 {
		errs.AddField("query.timeout", "must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs.AddField("logging.level", "must be one of: debug, info, warn, error")
	}

	return errs.Err()
}
