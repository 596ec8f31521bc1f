package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/riichi-tools/mjview/internal/resolver"
)

// Defaults for unspecified configuration values.
const (
	DefaultTemplate  = "index.example.html"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// Config carries everything one batch run needs. It is built once from
// the config file and flags, then passed explicitly into the
// orchestrator; nothing reads it as ambient state.
type Config struct {
	// Input is a compressed log file or a directory of them.
	Input string `yaml:"input"`

	// Template is the viewer template path.
	Template string `yaml:"template"`

	// Output is the directory for generated viewers. Empty means
	// alongside each input file.
	Output string `yaml:"output,omitempty"`

	// Pattern selects files in directory mode.
	Pattern string `yaml:"pattern,omitempty"`

	// Limit caps the number of files processed; 0 means unbounded.
	Limit int `yaml:"limit,omitempty"`

	// Workers is the number of files rendered concurrently.
	Workers int `yaml:"workers,omitempty"`

	// StrictRecords promotes any malformed line to a whole-file
	// failure instead of skipping the line.
	StrictRecords bool `yaml:"strict_records,omitempty"`

	// Watch keeps the process alive and regenerates viewers as new
	// logs appear in the input directory.
	Watch bool `yaml:"watch,omitempty"`

	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults sets default values for unspecified configuration
func (c *Config) ApplyDefaults() {
	if c.Template == "" {
		c.Template = DefaultTemplate
	}
	if c.Pattern == "" {
		c.Pattern = resolver.DefaultPattern
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Validate checks the configuration for obvious mistakes before any
// file is touched.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", c.Limit)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
