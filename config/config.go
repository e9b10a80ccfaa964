// Package config provides configuration loading and management for Storycheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Storycheck configuration
type Config struct {
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Narratives NarrativesConfig `yaml:"narratives"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Export     ExportConfig     `yaml:"export"`
	NATS       NATSConfig       `yaml:"nats"`
}

// ChunkerConfig configures narrative segmentation
type ChunkerConfig struct {
	// Size is the maximum passage length in characters (default: 700)
	Size int `yaml:"size"`
}

// NarrativesConfig configures local narrative sources
type NarrativesConfig struct {
	// Dir is the directory watched for narrative files
	Dir string `yaml:"dir"`
	// Patterns are doublestar globs selecting files within Dir
	Patterns []string `yaml:"patterns"`
}

// FetchConfig configures retrieval of web narratives
type FetchConfig struct {
	// Timeout is the maximum time to wait for a page fetch
	Timeout time.Duration `yaml:"timeout"`
	// MaxBodySize caps the downloaded page size in bytes
	MaxBodySize int64 `yaml:"max_body_size"`
}

// ExportConfig configures report rendering
type ExportConfig struct {
	// Format is the default report format (text, json, yaml)
	Format string `yaml:"format"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to use embedded NATS
	Embedded bool `yaml:"embedded"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Chunker: ChunkerConfig{
			Size: 700,
		},
		Narratives: NarrativesConfig{
			Dir:      "narratives",
			Patterns: []string{"**/*.txt", "**/*.md"},
		},
		Fetch: FetchConfig{
			Timeout:     30 * time.Second,
			MaxBodySize: 10 * 1024 * 1024,
		},
		Export: ExportConfig{
			Format: "text",
		},
		NATS: NATSConfig{
			URL:      "",
			Embedded: true,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Chunker.Size <= 0 {
		return fmt.Errorf("chunker.size must be positive")
	}
	if c.Narratives.Dir == "" {
		return fmt.Errorf("narratives.dir is required")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxBodySize <= 0 {
		return fmt.Errorf("fetch.max_body_size must be positive")
	}
	switch c.Export.Format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("export.format must be one of text, json, yaml")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Chunker
	if other.Chunker.Size != 0 {
		c.Chunker.Size = other.Chunker.Size
	}

	// Narratives
	if other.Narratives.Dir != "" {
		c.Narratives.Dir = other.Narratives.Dir
	}
	if len(other.Narratives.Patterns) > 0 {
		c.Narratives.Patterns = other.Narratives.Patterns
	}

	// Fetch
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.MaxBodySize != 0 {
		c.Fetch.MaxBodySize = other.Fetch.MaxBodySize
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = false
	}
}
