package narrativeingester

import (
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"
)

// Config holds configuration for the narrative-ingester processor component.
type Config struct {
	Ports *component.PortConfig `json:"ports" schema:"type:ports,description:Port configuration,category:basic"`

	// StreamName is the JetStream stream for narrative check requests.
	StreamName string `json:"stream_name" schema:"type:string,description:JetStream stream name,category:basic,default:NARRATIVES"`

	// ConsumerName is the durable consumer name.
	ConsumerName string `json:"consumer_name" schema:"type:string,description:Durable consumer name,category:basic,default:narrative-ingester"`

	// ChunkSize is the passage size in characters. Zero selects the default (700).
	ChunkSize int `json:"chunk_size" schema:"type:int,description:Passage size in characters,category:basic,default:700"`

	// FetchTimeout is the maximum time for fetching a web narrative.
	FetchTimeout string `json:"fetch_timeout" schema:"type:string,description:HTTP fetch timeout,category:advanced,default:30s"`

	// MaxContentSize is the maximum response body size in bytes.
	MaxContentSize int64 `json:"max_content_size" schema:"type:int,description:Maximum content size in bytes,category:advanced,default:10485760"`

	// UserAgent is the User-Agent header for HTTP requests.
	UserAgent string `json:"user_agent" schema:"type:string,description:HTTP User-Agent header,category:advanced,default:storycheck-narrative-ingester/1.0"`

	// NarrativesDir is the directory watched for narrative files.
	NarrativesDir string `json:"narratives_dir" schema:"type:string,description:Directory watched for narrative files,category:basic,default:narratives"`

	// Watch holds file watching configuration.
	Watch WatchConfig `json:"watch" schema:"type:object,description:File watching configuration,category:advanced"`
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.StreamName == "" {
		return fmt.Errorf("stream_name is required")
	}
	if c.ConsumerName == "" {
		return fmt.Errorf("consumer_name is required")
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be non-negative")
	}
	if c.FetchTimeout != "" {
		if _, err := time.ParseDuration(c.FetchTimeout); err != nil {
			return fmt.Errorf("invalid fetch_timeout format: %w", err)
		}
	}
	if c.MaxContentSize < 0 {
		return fmt.Errorf("max_content_size must be non-negative")
	}
	if c.Watch.DebounceDelay != "" {
		if _, err := time.ParseDuration(c.Watch.DebounceDelay); err != nil {
			return fmt.Errorf("invalid watch.debounce_delay format: %w", err)
		}
	}
	return nil
}

// parseDurationOrDefault parses a duration string and returns the default if empty or invalid.
func parseDurationOrDefault(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// GetFetchTimeout returns the fetch timeout as a duration.
func (c *Config) GetFetchTimeout() time.Duration {
	return parseDurationOrDefault(c.FetchTimeout, 30*time.Second)
}

// GetMaxContentSize returns the max content size with default.
func (c *Config) GetMaxContentSize() int64 {
	if c.MaxContentSize <= 0 {
		return 10 * 1024 * 1024 // 10MB default
	}
	return c.MaxContentSize
}

// GetUserAgent returns the user agent with default.
func (c *Config) GetUserAgent() string {
	if c.UserAgent == "" {
		return "storycheck-narrative-ingester/1.0"
	}
	return c.UserAgent
}

// GetNarrativesDir returns the narratives directory with default.
func (c *Config) GetNarrativesDir() string {
	if c.NarrativesDir == "" {
		return "narratives"
	}
	return c.NarrativesDir
}

// DefaultConfig returns default configuration for narrative-ingester processor.
func DefaultConfig() Config {
	inputDefs := []component.PortDefinition{
		{
			Name:        "narrative.in",
			Type:        "jetstream",
			Subject:     "narrative.check.request.>",
			StreamName:  "NARRATIVES",
			Required:    true,
			Description: "Narrative consistency check requests",
		},
	}

	outputDefs := []component.PortDefinition{
		{
			Name:        "report.out",
			Type:        "jetstream",
			Subject:     "narrative.check.report",
			StreamName:  "REPORTS",
			Required:    true,
			Description: "Consistency decision reports",
		},
	}

	return Config{
		Ports: &component.PortConfig{
			Inputs:  inputDefs,
			Outputs: outputDefs,
		},
		StreamName:     "NARRATIVES",
		ConsumerName:   "narrative-ingester",
		ChunkSize:      700,
		FetchTimeout:   "30s",
		MaxContentSize: 10 * 1024 * 1024, // 10MB
		UserAgent:      "storycheck-narrative-ingester/1.0",
		NarrativesDir:  "narratives",
		Watch:          DefaultWatchConfig(),
	}
}
