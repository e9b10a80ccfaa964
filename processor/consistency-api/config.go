package consistencyapi

import (
	"fmt"
	"reflect"

	"github.com/c360studio/semstreams/component"
)

// consistencyAPISchema holds the configuration schema generated from Config.
var consistencyAPISchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// Config holds configuration for the consistency-api component.
type Config struct {
	// ChunkSize is the passage size in characters used when a request
	// submits raw narrative text. Zero selects the default (700).
	ChunkSize int `json:"chunk_size" schema:"type:int,description:Passage size in characters,category:basic,default:700"`

	// Ports declares optional HTTP port configuration.
	Ports *component.PortConfig `json:"ports,omitempty" schema:"type:ports,description:Port configuration,category:basic"`
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{ChunkSize: 700}
}

// Validate verifies the configuration is consistent.
// ChunkSize may be zero — the chunker falls back to its default.
func (c *Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size cannot be negative")
	}
	return nil
}
