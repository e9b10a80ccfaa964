// Package chunker provides fixed-size passage chunking for narrative texts.
package chunker

import (
	"fmt"

	"github.com/c360studio/storycheck/narrative"
)

// DefaultChunkSize is the default passage size in characters.
const DefaultChunkSize = 700

// Config holds chunking configuration.
type Config struct {
	// ChunkSize is the passage size in characters (runes).
	ChunkSize int
}

// DefaultConfig returns sensible chunking defaults.
func DefaultConfig() Config {
	return Config{ChunkSize: DefaultChunkSize}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("ChunkSize must be positive, got %d", c.ChunkSize)
	}
	return nil
}

// Chunker splits narrative text into fixed-size passages.
//
// Passages are contiguous, non-overlapping, and cover the whole text in
// original order. No truncation happens at any size: the final passage may
// be shorter than ChunkSize.
type Chunker struct {
	config Config
}

// New creates a new Chunker with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*Chunker, error) {
	if cfg.ChunkSize == 0 {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{config: cfg}, nil
}

// MustNew creates a new Chunker, panicking on invalid config.
// Use for known-good configurations.
func MustNew(cfg Config) *Chunker {
	c, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return c
}

// NewDefault creates a Chunker with default configuration.
func NewDefault() *Chunker {
	return MustNew(DefaultConfig())
}

// Chunk splits text into passages indexed from 0.
// Splitting is rune-based so multi-byte characters are never cut in half.
func (c *Chunker) Chunk(text string) []narrative.Passage {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	size := c.config.ChunkSize

	passages := make([]narrative.Passage, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		passages = append(passages, narrative.Passage{
			Index: len(passages),
			Text:  string(runes[i:end]),
		})
	}
	return passages
}
