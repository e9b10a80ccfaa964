package narrative

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Segmenter splits raw narrative text into ordered passages.
// Implementations must produce contiguous, non-overlapping passages
// indexed from 0.
type Segmenter interface {
	Chunk(text string) []Passage
}

// Store loads narratives from the filesystem and segments them.
type Store struct {
	segmenter Segmenter
}

// NewStore creates a narrative store using the given segmenter.
func NewStore(segmenter Segmenter) *Store {
	return &Store{segmenter: segmenter}
}

// LoadFile reads a narrative text file and returns its segmented form.
// Line endings are normalized to LF before segmentation so chunk boundaries
// do not depend on the file's origin platform.
func (s *Store) LoadFile(path string) (*Narrative, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read narrative: %w", err)
	}

	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))

	return s.FromText(id, string(data)), nil
}

// FromText segments an already-loaded narrative text.
func (s *Store) FromText(id, text string) *Narrative {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &Narrative{
		ID:       id,
		Passages: s.segmenter.Chunk(text),
	}
}
