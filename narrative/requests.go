package narrative

import "fmt"

// CheckRequest asks for a consistency check of one narrative against one
// backstory. Exactly one of Text, Path, or URL names the narrative source.
type CheckRequest struct {
	// RequestID correlates the eventual report with this request.
	RequestID string `json:"request_id,omitempty"`

	// NarrativeID optionally labels the narrative. When empty an ID is
	// derived from the source (file name or URL).
	NarrativeID string `json:"narrative_id,omitempty"`

	// Backstory is the character backstory to derive constraints from.
	Backstory string `json:"backstory"`

	// Text is the inline narrative text.
	Text string `json:"text,omitempty"`

	// Path is a local narrative file path.
	Path string `json:"path,omitempty"`

	// URL is an HTTPS narrative page.
	URL string `json:"url,omitempty"`
}

// Validate checks that the request names a backstory and exactly one source.
func (r *CheckRequest) Validate() error {
	if r.Backstory == "" {
		return fmt.Errorf("backstory is required")
	}
	sources := 0
	if r.Text != "" {
		sources++
	}
	if r.Path != "" {
		sources++
	}
	if r.URL != "" {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("one of text, path, or url is required")
	}
	if sources > 1 {
		return fmt.Errorf("text, path, and url are mutually exclusive")
	}
	return nil
}
