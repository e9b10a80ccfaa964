// Package narrative provides types and loading for narrative texts.
package narrative

// Passage is one contiguous segment of a narrative.
// Passages are indexed from 0 in original order, non-overlapping, and
// together cover the full text with no gaps.
type Passage struct {
	// Index is the 0-based position of the passage in the narrative.
	Index int `json:"index"`

	// Text is the passage content.
	Text string `json:"text"`
}

// Narrative is a segmented narrative text ready for checking.
type Narrative struct {
	// ID identifies the narrative (typically derived from its path or URL).
	ID string `json:"id"`

	// Title is the display title, when known.
	Title string `json:"title,omitempty"`

	// Passages is the ordered passage sequence.
	Passages []Passage `json:"passages"`
}

// Texts returns the passage contents in order.
func (n *Narrative) Texts() []string {
	out := make([]string, len(n.Passages))
	for i, p := range n.Passages {
		out[i] = p.Text
	}
	return out
}
