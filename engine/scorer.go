package engine

import (
	"strings"

	"github.com/c360studio/storycheck/constraint"
)

// Scorer produces evidence for one constraint against one passage.
// Scoring is a pure function: deterministic, case-insensitive substring
// matching with no shared state, so passages may be scored in any order
// or in parallel.
type Scorer struct{}

// NewScorer creates an evidence scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score evaluates a single passage against a constraint.
// Any string input is valid; a constraint with an unrecognized category
// matches no rule and yields neutral zero-score evidence.
func (s *Scorer) Score(c constraint.Constraint, passage string, passageID int) Evidence {
	text := strings.ToLower(passage)

	voluntary := !containsAny(duressMarkers)(text)
	justified := containsAny(justificationMarkers)(text)

	for _, rule := range scoringRules {
		if rule.category != c.Category {
			continue
		}
		if !rule.trigger(text) {
			continue
		}

		ev := Evidence{
			PassageID: passageID,
			Score:     rule.score,
			Reason:    rule.reason,
			Voluntary: voluntary,
			Justified: justified,
		}
		if rule.forceUnjustified {
			ev.Justified = false
		}
		return ev
	}

	return Evidence{
		PassageID: passageID,
		Voluntary: voluntary,
		Justified: false,
	}
}
