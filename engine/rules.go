package engine

import (
	"strings"

	"github.com/c360studio/storycheck/constraint"
)

// duressMarkers negate voluntariness when present in a passage.
var duressMarkers = []string{"forced", "coerced", "had to"}

// justificationMarkers signal remorse or no-choice framing.
// "apolog" matches both "apologized" and "apologised".
var justificationMarkers = []string{"regret", "apolog", "no choice"}

// nonBetrayalPhrases are explicit negations that must never score as a
// betrayal, even when the bare word "betrayed" appears in the same passage.
var nonBetrayalPhrases = []string{
	"never betray",
	"never betrayed",
	"did not betray",
	"didn't betray",
}

// scoreRule is one entry in the category rule ladder.
// Rules are evaluated in table order; the first rule whose category matches
// the constraint and whose trigger matches the passage wins.
type scoreRule struct {
	category constraint.Category
	trigger  func(text string) bool
	score    int
	reason   string

	// forceUnjustified pins Justified to false on the produced evidence,
	// preventing remorse framing from discounting this rule's score.
	forceUnjustified bool
}

// scoringRules is the ordered rule table. Order matters only within a
// category; categories are mutually exclusive per constraint.
var scoringRules = []scoreRule{
	{
		category:         constraint.CategoryCommitment,
		trigger:          containsAny(nonBetrayalPhrases),
		score:            0,
		reason:           "explicit non-betrayal",
		forceUnjustified: true,
	},
	{
		category: constraint.CategoryCommitment,
		trigger:  containsBetrayed,
		score:    -10,
		reason:   "betrayal",
	},
	{
		category:         constraint.CategoryCapability,
		trigger:          contains("suddenly mastered"),
		score:            -9,
		reason:           "capability jump",
		forceUnjustified: true,
	},
	{
		category: constraint.CategoryIdentity,
		trigger:  contains("no longer who i was"),
		score:    -4,
		reason:   "identity shift",
	},
	{
		category: constraint.CategoryBelief,
		trigger:  contains("became the leader"),
		score:    -3,
		reason:   "belief vs action",
	},
	{
		category:         constraint.CategoryFear,
		trigger:          contains("command"),
		score:            -1,
		reason:           "fear tension",
		forceUnjustified: true,
	},
}

// contains returns a trigger matching a single lowercase substring.
func contains(needle string) func(string) bool {
	return func(text string) bool {
		return strings.Contains(text, needle)
	}
}

// containsAny returns a trigger matching any of the lowercase substrings.
func containsAny(needles []string) func(string) bool {
	return func(text string) bool {
		for _, n := range needles {
			if strings.Contains(text, n) {
				return true
			}
		}
		return false
	}
}

// containsBetrayed matches the word "betrayed" with space boundaries.
// The passage is padded with spaces first so matches at the very start or
// end of the passage count, while substrings inside longer words do not.
func containsBetrayed(text string) bool {
	return strings.Contains(" "+text+" ", " betrayed ")
}
