// Package backstory derives behavioral constraints from free-text character
// backstories using keyword presence.
package backstory

import (
	"strings"

	"github.com/c360studio/storycheck/constraint"
)

// derivationRule maps trigger keywords to the constraint they activate.
// Rules are evaluated in order; each can fire at most once per backstory.
type derivationRule struct {
	keywords   []string
	constraint constraint.Constraint
}

// derivationTable is the fixed keyword-to-constraint mapping.
// Keyword matching is case-insensitive substring matching on the backstory.
var derivationTable = []derivationRule{
	{
		keywords: []string{"authority"},
		constraint: constraint.Constraint{
			ID:          "C1",
			Category:    constraint.CategoryBelief,
			Description: "Distrusts authority",
			BaseWeight:  1.0,
			Precedence:  2,
			Stateful:    true,
		},
	},
	{
		keywords: []string{"betray", "loyal"},
		constraint: constraint.Constraint{
			ID:          "C2",
			Category:    constraint.CategoryCommitment,
			Description: "Never betrays close allies",
			BaseWeight:  2.0,
			Precedence:  5,
			Stateful:    true,
		},
	},
	{
		keywords: []string{"fear", "avoid"},
		constraint: constraint.Constraint{
			ID:          "C3",
			Category:    constraint.CategoryFear,
			Description: "Avoids positions of power",
			BaseWeight:  0.8,
			Precedence:  1,
			Stateful:    false,
		},
	},
	{
		keywords: []string{"cannot", "never learned"},
		constraint: constraint.Constraint{
			ID:          "C4",
			Category:    constraint.CategoryCapability,
			Description: "Lacks key capability",
			BaseWeight:  1.5,
			Precedence:  3,
			Stateful:    true,
		},
	},
	{
		keywords: []string{"identity", "i am"},
		constraint: constraint.Constraint{
			ID:          "C5",
			Category:    constraint.CategoryIdentity,
			Description: "Core self-concept constraint",
			BaseWeight:  1.2,
			Precedence:  4,
			Stateful:    true,
		},
	},
}

// Deriver extracts constraints from backstory text.
type Deriver struct{}

// NewDeriver creates a backstory constraint deriver.
func NewDeriver() *Deriver {
	return &Deriver{}
}

// Derive returns the constraints activated by the backstory.
// The result may be empty; constraint IDs are unique within the result.
func (d *Deriver) Derive(backstory string) []constraint.Constraint {
	text := strings.ToLower(backstory)

	var out []constraint.Constraint
	for _, rule := range derivationTable {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				out = append(out, rule.constraint)
				break
			}
		}
	}
	return out
}
