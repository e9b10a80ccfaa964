// Package constraint defines the behavioral constraint model derived from
// character backstories.
package constraint

// Category classifies the kind of behavioral constraint.
type Category string

const (
	// CategoryBelief is a conviction the character holds.
	// Example: "Distrusts authority".
	CategoryBelief Category = "BELIEF"

	// CategoryCommitment is an obligation toward another party.
	// Example: "Never betrays close allies".
	CategoryCommitment Category = "COMMITMENT"

	// CategoryFear is an aversion that shapes behavior.
	// Example: "Avoids positions of power".
	CategoryFear Category = "FEAR"

	// CategoryCapability is a skill limit the character cannot exceed.
	// Example: "Never learned to read".
	CategoryCapability Category = "CAPABILITY"

	// CategoryIdentity is a core self-concept constraint.
	// Example: "I am a healer, not a soldier".
	CategoryIdentity Category = "IDENTITY"
)

// Categories lists all recognized constraint categories.
var Categories = []Category{
	CategoryBelief,
	CategoryCommitment,
	CategoryFear,
	CategoryCapability,
	CategoryIdentity,
}

// IsValid reports whether the category is one of the recognized values.
// Unrecognized categories are not an error for scoring — they simply match
// no rule — but derivers must only emit valid ones.
func (c Category) IsValid() bool {
	switch c {
	case CategoryBelief, CategoryCommitment, CategoryFear, CategoryCapability, CategoryIdentity:
		return true
	}
	return false
}

// String returns the category name.
func (c Category) String() string {
	return string(c)
}

// Constraint is a behavioral rule derived from a backstory.
// Constraints are immutable values: created once per run by a deriver and
// never modified afterwards.
type Constraint struct {
	// ID uniquely identifies the constraint within a run.
	ID string `json:"id"`

	// Category determines which scoring rules apply.
	Category Category `json:"category"`

	// Description is a human-readable statement of the constraint.
	Description string `json:"description"`

	// BaseWeight scales the constraint's aggregated score.
	BaseWeight float64 `json:"base_weight"`

	// Precedence is the constraint's strength multiplier in the final
	// weighted sum. Higher means stronger.
	Precedence int `json:"precedence"`

	// Stateful marks constraints whose standing could evolve over the
	// narrative. Reserved for future scoring; part of the record's identity.
	Stateful bool `json:"stateful"`
}
