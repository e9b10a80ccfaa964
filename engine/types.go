// Package engine implements the constraint evidence engine: per-passage
// evidence scoring, temporal aggregation, and the final consistency decision.
package engine

import "github.com/c360studio/storycheck/constraint"

// Decision values for a consistency check.
const (
	// DecisionConsistent means the narrative honors the backstory constraints.
	DecisionConsistent = 1

	// DecisionInconsistent means at least one constraint was broken.
	DecisionInconsistent = 0
)

// Evidence is one observation of a constraint's status in one passage.
// Only non-zero-score evidence is retained for aggregation.
type Evidence struct {
	// PassageID is the 0-based index of the passage that produced this
	// evidence.
	PassageID int `json:"passage_id"`

	// Score is the violation magnitude. Zero means no signal; negative
	// values are violations. The current rule set produces no positive
	// scores.
	Score int `json:"score"`

	// Reason is a short tag naming the rule that fired. Empty when no
	// rule matched.
	Reason string `json:"reason,omitempty"`

	// Voluntary is false when the passage frames the action as done
	// under duress.
	Voluntary bool `json:"voluntary"`

	// Justified is true when the passage carries remorse or no-choice
	// framing. Some rules force this false regardless of framing.
	Justified bool `json:"justified"`
}

// ConstraintTrace is the per-constraint aggregation result.
type ConstraintTrace struct {
	// Constraint is the constraint this trace belongs to.
	Constraint constraint.Constraint `json:"constraint"`

	// Evidence holds the retained (non-zero) evidence in passage order.
	Evidence []Evidence `json:"evidence,omitempty"`

	// FinalScore is the aggregated, base-weight-scaled score.
	FinalScore float64 `json:"final_score"`

	// CausalValid is true when at least one piece of evidence occurs
	// after the opening 10% of the narrative. Violations confined to
	// the opening are considered causally premature.
	CausalValid bool `json:"causal_valid"`
}

// DecisionReport is the final output of a consistency check.
//
// Invariant: PerConstraintScores and ViolatedConstraints are never both
// non-empty. A veto short-circuits and suppresses the weighted breakdown.
type DecisionReport struct {
	// Decision is DecisionConsistent or DecisionInconsistent.
	Decision int `json:"decision"`

	// PerConstraintScores maps constraint ID to its precedence-weighted
	// score. Empty when a veto fired or no constraint contributed signal.
	PerConstraintScores map[string]float64 `json:"per_constraint_scores"`

	// ViolatedConstraints lists constraint IDs that triggered a veto.
	// Empty when no veto fired.
	ViolatedConstraints []string `json:"violated_constraints"`
}

// Consistent reports whether the decision is consistent.
func (r *DecisionReport) Consistent() bool {
	return r.Decision == DecisionConsistent
}

// Result bundles the decision report with the per-constraint traces that
// produced it, for debug output and inspection.
type Result struct {
	// Report is the final decision.
	Report DecisionReport `json:"report"`

	// Traces holds one trace per derived constraint, in derivation order.
	Traces []ConstraintTrace `json:"traces,omitempty"`

	// TotalPassages is the passage count the narrative was segmented into.
	TotalPassages int `json:"total_passages"`
}
