package engine

const (
	// vetoScore is the evidence score at or below which a voluntary
	// violation forces an inconsistent verdict outright.
	vetoScore = -9

	// decisionThreshold is the tolerance band for the weighted sum:
	// sums at or above it still count as consistent.
	decisionThreshold = -2.0

	// epsilon filters numerically negligible trace contributions.
	epsilon = 1e-6
)

// Judge renders the final consistency decision from constraint traces.
type Judge struct{}

// NewJudge creates a consistency judge.
func NewJudge() *Judge {
	return &Judge{}
}

// Decide applies a two-phase decision to the traces.
//
// Phase one scans every retained piece of evidence for hard, voluntary
// breaks (score ≤ vetoScore). Any hit vetoes immediately: the decision is
// inconsistent, the weighted breakdown is suppressed, and the violating
// constraint IDs are reported. The veto scan deliberately sees raw
// evidence rather than aggregated scores, so a hard break can never be
// filtered away as single-evidence noise.
//
// Phase two, reached only without a veto, sums precedence-weighted scores
// of causally-valid traces with non-negligible contributions. An empty sum
// defaults to consistent: absence of evidence is not evidence of
// inconsistency.
func (j *Judge) Decide(traces []ConstraintTrace) DecisionReport {
	var violated []string
	for _, t := range traces {
		for _, ev := range t.Evidence {
			if ev.Score <= vetoScore && ev.Voluntary {
				violated = append(violated, t.Constraint.ID)
				break
			}
		}
	}

	if len(violated) > 0 {
		return DecisionReport{
			Decision:            DecisionInconsistent,
			PerConstraintScores: map[string]float64{},
			ViolatedConstraints: violated,
		}
	}

	weighted := make(map[string]float64)
	for _, t := range traces {
		if !t.CausalValid {
			continue
		}
		if abs(t.FinalScore) < epsilon {
			continue
		}
		weighted[t.Constraint.ID] = t.FinalScore * float64(t.Constraint.Precedence)
	}

	if len(weighted) == 0 {
		return DecisionReport{
			Decision:            DecisionConsistent,
			PerConstraintScores: map[string]float64{},
			ViolatedConstraints: nil,
		}
	}

	sum := 0.0
	for _, s := range weighted {
		sum += s
	}

	decision := DecisionConsistent
	if sum < decisionThreshold {
		decision = DecisionInconsistent
	}

	return DecisionReport{
		Decision:            decision,
		PerConstraintScores: weighted,
		ViolatedConstraints: nil,
	}
}
