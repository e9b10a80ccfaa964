package engine

import "github.com/c360studio/storycheck/constraint"

const (
	// involuntaryWeight discounts evidence for actions done under duress.
	involuntaryWeight = 0.4

	// justifiedWeight discounts evidence carrying remorse framing.
	justifiedWeight = 0.6

	// causalFraction is the share of the narrative considered "settling":
	// evidence confined to this opening fraction is causally premature.
	causalFraction = 0.1

	// noiseMagnitude is the minimum absolute weighted score a lone piece
	// of evidence must reach to count as a genuine signal.
	noiseMagnitude = 2.0
)

// Aggregator reduces a constraint's evidence into one scalar score and a
// causal-validity flag.
type Aggregator struct{}

// NewAggregator creates a temporal aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate combines non-zero evidence for one constraint.
//
// Each piece of evidence is weighted by recency (earlier deviations weigh
// more), voluntariness, and justification, then summed and scaled by the
// constraint's base weight. A single piece of evidence whose weighted
// magnitude stays under noiseMagnitude is discarded as one-off noise.
//
// Empty evidence aggregates to (0, true): no evidence is no basis to flag
// inconsistency.
func (a *Aggregator) Aggregate(evidence []Evidence, totalPassages int, c constraint.Constraint) (float64, bool) {
	if len(evidence) == 0 {
		return 0.0, true
	}

	score := 0.0
	causalValid := false

	// Floor the denominator at 1 to guard against empty or single-passage
	// narratives.
	denom := totalPassages
	if denom < 1 {
		denom = 1
	}

	for _, ev := range evidence {
		timeWeight := 1.0 - float64(ev.PassageID)/float64(denom)

		voluntaryWeight := 1.0
		if !ev.Voluntary {
			voluntaryWeight = involuntaryWeight
		}

		justificationWeight := 1.0
		if ev.Justified {
			justificationWeight = justifiedWeight
		}

		score += float64(ev.Score) * timeWeight * voluntaryWeight * justificationWeight

		// Violations must occur after some story has unfolded to count
		// as a meaningful deviation.
		if float64(ev.PassageID) > float64(totalPassages)*causalFraction {
			causalValid = true
		}
	}

	// Ignore one-off weak noise.
	if len(evidence) == 1 && abs(score) < noiseMagnitude {
		return 0.0, true
	}

	return score * c.BaseWeight, causalValid
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
