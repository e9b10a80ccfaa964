package engine

import (
	"log/slog"
	"testing"

	"github.com/c360studio/storycheck/backstory"
)

func TestPipeline_VoluntaryBetrayalVetoes(t *testing.T) {
	p := NewPipeline(slog.Default())
	constraints := backstory.NewDeriver().Derive("He swore loyalty and would never betray his order.")

	passages := []string{
		"The city slept under a thin winter fog.",
		"He weighed the offer for three nights.",
		"He betrayed his closest ally to gain power.",
	}

	result := p.Check(passages, constraints)
	if result.Report.Decision != DecisionInconsistent {
		t.Fatalf("Decision = %d, want %d", result.Report.Decision, DecisionInconsistent)
	}
	if len(result.Report.ViolatedConstraints) == 0 {
		t.Error("expected the commitment constraint in ViolatedConstraints")
	}
	if result.TotalPassages != 3 {
		t.Errorf("TotalPassages = %d, want 3", result.TotalPassages)
	}
}

func TestPipeline_NegatedBetrayalStaysConsistent(t *testing.T) {
	p := NewPipeline(slog.Default())
	constraints := backstory.NewDeriver().Derive(
		"He distrusted authority but was loyal to his friends.",
	)

	passages := []string{
		"He questioned authority but stayed loyal and never betrayed anyone.",
	}

	result := p.Check(passages, constraints)
	if result.Report.Decision != DecisionConsistent {
		t.Fatalf("Decision = %d, want %d", result.Report.Decision, DecisionConsistent)
	}
	if len(result.Report.ViolatedConstraints) != 0 {
		t.Errorf("ViolatedConstraints = %v, want empty", result.Report.ViolatedConstraints)
	}
}

func TestPipeline_CoercedCommandSuppressed(t *testing.T) {
	p := NewPipeline(slog.Default())
	constraints := backstory.NewDeriver().Derive("She feared responsibility and would avoid leading others.")

	// A single coerced fear-tension signal falls below the noise floor.
	passages := []string{"She was forced to take command of the garrison."}

	result := p.Check(passages, constraints)
	if result.Report.Decision != DecisionConsistent {
		t.Fatalf("Decision = %d, want %d", result.Report.Decision, DecisionConsistent)
	}
}

func TestPipeline_NoSignalDefaultsConsistent(t *testing.T) {
	p := NewPipeline(nil)
	constraints := backstory.NewDeriver().Derive("He cannot swim and never learned to fight.")

	passages := []string{
		"The harvest came early that year.",
		"Travelers spoke of storms in the east.",
	}

	result := p.Check(passages, constraints)
	if result.Report.Decision != DecisionConsistent {
		t.Fatalf("Decision = %d, want %d", result.Report.Decision, DecisionConsistent)
	}
	if len(result.Report.PerConstraintScores) != 0 {
		t.Errorf("PerConstraintScores = %v, want empty", result.Report.PerConstraintScores)
	}
}

func TestPipeline_AccumulatedDriftWithoutVeto(t *testing.T) {
	p := NewPipeline(slog.Default())
	constraints := backstory.NewDeriver().Derive("He resented authority in every form.")

	// Repeated belief reversals sum past the threshold even though no
	// single passage reaches the veto level.
	passages := []string{
		"The rebellion gathered in the hills.",
		"He became the leader of the council he once mocked.",
		"He became the leader in every room he entered.",
		"The war ended without him.",
	}

	result := p.Check(passages, constraints)
	if result.Report.Decision != DecisionInconsistent {
		t.Fatalf("Decision = %d, want %d", result.Report.Decision, DecisionInconsistent)
	}
	if len(result.Report.ViolatedConstraints) != 0 {
		t.Errorf("ViolatedConstraints = %v, want empty on the weighted path", result.Report.ViolatedConstraints)
	}
	if _, ok := result.Report.PerConstraintScores["C1"]; !ok {
		t.Errorf("PerConstraintScores missing C1: %v", result.Report.PerConstraintScores)
	}
}

func TestPipeline_NoConstraints(t *testing.T) {
	p := NewPipeline(slog.Default())

	result := p.Check([]string{"Anything at all."}, nil)
	if result.Report.Decision != DecisionConsistent {
		t.Fatalf("Decision = %d, want %d", result.Report.Decision, DecisionConsistent)
	}
	if len(result.Traces) != 0 {
		t.Errorf("Traces = %v, want empty", result.Traces)
	}
}

func TestPipeline_TraceRetainsOnlyScoringEvidence(t *testing.T) {
	p := NewPipeline(slog.Default())
	constraints := backstory.NewDeriver().Derive("He swore he would never betray the guild.")

	passages := []string{
		"A quiet morning on the docks.",
		"He betrayed them all before noon.",
	}

	result := p.Check(passages, constraints)
	var found bool
	for _, trace := range result.Traces {
		if trace.Constraint.ID != "C2" {
			continue
		}
		found = true
		if len(trace.Evidence) != 1 {
			t.Errorf("Evidence count = %d, want 1", len(trace.Evidence))
		} else if trace.Evidence[0].PassageID != 1 {
			t.Errorf("PassageID = %d, want 1", trace.Evidence[0].PassageID)
		}
	}
	if !found {
		t.Fatal("no trace for commitment constraint")
	}
}
