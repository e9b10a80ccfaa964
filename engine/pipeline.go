package engine

import (
	"log/slog"
	"sync"

	"github.com/c360studio/storycheck/constraint"
)

// Pipeline wires the scorer, aggregator, and judge into a single check.
//
// Each run is a pure function of its inputs: no state crosses runs and no
// state crosses constraint boundaries within a run.
type Pipeline struct {
	scorer     *Scorer
	aggregator *Aggregator
	judge      *Judge
	logger     *slog.Logger
}

// NewPipeline creates a check pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		scorer:     NewScorer(),
		aggregator: NewAggregator(),
		judge:      NewJudge(),
		logger:     logger,
	}
}

// Check scores every passage against every constraint, aggregates per
// constraint, and judges the result.
//
// Constraints are processed concurrently; scoring within a constraint is
// independent per passage, and all of a constraint's passages are scored
// before its aggregation runs. Empty passage sequences and empty constraint
// lists are valid and yield a neutral consistent decision.
func (p *Pipeline) Check(passages []string, constraints []constraint.Constraint) *Result {
	traces := make([]ConstraintTrace, len(constraints))

	var wg sync.WaitGroup
	for i, c := range constraints {
		wg.Add(1)
		go func(i int, c constraint.Constraint) {
			defer wg.Done()
			traces[i] = p.trace(passages, c)
		}(i, c)
	}
	wg.Wait()

	report := p.judge.Decide(traces)

	p.logger.Debug("Check complete",
		"decision", report.Decision,
		"constraints", len(constraints),
		"passages", len(passages),
		"vetoed", len(report.ViolatedConstraints) > 0)

	return &Result{
		Report:        report,
		Traces:        traces,
		TotalPassages: len(passages),
	}
}

// trace scores all passages for one constraint and aggregates the retained
// evidence.
func (p *Pipeline) trace(passages []string, c constraint.Constraint) ConstraintTrace {
	var evidence []Evidence
	for i, passage := range passages {
		ev := p.scorer.Score(c, passage, i)
		if ev.Score != 0 {
			evidence = append(evidence, ev)
		}
	}

	finalScore, causalValid := p.aggregator.Aggregate(evidence, len(passages), c)

	p.logger.Debug("Constraint aggregated",
		"constraint", c.ID,
		"evidence", len(evidence),
		"final_score", finalScore,
		"causal_valid", causalValid)

	return ConstraintTrace{
		Constraint:  c,
		Evidence:    evidence,
		FinalScore:  finalScore,
		CausalValid: causalValid,
	}
}
