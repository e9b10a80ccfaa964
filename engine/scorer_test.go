package engine

import (
	"testing"

	"github.com/c360studio/storycheck/constraint"
)

func commitmentConstraint() constraint.Constraint {
	return constraint.Constraint{
		ID:          "C2",
		Category:    constraint.CategoryCommitment,
		Description: "Never betrays close allies",
		BaseWeight:  2.0,
		Precedence:  5,
		Stateful:    true,
	}
}

func TestScorer_Commitment(t *testing.T) {
	s := NewScorer()
	c := commitmentConstraint()

	tests := []struct {
		name          string
		passage       string
		wantScore     int
		wantReason    string
		wantVoluntary bool
		wantJustified bool
	}{
		{
			name:          "betrayal affirmed",
			passage:       "He betrayed his closest ally to gain power.",
			wantScore:     -10,
			wantReason:    "betrayal",
			wantVoluntary: true,
			wantJustified: false,
		},
		{
			name:          "explicit negation wins over bare substring",
			passage:       "They said he betrayed us, but he never betrayed anyone.",
			wantScore:     0,
			wantReason:    "explicit non-betrayal",
			wantVoluntary: true,
			wantJustified: false,
		},
		{
			name:          "negation never justified even with regret",
			passage:       "He regretted nothing and never betrayed anyone.",
			wantScore:     0,
			wantReason:    "explicit non-betrayal",
			wantVoluntary: true,
			wantJustified: false,
		},
		{
			name:          "betrayal at passage start",
			passage:       "betrayed by no one, he betrayed them first",
			wantScore:     -10,
			wantReason:    "betrayal",
			wantVoluntary: true,
			wantJustified: false,
		},
		{
			name:          "substring inside longer word does not fire",
			passage:       "The unbetrayedness of it all.",
			wantScore:     0,
			wantReason:    "",
			wantVoluntary: true,
			wantJustified: false,
		},
		{
			name:          "betrayal under duress",
			passage:       "He was forced, and he betrayed them.",
			wantScore:     -10,
			wantReason:    "betrayal",
			wantVoluntary: false,
			wantJustified: false,
		},
		{
			name:          "betrayal with remorse is justified",
			passage:       "He betrayed them and apologized at once.",
			wantScore:     -10,
			wantReason:    "betrayal",
			wantVoluntary: true,
			wantJustified: true,
		},
		{
			name:          "no signal",
			passage:       "He walked through the market.",
			wantScore:     0,
			wantReason:    "",
			wantVoluntary: true,
			wantJustified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := s.Score(c, tt.passage, 3)
			if ev.PassageID != 3 {
				t.Errorf("PassageID = %d, want 3", ev.PassageID)
			}
			if ev.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", ev.Score, tt.wantScore)
			}
			if ev.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", ev.Reason, tt.wantReason)
			}
			if ev.Voluntary != tt.wantVoluntary {
				t.Errorf("Voluntary = %v, want %v", ev.Voluntary, tt.wantVoluntary)
			}
			if ev.Justified != tt.wantJustified {
				t.Errorf("Justified = %v, want %v", ev.Justified, tt.wantJustified)
			}
		})
	}
}

func TestScorer_CategoryRules(t *testing.T) {
	s := NewScorer()

	tests := []struct {
		name          string
		category      constraint.Category
		passage       string
		wantScore     int
		wantReason    string
		wantJustified bool
	}{
		{
			name:          "capability jump",
			category:      constraint.CategoryCapability,
			passage:       "Without training he suddenly mastered the blade.",
			wantScore:     -9,
			wantReason:    "capability jump",
			wantJustified: false,
		},
		{
			name:          "capability jump remorse forced false",
			category:      constraint.CategoryCapability,
			passage:       "He suddenly mastered it, full of regret.",
			wantScore:     -9,
			wantReason:    "capability jump",
			wantJustified: false,
		},
		{
			name:          "identity shift",
			category:      constraint.CategoryIdentity,
			passage:       "I was no longer who I was before the war.",
			wantScore:     -4,
			wantReason:    "identity shift",
			wantJustified: false,
		},
		{
			name:          "identity shift with remorse stays justified",
			category:      constraint.CategoryIdentity,
			passage:       "I regret that I am no longer who I was.",
			wantScore:     -4,
			wantReason:    "identity shift",
			wantJustified: true,
		},
		{
			name:          "belief vs action",
			category:      constraint.CategoryBelief,
			passage:       "He became the leader of the rebellion.",
			wantScore:     -3,
			wantReason:    "belief vs action",
			wantJustified: false,
		},
		{
			name:          "fear tension",
			category:      constraint.CategoryFear,
			passage:       "She took command of the garrison.",
			wantScore:     -1,
			wantReason:    "fear tension",
			wantJustified: false,
		},
		{
			name:          "fear tension remorse forced false",
			category:      constraint.CategoryFear,
			passage:       "She took command, though she had no choice.",
			wantScore:     -1,
			wantReason:    "fear tension",
			wantJustified: false,
		},
		{
			name:          "unknown category never matches",
			category:      constraint.Category("HOBBY"),
			passage:       "He betrayed everyone and suddenly mastered command.",
			wantScore:     0,
			wantReason:    "",
			wantJustified: false,
		},
		{
			name:          "category rules do not cross",
			category:      constraint.CategoryBelief,
			passage:       "He suddenly mastered the blade.",
			wantScore:     0,
			wantReason:    "",
			wantJustified: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := constraint.Constraint{ID: "X", Category: tt.category, BaseWeight: 1.0, Precedence: 1}
			ev := s.Score(c, tt.passage, 0)
			if ev.Score != tt.wantScore {
				t.Errorf("Score = %d, want %d", ev.Score, tt.wantScore)
			}
			if ev.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", ev.Reason, tt.wantReason)
			}
			if ev.Justified != tt.wantJustified {
				t.Errorf("Justified = %v, want %v", ev.Justified, tt.wantJustified)
			}
		})
	}
}

func TestScorer_CaseInsensitive(t *testing.T) {
	s := NewScorer()
	c := commitmentConstraint()

	ev := s.Score(c, "HE BETRAYED HIS ALLY.", 0)
	if ev.Score != -10 {
		t.Errorf("Score = %d, want -10", ev.Score)
	}
}

func TestScorer_DuressMarkers(t *testing.T) {
	s := NewScorer()
	c := constraint.Constraint{ID: "X", Category: constraint.CategoryBelief, BaseWeight: 1.0}

	tests := []struct {
		passage       string
		wantVoluntary bool
	}{
		{"He became the leader willingly.", true},
		{"He was forced and became the leader.", false},
		{"Coerced into it, he became the leader.", false},
		{"He had to do it and became the leader.", false},
	}

	for _, tt := range tests {
		t.Run(tt.passage, func(t *testing.T) {
			ev := s.Score(c, tt.passage, 0)
			if ev.Voluntary != tt.wantVoluntary {
				t.Errorf("Voluntary = %v, want %v", ev.Voluntary, tt.wantVoluntary)
			}
		})
	}
}

func TestScorer_JustificationMarkers(t *testing.T) {
	s := NewScorer()
	// IDENTITY passes justification through unmodified.
	c := constraint.Constraint{ID: "X", Category: constraint.CategoryIdentity, BaseWeight: 1.0}

	tests := []struct {
		passage       string
		wantJustified bool
	}{
		{"I am no longer who I was.", false},
		{"I regret I am no longer who I was.", true},
		{"I apologized; I am no longer who I was.", true},
		{"I apologised; I am no longer who I was.", true},
		{"I had no choice; I am no longer who I was.", true},
	}

	for _, tt := range tests {
		t.Run(tt.passage, func(t *testing.T) {
			ev := s.Score(c, tt.passage, 0)
			if ev.Justified != tt.wantJustified {
				t.Errorf("Justified = %v, want %v", ev.Justified, tt.wantJustified)
			}
		})
	}
}
