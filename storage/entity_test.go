package storage

import (
	"testing"
	"time"

	"github.com/c360studio/storycheck/engine"
	"github.com/c360studio/storycheck/export"
)

func TestEntityID(t *testing.T) {
	t.Run("NewEntityID generates valid ID", func(t *testing.T) {
		id := NewEntityID(EntityTypeReport)
		if id.Type != EntityTypeReport {
			t.Errorf("expected type %s, got %s", EntityTypeReport, id.Type)
		}
		if id.ID == "" {
			t.Error("expected non-empty ID")
		}
	})

	t.Run("String returns correct format", func(t *testing.T) {
		id := EntityID{Type: EntityTypeNarrative, ID: "abc123"}
		expected := "narrative:abc123"
		if id.String() != expected {
			t.Errorf("expected %s, got %s", expected, id.String())
		}
	})

	t.Run("ParseEntityID parses valid ID", func(t *testing.T) {
		id, err := ParseEntityID("report:abc123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id.Type != EntityTypeReport {
			t.Errorf("expected type %s, got %s", EntityTypeReport, id.Type)
		}
		if id.ID != "abc123" {
			t.Errorf("expected ID abc123, got %s", id.ID)
		}
	})

	t.Run("ParseEntityID handles all types", func(t *testing.T) {
		tests := []struct {
			input    string
			expected EntityType
		}{
			{"report:123", EntityTypeReport},
			{"narrative:456", EntityTypeNarrative},
		}

		for _, tc := range tests {
			id, err := ParseEntityID(tc.input)
			if err != nil {
				t.Errorf("unexpected error for %s: %v", tc.input, err)
				continue
			}
			if id.Type != tc.expected {
				t.Errorf("for %s: expected type %s, got %s", tc.input, tc.expected, id.Type)
			}
		}
	})

	t.Run("ParseEntityID rejects invalid format", func(t *testing.T) {
		invalidIDs := []string{
			"invalid",
			"no-colon",
			"",
			"unknown:123",
		}

		for _, input := range invalidIDs {
			_, err := ParseEntityID(input)
			if err == nil {
				t.Errorf("expected error for %q, got nil", input)
			}
		}
	})

	t.Run("Round trip ID conversion", func(t *testing.T) {
		original := NewEntityID(EntityTypeNarrative)
		str := original.String()
		parsed, err := ParseEntityID(str)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed.Type != original.Type {
			t.Errorf("type mismatch: expected %s, got %s", original.Type, parsed.Type)
		}
		if parsed.ID != original.ID {
			t.Errorf("ID mismatch: expected %s, got %s", original.ID, parsed.ID)
		}
	})
}

func TestReport(t *testing.T) {
	t.Run("Report fields", func(t *testing.T) {
		r := Report{
			ID:        "abc",
			RequestID: "req-1",
			Document: export.Document{
				NarrativeID:   "story-1",
				Decision:      engine.DecisionInconsistent,
				TotalPassages: 3,
				Violated:      []string{"C2"},
			},
			CreatedAt: time.Now(),
		}

		if r.Document.NarrativeID != "story-1" {
			t.Errorf("unexpected narrative ID: %s", r.Document.NarrativeID)
		}
		if r.Document.Decision != engine.DecisionInconsistent {
			t.Errorf("unexpected decision: %d", r.Document.Decision)
		}
		if len(r.Document.Violated) != 1 {
			t.Errorf("expected 1 violated constraint, got %d", len(r.Document.Violated))
		}
	})
}

func TestNarrativeRecord(t *testing.T) {
	t.Run("Record tracks latest check", func(t *testing.T) {
		record := NarrativeRecord{
			NarrativeID: "story-1",
			Source:      "narratives/story-1.txt",
		}

		record.LastDecision = engine.DecisionConsistent
		record.LastReportID = "r-1"
		record.CheckCount++

		if record.CheckCount != 1 {
			t.Errorf("expected 1 check, got %d", record.CheckCount)
		}
		if record.LastDecision != engine.DecisionConsistent {
			t.Errorf("unexpected decision: %d", record.LastDecision)
		}
	})
}

func TestNarrativeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"story-1", "story-1"},
		{"narrative.inline.abc123", "narrative.inline.abc123"},
		{"nested/path/story", "nested_path_story"},
		{"has space", "has_space"},
	}

	for _, tc := range tests {
		if got := narrativeKey(tc.input); got != tc.expected {
			t.Errorf("narrativeKey(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestBucketNames(t *testing.T) {
	t.Run("Bucket names are set", func(t *testing.T) {
		if BucketReports != "STORYCHECK_REPORTS" {
			t.Errorf("unexpected reports bucket: %s", BucketReports)
		}
		if BucketNarratives != "STORYCHECK_NARRATIVES" {
			t.Errorf("unexpected narratives bucket: %s", BucketNarratives)
		}
	})
}
