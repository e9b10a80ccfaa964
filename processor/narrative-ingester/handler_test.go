package narrativeingester

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/storycheck/engine"
	"github.com/c360studio/storycheck/narrative"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	handler, err := NewHandler(nil, 0, nil)
	require.NoError(t, err)
	return handler
}

func TestHandler_CheckInlineText(t *testing.T) {
	handler := newTestHandler(t)

	report, err := handler.Check(context.Background(), narrative.CheckRequest{
		RequestID: "req-1",
		Backstory: "He swore loyalty and would never betray the guild.",
		Text:      "He betrayed his closest ally to gain power.",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ReportID)
	assert.Equal(t, "req-1", report.RequestID)
	assert.Equal(t, engine.DecisionInconsistent, report.Document.Decision)
	assert.NotEmpty(t, report.Document.Violated)
	assert.Contains(t, report.Document.NarrativeID, "narrative.inline.")
	assert.False(t, report.CheckedAt.IsZero())
}

func TestHandler_CheckFile(t *testing.T) {
	handler := newTestHandler(t)

	tmpDir := t.TempDir()
	storyPath := filepath.Join(tmpDir, "harbor.txt")
	require.NoError(t, os.WriteFile(storyPath,
		[]byte("She kept to the hills and never saw the harbor again.\n"), 0644))

	report, err := handler.Check(context.Background(), narrative.CheckRequest{
		Backstory: "She feared the sea and would avoid harbors.",
		Path:      storyPath,
	})
	require.NoError(t, err)

	assert.Equal(t, "harbor", report.Document.NarrativeID)
	assert.Equal(t, engine.DecisionConsistent, report.Document.Decision)
	assert.Equal(t, 1, report.Document.TotalPassages)
}

func TestHandler_CheckExplicitNarrativeID(t *testing.T) {
	handler := newTestHandler(t)

	report, err := handler.Check(context.Background(), narrative.CheckRequest{
		NarrativeID: "story-42",
		Backstory:   "He distrusted authority.",
		Text:        "The rain did not stop for a week.",
	})
	require.NoError(t, err)
	assert.Equal(t, "story-42", report.Document.NarrativeID)
}

func TestHandler_CheckInvalidRequests(t *testing.T) {
	handler := newTestHandler(t)

	tests := []struct {
		name string
		req  narrative.CheckRequest
	}{
		{
			name: "missing backstory",
			req:  narrative.CheckRequest{Text: "Some narrative."},
		},
		{
			name: "missing source",
			req:  narrative.CheckRequest{Backstory: "He was loyal."},
		},
		{
			name: "conflicting sources",
			req: narrative.CheckRequest{
				Backstory: "He was loyal.",
				Text:      "inline",
				URL:       "https://example.com/story",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Check(context.Background(), tt.req)
			assert.Error(t, err)
		})
	}
}

func TestHandler_CheckMissingFile(t *testing.T) {
	handler := newTestHandler(t)

	_, err := handler.Check(context.Background(), narrative.CheckRequest{
		Backstory: "He was loyal.",
		Path:      filepath.Join(t.TempDir(), "missing.txt"),
	})
	assert.Error(t, err)
}

func TestBackstoryPathFor(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/stories/harbor.txt", "/stories/harbor.backstory.txt"},
		{"/stories/harbor.md", "/stories/harbor.backstory.txt"},
		{"/stories/nested/tale.txt", "/stories/nested/tale.backstory.txt"},
	}

	for _, tt := range tests {
		if got := backstoryPathFor(tt.path); got != tt.expected {
			t.Errorf("backstoryPathFor(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestInlineNarrativeID_Deterministic(t *testing.T) {
	a := inlineNarrativeID("the same text")
	b := inlineNarrativeID("the same text")
	c := inlineNarrativeID("different text")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
