package export

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/storycheck/constraint"
	"github.com/c360studio/storycheck/engine"
)

func sampleResult() *engine.Result {
	return &engine.Result{
		Report: engine.DecisionReport{
			Decision: engine.DecisionInconsistent,
			PerConstraintScores: map[string]float64{
				"C1": -3.75,
				"C3": -1.2,
			},
		},
		Traces: []engine.ConstraintTrace{
			{
				Constraint: constraint.Constraint{ID: "C1", Category: constraint.CategoryBelief},
				Evidence: []engine.Evidence{
					{PassageID: 2, Score: -3, Reason: "authority reversal", Voluntary: true},
				},
				FinalScore:  -3.75,
				CausalValid: true,
			},
		},
		TotalPassages: 5,
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("narrative.web.example", sampleResult())

	if doc.NarrativeID != "narrative.web.example" {
		t.Errorf("NarrativeID = %s", doc.NarrativeID)
	}
	if doc.Consistent {
		t.Error("Consistent = true, want false")
	}
	if doc.TotalPassages != 5 {
		t.Errorf("TotalPassages = %d, want 5", doc.TotalPassages)
	}
	if len(doc.Evidence) != 1 {
		t.Fatalf("Evidence count = %d, want 1", len(doc.Evidence))
	}
	if doc.Evidence[0].ConstraintID != "C1" || doc.Evidence[0].PassageID != 2 {
		t.Errorf("unexpected evidence line: %+v", doc.Evidence[0])
	}
}

func TestExportText(t *testing.T) {
	e := NewExporter()
	out, err := e.Export(NewDocument("story-1", sampleResult()), FormatText)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	for _, want := range []string{"story-1", "INCONSISTENT", "C1", "-3.750", "authority reversal"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestExportJSON(t *testing.T) {
	e := NewExporter()
	out, err := e.Export(NewDocument("story-1", sampleResult()), FormatJSON)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if doc.Decision != engine.DecisionInconsistent {
		t.Errorf("Decision = %d", doc.Decision)
	}
	if doc.Scores["C1"] != -3.75 {
		t.Errorf("Scores[C1] = %v", doc.Scores["C1"])
	}
}

func TestExportYAML(t *testing.T) {
	e := NewExporter()
	out, err := e.Export(NewDocument("", sampleResult()), FormatYAML)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var doc Document
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if doc.NarrativeID != "" {
		t.Errorf("NarrativeID = %s, want empty", doc.NarrativeID)
	}
	if doc.TotalPassages != 5 {
		t.Errorf("TotalPassages = %d, want 5", doc.TotalPassages)
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	e := NewExporter()
	if _, err := e.Export(Document{}, Format("xml")); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"text", "json", "yaml"} {
		if _, err := ParseFormat(name); err != nil {
			t.Errorf("ParseFormat(%s) error = %v", name, err)
		}
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Error("expected error for csv")
	}
}

func TestFormatRegistryMetadata(t *testing.T) {
	info, ok := GetFormatInfo(FormatJSON)
	if !ok {
		t.Fatal("json format not registered")
	}
	if info.MIMEType != "application/json" || info.Extension != ".json" {
		t.Errorf("unexpected metadata: %+v", info)
	}
}
