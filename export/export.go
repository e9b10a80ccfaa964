package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/storycheck/engine"
)

// Document is the serializable form of a consistency check result.
type Document struct {
	NarrativeID   string             `json:"narrative_id,omitempty" yaml:"narrative_id,omitempty"`
	Decision      int                `json:"decision" yaml:"decision"`
	Consistent    bool               `json:"consistent" yaml:"consistent"`
	TotalPassages int                `json:"total_passages" yaml:"total_passages"`
	Scores        map[string]float64 `json:"per_constraint_scores,omitempty" yaml:"per_constraint_scores,omitempty"`
	Violated      []string           `json:"violated_constraints,omitempty" yaml:"violated_constraints,omitempty"`
	Evidence      []EvidenceLine     `json:"evidence,omitempty" yaml:"evidence,omitempty"`
}

// EvidenceLine is a single retained evidence entry in a Document.
type EvidenceLine struct {
	ConstraintID string `json:"constraint_id" yaml:"constraint_id"`
	Category     string `json:"category" yaml:"category"`
	PassageID    int    `json:"passage_id" yaml:"passage_id"`
	Score        int    `json:"score" yaml:"score"`
	Reason       string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Voluntary    bool   `json:"voluntary" yaml:"voluntary"`
	Justified    bool   `json:"justified" yaml:"justified"`
}

// NewDocument flattens a check result into its exportable form.
func NewDocument(narrativeID string, result *engine.Result) Document {
	doc := Document{
		NarrativeID:   narrativeID,
		Decision:      result.Report.Decision,
		Consistent:    result.Report.Consistent(),
		TotalPassages: result.TotalPassages,
		Scores:        result.Report.PerConstraintScores,
		Violated:      result.Report.ViolatedConstraints,
	}
	for _, trace := range result.Traces {
		for _, ev := range trace.Evidence {
			doc.Evidence = append(doc.Evidence, EvidenceLine{
				ConstraintID: trace.Constraint.ID,
				Category:     string(trace.Constraint.Category),
				PassageID:    ev.PassageID,
				Score:        ev.Score,
				Reason:       ev.Reason,
				Voluntary:    ev.Voluntary,
				Justified:    ev.Justified,
			})
		}
	}
	return doc
}

// Exporter serializes consistency documents.
type Exporter struct{}

// NewExporter creates a new report exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export serializes a document to the specified format.
func (e *Exporter) Export(doc Document, format Format) (string, error) {
	switch format {
	case FormatText:
		return e.toText(doc), nil
	case FormatJSON:
		return e.toJSON(doc)
	case FormatYAML:
		return e.toYAML(doc)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// toText renders the human-readable report.
func (e *Exporter) toText(doc Document) string {
	var sb strings.Builder

	if doc.NarrativeID != "" {
		sb.WriteString(fmt.Sprintf("Narrative: %s\n", doc.NarrativeID))
	}
	verdict := "INCONSISTENT"
	if doc.Consistent {
		verdict = "CONSISTENT"
	}
	sb.WriteString(fmt.Sprintf("Decision:  %s (%d)\n", verdict, doc.Decision))
	sb.WriteString(fmt.Sprintf("Passages:  %d\n", doc.TotalPassages))

	if len(doc.Violated) > 0 {
		sb.WriteString("\nViolated constraints:\n")
		for _, id := range doc.Violated {
			sb.WriteString(fmt.Sprintf("  - %s\n", id))
		}
	}

	if len(doc.Scores) > 0 {
		sb.WriteString("\nConstraint scores:\n")
		ids := make([]string, 0, len(doc.Scores))
		for id := range doc.Scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			sb.WriteString(fmt.Sprintf("  %-8s %+.3f\n", id, doc.Scores[id]))
		}
	}

	if len(doc.Evidence) > 0 {
		sb.WriteString("\nEvidence:\n")
		for _, ev := range doc.Evidence {
			sb.WriteString(fmt.Sprintf("  [%s/%s] passage %d: score %+d",
				ev.ConstraintID, ev.Category, ev.PassageID, ev.Score))
			if ev.Reason != "" {
				sb.WriteString(fmt.Sprintf(" (%s)", ev.Reason))
			}
			if !ev.Voluntary {
				sb.WriteString(" [coerced]")
			}
			if ev.Justified {
				sb.WriteString(" [justified]")
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// toJSON renders indented JSON.
func (e *Exporter) toJSON(doc Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}

// toYAML renders YAML.
func (e *Exporter) toYAML(doc Document) (string, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data), nil
}
