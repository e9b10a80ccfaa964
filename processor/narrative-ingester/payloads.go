package narrativeingester

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/storycheck/export"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "narrative",
		Category:    "report",
		Version:     "v1",
		Description: "Narrative consistency decision report",
		Factory:     func() any { return &ReportPayload{} },
	})
	if err != nil {
		panic("failed to register ReportPayload: " + err.Error())
	}
}

// ReportType is the message type for consistency report payloads.
var ReportType = message.Type{Domain: "narrative", Category: "report", Version: "v1"}

// ReportPayload implements message.Payload for consistency decision reports.
type ReportPayload struct {
	// ReportID uniquely identifies this report.
	ReportID string `json:"report_id"`

	// RequestID echoes the originating request, when known.
	RequestID string `json:"request_id,omitempty"`

	// Document is the full decision report.
	Document export.Document `json:"document"`

	// CheckedAt is when the check completed.
	CheckedAt time.Time `json:"checked_at"`
}

// Schema returns the message type for Payload interface.
func (p *ReportPayload) Schema() message.Type { return ReportType }

// Validate validates the payload for Payload interface.
func (p *ReportPayload) Validate() error {
	if p.ReportID == "" {
		return errors.New("report ID is required")
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *ReportPayload) MarshalJSON() ([]byte, error) {
	type Alias ReportPayload
	return json.Marshal((*Alias)(p))
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ReportPayload) UnmarshalJSON(data []byte) error {
	type Alias ReportPayload
	return json.Unmarshal(data, (*Alias)(p))
}
