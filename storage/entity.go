// Package storage provides check report storage for storycheck using NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/storycheck/export"
)

// EntityType represents the type of entity stored in KV.
type EntityType string

const (
	EntityTypeReport    EntityType = "report"
	EntityTypeNarrative EntityType = "narrative"
)

// Bucket names for each entity type.
const (
	BucketReports    = "STORYCHECK_REPORTS"
	BucketNarratives = "STORYCHECK_NARRATIVES"
)

// EntityID represents a typed entity identifier.
type EntityID struct {
	Type EntityType
	ID   string
}

// String returns the string representation of the entity ID.
func (e EntityID) String() string {
	return fmt.Sprintf("%s:%s", e.Type, e.ID)
}

// ParseEntityID parses an entity ID string into its components.
func ParseEntityID(s string) (EntityID, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return EntityID{}, fmt.Errorf("invalid entity ID format: %s", s)
	}
	entityType := EntityType(parts[0])
	switch entityType {
	case EntityTypeReport, EntityTypeNarrative:
		return EntityID{Type: entityType, ID: parts[1]}, nil
	default:
		return EntityID{}, fmt.Errorf("unknown entity type: %s", parts[0])
	}
}

// NewEntityID generates a new unique entity ID for the given type.
func NewEntityID(t EntityType) EntityID {
	return EntityID{
		Type: t,
		ID:   uuid.New().String(),
	}
}

// Report represents a stored consistency check report.
type Report struct {
	ID        string          `json:"id"`
	RequestID string          `json:"request_id,omitempty"`
	Document  export.Document `json:"document"`
	CreatedAt time.Time       `json:"created_at"`
}

// NarrativeRecord tracks a checked narrative and its latest decision.
type NarrativeRecord struct {
	NarrativeID  string    `json:"narrative_id"`
	Title        string    `json:"title,omitempty"`
	Source       string    `json:"source,omitempty"` // file path, URL, or "inline"
	PassageCount int       `json:"passage_count"`
	LastDecision int       `json:"last_decision"`
	LastReportID string    `json:"last_report_id"`
	CheckCount   int       `json:"check_count"`
	FirstSeen    time.Time `json:"first_seen"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store provides report storage operations backed by NATS KV.
type Store struct {
	reports    jetstream.KeyValue
	narratives jetstream.KeyValue
}

// NewStore creates a new Store with the given JetStream context.
// It creates the necessary KV buckets if they don't exist.
func NewStore(ctx context.Context, js jetstream.JetStream) (*Store, error) {
	reports, err := getOrCreateBucket(ctx, js, BucketReports)
	if err != nil {
		return nil, fmt.Errorf("create reports bucket: %w", err)
	}

	narratives, err := getOrCreateBucket(ctx, js, BucketNarratives)
	if err != nil {
		return nil, fmt.Errorf("create narratives bucket: %w", err)
	}

	return &Store{
		reports:    reports,
		narratives: narratives,
	}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: fmt.Sprintf("Storycheck %s storage", strings.ToLower(name)),
		History:     5, // Keep last 5 revisions
	})
}

// SaveReport stores a report and updates the narrative record it belongs to.
// The report's ID is assigned here when empty.
func (s *Store) SaveReport(ctx context.Context, r *Report) (EntityID, error) {
	id := NewEntityID(EntityTypeReport)
	if r.ID != "" {
		id = EntityID{Type: EntityTypeReport, ID: r.ID}
	}
	r.ID = id.ID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	data, err := json.Marshal(r)
	if err != nil {
		return EntityID{}, fmt.Errorf("marshal report: %w", err)
	}

	if _, err := s.reports.Put(ctx, id.ID, data); err != nil {
		return EntityID{}, fmt.Errorf("store report: %w", err)
	}

	if err := s.recordNarrative(ctx, r); err != nil {
		return EntityID{}, err
	}

	return id, nil
}

// recordNarrative upserts the narrative record for a saved report.
func (s *Store) recordNarrative(ctx context.Context, r *Report) error {
	key := narrativeKey(r.Document.NarrativeID)
	now := time.Now()

	record := &NarrativeRecord{
		NarrativeID: r.Document.NarrativeID,
		FirstSeen:   now,
	}
	if existing, err := s.GetNarrative(ctx, r.Document.NarrativeID); err == nil {
		record = existing
	}

	record.PassageCount = r.Document.TotalPassages
	record.LastDecision = r.Document.Decision
	record.LastReportID = r.ID
	record.CheckCount++
	record.UpdatedAt = now

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal narrative record: %w", err)
	}

	if _, err := s.narratives.Put(ctx, key, data); err != nil {
		return fmt.Errorf("store narrative record: %w", err)
	}

	return nil
}

// GetReport retrieves a report by ID.
func (s *Store) GetReport(ctx context.Context, id string) (*Report, error) {
	entry, err := s.reports.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}

	var r Report
	if err := json.Unmarshal(entry.Value(), &r); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}

	return &r, nil
}

// ListReports returns all stored reports.
func (s *Store) ListReports(ctx context.Context) ([]*Report, error) {
	keys, err := s.reports.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list report keys: %w", err)
	}

	reports := make([]*Report, 0, len(keys))
	for _, key := range keys {
		entry, err := s.reports.Get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var r Report
		if err := json.Unmarshal(entry.Value(), &r); err != nil {
			continue
		}
		reports = append(reports, &r)
	}

	return reports, nil
}

// ListReportsByNarrative returns all reports for a given narrative.
func (s *Store) ListReportsByNarrative(ctx context.Context, narrativeID string) ([]*Report, error) {
	all, err := s.ListReports(ctx)
	if err != nil {
		return nil, err
	}

	reports := make([]*Report, 0)
	for _, r := range all {
		if r.Document.NarrativeID == narrativeID {
			reports = append(reports, r)
		}
	}

	return reports, nil
}

// GetNarrative retrieves a narrative record by narrative ID.
func (s *Store) GetNarrative(ctx context.Context, narrativeID string) (*NarrativeRecord, error) {
	entry, err := s.narratives.Get(ctx, narrativeKey(narrativeID))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get narrative record: %w", err)
	}

	var record NarrativeRecord
	if err := json.Unmarshal(entry.Value(), &record); err != nil {
		return nil, fmt.Errorf("unmarshal narrative record: %w", err)
	}

	return &record, nil
}

// ListNarratives returns all narrative records.
func (s *Store) ListNarratives(ctx context.Context) ([]*NarrativeRecord, error) {
	keys, err := s.narratives.Keys(ctx)
	if err != nil {
		if err == jetstream.ErrNoKeysFound {
			return nil, nil
		}
		return nil, fmt.Errorf("list narrative keys: %w", err)
	}

	records := make([]*NarrativeRecord, 0, len(keys))
	for _, key := range keys {
		entry, err := s.narratives.Get(ctx, key)
		if err != nil {
			continue
		}
		var record NarrativeRecord
		if err := json.Unmarshal(entry.Value(), &record); err != nil {
			continue
		}
		records = append(records, &record)
	}

	return records, nil
}

// narrativeKey maps a narrative ID onto a valid KV key.
// KV keys cannot contain path separators or spaces.
func narrativeKey(narrativeID string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return replacer.Replace(narrativeID)
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "key not found")
}
