package narrativeingester

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/storycheck/backstory"
	"github.com/c360studio/storycheck/engine"
	"github.com/c360studio/storycheck/export"
	"github.com/c360studio/storycheck/narrative"
	"github.com/c360studio/storycheck/narrative/chunker"
	"github.com/c360studio/storycheck/narrative/weburl"
)

// Handler resolves narrative sources and runs consistency checks.
type Handler struct {
	fetcher   *Fetcher
	converter *Converter
	store     *narrative.Store
	deriver   *backstory.Deriver
	pipeline  *engine.Pipeline
	logger    *slog.Logger
}

// NewHandler creates a new check handler.
func NewHandler(fetcher *Fetcher, chunkSize int, logger *slog.Logger) (*Handler, error) {
	ch, err := chunker.New(chunker.Config{ChunkSize: chunkSize})
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		fetcher:   fetcher,
		converter: NewConverter(),
		store:     narrative.NewStore(ch),
		deriver:   backstory.NewDeriver(),
		pipeline:  engine.NewPipeline(logger),
		logger:    logger,
	}, nil
}

// Check resolves the request's narrative source, runs the pipeline, and
// returns the report payload.
func (h *Handler) Check(ctx context.Context, req narrative.CheckRequest) (*ReportPayload, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	story, err := h.resolveNarrative(ctx, req)
	if err != nil {
		return nil, err
	}

	constraints := h.deriver.Derive(req.Backstory)
	result := h.pipeline.Check(story.Texts(), constraints)

	h.logger.Info("Narrative checked",
		"narrative_id", story.ID,
		"passages", result.TotalPassages,
		"constraints", len(constraints),
		"decision", result.Report.Decision)

	return &ReportPayload{
		ReportID:  uuid.NewString(),
		RequestID: req.RequestID,
		Document:  export.NewDocument(story.ID, result),
		CheckedAt: time.Now(),
	}, nil
}

// resolveNarrative turns the request's source into segmented passages.
func (h *Handler) resolveNarrative(ctx context.Context, req narrative.CheckRequest) (*narrative.Narrative, error) {
	switch {
	case req.Text != "":
		id := req.NarrativeID
		if id == "" {
			id = inlineNarrativeID(req.Text)
		}
		return h.store.FromText(id, req.Text), nil

	case req.Path != "":
		story, err := h.store.LoadFile(req.Path)
		if err != nil {
			return nil, fmt.Errorf("load narrative file: %w", err)
		}
		if req.NarrativeID != "" {
			story.ID = req.NarrativeID
		}
		return story, nil

	case req.URL != "":
		fetchResult, err := h.fetcher.Fetch(ctx, req.URL)
		if err != nil {
			return nil, fmt.Errorf("fetch narrative: %w", err)
		}

		convertResult, err := h.converter.Convert(fetchResult.Body, req.URL)
		if err != nil {
			return nil, fmt.Errorf("convert narrative: %w", err)
		}

		id := req.NarrativeID
		if id == "" {
			id = weburl.GenerateNarrativeID(req.URL)
		}
		story := h.store.FromText(id, convertResult.Markdown)
		if convertResult.Title != "" {
			story.Title = convertResult.Title
		}
		return story, nil
	}

	return nil, fmt.Errorf("request has no narrative source")
}

// inlineNarrativeID derives a stable ID for inline text.
func inlineNarrativeID(text string) string {
	hash := sha256.Sum256([]byte(text))
	return "narrative.inline." + hex.EncodeToString(hash[:8])
}
