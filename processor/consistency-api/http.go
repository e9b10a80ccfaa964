package consistencyapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/c360studio/storycheck/constraint"
	"github.com/c360studio/storycheck/export"
	"github.com/c360studio/storycheck/storage"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 4 << 20 // 4 MB

// RegisterHTTPHandlers registers all consistency-api HTTP handlers under the
// given prefix. The prefix should be the path segment without a trailing
// slash (e.g. "api/consistency"). Handlers are registered as:
//
//	POST <prefix>/check
//	POST <prefix>/derive
//	GET  <prefix>/formats
//	GET  <prefix>/categories
//	GET  <prefix>/reports
//	GET  <prefix>/reports/{id}
//	GET  <prefix>/narratives
func (c *Component) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	// Normalise: ensure leading slash and trailing slash.
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	mux.HandleFunc(prefix+"check", c.handleCheck)
	mux.HandleFunc(prefix+"derive", c.handleDerive)
	mux.HandleFunc(prefix+"formats", c.handleFormats)
	mux.HandleFunc(prefix+"categories", c.handleCategories)
	mux.HandleFunc(prefix+"reports", c.handleReports)
	mux.HandleFunc(prefix+"reports/", c.handleReportByID(prefix+"reports/"))
	mux.HandleFunc(prefix+"narratives", c.handleNarratives)
}

// ----------------------------------------------------------------------------
// POST /api/consistency/check
// ----------------------------------------------------------------------------

// CheckRequest is the request body for POST /api/consistency/check.
type CheckRequest struct {
	// NarrativeID optionally labels the narrative in the report.
	NarrativeID string `json:"narrative_id,omitempty"`

	// Backstory is the character backstory constraints are derived from.
	// Ignored when Constraints is non-empty.
	Backstory string `json:"backstory,omitempty"`

	// Constraints optionally supplies explicit constraints instead of
	// deriving them from the backstory.
	Constraints []constraint.Constraint `json:"constraints,omitempty"`

	// Narrative is the raw narrative text, segmented server-side.
	// Ignored when Passages is non-empty.
	Narrative string `json:"narrative,omitempty"`

	// Passages supplies pre-segmented passages in chronological order.
	Passages []string `json:"passages,omitempty"`

	// Format selects the response serialization (text, json, yaml).
	// Defaults to json.
	Format string `json:"format,omitempty"`
}

// handleCheck runs the scoring pipeline and returns the decision report.
func (c *Component) handleCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	constraints := req.Constraints
	if len(constraints) == 0 {
		if req.Backstory == "" {
			http.Error(w, "backstory or constraints is required", http.StatusBadRequest)
			return
		}
		constraints = c.deriver.Derive(req.Backstory)
	}
	for _, con := range constraints {
		if !con.Category.IsValid() {
			http.Error(w, "unknown constraint category: "+string(con.Category), http.StatusBadRequest)
			return
		}
	}

	passages := req.Passages
	if len(passages) == 0 {
		if req.Narrative == "" {
			http.Error(w, "narrative or passages is required", http.StatusBadRequest)
			return
		}
		for _, p := range c.chunker.Chunk(req.Narrative) {
			passages = append(passages, p.Text)
		}
	}

	format := export.FormatJSON
	if req.Format != "" {
		parsed, err := export.ParseFormat(req.Format)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = parsed
	}

	result := c.pipeline.Check(passages, constraints)
	doc := export.NewDocument(req.NarrativeID, result)

	// Named narratives are archived so their reports can be browsed later
	if store := c.getStore(); store != nil && req.NarrativeID != "" {
		_, err := store.SaveReport(r.Context(), &storage.Report{Document: doc})
		if err != nil {
			c.logger.Warn("Failed to archive report", "narrative_id", req.NarrativeID, "error", err)
		}
	}

	out, err := c.exporter.Export(doc, format)
	if err != nil {
		c.logger.Error("Report export failed", "format", format, "error", err)
		http.Error(w, "Failed to render report", http.StatusInternalServerError)
		return
	}

	info, _ := export.GetFormatInfo(format)
	w.Header().Set("Content-Type", info.MIMEType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// ----------------------------------------------------------------------------
// POST /api/consistency/derive
// ----------------------------------------------------------------------------

// DeriveRequest is the request body for POST /api/consistency/derive.
type DeriveRequest struct {
	// Backstory is the character backstory to derive constraints from.
	Backstory string `json:"backstory"`
}

// DeriveResponse is the response body for POST /api/consistency/derive.
type DeriveResponse struct {
	// Constraints are the derived constraints in catalog order.
	Constraints []constraint.Constraint `json:"constraints"`
}

// handleDerive derives constraints from a backstory without running a check.
func (c *Component) handleDerive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req DeriveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Backstory == "" {
		http.Error(w, "backstory is required", http.StatusBadRequest)
		return
	}

	constraints := c.deriver.Derive(req.Backstory)
	if constraints == nil {
		constraints = []constraint.Constraint{}
	}

	writeJSON(w, http.StatusOK, DeriveResponse{Constraints: constraints})
}

// ----------------------------------------------------------------------------
// GET /api/consistency/formats
// ----------------------------------------------------------------------------

// handleFormats returns metadata for the supported report formats.
func (c *Component) handleFormats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	formats := make([]export.FormatInfo, 0, len(export.FormatRegistry))
	for _, name := range export.FormatNames() {
		if info, ok := export.GetFormatInfo(export.Format(name)); ok {
			formats = append(formats, info)
		}
	}

	writeJSON(w, http.StatusOK, formats)
}

// ----------------------------------------------------------------------------
// GET /api/consistency/categories
// ----------------------------------------------------------------------------

// handleCategories returns the recognized constraint categories.
func (c *Component) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, constraint.Categories)
}

// ----------------------------------------------------------------------------
// GET /api/consistency/reports
// ----------------------------------------------------------------------------

// handleReports lists archived reports, optionally filtered by narrative ID.
func (c *Component) handleReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store := c.getStore()
	if store == nil {
		http.Error(w, "Report archive unavailable", http.StatusServiceUnavailable)
		return
	}

	var (
		reports []*storage.Report
		err     error
	)
	if narrativeID := r.URL.Query().Get("narrative_id"); narrativeID != "" {
		reports, err = store.ListReportsByNarrative(r.Context(), narrativeID)
	} else {
		reports, err = store.ListReports(r.Context())
	}
	if err != nil {
		c.logger.Error("Failed to list reports", "error", err)
		http.Error(w, "Failed to list reports", http.StatusInternalServerError)
		return
	}
	if reports == nil {
		reports = []*storage.Report{}
	}

	writeJSON(w, http.StatusOK, reports)
}

// handleReportByID fetches one archived report by its ID.
func (c *Component) handleReportByID(prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		store := c.getStore()
		if store == nil {
			http.Error(w, "Report archive unavailable", http.StatusServiceUnavailable)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			http.Error(w, "Invalid report ID", http.StatusBadRequest)
			return
		}

		report, err := store.GetReport(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				http.Error(w, "Report not found", http.StatusNotFound)
				return
			}
			c.logger.Error("Failed to get report", "report_id", id, "error", err)
			http.Error(w, "Failed to get report", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

// ----------------------------------------------------------------------------
// GET /api/consistency/narratives
// ----------------------------------------------------------------------------

// handleNarratives lists checked narratives with their latest decisions.
func (c *Component) handleNarratives(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	store := c.getStore()
	if store == nil {
		http.Error(w, "Report archive unavailable", http.StatusServiceUnavailable)
		return
	}

	records, err := store.ListNarratives(r.Context())
	if err != nil {
		c.logger.Error("Failed to list narratives", "error", err)
		http.Error(w, "Failed to list narratives", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*storage.NarrativeRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

// getStore returns the report store, or nil when the archive is disabled.
func (c *Component) getStore() *storage.Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Response is already partially written; nothing useful to do.
		_ = err
	}
}
