package narrativeingester

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/storycheck/narrative"
	"github.com/c360studio/storycheck/storage"
)

// narrativeIngesterSchema defines the configuration schema.
var narrativeIngesterSchema = component.GenerateConfigSchema(reflect.TypeOf(Config{}))

// reportSubject is the subject for publishing decision reports.
const reportSubject = "narrative.check.report"

// Component implements the narrative-ingester processor.
type Component struct {
	name       string
	config     Config
	natsClient *natsclient.Client
	logger     *slog.Logger
	platform   component.PlatformMeta
	handler    *Handler
	watcher    *NarrativeWatcher
	store      *storage.Store

	// Lifecycle management
	running   bool
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup // Tracks running goroutines for graceful shutdown

	// Metrics
	narrativesChecked atomic.Int64
	reportsPublished  atomic.Int64
	errors            atomic.Int64
	lastActivityMu    sync.RWMutex
	lastActivity      time.Time
}

// NewComponent creates a new narrative-ingester processor component.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Use default config if ports not set
	if config.Ports == nil {
		config = DefaultConfig()
		// Re-unmarshal to get user-provided values
		if err := json.Unmarshal(rawConfig, &config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Component{
		name:       "narrative-ingester",
		config:     config,
		natsClient: deps.NATSClient,
		logger:     deps.GetLogger(),
		platform:   deps.Platform,
	}

	return c, nil
}

// Initialize prepares the component.
func (c *Component) Initialize() error {
	return nil
}

// Start begins processing narrative check requests.
func (c *Component) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("component already running")
	}
	if c.natsClient == nil {
		c.mu.Unlock()
		return fmt.Errorf("NATS client required")
	}
	// Mark as starting immediately to prevent concurrent starts
	c.running = true
	c.startTime = time.Now()
	c.mu.Unlock()

	// Create fetcher
	fetcher := NewFetcher(
		c.config.GetFetchTimeout(),
		c.config.GetUserAgent(),
		c.config.GetMaxContentSize(),
	)

	// Create handler
	handler, err := NewHandler(fetcher, c.config.ChunkSize, c.logger)
	if err != nil {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		return fmt.Errorf("create handler: %w", err)
	}
	c.handler = handler

	// Report archive is best-effort: checks still run and publish without it
	if js, err := c.natsClient.JetStream(); err != nil {
		c.logger.Warn("JetStream unavailable, report archive disabled", "error", err)
	} else if store, err := storage.NewStore(ctx, js); err != nil {
		c.logger.Warn("Failed to create report store, report archive disabled", "error", err)
	} else {
		c.store = store
	}

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	// Start consumer in background with WaitGroup tracking
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consumeMessages(runCtx)
	}()

	// Start file watcher if enabled
	if c.config.Watch.Enabled {
		watcher, err := NewNarrativeWatcher(c.config.Watch, c.config.GetNarrativesDir(), c.logger)
		if err != nil {
			c.logger.Error("Failed to create narrative watcher", "error", err)
		} else if err := watcher.Start(runCtx); err != nil {
			c.logger.Error("Failed to start narrative watcher", "error", err)
		} else {
			c.watcher = watcher
			c.wg.Add(1)
			go func() {
				defer c.wg.Done()
				c.consumeWatchEvents(runCtx)
			}()
		}
	}

	c.logger.Info("Narrative ingester started",
		"stream", c.config.StreamName,
		"consumer", c.config.ConsumerName,
		"watch", c.config.Watch.Enabled)

	return nil
}

// consumeMessages processes incoming narrative check requests.
func (c *Component) consumeMessages(ctx context.Context) {
	js, err := c.natsClient.JetStream()
	if err != nil {
		c.logger.Error("Failed to get JetStream context", "error", err)
		return
	}

	// Get or create consumer
	consumer, err := js.Consumer(ctx, c.config.StreamName, c.config.ConsumerName)
	if err != nil {
		c.logger.Error("Failed to get consumer", "error", err, "stream", c.config.StreamName, "consumer", c.config.ConsumerName)
		return
	}

	c.logger.Info("Consumer connected", "stream", c.config.StreamName, "consumer", c.config.ConsumerName)

	// Consume messages
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Fetch next message with timeout
		msgs, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue // Timeout, try again
		}

		for msg := range msgs.Messages() {
			select {
			case <-ctx.Done():
				// NAK the current message so it can be redelivered
				_ = msg.Nak()
				// Drain remaining messages from this batch
				for remaining := range msgs.Messages() {
					_ = remaining.Nak()
				}
				return
			default:
				c.handleMessage(ctx, msg)
			}
		}
	}
}

// handleMessage processes a single narrative check request.
func (c *Component) handleMessage(ctx context.Context, msg jetstream.Msg) {
	c.updateLastActivity()

	// Parse request
	var req narrative.CheckRequest
	if err := json.Unmarshal(msg.Data(), &req); err != nil {
		c.logger.Warn("Failed to parse check request", "error", err)
		c.errors.Add(1)
		_ = msg.Nak()
		return
	}

	c.logger.Info("Processing check request",
		"request_id", req.RequestID,
		"narrative_id", req.NarrativeID,
		"url", req.URL,
		"path", req.Path)

	report, err := c.handler.Check(ctx, req)
	if err != nil {
		c.logger.Error("Check failed", "request_id", req.RequestID, "error", err)
		c.errors.Add(1)
		_ = msg.Nak()
		return
	}

	if err := c.publishReport(ctx, report); err != nil {
		c.logger.Error("Failed to publish report", "report_id", report.ReportID, "error", err)
		c.errors.Add(1)
		_ = msg.Nak()
		return
	}

	c.narrativesChecked.Add(1)
	_ = msg.Ack()

	c.logger.Info("Check completed",
		"report_id", report.ReportID,
		"narrative_id", report.Document.NarrativeID,
		"decision", report.Document.Decision)
}

// consumeWatchEvents re-checks narratives as their files change.
func (c *Component) consumeWatchEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-c.watcher.Events():
			if !ok {
				return
			}
			if event.Operation == WatchOpDelete {
				continue
			}
			c.handleWatchEvent(ctx, event)
		}
	}
}

// handleWatchEvent checks a changed narrative file against its backstory sidecar.
func (c *Component) handleWatchEvent(ctx context.Context, event WatchEvent) {
	c.updateLastActivity()

	backstoryPath := backstoryPathFor(event.AbsPath)
	backstoryText, err := os.ReadFile(backstoryPath)
	if err != nil {
		c.logger.Debug("No backstory sidecar, skipping narrative",
			"path", event.Path,
			"backstory_path", backstoryPath)
		return
	}

	req := narrative.CheckRequest{
		Backstory: string(backstoryText),
		Path:      event.AbsPath,
	}

	report, err := c.handler.Check(ctx, req)
	if err != nil {
		c.logger.Error("Watched narrative check failed", "path", event.Path, "error", err)
		c.errors.Add(1)
		return
	}

	if err := c.publishReport(ctx, report); err != nil {
		c.logger.Error("Failed to publish report", "report_id", report.ReportID, "error", err)
		c.errors.Add(1)
		return
	}

	c.narrativesChecked.Add(1)
	c.logger.Info("Watched narrative checked",
		"path", event.Path,
		"op", event.Operation,
		"decision", report.Document.Decision)
}

// backstoryPathFor returns the backstory sidecar path for a narrative file.
func backstoryPathFor(narrativePath string) string {
	ext := filepath.Ext(narrativePath)
	return strings.TrimSuffix(narrativePath, ext) + backstorySuffix
}

// publishReport wraps a ReportPayload and publishes it to the report stream.
func (c *Component) publishReport(ctx context.Context, report *ReportPayload) error {
	msg := message.NewBaseMessage(ReportType, report, "storycheck")
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal report message: %w", err)
	}
	if err := c.natsClient.PublishToStream(ctx, reportSubject, data); err != nil {
		return err
	}
	c.reportsPublished.Add(1)
	c.archiveReport(ctx, report)
	return nil
}

// archiveReport persists a published report to the KV archive.
func (c *Component) archiveReport(ctx context.Context, report *ReportPayload) {
	if c.store == nil {
		return
	}
	_, err := c.store.SaveReport(ctx, &storage.Report{
		ID:        report.ReportID,
		RequestID: report.RequestID,
		Document:  report.Document,
		CreatedAt: report.CheckedAt,
	})
	if err != nil {
		c.logger.Warn("Failed to archive report", "report_id", report.ReportID, "error", err)
	}
}

// updateLastActivity safely updates the last activity timestamp.
func (c *Component) updateLastActivity() {
	c.lastActivityMu.Lock()
	c.lastActivity = time.Now()
	c.lastActivityMu.Unlock()
}

// getLastActivity safely retrieves the last activity timestamp.
func (c *Component) getLastActivity() time.Time {
	c.lastActivityMu.RLock()
	defer c.lastActivityMu.RUnlock()
	return c.lastActivity
}

// Stop gracefully stops the component within the given timeout.
func (c *Component) Stop(timeout time.Duration) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}

	if c.cancel != nil {
		c.cancel()
	}
	if c.watcher != nil {
		_ = c.watcher.Stop()
	}
	c.mu.Unlock()

	// Wait for goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		// Graceful shutdown completed
	case <-time.After(timeout):
		err = fmt.Errorf("stop timed out after %v", timeout)
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.logger.Info("Narrative ingester stopped",
		"narratives_checked", c.narrativesChecked.Load(),
		"reports_published", c.reportsPublished.Load(),
		"errors", c.errors.Load())

	return err
}

// Discoverable interface implementation

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "narrative-ingester",
		Type:        "processor",
		Description: "Narrative ingestion and consistency checking",
		Version:     "0.1.0",
	}
}

// InputPorts returns configured input port definitions.
func (c *Component) InputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Inputs))
	for i, portDef := range c.config.Ports.Inputs {
		ports[i] = buildPort(portDef, component.DirectionInput)
	}
	return ports
}

// OutputPorts returns configured output port definitions.
func (c *Component) OutputPorts() []component.Port {
	if c.config.Ports == nil {
		return []component.Port{}
	}

	ports := make([]component.Port, len(c.config.Ports.Outputs))
	for i, portDef := range c.config.Ports.Outputs {
		ports[i] = buildPort(portDef, component.DirectionOutput)
	}
	return ports
}

// buildPort creates a component.Port from a PortDefinition.
func buildPort(portDef component.PortDefinition, direction component.Direction) component.Port {
	port := component.Port{
		Name:        portDef.Name,
		Direction:   direction,
		Required:    portDef.Required,
		Description: portDef.Description,
	}
	if portDef.Type == "jetstream" {
		port.Config = component.JetStreamPort{
			StreamName: portDef.StreamName,
			Subjects:   []string{portDef.Subject},
		}
	} else {
		port.Config = component.NATSPort{
			Subject: portDef.Subject,
		}
	}
	return port
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return narrativeIngesterSchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	c.mu.RLock()
	running := c.running
	startTime := c.startTime
	c.mu.RUnlock()

	return component.HealthStatus{
		Healthy:    running,
		LastCheck:  time.Now(),
		ErrorCount: int(c.errors.Load()),
		Uptime:     time.Since(startTime),
		Status:     c.getStatusString(running),
	}
}

// getStatusString returns a status string based on running state.
func (c *Component) getStatusString(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{
		MessagesPerSecond: 0,
		BytesPerSecond:    0,
		ErrorRate:         0,
		LastActivity:      c.getLastActivity(),
	}
}
