// Package consistencyapi provides HTTP endpoints for narrative consistency
// checking. It exposes check, derivation, and format discovery endpoints
// that drive one-shot consistency requests against the scoring pipeline.
package consistencyapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/storycheck/backstory"
	"github.com/c360studio/storycheck/engine"
	"github.com/c360studio/storycheck/export"
	"github.com/c360studio/storycheck/narrative/chunker"
	"github.com/c360studio/storycheck/storage"
)

// Component implements the consistency-api component.
// It provides HTTP endpoints for running consistency checks on demand.
type Component struct {
	name       string
	config     Config
	logger     *slog.Logger
	natsClient *natsclient.Client
	chunker    *chunker.Chunker
	deriver    *backstory.Deriver
	pipeline   *engine.Pipeline
	exporter   *export.Exporter
	store      *storage.Store

	// Lifecycle state machine
	// States: 0=stopped, 1=starting, 2=running, 3=stopping
	state     atomic.Int32
	startTime time.Time
	mu        sync.RWMutex
	cancel    context.CancelFunc
}

const (
	stateStopped  = 0
	stateStarting = 1
	stateRunning  = 2
	stateStopping = 3
)

// NewComponent constructs a consistency-api Component from raw JSON config and deps.
func NewComponent(rawConfig json.RawMessage, deps component.Dependencies) (component.Discoverable, error) {
	var config Config
	if err := json.Unmarshal(rawConfig, &config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := deps.GetLogger()

	ch, err := chunker.New(chunker.Config{ChunkSize: config.ChunkSize})
	if err != nil {
		return nil, fmt.Errorf("create chunker: %w", err)
	}

	return &Component{
		name:       "consistency-api",
		config:     config,
		logger:     logger,
		natsClient: deps.NATSClient,
		chunker:    ch,
		deriver:    backstory.NewDeriver(),
		pipeline:   engine.NewPipeline(logger),
		exporter:   export.NewExporter(),
	}, nil
}

// Initialize prepares the component for startup.
func (c *Component) Initialize() error {
	c.logger.Debug("Initialized consistency-api", "chunk_size", c.config.ChunkSize)
	return nil
}

// Start begins serving the component.
func (c *Component) Start(ctx context.Context) error {
	if !c.state.CompareAndSwap(stateStopped, stateStarting) {
		current := c.state.Load()
		if current == stateRunning || current == stateStarting {
			return fmt.Errorf("component already running or starting")
		}
		return fmt.Errorf("component in invalid state: %d", current)
	}

	defer func() {
		if c.state.Load() == stateStarting {
			c.state.Store(stateStopped)
		}
	}()

	_, cancel := context.WithCancel(ctx)

	// Report archive is best-effort: check endpoints work without it,
	// report browsing endpoints return 503
	var store *storage.Store
	if c.natsClient != nil {
		if js, err := c.natsClient.JetStream(); err != nil {
			c.logger.Warn("JetStream unavailable, report archive disabled", "error", err)
		} else if s, err := storage.NewStore(ctx, js); err != nil {
			c.logger.Warn("Failed to create report store, report archive disabled", "error", err)
		} else {
			store = s
		}
	}

	c.mu.Lock()
	c.cancel = cancel
	c.store = store
	c.startTime = time.Now()
	c.mu.Unlock()

	c.state.Store(stateRunning)
	c.logger.Info("consistency-api started")
	return nil
}

// Stop gracefully stops the component.
func (c *Component) Stop(_ time.Duration) error {
	if !c.state.CompareAndSwap(stateRunning, stateStopping) {
		current := c.state.Load()
		if current == stateStopped || current == stateStopping {
			return nil
		}
		return fmt.Errorf("component in unexpected state: %d", current)
	}

	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	c.state.Store(stateStopped)
	c.logger.Info("consistency-api stopped")
	return nil
}

// Meta returns component metadata.
func (c *Component) Meta() component.Metadata {
	return component.Metadata{
		Name:        "consistency-api",
		Type:        "processor",
		Description: "HTTP endpoints for narrative consistency checks",
		Version:     "0.1.0",
	}
}

// InputPorts returns an empty port list — this component has no NATS inputs.
func (c *Component) InputPorts() []component.Port {
	return []component.Port{}
}

// OutputPorts returns an empty port list — this component has no NATS outputs.
func (c *Component) OutputPorts() []component.Port {
	return []component.Port{}
}

// ConfigSchema returns the configuration schema.
func (c *Component) ConfigSchema() component.ConfigSchema {
	return consistencyAPISchema
}

// Health returns the current health status.
func (c *Component) Health() component.HealthStatus {
	state := c.state.Load()
	running := state == stateRunning

	c.mu.RLock()
	startTime := c.startTime
	c.mu.RUnlock()

	status := "stopped"
	switch state {
	case stateStarting:
		status = "starting"
	case stateRunning:
		status = "running"
	case stateStopping:
		status = "stopping"
	}

	return component.HealthStatus{
		Healthy:   running,
		LastCheck: time.Now(),
		Uptime:    time.Since(startTime),
		Status:    status,
	}
}

// DataFlow returns current data flow metrics.
func (c *Component) DataFlow() component.FlowMetrics {
	return component.FlowMetrics{}
}
