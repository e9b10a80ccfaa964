package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/spf13/cobra"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/componentregistry"
	sconfig "github.com/c360studio/semstreams/config"
	"github.com/c360studio/semstreams/metric"
	"github.com/c360studio/semstreams/natsclient"
	"github.com/c360studio/semstreams/service"
	"github.com/c360studio/semstreams/types"

	"github.com/c360studio/storycheck/config"
	consistencyapi "github.com/c360studio/storycheck/processor/consistency-api"
	narrativeingester "github.com/c360studio/storycheck/processor/narrative-ingester"
)

func newServeCmd(logLevel *string) *cobra.Command {
	var platformConfigPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the storycheck platform",
		Long: `Serve starts the HTTP API and the narrative ingester as NATS
components. An embedded NATS server is started unless the configuration
points at an external one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*logLevel, platformConfigPath)
		},
	}

	cmd.Flags().StringVarP(&platformConfigPath, "config", "c", "", "Platform config file path (JSON)")

	return cmd
}

func runServe(logLevel, platformConfigPath string) error {
	printBanner()

	logger := newLogger(logLevel)

	appCfg, err := config.NewLoader(logger).Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cfg, err := loadPlatformConfig(platformConfigPath, appCfg)
	if err != nil {
		return fmt.Errorf("load platform config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx := context.Background()

	// Start embedded NATS unless an external server is configured
	var embeddedServer *server.Server
	if appCfg.NATS.Embedded && os.Getenv("NATS_URL") == "" {
		embeddedServer, err = startEmbeddedNATS()
		if err != nil {
			return err
		}
		defer func() {
			embeddedServer.Shutdown()
			embeddedServer.WaitForShutdown()
		}()
		cfg.NATS.URLs = []string{embeddedServer.ClientURL()}
		logger.Info("Embedded NATS server started", "url", embeddedServer.ClientURL())
	}

	natsClient, err := connectToNATS(ctx, cfg, appCfg, logger)
	if err != nil {
		return err
	}
	defer natsClient.Close(ctx)

	if err := ensureStreams(ctx, cfg, natsClient, logger); err != nil {
		return err
	}

	slog.Info("Storycheck ready", "version", Version)

	metricsRegistry := metric.NewMetricsRegistry()
	platform := extractPlatformMeta(cfg)

	configManager, err := sconfig.NewConfigManager(cfg, natsClient, logger)
	if err != nil {
		return fmt.Errorf("create config manager: %w", err)
	}
	if err := configManager.Start(ctx); err != nil {
		return fmt.Errorf("start config manager: %w", err)
	}
	defer configManager.Stop(5 * time.Second)

	componentRegistry := component.NewRegistry()

	slog.Debug("Registering semstreams component factories")
	if err := componentregistry.Register(componentRegistry); err != nil {
		return fmt.Errorf("register semstreams components: %w", err)
	}

	slog.Debug("Registering storycheck component factories")
	if err := consistencyapi.Register(componentRegistry); err != nil {
		return fmt.Errorf("register consistency-api: %w", err)
	}
	if err := narrativeingester.Register(componentRegistry); err != nil {
		return fmt.Errorf("register narrative-ingester: %w", err)
	}

	factories := componentRegistry.ListFactories()
	slog.Info("Component factories registered", "count", len(factories))

	serviceRegistry := service.NewServiceRegistry()
	if err := service.RegisterAll(serviceRegistry); err != nil {
		return fmt.Errorf("register services: %w", err)
	}

	manager := service.NewServiceManager(serviceRegistry)
	ensureServiceManagerConfig(cfg)

	svcDeps := &service.Dependencies{
		NATSClient:        natsClient,
		MetricsRegistry:   metricsRegistry,
		Logger:            logger,
		Platform:          platform,
		Manager:           configManager,
		ComponentRegistry: componentRegistry,
	}

	if err := configureAndCreateServices(cfg, manager, svcDeps); err != nil {
		return err
	}

	slog.Info("All services configured")

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	slog.Info("Starting all services")
	if err := manager.StartAll(signalCtx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	slog.Info("All services started successfully")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownTimeout := 30 * time.Second
	if err := manager.StopAll(shutdownTimeout); err != nil {
		slog.Error("Error stopping services", "error", err)
	}

	slog.Info("Storycheck shutdown complete")
	return nil
}

func printBanner() {
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║           Storycheck v" + Version + "                    ║")
	fmt.Println("║    Narrative Consistency Checker              ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
}

func startEmbeddedNATS() (*server.Server, error) {
	opts := &server.Options{
		Port:      -1, // Random available port
		JetStream: true,
		NoLog:     true,
		NoSigs:    true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(5 * time.Second) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server failed to start")
	}

	return ns, nil
}

func loadPlatformConfig(configPath string, appCfg *config.Config) (*sconfig.Config, error) {
	if configPath != "" {
		// Load from file with environment variable substitution
		return loadConfigWithEnvSubstitution(configPath)
	}

	return buildDefaultPlatformConfig(appCfg)
}

// loadConfigWithEnvSubstitution reads a config file and expands environment
// variables before parsing. Supports ${VAR} and $VAR syntax.
func loadConfigWithEnvSubstitution(configPath string) (*sconfig.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := sconfig.ExpandEnvWithDefaults(string(data))

	loader := sconfig.NewLoader()
	return loader.LoadFromBytes([]byte(expanded))
}

func buildDefaultPlatformConfig(appCfg *config.Config) (*sconfig.Config, error) {
	ingesterConfig := map[string]any{
		"chunk_size":       appCfg.Chunker.Size,
		"fetch_timeout":    appCfg.Fetch.Timeout.String(),
		"max_content_size": appCfg.Fetch.MaxBodySize,
		"narratives_dir":   appCfg.Narratives.Dir,
		"watch": map[string]any{
			"enabled":  true,
			"patterns": appCfg.Narratives.Patterns,
		},
	}
	ingesterJSON, _ := json.Marshal(ingesterConfig)

	apiConfig := map[string]any{
		"chunk_size": appCfg.Chunker.Size,
	}
	apiJSON, _ := json.Marshal(apiConfig)

	natsURLs := []string{"nats://localhost:4222"}
	if appCfg.NATS.URL != "" {
		natsURLs = []string{appCfg.NATS.URL}
	}

	return &sconfig.Config{
		Version: "1.0.0",
		Platform: sconfig.PlatformConfig{
			Org:         "storycheck",
			ID:          "storycheck-local",
			Environment: "dev",
		},
		NATS: sconfig.NATSConfig{
			URLs:          natsURLs,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
			JetStream: sconfig.JetStreamConfig{
				Enabled: true,
			},
		},
		Services: types.ServiceConfigs{},
		Components: sconfig.ComponentConfigs{
			"consistency-api": types.ComponentConfig{
				Name:    "consistency-api",
				Type:    types.ComponentTypeProcessor,
				Enabled: true,
				Config:  apiJSON,
			},
			"narrative-ingester": types.ComponentConfig{
				Name:    "narrative-ingester",
				Type:    types.ComponentTypeProcessor,
				Enabled: true,
				Config:  ingesterJSON,
			},
		},
		Streams: sconfig.StreamConfigs{
			"NARRATIVES": sconfig.StreamConfig{
				Subjects: []string{
					"narrative.check.request.>",
				},
				MaxAge:   "24h",
				Storage:  "memory",
				Replicas: 1,
			},
			"REPORTS": sconfig.StreamConfig{
				Subjects: []string{
					"narrative.check.report",
				},
				MaxAge:   "24h",
				Storage:  "memory",
				Replicas: 1,
			},
		},
	}, nil
}

func connectToNATS(ctx context.Context, cfg *sconfig.Config, appCfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	natsURLs := "nats://localhost:4222"

	// Environment variable override takes precedence
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		natsURLs = envURL
	} else if envURL := os.Getenv("STORYCHECK_NATS_URL"); envURL != "" {
		natsURLs = envURL
	} else if len(cfg.NATS.URLs) > 0 {
		natsURLs = strings.Join(cfg.NATS.URLs, ",")
	} else if appCfg.NATS.URL != "" {
		natsURLs = appCfg.NATS.URL
	}

	logger.Info("Connecting to NATS", "url", natsURLs)

	client, err := natsclient.NewClient(natsURLs,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20), // Higher threshold for startup bursts
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, natsURLs)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, natsURLs)
	}

	logger.Info("Connected to NATS", "url", natsURLs)
	return client, nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker compose up -d nats

Or set NATS_URL environment variable, or enable embedded NATS in storycheck.yaml.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

func ensureStreams(ctx context.Context, cfg *sconfig.Config, natsClient *natsclient.Client, logger *slog.Logger) error {
	logger.Debug("Creating JetStream streams")
	streamsManager := sconfig.NewStreamsManager(natsClient, logger)

	if err := streamsManager.EnsureStreams(ctx, cfg); err != nil {
		return fmt.Errorf("ensure streams: %w", err)
	}

	logger.Debug("JetStream streams ready")
	return nil
}

func extractPlatformMeta(cfg *sconfig.Config) types.PlatformMeta {
	platformID := cfg.Platform.InstanceID
	if platformID == "" {
		platformID = cfg.Platform.ID
	}

	return types.PlatformMeta{
		Org:      cfg.Platform.Org,
		Platform: platformID,
	}
}

// ensureServiceManagerConfig ensures service-manager config exists with defaults
func ensureServiceManagerConfig(cfg *sconfig.Config) {
	if cfg.Services == nil {
		cfg.Services = make(types.ServiceConfigs)
	}

	if _, exists := cfg.Services["service-manager"]; !exists {
		slog.Debug("Adding default service-manager config")
		defaultConfig := map[string]any{
			"http_port":  8080,
			"swagger_ui": false,
			"server_info": map[string]string{
				"title":       "Storycheck API",
				"description": "constraint-based narrative consistency checking",
				"version":     Version,
			},
		}
		defaultConfigJSON, _ := json.Marshal(defaultConfig)
		cfg.Services["service-manager"] = types.ServiceConfig{
			Name:    "service-manager",
			Enabled: true,
			Config:  defaultConfigJSON,
		}
		slog.Debug("Service-manager config added", "enabled", true)
	}
}

// configureAndCreateServices configures the manager and creates all services
func configureAndCreateServices(
	cfg *sconfig.Config,
	manager *service.Manager,
	svcDeps *service.Dependencies,
) error {
	slog.Debug("Configuring Manager")
	if err := manager.ConfigureFromServices(cfg.Services, svcDeps); err != nil {
		return fmt.Errorf("configure service manager: %w", err)
	}

	slog.Debug("Creating services from config", "count", len(cfg.Services))
	for name, svcConfig := range cfg.Services {
		if name == "service-manager" {
			slog.Debug("Skipping service-manager (configured directly)")
			continue
		}

		if err := createServiceIfEnabled(manager, name, svcConfig, svcDeps); err != nil {
			return err
		}
	}

	return nil
}

// createServiceIfEnabled creates a service if it's enabled and registered
func createServiceIfEnabled(
	manager *service.Manager,
	name string,
	svcConfig types.ServiceConfig,
	svcDeps *service.Dependencies,
) error {
	slog.Debug("Processing service config", "key", name, "name", svcConfig.Name, "enabled", svcConfig.Enabled)

	if !svcConfig.Enabled {
		slog.Info("Service disabled in config", "name", name)
		return nil
	}

	if !manager.HasConstructor(name) {
		slog.Warn("Service configured but not registered", "key", name, "available_constructors", manager.ListConstructors())
		return nil
	}

	slog.Debug("Creating service", "name", name, "has_constructor", true)
	if _, err := manager.CreateService(name, svcConfig.Config, svcDeps); err != nil {
		return fmt.Errorf("create service %s: %w", name, err)
	}

	slog.Info("Created service", "name", name, "config_name", svcConfig.Name)
	return nil
}
