// Package app wires every pipeline component into a single lifecycle,
// adapted from the teacher's internal/app.App: sequential component
// construction, an ordered Start/Stop, and signal-driven Run for
// daemon mode, re-targeted at the ingest/extract/quarantine/finalize
// pipeline stages instead of the teacher's monitor/dispatcher/sink
// pipeline.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/LarjGit/edinburgh-finds-core/internal/config"
	"github.com/LarjGit/edinburgh-finds-core/internal/connectors"
	"github.com/LarjGit/edinburgh-finds-core/internal/extraction"
	"github.com/LarjGit/edinburgh-finds-core/internal/extractors"
	"github.com/LarjGit/edinburgh-finds-core/internal/finalize"
	"github.com/LarjGit/edinburgh-finds-core/internal/httpapi"
	"github.com/LarjGit/edinburgh-finds-core/internal/ingestion"
	"github.com/LarjGit/edinburgh-finds-core/internal/quarantine"
	"github.com/LarjGit/edinburgh-finds-core/internal/reload"
	"github.com/LarjGit/edinburgh-finds-core/internal/resource"
	"github.com/LarjGit/edinburgh-finds-core/internal/store"
	"github.com/LarjGit/edinburgh-finds-core/internal/tracing"
	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
	"github.com/LarjGit/edinburgh-finds-core/pkg/artifactstore"
	"github.com/LarjGit/edinburgh-finds-core/pkg/deduplication"
	"github.com/LarjGit/edinburgh-finds-core/pkg/domain"
	"github.com/LarjGit/edinburgh-finds-core/pkg/merge"
	"github.com/LarjGit/edinburgh-finds-core/pkg/modules"
	"github.com/LarjGit/edinburgh-finds-core/pkg/trust"
)

// App coordinates every pipeline component across its lifecycle.
type App struct {
	config *config.Config
	logger *logrus.Logger
	stores store.Stores

	connectorRegistry *connectors.Registry
	extractorRegistry *extractors.Registry

	precheckCache *deduplication.PrecheckCache
	artifacts     *artifactstore.Store
	trustHier     *trust.Hierarchy

	orchestrator *ingestion.Orchestrator
	extractor    *extraction.Runner
	quarantiner  *quarantine.Handler
	finalizer    *finalize.Finalizer

	resourceMonitor *resource.ResourceMonitor
	tracingManager  *tracing.Manager
	reloader        *reload.Reloader
	httpServer      *httpapi.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// New builds an App from the given config file, wiring components in
// the teacher's dependency order: stores first, then the precheck
// cache/artifact store/trust hierarchy, then the stage components that
// depend on them, then the ambient stack (tracing/resource/reload/http).
func New(configFile string) (*App, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.App.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{})
	}

	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		config: cfg,
		logger: logger,
		stores: store.NewMemoryStores(),
		ctx:    ctx,
		cancel: cancel,
	}

	if err := a.initComponents(); err != nil {
		cancel()
		return nil, err
	}

	return a, nil
}

func (a *App) initComponents() error {
	a.connectorRegistry = connectors.DefaultRegistry()
	a.extractorRegistry = extractors.DefaultRegistry()

	a.precheckCache = deduplication.NewPrecheckCache(deduplication.Config{
		MaxCacheSize:     a.config.Ingestion.PrecheckCache.MaxCacheSize,
		TTL:              a.config.Ingestion.PrecheckCache.TTL,
		CleanupInterval:  a.config.Ingestion.PrecheckCache.CleanupInterval,
		CleanupThreshold: a.config.Ingestion.PrecheckCache.CleanupThreshold,
	}, a.logger)

	artifacts, err := artifactstore.New(a.config.ArtifactStore.BaseDir, a.config.ArtifactStore.Compress)
	if err != nil {
		return apperrors.New(apperrors.CodeStoreUnavailable, "app", "initComponents", err.Error()).Wrap(err)
	}
	a.artifacts = artifacts

	hierarchy, err := loadTrustHierarchy(a.config.TrustConfigFile)
	if err != nil {
		return err
	}
	a.trustHier = hierarchy

	fieldGroups, err := loadFieldGroups(a.config.EntityModelFile)
	if err != nil {
		return err
	}

	a.orchestrator = ingestion.New(a.stores.RawCaptures, a.precheckCache, a.artifacts, a.logger, a.config.Ingestion.WorkerCount)
	a.quarantiner = quarantine.New(a.stores.FailedExtractions, a.logger)
	a.extractor = extraction.New(a.stores.RawCaptures, a.stores.ExtractedRecords, a.quarantiner, a.extractorRegistry, a.logger)
	a.finalizer = finalize.New(a.stores.ExtractedRecords, a.stores.CanonicalEntities, a.trustHier, fieldGroups, a.config.Finalize.ConflictThreshold, a.logger)

	if a.config.ResourceMonitor.Enabled {
		a.resourceMonitor = resource.NewResourceMonitor(resource.ResourceMonitorConfig{
			MonitoringInterval:     a.config.ResourceMonitor.SampleInterval,
			FDLeakThreshold:        a.config.ResourceMonitor.FDLeakThreshold,
			GoroutineLeakThreshold: a.config.ResourceMonitor.GoroutineThreshold,
			MemoryLeakThreshold:    a.config.ResourceMonitor.MemoryThresholdMB * 1024 * 1024,
		}, a.logger)
	}

	tracingManager, err := tracing.NewManager(tracing.Config{
		Enabled:        a.config.Tracing.Enabled,
		ServiceName:    a.config.Tracing.ServiceName,
		ServiceVersion: "v0.1.0",
		Environment:    a.config.App.Environment,
		Exporter:       "otlp",
		Endpoint:       a.config.Tracing.Endpoint,
		SampleRate:     1.0,
		BatchTimeout:   5 * time.Second,
		MaxBatchSize:   512,
	}, a.logger)
	if err != nil {
		return apperrors.NewCritical(apperrors.CodeConfigInvalid, "app", "initComponents", err.Error()).Wrap(err)
	}
	a.tracingManager = tracingManager

	reloader, err := reload.New(a.config.Reload, []string{a.config.TrustConfigFile, a.config.EntityModelFile}, a.logger,
		func(path string) error {
			h, err := loadTrustHierarchy(path)
			if err != nil {
				return err
			}
			a.trustHier = h
			return nil
		},
		func(path string) error {
			return nil
		},
		func(err error) {
			a.logger.WithError(err).Error("hot-reload failed")
		},
	)
	if err != nil {
		return apperrors.New(apperrors.CodeConfigInvalid, "app", "initComponents", err.Error()).Wrap(err)
	}
	a.reloader = reloader

	if a.config.Server.Enabled {
		a.httpServer = httpapi.New(httpapi.Config{
			Addr:        fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port),
			MetricsPath: a.config.Metrics.Path,
		}, a.stores.OrchestrationRuns, a.resourceMonitor, a.tracingManager.Tracer(), a.logger)
	}

	return nil
}

// Start launches every background component (resource monitor,
// reloader, admin HTTP server). Pipeline stages themselves are driven
// on demand via RunIngest/RunExtract/RunQuarantineRetry/RunFinalize,
// not started here.
func (a *App) Start() error {
	a.logger.Info("starting entity catalogue pipeline")

	if err := a.precheckCache.Start(); err != nil {
		return err
	}
	if a.resourceMonitor != nil {
		if err := a.resourceMonitor.Start(); err != nil {
			return err
		}
	}
	if err := a.reloader.Start(); err != nil {
		return err
	}
	if a.httpServer != nil {
		a.httpServer.Start()
	}

	a.logger.Info("entity catalogue pipeline started")
	return nil
}

// Stop gracefully shuts down every running component.
func (a *App) Stop() error {
	a.logger.Info("stopping entity catalogue pipeline")
	a.cancel()

	if err := a.precheckCache.Stop(); err != nil {
		a.logger.WithError(err).Error("failed to stop precheck cache")
	}
	if a.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := a.httpServer.Stop(ctx); err != nil {
			a.logger.WithError(err).Error("failed to stop admin http server")
		}
	}
	if a.reloader != nil {
		if err := a.reloader.Stop(); err != nil {
			a.logger.WithError(err).Error("failed to stop config reloader")
		}
	}
	if a.resourceMonitor != nil {
		if err := a.resourceMonitor.Stop(); err != nil {
			a.logger.WithError(err).Error("failed to stop resource monitor")
		}
	}
	if a.tracingManager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.tracingManager.Shutdown(ctx); err != nil {
			a.logger.WithError(err).Error("failed to shutdown tracing manager")
		}
	}

	a.logger.Info("entity catalogue pipeline stopped")
	return nil
}

// Run starts the App in daemon mode (admin surface only) and blocks
// until a shutdown signal arrives.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	a.logger.Info("shutdown signal received")
	return a.Stop()
}

// RunIngest drives one ingestion orchestrator invocation for source.
func (a *App) RunIngest(source string) (ingestion.Summary, error) {
	srcCfg, ok := a.config.Sources[source]
	if !ok {
		return ingestion.Summary{}, apperrors.ConnectorError("RunIngest", "unknown source "+source)
	}

	conn, err := a.connectorRegistry.Build(srcCfg.Variant, sourceConfigToMap(source, srcCfg))
	if err != nil {
		return ingestion.Summary{}, err
	}

	runID := uuid.NewString()
	a.recordRun(runID, "ingest")

	var summary ingestion.Summary
	runErr := tracing.Run(a.ctx, a.tracingManager.Tracer(), "ingest", runID, func(ctx context.Context) error {
		var err error
		summary, err = a.orchestrator.Run(ctx, runID, conn)
		return err
	})
	a.completeRun(runID, summary.Stored, summary.Errors, runErr)
	return summary, runErr
}

// RunExtract drives one extraction runner invocation for source since
// the given timestamp.
func (a *App) RunExtract(source string, since time.Time, opts extraction.Options) (extraction.Summary, error) {
	srcCfg, ok := a.config.Sources[source]
	if !ok {
		return extraction.Summary{}, apperrors.ExtractionError("RunExtract", "unknown source "+source)
	}

	runID := uuid.NewString()
	a.recordRun(runID, "extract")

	var summary extraction.Summary
	runErr := tracing.Run(a.ctx, a.tracingManager.Tracer(), "extract", runID, func(ctx context.Context) error {
		var err error
		summary, err = a.extractor.RunForSource(ctx, runID, source, srcCfg.Variant, sourceConfigToMap(source, srcCfg), since, opts)
		return err
	})
	a.completeRun(runID, summary.Succeeded, summary.Failed, runErr)
	return summary, runErr
}

// RunQuarantineRetry drives one quarantine retry-batch sweep.
func (a *App) RunQuarantineRetry(limit int) (quarantine.BatchSummary, error) {
	runID := uuid.NewString()
	a.recordRun(runID, "quarantine")

	handler := quarantine.StandardRetryHandler(a.stores.RawCaptures, a.stores.ExtractedRecords, a.extractorRegistry,
		func(source string) (string, map[string]interface{}) {
			srcCfg := a.config.Sources[source]
			return srcCfg.Variant, sourceConfigToMap(source, srcCfg)
		}, a.logger)

	var summary quarantine.BatchSummary
	runErr := tracing.Run(a.ctx, a.tracingManager.Tracer(), "quarantine", runID, func(ctx context.Context) error {
		var err error
		summary, err = a.quarantiner.RetryBatch(ctx, runID, a.config.Quarantine.MaxAttempts, limit, handler)
		return err
	})
	a.completeRun(runID, summary.Succeeded, summary.Failed, runErr)
	return summary, runErr
}

// RunFinalize drives one entity-finalizer invocation since the given
// timestamp.
func (a *App) RunFinalize(since time.Time) (finalize.Summary, error) {
	runID := uuid.NewString()
	a.recordRun(runID, "finalize")

	var summary finalize.Summary
	runErr := tracing.Run(a.ctx, a.tracingManager.Tracer(), "finalize", runID, func(ctx context.Context) error {
		var err error
		summary, err = a.finalizer.Run(ctx, runID, since)
		return err
	})
	a.completeRun(runID, summary.EntitiesCreated+summary.EntitiesUpdated, 0, runErr)
	return summary, runErr
}

// recordRun creates the OrchestrationRun audit row for a pipeline
// invocation.
func (a *App) recordRun(runID, stage string) {
	_ = a.stores.OrchestrationRuns.Create(a.ctx, domain.OrchestrationRun{
		ID:        runID,
		Stage:     stage,
		StartedAt: time.Now(),
	})
}

func (a *App) completeRun(runID string, ok, failed int, runErr error) {
	notes := ""
	if runErr != nil {
		notes = runErr.Error()
	}
	_ = a.stores.OrchestrationRuns.Complete(a.ctx, runID, ok, failed, notes)
}

func sourceConfigToMap(source string, cfg config.SourceConfig) map[string]interface{} {
	m := map[string]interface{}{
		"name":            source,
		"variant":         cfg.Variant,
		"api_key":         cfg.APIKey,
		"base_url":        cfg.BaseURL,
		"endpoint":        cfg.BaseURL,
		"timeout_seconds": cfg.TimeoutSeconds,
		"default_params":  cfg.DefaultParams,
		"rate_limits":     cfg.RateLimits,
	}
	for k, v := range cfg.Extra {
		m[k] = v
	}
	return m
}

// loadTrustHierarchy loads the trust-hierarchy YAML config (source ->
// trust score) via the strict duplicate-key-detecting loader, matching
// spec.md §5's trust config contract. An empty path yields an empty
// (all-default-trust) hierarchy.
func loadTrustHierarchy(path string) (*trust.Hierarchy, error) {
	if path == "" {
		return trust.New(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return trust.New(nil), nil
		}
		return nil, apperrors.ConfigError("loadTrustHierarchy", err.Error()).Wrap(err)
	}

	var doc struct {
		Sources map[string]float64 `yaml:"sources"`
	}
	if err := modules.LoadStrict(data, &doc); err != nil {
		return nil, apperrors.ConfigError("loadTrustHierarchy", err.Error()).Wrap(err)
	}
	return trust.New(doc.Sources), nil
}

// loadFieldGroups loads the entity-model YAML config mapping field
// names to merge-group strategy (spec.md §5's entity-model contract,
// consumed by pkg/merge.EntityMerger). An empty path yields an empty
// map (every field uses merge.GroupDefault).
func loadFieldGroups(path string) (merge.FieldGroups, error) {
	if path == "" {
		return merge.FieldGroups{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return merge.FieldGroups{}, nil
		}
		return nil, apperrors.ConfigError("loadFieldGroups", err.Error()).Wrap(err)
	}

	var doc struct {
		Fields  map[string]string      `yaml:"fields"`
		Modules map[string]interface{} `yaml:"modules"`
	}
	if err := modules.LoadStrict(data, &doc); err != nil {
		return nil, apperrors.ConfigError("loadFieldGroups", err.Error()).Wrap(err)
	}
	if doc.Modules != nil {
		if err := modules.ValidateNamespacing(doc.Modules); err != nil {
			return nil, apperrors.New(apperrors.CodeModuleNamespacing, "app", "loadFieldGroups", err.Error()).Wrap(err)
		}
	}

	groups := make(merge.FieldGroups, len(doc.Fields))
	for field, group := range doc.Fields {
		groups[field] = merge.Group(group)
	}
	return groups, nil
}
