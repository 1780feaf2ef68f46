// Package config loads and validates pipeline configuration, adapted
// from the teacher's internal/config/config.go: YAML file load,
// default application, then environment-variable overrides under the
// CATALOG_ prefix (mirroring the teacher's SSW_ prefix), followed by
// fail-fast ValidateConfig before any component starts.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/LarjGit/edinburgh-finds-core/pkg/apperrors"
)

// AppConfig holds process-wide settings.
type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// ServerConfig configures the admin HTTP surface (internal/httpapi).
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig configures the OpenTelemetry exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

// PrecheckCacheConfig configures the ingestion pre-check duplicate cache.
type PrecheckCacheConfig struct {
	MaxCacheSize     int           `yaml:"max_cache_size"`
	TTL              time.Duration `yaml:"ttl"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"`
	CleanupThreshold float64       `yaml:"cleanup_threshold"`
}

// IngestionConfig configures the ingestion orchestrator.
type IngestionConfig struct {
	WorkerCount   int                 `yaml:"worker_count"`
	BatchSize     int                 `yaml:"batch_size"`
	PrecheckCache PrecheckCacheConfig `yaml:"precheck_cache"`
}

// ExtractionConfig configures the extraction runner.
type ExtractionConfig struct {
	WorkerCount int  `yaml:"worker_count"`
	DryRun      bool `yaml:"dry_run"`
	ForceRetry  bool `yaml:"force_retry"`
	Limit       int  `yaml:"limit"`
}

// QuarantineConfig configures the quarantine retry handler.
type QuarantineConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"`
	RetryInterval time.Duration `yaml:"retry_interval"`
}

// FinalizeConfig configures the entity finalizer.
type FinalizeConfig struct {
	ConflictThreshold float64 `yaml:"conflict_threshold"`
}

// ReloadConfig configures hot-reload of source/trust configuration files.
type ReloadConfig struct {
	Enabled          bool          `yaml:"enabled"`
	WatchInterval    time.Duration `yaml:"watch_interval"`
	DebounceInterval time.Duration `yaml:"debounce_interval"`
	ValidateOnReload bool          `yaml:"validate_on_reload"`
}

// ResourceMonitorConfig configures per-run resource sampling.
type ResourceMonitorConfig struct {
	Enabled            bool          `yaml:"enabled"`
	SampleInterval     time.Duration `yaml:"sample_interval"`
	FDLeakThreshold    int64         `yaml:"fd_leak_threshold"`
	GoroutineThreshold int64         `yaml:"goroutine_leak_threshold"`
	MemoryThresholdMB  int64         `yaml:"memory_leak_threshold_mb"`
}

// ArtifactStoreConfig configures the content-addressed artifact store.
type ArtifactStoreConfig struct {
	BaseDir  string `yaml:"base_dir"`
	Compress bool   `yaml:"compress"`
}

// SourceConfig is one connector's configuration, matching spec.md §6:
// {api_key?, base_url, timeout_seconds, default_params, rate_limits?,
// source-specific fields}.
type SourceConfig struct {
	Variant        string                 `yaml:"variant"`
	APIKey         string                 `yaml:"api_key"`
	BaseURL        string                 `yaml:"base_url"`
	TimeoutSeconds int                    `yaml:"timeout_seconds"`
	DefaultParams  map[string]interface{} `yaml:"default_params"`
	RateLimits     map[string]interface{} `yaml:"rate_limits"`
	Extra          map[string]interface{} `yaml:",inline"`
}

// Config is the root pipeline configuration.
type Config struct {
	App             AppConfig                `yaml:"app"`
	Server          ServerConfig             `yaml:"server"`
	Metrics         MetricsConfig            `yaml:"metrics"`
	Tracing         TracingConfig            `yaml:"tracing"`
	Ingestion       IngestionConfig          `yaml:"ingestion"`
	Extraction      ExtractionConfig         `yaml:"extraction"`
	Quarantine      QuarantineConfig         `yaml:"quarantine"`
	Finalize        FinalizeConfig           `yaml:"finalize"`
	Reload          ReloadConfig             `yaml:"reload"`
	ResourceMonitor ResourceMonitorConfig    `yaml:"resource_monitor"`
	ArtifactStore   ArtifactStoreConfig      `yaml:"artifact_store"`
	Sources         map[string]SourceConfig  `yaml:"sources"`
	TrustConfigFile string                   `yaml:"trust_config_file"`
	EntityModelFile string                   `yaml:"entity_model_file"`

	loaded bool
}

// LoadConfig loads configuration from a YAML file, applies defaults,
// then applies CATALOG_* environment overrides, validating the result
// before returning it.
func LoadConfig(configFile string) (*Config, error) {
	cfg := &Config{}

	if configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, apperrors.ConfigError("LoadConfig", err.Error()).Wrap(err)
		}
	}

	applyDefaults(cfg)
	applyEnvironmentOverrides(cfg)
	cfg.loaded = true

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadConfigFile(filename string, cfg *Config) error {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return apperrors.New(apperrors.CodeConfigNotFound, "config", "loadConfigFile",
			fmt.Sprintf("config file not found: %s", filename))
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "entity-catalogue-core"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "production"
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.LogFormat == "" {
		cfg.App.LogFormat = "json"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8401
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	cfg.Metrics.Enabled = true

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = cfg.App.Name
	}

	if cfg.Ingestion.WorkerCount == 0 {
		cfg.Ingestion.WorkerCount = 4
	}
	if cfg.Ingestion.BatchSize == 0 {
		cfg.Ingestion.BatchSize = 100
	}
	if cfg.Ingestion.PrecheckCache.MaxCacheSize == 0 {
		cfg.Ingestion.PrecheckCache.MaxCacheSize = 100000
	}
	if cfg.Ingestion.PrecheckCache.TTL == 0 {
		cfg.Ingestion.PrecheckCache.TTL = time.Hour
	}
	if cfg.Ingestion.PrecheckCache.CleanupInterval == 0 {
		cfg.Ingestion.PrecheckCache.CleanupInterval = 10 * time.Minute
	}
	if cfg.Ingestion.PrecheckCache.CleanupThreshold == 0 {
		cfg.Ingestion.PrecheckCache.CleanupThreshold = 0.8
	}

	if cfg.Extraction.WorkerCount == 0 {
		cfg.Extraction.WorkerCount = 4
	}

	if cfg.Quarantine.MaxAttempts == 0 {
		cfg.Quarantine.MaxAttempts = 5
	}
	if cfg.Quarantine.RetryInterval == 0 {
		cfg.Quarantine.RetryInterval = 30 * time.Minute
	}

	if cfg.Finalize.ConflictThreshold == 0 {
		cfg.Finalize.ConflictThreshold = 15.0
	}

	if cfg.Reload.WatchInterval == 0 {
		cfg.Reload.WatchInterval = 5 * time.Second
	}
	if cfg.Reload.DebounceInterval == 0 {
		cfg.Reload.DebounceInterval = time.Second
	}

	if cfg.ResourceMonitor.SampleInterval == 0 {
		cfg.ResourceMonitor.SampleInterval = 30 * time.Second
	}
	if cfg.ResourceMonitor.FDLeakThreshold == 0 {
		cfg.ResourceMonitor.FDLeakThreshold = 100
	}
	if cfg.ResourceMonitor.GoroutineThreshold == 0 {
		cfg.ResourceMonitor.GoroutineThreshold = 50
	}
	if cfg.ResourceMonitor.MemoryThresholdMB == 0 {
		cfg.ResourceMonitor.MemoryThresholdMB = 100
	}

	if cfg.ArtifactStore.BaseDir == "" {
		cfg.ArtifactStore.BaseDir = "./data/artifacts"
	}
}

func applyEnvironmentOverrides(cfg *Config) {
	cfg.App.Name = getEnvString("CATALOG_APP_NAME", cfg.App.Name)
	cfg.App.Environment = getEnvString("CATALOG_APP_ENVIRONMENT", cfg.App.Environment)
	cfg.App.LogLevel = getEnvString("CATALOG_LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnvString("CATALOG_LOG_FORMAT", cfg.App.LogFormat)

	cfg.Server.Enabled = getEnvBool("CATALOG_SERVER_ENABLED", cfg.Server.Enabled)
	cfg.Server.Host = getEnvString("CATALOG_SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("CATALOG_SERVER_PORT", cfg.Server.Port)

	cfg.Metrics.Enabled = getEnvBool("CATALOG_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.Path = getEnvString("CATALOG_METRICS_PATH", cfg.Metrics.Path)

	cfg.Tracing.Enabled = getEnvBool("CATALOG_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = getEnvString("CATALOG_TRACING_ENDPOINT", cfg.Tracing.Endpoint)

	cfg.Ingestion.WorkerCount = getEnvInt("CATALOG_INGESTION_WORKER_COUNT", cfg.Ingestion.WorkerCount)
	cfg.Ingestion.BatchSize = getEnvInt("CATALOG_INGESTION_BATCH_SIZE", cfg.Ingestion.BatchSize)

	cfg.Extraction.WorkerCount = getEnvInt("CATALOG_EXTRACTION_WORKER_COUNT", cfg.Extraction.WorkerCount)
	cfg.Extraction.DryRun = getEnvBool("CATALOG_EXTRACTION_DRY_RUN", cfg.Extraction.DryRun)
	cfg.Extraction.ForceRetry = getEnvBool("CATALOG_EXTRACTION_FORCE_RETRY", cfg.Extraction.ForceRetry)

	cfg.Quarantine.MaxAttempts = getEnvInt("CATALOG_QUARANTINE_MAX_ATTEMPTS", cfg.Quarantine.MaxAttempts)
	cfg.Quarantine.RetryInterval = getEnvDuration("CATALOG_QUARANTINE_RETRY_INTERVAL", cfg.Quarantine.RetryInterval)

	cfg.Finalize.ConflictThreshold = getEnvFloat("CATALOG_FINALIZE_CONFLICT_THRESHOLD", cfg.Finalize.ConflictThreshold)

	cfg.Reload.Enabled = getEnvBool("CATALOG_RELOAD_ENABLED", cfg.Reload.Enabled)

	cfg.ArtifactStore.BaseDir = getEnvString("CATALOG_ARTIFACT_STORE_DIR", cfg.ArtifactStore.BaseDir)
	cfg.ArtifactStore.Compress = getEnvBool("CATALOG_ARTIFACT_STORE_COMPRESS", cfg.ArtifactStore.Compress)

	cfg.TrustConfigFile = getEnvString("CATALOG_TRUST_CONFIG_FILE", cfg.TrustConfigFile)
	cfg.EntityModelFile = getEnvString("CATALOG_ENTITY_MODEL_FILE", cfg.EntityModelFile)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// ValidateConfig fails fast on a configuration that would leave a
// component unable to construct, matching spec.md §7's "fail to
// construct" contract for connectors lacking credentials.
func ValidateConfig(cfg *Config) error {
	v := &validator{cfg: cfg}
	v.validateApp()
	v.validateServer()
	v.validateSources()
	v.validateIngestion()
	v.validateFinalize()

	if len(v.errors) > 0 {
		return apperrors.New(apperrors.CodeConfigInvalid, "config", "ValidateConfig",
			fmt.Sprintf("%d validation error(s): %s", len(v.errors), strings.Join(v.errors, "; ")))
	}
	return nil
}

type validator struct {
	cfg    *Config
	errors []string
}

func (v *validator) addError(format string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateApp() {
	switch v.cfg.App.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		v.addError("app.log_level %q is not one of debug|info|warn|error", v.cfg.App.LogLevel)
	}
	switch v.cfg.App.LogFormat {
	case "json", "text":
	default:
		v.addError("app.log_format %q is not one of json|text", v.cfg.App.LogFormat)
	}
}

func (v *validator) validateServer() {
	if v.cfg.Server.Enabled && (v.cfg.Server.Port <= 0 || v.cfg.Server.Port > 65535) {
		v.addError("server.port %d is out of range", v.cfg.Server.Port)
	}
}

func (v *validator) validateSources() {
	for name, src := range v.cfg.Sources {
		if src.Variant == "" {
			v.addError("sources.%s: variant is required", name)
		}
		if requiresAPIKey(src.Variant) && src.APIKey == "" {
			v.addError("sources.%s: variant %q requires api_key", name, src.Variant)
		}
	}
}

// requiresAPIKey mirrors spec.md §4.3's "a connector that requires but
// lacks credentials must fail to construct": the remote-API variants
// need a key, the geo-aggregation fan-out variant composes them.
func requiresAPIKey(variant string) bool {
	switch variant {
	case "textsearch", "placedetails":
		return true
	default:
		return false
	}
}

func (v *validator) validateIngestion() {
	if v.cfg.Ingestion.WorkerCount <= 0 {
		v.addError("ingestion.worker_count must be positive, got %d", v.cfg.Ingestion.WorkerCount)
	}
}

func (v *validator) validateFinalize() {
	if v.cfg.Finalize.ConflictThreshold <= 0 {
		v.addError("finalize.conflict_threshold must be positive, got %f", v.cfg.Finalize.ConflictThreshold)
	}
}
