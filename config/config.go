package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/motorefacciones/import-service/internal/http/ratelimit"
	"github.com/motorefacciones/import-service/internal/jobs"
	"github.com/motorefacciones/import-service/internal/middleware"
	"github.com/motorefacciones/import-service/internal/pipeline"
	"github.com/motorefacciones/import-service/internal/storage"
	"github.com/motorefacciones/import-service/internal/telemetry"
)

// EnvPrefix prefixes every environment override, e.g. IMPORT_SERVICE_SERVER_PORT
const EnvPrefix = "IMPORT_SERVICE"

// Config holds the application configuration
type Config struct {
	Server         ServerConfig      `mapstructure:"server"`
	Database       DatabaseConfig    `mapstructure:"database"`
	RateLimit      ratelimit.Config  `mapstructure:"rate_limit"`
	Storage        storage.Config    `mapstructure:"storage"`
	Import         ImportConfig      `mapstructure:"import"`
	Maintenance    MaintenanceConfig `mapstructure:"maintenance"`
	Logging        LoggingConfig     `mapstructure:"logging"`
	Telemetry      telemetry.Config  `mapstructure:"telemetry"`
	InternalAPIKey string            `mapstructure:"internal_api_key"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int                          `mapstructure:"port"`
	Host         string                       `mapstructure:"host"`
	ReadTimeout  time.Duration                `mapstructure:"read_timeout"`
	WriteTimeout time.Duration                `mapstructure:"write_timeout"`
	RateLimit    middleware.RateLimiterConfig `mapstructure:"rate_limit"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ImportConfig tunes staging, committing and source downloads
type ImportConfig struct {
	pipeline.Options `mapstructure:",squash"`
	MaxDownloadBytes int64 `mapstructure:"max_download_bytes"`
	AllowLocalFiles  bool  `mapstructure:"allow_local_files"`
}

// MaintenanceConfig holds the background sweeps of the server
type MaintenanceConfig struct {
	CommitClaimTTL time.Duration        `mapstructure:"commit_claim_ttl"`
	SweepInterval  time.Duration        `mapstructure:"sweep_interval"`
	Retention      jobs.RetentionConfig `mapstructure:"retention"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional
	if err := loadEnvFile(); err != nil {
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found. Variables already set in the
// environment win over the file.
func loadEnvFile() error {
	for _, dir := range []string{".", "./config"} {
		envFile := filepath.Join(dir, ".env")
		if _, err := os.Stat(envFile); err != nil {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		return nil
	}
	return errors.New("no .env file found")
}

// bindEnvVars binds the conventional unprefixed variables
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.host", EnvPrefix+"_SERVER_HOST", "HOST")
	_ = v.BindEnv("logging.level", EnvPrefix+"_LOGGING_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("storage.base_path", EnvPrefix+"_STORAGE_BASE_PATH", "STORAGE_PATH")
	_ = v.BindEnv("internal_api_key", EnvPrefix+"_INTERNAL_API_KEY", "INTERNAL_API_KEY")
	_ = v.BindEnv("telemetry.endpoint", EnvPrefix+"_TELEMETRY_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute) // staging large files holds the request
	v.SetDefault("server.rate_limit.requests_per_second", 10)
	v.SetDefault("server.rate_limit.burst_size", 20)

	// Database
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	// Outbound fetch
	rl := ratelimit.DefaultConfig()
	v.SetDefault("rate_limit.requests_per_second", rl.RequestsPerSecond)
	v.SetDefault("rate_limit.max_retries", rl.MaxRetries)
	v.SetDefault("rate_limit.initial_backoff_ms", rl.InitialBackoffMs)
	v.SetDefault("rate_limit.max_backoff_ms", rl.MaxBackoffMs)

	// Storage
	v.SetDefault("storage.type", string(storage.StorageTypeLocal))
	v.SetDefault("storage.base_path", "./data/archives")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.prefix", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.use_path_style", false)

	// Import
	opts := pipeline.DefaultOptions()
	v.SetDefault("import.stage_chunk_size", opts.StageChunkSize)
	v.SetDefault("import.commit_chunk_size", opts.CommitChunkSize)
	v.SetDefault("import.commit_concurrency", opts.CommitConcurrency)
	v.SetDefault("import.fuzzy_threshold", opts.FuzzyThreshold)
	v.SetDefault("import.media_source", opts.MediaSource)
	v.SetDefault("import.max_download_bytes", int64(100<<20))
	v.SetDefault("import.allow_local_files", false)

	// Maintenance
	retention := jobs.DefaultRetentionConfig()
	statuses := make([]string, len(retention.Statuses))
	for i, st := range retention.Statuses {
		statuses[i] = string(st)
	}
	v.SetDefault("maintenance.commit_claim_ttl", 30*time.Minute)
	v.SetDefault("maintenance.sweep_interval", 5*time.Minute)
	v.SetDefault("maintenance.retention.enabled", retention.Enabled)
	v.SetDefault("maintenance.retention.interval", retention.Interval)
	v.SetDefault("maintenance.retention.max_age", retention.MaxAge)
	v.SetDefault("maintenance.retention.statuses", statuses)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
	v.SetDefault("telemetry.service_version", "")
	v.SetDefault("telemetry.environment", "")
	v.SetDefault("telemetry.export_interval", 30*time.Second)

	v.SetDefault("internal_api_key", "")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
