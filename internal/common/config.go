package common

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/AUX01-gsconsig/Consultas-CLT/constants"
)

// Config holds all application configuration. It is built once at process
// start and passed by reference into each component; nothing reads the
// environment after Load returns.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Pipeline PipelineConfig
}

// DatabaseConfig holds database-related configuration.
type DatabaseConfig struct {
	DSN             string `validate:"required"`
	MaxConns        int32  `validate:"gte=1"`
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
	HealthTimeout   time.Duration
}

// ServerConfig holds the HTTP surface configuration.
type ServerConfig struct {
	Addr string `validate:"required"`
}

// PipelineConfig holds job-processing configuration.
type PipelineConfig struct {
	// AttemptLimit is the number of failed runs after which a job is no
	// longer picked up automatically.
	AttemptLimit int `validate:"gte=1"`

	// ArtifactDir is where the extractor leaves downloaded spreadsheets.
	ArtifactDir string `validate:"required"`

	// PollInterval is how often the poller looks for a claimable job.
	PollInterval time.Duration `validate:"gt=0"`

	// Workers bounds the number of concurrent pipeline runs.
	Workers int `validate:"gte=1"`

	// RunTimeout bounds a single pipeline run end to end.
	RunTimeout time.Duration `validate:"gt=0"`

	// ReprocessUpdatesStatus decides whether a manual reprocess of an
	// already-finalized job re-writes FINALIZADO on success. Off by
	// default: reprocessing refreshes the data without touching the
	// terminal status row.
	ReprocessUpdatesStatus bool
}

// Load reads configuration from the environment with viper. Env keys keep
// the names the deployment already uses (DB_URL, OUTPUT_DIR, ...).
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("OUTPUT_DIR", "./downloads")
	v.SetDefault("ATTEMPT_LIMIT", constants.DefaultAttemptLimit)
	v.SetDefault("POLL_INTERVAL", "1m")
	v.SetDefault("PIPELINE_WORKERS", 1)
	v.SetDefault("RUN_TIMEOUT", "5m")
	v.SetDefault("REPROCESS_UPDATES_STATUS", false)
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "30m")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "5m")
	v.SetDefault("DB_DIAL_TIMEOUT", "3s")
	v.SetDefault("DB_HEALTH_TIMEOUT", "5s")

	cfg := &Config{
		Database: DatabaseConfig{
			DSN:             v.GetString("DB_URL"),
			MaxConns:        v.GetInt32("DB_MAX_CONNS"),
			MinConns:        v.GetInt32("DB_MIN_CONNS"),
			MaxConnLifetime: v.GetDuration("DB_MAX_CONN_LIFETIME"),
			MaxConnIdleTime: v.GetDuration("DB_MAX_CONN_IDLE_TIME"),
			DialTimeout:     v.GetDuration("DB_DIAL_TIMEOUT"),
			HealthTimeout:   v.GetDuration("DB_HEALTH_TIMEOUT"),
		},
		Server: ServerConfig{
			Addr: v.GetString("HTTP_ADDR"),
		},
		Pipeline: PipelineConfig{
			AttemptLimit:           v.GetInt("ATTEMPT_LIMIT"),
			ArtifactDir:            v.GetString("OUTPUT_DIR"),
			PollInterval:           v.GetDuration("POLL_INTERVAL"),
			Workers:                v.GetInt("PIPELINE_WORKERS"),
			RunTimeout:             v.GetDuration("RUN_TIMEOUT"),
			ReprocessUpdatesStatus: v.GetBool("REPROCESS_UPDATES_STATUS"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
