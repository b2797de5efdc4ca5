// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - New() builds a Config with defaults; Load(ctx) layers file and env on top.
//   - Validation failures wrap ErrInvalidConfig, loading failures ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
	BackendSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreBackend selects the entity store: memory, dynamodb or sqlite.
	StoreBackend string `koanf:"store_backend"`

	// PeopleTable and StarshipsTable name the per-kind tables.
	PeopleTable    string `koanf:"people_table"`
	StarshipsTable string `koanf:"starships_table"`

	// AWS settings for the dynamodb backend. A custom endpoint plus static
	// credentials targets DynamoDB Local.
	AWSRegion          string `koanf:"aws_region"`
	DynamoDBEndpoint   string `koanf:"dynamodb_endpoint"`
	AWSAccessKeyID     string `koanf:"aws_access_key_id"`
	AWSSecretAccessKey string `koanf:"aws_secret_access_key"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `koanf:"sqlite_path"`

	// DefaultListLimit applies when a list query has no limit; MaxListLimit caps it.
	DefaultListLimit int `koanf:"default_list_limit"`
	MaxListLimit     int `koanf:"max_list_limit"`

	// StatsRefreshInterval controls the entity count gauge job. Zero disables it.
	StatsRefreshInterval time.Duration `koanf:"stats_refresh_interval"`

	// SeedOnStart writes the sample catalog when both tables are empty.
	SeedOnStart bool `koanf:"seed_on_start"`

	// OTLPEndpoint enables trace export over OTLP/HTTP when set.
	OTLPEndpoint string `koanf:"otlp_endpoint"`

	// ServiceName is reported as the tracing resource name.
	ServiceName string `koanf:"service_name"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		StoreBackend:         BackendMemory,
		PeopleTable:          "people",
		StarshipsTable:       "starships",
		AWSRegion:            "us-east-1",
		SQLitePath:           "holotrumps.db",
		DefaultListLimit:     20,
		MaxListLimit:         100,
		StatsRefreshInterval: 30 * time.Second,
		ServiceName:          "holotrumps",
		ShutdownTimeout:      10 * time.Second,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.StoreBackend) {
	case BackendMemory, BackendDynamoDB, BackendSQLite:
	default:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	}
	if c.PeopleTable == "" || c.StarshipsTable == "" {
		return fmt.Errorf("%w: table names must not be empty", ErrInvalidConfig)
	}
	if c.PeopleTable == c.StarshipsTable {
		return fmt.Errorf("%w: people_table and starships_table must differ", ErrInvalidConfig)
	}
	if c.MaxListLimit < 1 {
		return fmt.Errorf("%w: max_list_limit must be positive", ErrInvalidConfig)
	}
	if c.DefaultListLimit < 1 || c.DefaultListLimit > c.MaxListLimit {
		return fmt.Errorf("%w: default_list_limit must be in [1, %d]", ErrInvalidConfig, c.MaxListLimit)
	}
	if c.StatsRefreshInterval < 0 {
		return fmt.Errorf("%w: stats_refresh_interval must not be negative", ErrInvalidConfig)
	}
	if strings.EqualFold(c.StoreBackend, BackendSQLite) && c.SQLitePath == "" {
		return fmt.Errorf("%w: sqlite_path is required for the sqlite backend", ErrInvalidConfig)
	}
	if strings.EqualFold(c.StoreBackend, BackendDynamoDB) && c.AWSRegion == "" {
		return fmt.Errorf("%w: aws_region is required for the dynamodb backend", ErrInvalidConfig)
	}
	return nil
}
