// Package config loads and validates the sitebuilder configuration from YAML,
// with ${ENV} expansion and .env support. All components receive their
// configuration by constructor injection; there is no package-level state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fieldsites/sitebuilder/internal/errors"
)

// Config represents the application configuration
type Config struct {
	App        AppConfig        `yaml:"app"`
	Backend    BackendConfig    `yaml:"backend"`
	Revalidate RevalidateConfig `yaml:"revalidate"`
	Tenants    TenantsConfig    `yaml:"tenants"`
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Events     EventsConfig     `yaml:"events"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AppConfig identifies the deployment.
type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"` // development, staging, production
}

// BackendConfig describes the upstream business-management API.
type BackendConfig struct {
	BaseURL           string           `yaml:"base_url"`
	Timeout           string           `yaml:"timeout,omitempty"`       // per-attempt, e.g. "8s"
	MaxRetries        *int             `yaml:"max_retries,omitempty"`   // retries after the first attempt; nil means default, 0 disables
	RetryBackoff      RetryBackoffMode `yaml:"retry_backoff,omitempty"` // fixed|linear|exponential
	RetryInitialDelay string           `yaml:"retry_initial_delay,omitempty"`
	RetryMaxDelay     string           `yaml:"retry_max_delay,omitempty"`

	// AllowFallbackProfile enables the development fallback profile when no
	// backend is reachable. Never honored when a base URL is configured.
	AllowFallbackProfile bool `yaml:"allow_fallback_profile,omitempty"`
}

// RevalidateConfig holds per-resource-type cache windows. The windows are
// deliberately independent; volatility differs by resource.
type RevalidateConfig struct {
	Profile  string `yaml:"profile,omitempty"`
	Services string `yaml:"services,omitempty"`
	Products string `yaml:"products,omitempty"`
	Projects string `yaml:"projects,omitempty"`
}

// TenantsConfig maps inbound hosts to business IDs.
type TenantsConfig struct {
	// Mapping is the inline custom-domain -> businessID table.
	Mapping map[string]string `yaml:"mapping,omitempty"`
	// MappingDB optionally points at a sqlite database seeding the snapshot.
	MappingDB string `yaml:"mapping_db,omitempty"`
	// DefaultBusinessID serves local/staging traffic on unmapped hosts.
	// Ignored (hard error) when app.environment is production.
	DefaultBusinessID string `yaml:"default_business_id,omitempty"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Listen string `yaml:"listen,omitempty"`
}

// StoreConfig configures page bundle persistence.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"` // sqlite file, ":memory:" for ephemeral
}

// EventsConfig configures the optional NATS regeneration event stream.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig selects handler level and format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, text
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes raw YAML bytes, expands environment placeholders, applies
// defaults, and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the deployment serves production traffic.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
