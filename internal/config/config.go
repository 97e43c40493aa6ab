// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// placeholderPrefix marks credentials that were never filled in. Shipping
// config templates use values like "placeholder_github_token"; treating
// them as real tokens produces confusing 401s deep inside an
// orchestration, so they are rejected up front instead.
const placeholderPrefix = "placeholder"

// Config holds the entire application configuration. A Config value is
// assembled once at startup and injected into constructors; nothing in
// the process mutates it afterwards, and credentials are never written
// back into the environment.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Tracker TrackerConfig `mapstructure:"tracker" yaml:"tracker"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// AgentConfig configures the connection to the coding-agent service.
type AgentConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// APIKey is an opaque bearer token. Bound from TRIAGE_AGENT_API_KEY;
	// never serialized.
	APIKey         string        `mapstructure:"api_key" yaml:"-"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	// MaxWait bounds AwaitCompletion; sessions regularly run for minutes.
	MaxWait time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	// PollRate caps status polls per second across all sessions.
	PollRate float64 `mapstructure:"poll_rate" yaml:"poll_rate"`
}

// TrackerConfig configures the issue tracker client.
type TrackerConfig struct {
	// Token is bound from TRIAGE_GITHUB_TOKEN; never serialized.
	Token string `mapstructure:"token" yaml:"-"`
	// Repo is the default owner/name repository for commands that accept
	// a --repo flag.
	Repo string `mapstructure:"repo" yaml:"repo"`
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	// Backend is one of "memory", "file" or "postgres".
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is the cache file location for the file backend. An empty
	// value resolves to ~/.triage/cache.json.
	Path string `mapstructure:"path" yaml:"path"`
	// PostgresURL is the DSN for the postgres backend.
	PostgresURL string `mapstructure:"postgres_url" yaml:"-"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// CredentialError reports a missing or placeholder credential. It is
// raised during validation, before any network client is constructed.
type CredentialError struct {
	Name string
	Hint string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential %s is missing or a placeholder: %s", e.Name, e.Hint)
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "triage-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Agent service --
	v.SetDefault("agent.base_url", "https://api.devin.ai/v1")
	v.SetDefault("agent.request_timeout", "30s")
	v.SetDefault("agent.max_wait", "30m")
	v.SetDefault("agent.poll_rate", 2.0)

	// -- Cache --
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.path", "")

	// -- Server --
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// NewFromViper builds a validated Config from a viper instance.
func NewFromViper(v *viper.Viper) (*Config, error) {
	// Bind env vars for sensitive data; these never appear in config files.
	v.BindEnv("agent.api_key", "TRIAGE_AGENT_API_KEY")
	v.BindEnv("tracker.token", "TRIAGE_GITHUB_TOKEN")
	v.BindEnv("cache.postgres_url", "TRIAGE_CACHE_POSTGRES_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values. It deliberately does
// not require credentials: commands that only touch fixtures (demo mode)
// stay usable without them. ValidateCredentials covers the live path.
func (c *Config) Validate() error {
	if c.Agent.BaseURL == "" {
		return fmt.Errorf("agent.base_url is a required configuration field")
	}
	if c.Agent.RequestTimeout <= 0 {
		return fmt.Errorf("agent.request_timeout must be a positive duration")
	}
	if c.Agent.MaxWait <= 0 {
		return fmt.Errorf("agent.max_wait must be a positive duration")
	}
	if c.Agent.PollRate <= 0 {
		return fmt.Errorf("agent.poll_rate must be positive")
	}
	switch c.Cache.Backend {
	case "memory", "file":
	case "postgres":
		if c.Cache.PostgresURL == "" {
			return fmt.Errorf("cache.backend is postgres but TRIAGE_CACHE_POSTGRES_URL is not set")
		}
	default:
		return fmt.Errorf("cache.backend must be one of memory, file, postgres, got %q", c.Cache.Backend)
	}
	return nil
}

// ValidateCredentials checks that the live-mode credentials are present
// and not template placeholders. It runs before any network call.
func (c *Config) ValidateCredentials() error {
	if !ValidToken(c.Agent.APIKey) {
		return &CredentialError{Name: "agent.api_key", Hint: "set TRIAGE_AGENT_API_KEY to a valid agent service key"}
	}
	if !ValidToken(c.Tracker.Token) {
		return &CredentialError{Name: "tracker.token", Hint: "set TRIAGE_GITHUB_TOKEN to a valid GitHub token"}
	}
	return nil
}

// HasCredentials reports whether live credentials are available, without
// raising. Front ends use this to decide between live and demo mode.
func (c *Config) HasCredentials() bool {
	return ValidToken(c.Agent.APIKey) && ValidToken(c.Tracker.Token)
}

// ValidToken reports whether a credential looks usable: non-empty and not
// a template placeholder.
func ValidToken(tok string) bool {
	return tok != "" && !strings.HasPrefix(tok, placeholderPrefix)
}
