// Package config provides unified configuration for the outings server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides, including the API feature flags
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the outings server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Engine        EngineConfig        `yaml:"engine"`
	Tools         ToolsConfig         `yaml:"tools"`
	APIs          APIsConfig          `yaml:"apis"`
	Storage       StorageConfig       `yaml:"storage"`
	Activities    ActivitiesConfig    `yaml:"activities"`
	Auth          AuthConfig          `yaml:"auth"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`          // default: 8000
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"` // default: 120s
	MaxBodySize  int64         `yaml:"max_body_size"` // default: 1 MiB
	CORSOrigins  []string      `yaml:"cors_origins"`  // default: localhost dev servers
}

// EngineConfig holds the orchestration loop and completion backend settings.
type EngineConfig struct {
	DefaultModel   string               `yaml:"default_model"`  // default: openai/gpt-4o-mini
	FallbackModel  string               `yaml:"fallback_model"` // retried once on rate limit
	MaxRounds      int                  `yaml:"max_rounds"`     // default: 3
	BaseURL        string               `yaml:"base_url"`       // default: OpenRouter
	APIKey         string               `yaml:"api_key"`
	APIKeyFile     string               `yaml:"api_key_file"` // _file variant for api_key
	Timeout        time.Duration        `yaml:"timeout"`      // default: 120s
	Live           bool                 `yaml:"live"`         // false uses the scripted provider
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// CircuitBreakerConfig guards the live completion backend.
type CircuitBreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures"` // default: 5
	Timeout     time.Duration `yaml:"timeout"`      // default: 30s
	Interval    time.Duration `yaml:"interval"`     // default: 60s
}

// ToolsConfig holds the availability policy.
type ToolsConfig struct {
	Allow        []string          `yaml:"allow"`
	DisplayNames map[string]string `yaml:"display_names"`
}

// APIsConfig holds the upstream API settings used by the built-in tools.
type APIsConfig struct {
	Maps    UpstreamConfig `yaml:"maps"`
	Weather UpstreamConfig `yaml:"weather"`
	Sheets  SheetsConfig   `yaml:"sheets"`
}

// UpstreamConfig describes one keyed upstream API.
type UpstreamConfig struct {
	Enabled           bool    `yaml:"enabled"`
	APIKey            string  `yaml:"api_key"`
	APIKeyFile        string  `yaml:"api_key_file"`
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// SheetsConfig holds the spreadsheet export settings.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

// StorageConfig holds preference and chat history persistence settings.
type StorageConfig struct {
	Type       string         `yaml:"type"`        // "memory" or "postgres", default: "memory"
	MaxHistory int            `yaml:"max_history"` // for memory store, default: 1000
	Postgres   PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// ActivitiesConfig holds the scraped activity cache settings.
type ActivitiesConfig struct {
	Backend         string         `yaml:"backend"`          // "memory" or "sqlite", default: "memory"
	SQLitePath      string         `yaml:"sqlite_path"`      // default: activities.db
	RefreshSchedule string         `yaml:"refresh_schedule"` // cron expression or duration, default: 6h
	Sources         []SourceConfig `yaml:"sources"`
}

// SourceConfig names one JSON activity feed.
type SourceConfig struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`     // "none", "apikey" or "jwt", default: "none"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // entries for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig binds one API key to a user id.
type APIKeyConfig struct {
	Key     string `yaml:"key" json:"key"`
	KeyFile string `yaml:"key_file" json:"key_file"` // _file variant for key
	User    string `yaml:"user" json:"user"`
}

// JWTConfig holds HMAC JWT validation settings.
type JWTConfig struct {
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"`
	UserClaim  string `yaml:"user_claim"` // default: "sub"
}

// RateLimitConfig holds the per-identity request limit.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"` // 0 disables limiting
	Burst             int `yaml:"burst"`
}

// MCPConfig holds MCP exposure and import settings.
type MCPConfig struct {
	Serve   bool              `yaml:"serve"`
	Path    string            `yaml:"path"` // default: "/mcp"
	Servers []MCPServerConfig `yaml:"servers"`
}

// MCPServerConfig describes a remote MCP server whose tools are imported.
type MCPServerConfig struct {
	Name      string            `yaml:"name" json:"name"`
	Transport string            `yaml:"transport" json:"transport"` // "sse" or "streamable-http"
	URL       string            `yaml:"url" json:"url"`
	Headers   map[string]string `yaml:"headers" json:"headers"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: INFO
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 120 * time.Second,
			MaxBodySize:  1 << 20,
			CORSOrigins:  []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Engine: EngineConfig{
			DefaultModel:  "openai/gpt-4o-mini",
			FallbackModel: "meta-llama/llama-3.1-8b-instruct",
			MaxRounds:     3,
			BaseURL:       "https://openrouter.ai/api/v1",
			Timeout:       120 * time.Second,
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Tools: ToolsConfig{
			Allow: []string{"get_user_preferences", "update_user_preferences", "save_to_sheets"},
		},
		APIs: APIsConfig{
			Maps:    UpstreamConfig{RequestsPerSecond: 10},
			Weather: UpstreamConfig{RequestsPerSecond: 1},
		},
		Storage: StorageConfig{
			Type:       "memory",
			MaxHistory: 1000,
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
		},
		Activities: ActivitiesConfig{
			Backend:         "memory",
			SQLitePath:      "activities.db",
			RefreshSchedule: "6h",
		},
		Auth: AuthConfig{
			Type: "none",
			JWT:  JWTConfig{UserClaim: "sub"},
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
			Tracing: TracingConfig{Exporter: "stdout"},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
