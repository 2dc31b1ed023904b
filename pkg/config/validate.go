package config

import (
	"errors"
	"fmt"

	"github.com/rhuss/outings/pkg/activities"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("server.port must be > 0, got %d", c.Server.Port))
	}

	if c.Engine.MaxRounds <= 0 {
		errs = append(errs, fmt.Errorf("engine.max_rounds must be > 0, got %d", c.Engine.MaxRounds))
	}
	if c.Engine.Live && c.Engine.APIKey == "" {
		errs = append(errs, errors.New("engine.api_key (or OPENROUTER_API_KEY) is required when engine.live is true"))
	}

	switch c.Storage.Type {
	case "memory":
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			errs = append(errs, errors.New("storage.postgres.dsn or storage.postgres.dsn_file is required when storage.type is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be \"memory\" or \"postgres\", got %q", c.Storage.Type))
	}

	switch c.Activities.Backend {
	case "memory":
	case "sqlite":
		if c.Activities.SQLitePath == "" {
			errs = append(errs, errors.New("activities.sqlite_path is required when activities.backend is \"sqlite\""))
		}
	default:
		errs = append(errs, fmt.Errorf("activities.backend must be \"memory\" or \"sqlite\", got %q", c.Activities.Backend))
	}
	if _, err := activities.ParseSchedule(c.Activities.RefreshSchedule); err != nil {
		errs = append(errs, fmt.Errorf("activities.refresh_schedule: %w", err))
	}
	for i, s := range c.Activities.Sources {
		if s.Name == "" || s.URL == "" {
			errs = append(errs, fmt.Errorf("activities.sources[%d]: name and url are required", i))
		}
	}

	switch c.Auth.Type {
	case "none":
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			errs = append(errs, errors.New("auth.api_keys must not be empty when auth.type is \"apikey\""))
		}
		for i, k := range c.Auth.APIKeys {
			if k.User == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d].user is required", i))
			}
		}
	case "jwt":
		if c.Auth.JWT.Secret == "" {
			errs = append(errs, errors.New("auth.jwt.secret or auth.jwt.secret_file is required when auth.type is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}

	for i, s := range c.MCP.Servers {
		if s.Name == "" || s.URL == "" {
			errs = append(errs, fmt.Errorf("mcp.servers[%d]: name and url are required", i))
		}
	}

	if t := c.Observability.Tracing; t.Enabled && t.Exporter != "stdout" && t.Exporter != "noop" {
		errs = append(errs, fmt.Errorf("observability.tracing.exporter must be \"stdout\" or \"noop\", got %q", t.Exporter))
	}

	switch c.Logging.Format {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
