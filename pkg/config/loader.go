package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, OUTINGS_CONFIG env, ./config.yaml, /etc/outings/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path. An explicit path wins,
// then OUTINGS_CONFIG, then the well-known locations. Returns "" when
// nothing is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv("OUTINGS_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/outings/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile parses path into cfg. Fields not present in the YAML keep
// their current values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields.
func applyEnvOverrides(cfg *Config) {
	// Paid API feature flags.
	if v, ok := envBool("ENABLE_OPENROUTER_API"); ok {
		cfg.Engine.Live = v
	}
	if v, ok := envBool("ENABLE_GOOGLE_MAPS_API"); ok {
		cfg.APIs.Maps.Enabled = v
	}
	if v, ok := envBool("ENABLE_WEATHER_API"); ok {
		cfg.APIs.Weather.Enabled = v
	}
	if v, ok := envBool("ENABLE_PAID_APIS_OVERRIDE_ALL"); ok && v {
		cfg.Engine.Live = true
		cfg.APIs.Maps.Enabled = true
		cfg.APIs.Weather.Enabled = true
	}

	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Engine.APIKey = v
	}
	if v := os.Getenv("GOOGLE_MAPS_API_KEY"); v != "" {
		cfg.APIs.Maps.APIKey = v
	}
	if v := os.Getenv("OPENWEATHER_API_KEY"); v != "" {
		cfg.APIs.Weather.APIKey = v
	}
	if v := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); v != "" {
		cfg.APIs.Sheets.CredentialsFile = v
	}

	if v := os.Getenv("SCRAPE_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Activities.RefreshSchedule = strconv.Itoa(secs) + "s"
		}
	}
	if v := os.Getenv("OUTINGS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("OUTINGS_MODEL"); v != "" {
		cfg.Engine.DefaultModel = v
	}
	if v := os.Getenv("OUTINGS_STORAGE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("OUTINGS_AUTH_TYPE"); v != "" {
		cfg.Auth.Type = v
	}

	// OUTINGS_API_KEYS: JSON array of {key, user} entries.
	if v := os.Getenv("OUTINGS_API_KEYS"); v != "" {
		var keys []APIKeyConfig
		if err := json.Unmarshal([]byte(v), &keys); err == nil && len(keys) > 0 {
			cfg.Auth.APIKeys = keys
		}
	}

	// OUTINGS_MCP_SERVERS: JSON array of remote MCP server configs.
	if v := os.Getenv("OUTINGS_MCP_SERVERS"); v != "" {
		var servers []MCPServerConfig
		if err := json.Unmarshal([]byte(v), &servers); err == nil && len(servers) > 0 {
			cfg.MCP.Servers = servers
		}
	}
}

// envBool reports the boolean value of name. "1", "true", "yes" and "on"
// are true in any case; ok is false when the variable is unset or empty.
func envBool(name string) (value, ok bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true, true
	}
	return false, true
}

// secretRef pairs a _file field with the value field it fills.
type secretRef struct {
	path  string
	file  string
	value *string
}

// resolveFileReferences fills empty value fields from their _file
// counterparts, trimming surrounding whitespace.
func resolveFileReferences(cfg *Config) error {
	refs := []secretRef{
		{"engine.api_key_file", cfg.Engine.APIKeyFile, &cfg.Engine.APIKey},
		{"storage.postgres.dsn_file", cfg.Storage.Postgres.DSNFile, &cfg.Storage.Postgres.DSN},
		{"apis.maps.api_key_file", cfg.APIs.Maps.APIKeyFile, &cfg.APIs.Maps.APIKey},
		{"apis.weather.api_key_file", cfg.APIs.Weather.APIKeyFile, &cfg.APIs.Weather.APIKey},
		{"auth.jwt.secret_file", cfg.Auth.JWT.SecretFile, &cfg.Auth.JWT.Secret},
	}
	for i := range cfg.Auth.APIKeys {
		k := &cfg.Auth.APIKeys[i]
		refs = append(refs, secretRef{fmt.Sprintf("auth.api_keys[%d].key_file", i), k.KeyFile, &k.Key})
	}

	for _, ref := range refs {
		if ref.file == "" || *ref.value != "" {
			continue
		}
		val, err := readSecretFile(ref.file)
		if err != nil {
			return fmt.Errorf("%s: %w", ref.path, err)
		}
		*ref.value = val
	}
	return nil
}

// readSecretFile returns the file content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
