// Command server runs the outings activity recommendation API.
//
// Configuration is read from a YAML file (--config, OUTINGS_CONFIG,
// ./config.yaml or /etc/outings/config.yaml) and environment overrides.
// Paid upstream APIs stay on fixtures unless enabled:
//
//	ENABLE_OPENROUTER_API          - use the live completion backend
//	ENABLE_GOOGLE_MAPS_API         - use the live places API
//	ENABLE_WEATHER_API             - use the live weather API
//	ENABLE_PAID_APIS_OVERRIDE_ALL  - enable all of the above
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rhuss/outings/pkg/activities"
	"github.com/rhuss/outings/pkg/auth"
	"github.com/rhuss/outings/pkg/auth/apikey"
	"github.com/rhuss/outings/pkg/auth/jwt"
	"github.com/rhuss/outings/pkg/auth/noop"
	"github.com/rhuss/outings/pkg/config"
	"github.com/rhuss/outings/pkg/debug"
	"github.com/rhuss/outings/pkg/engine"
	"github.com/rhuss/outings/pkg/observability"
	"github.com/rhuss/outings/pkg/provider"
	"github.com/rhuss/outings/pkg/provider/openaicompat"
	"github.com/rhuss/outings/pkg/provider/scripted"
	"github.com/rhuss/outings/pkg/session"
	"github.com/rhuss/outings/pkg/storage"
	"github.com/rhuss/outings/pkg/storage/memory"
	"github.com/rhuss/outings/pkg/storage/postgres"
	"github.com/rhuss/outings/pkg/storage/sqlite"
	"github.com/rhuss/outings/pkg/tools"
	"github.com/rhuss/outings/pkg/tools/builtins/places"
	"github.com/rhuss/outings/pkg/tools/builtins/preferences"
	"github.com/rhuss/outings/pkg/tools/builtins/scraper"
	"github.com/rhuss/outings/pkg/tools/builtins/sheets"
	"github.com/rhuss/outings/pkg/tools/builtins/weather"
	"github.com/rhuss/outings/pkg/tools/mcp"
	"github.com/rhuss/outings/pkg/tools/registry"
	"github.com/rhuss/outings/pkg/transport"
	transporthttp "github.com/rhuss/outings/pkg/transport/http"
)

func main() {
	var configPath string
	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Run the activity recommendation API",
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			return run(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML config file")

	if err := cmd.Execute(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:  cfg.Observability.Tracing.Enabled,
		Exporter: cfg.Observability.Tracing.Exporter,
	})
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	cache, err := newActivityCache(cfg.Activities)
	if err != nil {
		return err
	}
	defer cache.Close()

	feedClient := &http.Client{Timeout: 30 * time.Second}
	sources := make([]activities.Source, 0, len(cfg.Activities.Sources))
	for _, s := range cfg.Activities.Sources {
		sources = append(sources, activities.NewFeedSource(s.Name, s.URL, feedClient))
	}
	refresher := activities.NewRefresher(cache, sources, slog.Default())
	if len(sources) > 0 {
		if err := refresher.Start(ctx, cfg.Activities.RefreshSchedule); err != nil {
			return fmt.Errorf("starting activity refresher: %w", err)
		}
		defer refresher.Stop()
	}

	prov, err := newProvider(cfg.Engine)
	if err != nil {
		return err
	}
	defer prov.Close()

	reg, err := newRegistry(ctx, cfg, store, cache, refresher)
	if err != nil {
		return err
	}
	defer reg.Close()

	policy := tools.NewPolicy(cfg.Tools.Allow, cfg.Tools.DisplayNames)
	eng, err := engine.New(prov, reg, policy, engine.Config{
		DefaultModel: cfg.Engine.DefaultModel,
		MaxRounds:    cfg.Engine.MaxRounds,
	})
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	sessions := session.NewManager(eng, store)

	authMiddleware, err := newAuth(cfg.Auth, cfg.Observability.Metrics.Path)
	if err != nil {
		return err
	}

	adapter := transporthttp.NewAdapter(
		transporthttp.Deps{
			Chat:     sessions,
			Sessions: sessions,
			Prefs:    store,
			History:  store,
			Health:   store.HealthCheck,
		},
		transporthttp.Config{
			MaxBodySize: cfg.Server.MaxBodySize,
			CORSOrigins: cfg.Server.CORSOrigins,
			Auth:        authMiddleware,
		},
		transport.Recovery(),
		transport.RequestID(),
		transport.Logging(slog.Default()),
	)
	adapter.Mount(reg.HTTPHandler(), reg.Routes()...)

	if cfg.Observability.Metrics.Enabled {
		adapter.Mount(promhttp.Handler(), "GET "+cfg.Observability.Metrics.Path)
	}
	if cfg.MCP.Serve {
		srv := mcp.NewServer(reg, policy, auth.UserID)
		adapter.Mount(srv.Handler(), cfg.MCP.Path)
		slog.Info("MCP endpoint enabled", "path", cfg.MCP.Path, "tools", srv.Len())
	}

	slog.Info("outings server configured",
		"port", cfg.Server.Port,
		"live_llm", cfg.Engine.Live,
		"maps_api", cfg.APIs.Maps.Enabled,
		"weather_api", cfg.APIs.Weather.Enabled,
		"storage", cfg.Storage.Type,
		"activities", cfg.Activities.Backend,
		"auth", cfg.Auth.Type,
	)

	server := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(fmt.Sprintf(":%d", cfg.Server.Port)),
		transporthttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout),
		transporthttp.WithLogger(slog.Default()),
	)
	return server.ListenAndServe()
}

func newStore(ctx context.Context, cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "postgres":
		s, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Postgres.DSN,
			MaxConns:       cfg.Postgres.MaxConns,
			MigrateOnStart: cfg.Postgres.MigrateOnStart,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		slog.Info("storage enabled", "type", "postgres")
		return s, nil
	default:
		slog.Info("storage enabled", "type", "memory", "max_history", cfg.MaxHistory)
		return memory.New(cfg.MaxHistory), nil
	}
}

func newActivityCache(cfg config.ActivitiesConfig) (storage.ActivityCache, error) {
	if cfg.Backend == "sqlite" {
		c, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening activity cache: %w", err)
		}
		return c, nil
	}
	return memory.NewActivityCache(), nil
}

// newProvider returns the scripted provider unless the live backend is
// enabled. The live client sits behind a circuit breaker and falls back to
// a second model on rate limiting.
func newProvider(cfg config.EngineConfig) (provider.Provider, error) {
	if !cfg.Live {
		slog.Info("completion backend", "type", "scripted")
		return scripted.New(), nil
	}

	client, err := openaicompat.NewClient(openaicompat.Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
		Referer: "https://github.com/rhuss/outings",
		Title:   "Outings",
	})
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	var p provider.Provider = provider.WithBreaker(client, provider.BreakerConfig{
		MaxFailures: cfg.CircuitBreaker.MaxFailures,
		Timeout:     cfg.CircuitBreaker.Timeout,
		Interval:    cfg.CircuitBreaker.Interval,
	})
	if cfg.FallbackModel != "" {
		p = provider.WithFallback(p, cfg.FallbackModel)
	}
	slog.Info("completion backend", "type", "live", "base_url", cfg.BaseURL, "model", cfg.DefaultModel)
	return p, nil
}

func newRegistry(ctx context.Context, cfg *config.Config, store storage.Store, cache storage.ActivityCache, refresher *activities.Refresher) (*registry.Registry, error) {
	wx := weather.New(weather.Config{
		Enabled:           cfg.APIs.Weather.Enabled,
		APIKey:            cfg.APIs.Weather.APIKey,
		BaseURL:           cfg.APIs.Weather.BaseURL,
		RequestsPerSecond: cfg.APIs.Weather.RequestsPerSecond,
	})
	providers := []registry.Provider{
		preferences.New(store),
		wx,
		places.New(places.Config{
			Enabled:           cfg.APIs.Maps.Enabled,
			APIKey:            cfg.APIs.Maps.APIKey,
			BaseURL:           cfg.APIs.Maps.BaseURL,
			RequestsPerSecond: cfg.APIs.Maps.RequestsPerSecond,
		}, store, wx),
		scraper.New(cache, refresher),
		sheets.New(sheets.Config{
			Enabled:         cfg.APIs.Sheets.Enabled,
			CredentialsFile: cfg.APIs.Sheets.CredentialsFile,
			Endpoint:        cfg.APIs.Sheets.Endpoint,
		}),
	}

	for _, sc := range cfg.MCP.Servers {
		c, err := mcp.Connect(ctx, mcp.ServerConfig{
			Name:      sc.Name,
			Transport: sc.Transport,
			URL:       sc.URL,
			Headers:   sc.Headers,
		})
		if err != nil {
			slog.Warn("MCP server unavailable, skipping", "name", sc.Name, "url", sc.URL, "error", err)
			continue
		}
		providers = append(providers, c)
	}

	reg := registry.New()
	for _, p := range providers {
		if err := reg.Register(p); err != nil {
			reg.Close()
			return nil, fmt.Errorf("registering %s tools: %w", p.Name(), err)
		}
	}
	reg.Seal()
	return reg, nil
}

// newAuth builds the authentication middleware. It returns nil when
// authentication and rate limiting are both off.
func newAuth(cfg config.AuthConfig, metricsPath string) (func(http.Handler) http.Handler, error) {
	limiter := auth.NewLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	var chain *auth.Chain
	switch cfg.Type {
	case "apikey":
		entries := make([]apikey.Entry, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			entries = append(entries, apikey.Entry{Key: k.Key, User: k.User})
		}
		chain = &auth.Chain{Authenticators: []auth.Authenticator{apikey.New(entries)}, Default: auth.No}
	case "jwt":
		a, err := jwt.New(jwt.Config{
			Secret:    cfg.JWT.Secret,
			Issuer:    cfg.JWT.Issuer,
			Audience:  cfg.JWT.Audience,
			UserClaim: cfg.JWT.UserClaim,
		})
		if err != nil {
			return nil, err
		}
		chain = &auth.Chain{Authenticators: []auth.Authenticator{a}, Default: auth.No}
	default:
		if limiter == nil {
			return nil, nil
		}
		chain = &auth.Chain{Authenticators: []auth.Authenticator{noop.New()}}
	}

	bypass := auth.DefaultBypassEndpoints
	if metricsPath != "" && metricsPath != "/metrics" {
		bypass = append(append([]string{}, bypass...), metricsPath)
	}
	return auth.Middleware(chain, limiter, bypass), nil
}
