// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/loglens/internal/alerting"
	"github.com/tomtom215/loglens/internal/api"
	"github.com/tomtom215/loglens/internal/auth"
	"github.com/tomtom215/loglens/internal/authz"
	"github.com/tomtom215/loglens/internal/cache"
	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/errorlog"
	"github.com/tomtom215/loglens/internal/export"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/policy"
	"github.com/tomtom215/loglens/internal/search"
	"github.com/tomtom215/loglens/internal/supervisor"
	"github.com/tomtom215/loglens/internal/supervisor/services"
	"github.com/tomtom215/loglens/internal/usage"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential wiring of every component
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	metrics.SetBuildInfo(version)
	logging.Info().
		Str("version", version).
		Str("search_url", cfg.Search.URL).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("data_dir", cfg.Data.Dir).
		Msg("Starting Loglens")

	policies := policy.NewStore(cfg.Data.Resolve(cfg.Data.PolicyPath), cfg.Export.DefaultMaxSize)
	usageStore := usage.NewStore(cfg.Usage)
	rules := alerting.NewRuleStore(cfg.Data.Resolve(cfg.Data.AlertRulesPath), cfg.Data.Resolve(cfg.Data.AlertStatePath))
	metricsPath := cfg.Data.Resolve(cfg.Data.MetricsPath)

	var g errgroup.Group
	g.Go(policies.Load)
	g.Go(func() error { return usageStore.Load(metricsPath) })
	g.Go(rules.Load)
	if err := g.Wait(); err != nil {
		logging.Fatal().Err(err).Msg("Failed to load state")
	}

	snapshot := policies.Snapshot()
	logging.Info().
		Int64("policy_version", snapshot.Version).
		Int("index_options", len(snapshot.IndexOptions)).
		Int("pii_rules", len(snapshot.PiiFieldRules)).
		Int("alert_rules", len(rules.Rules())).
		Msg("State loaded")

	errs, err := errorlog.Open(cfg.Data.Resolve(cfg.Data.ErrorLogDir), cfg.Data.ErrorLogRetention, logger)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open error log")
	}
	defer func() {
		if err := errs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing error log")
		}
	}()

	client := search.NewClient(&cfg.Search)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := client.Ping(pingCtx); err != nil {
		logging.Warn().Err(err).Msg("Search engine not reachable yet; requests will fail until it is")
	} else {
		logging.Info().Msg("Connected to search engine")
	}
	cancelPing()

	responses := cache.New(cfg.Cache.TTL, cfg.Cache.MaxEntries)
	defer responses.Close()

	var sender alerting.Sender
	if cfg.Alerts.SMTP.Host != "" {
		sender = alerting.NewSMTPMailer(cfg.Alerts.SMTP, cfg.Alerts.SendsPerMinute)
	} else {
		sender = alerting.NewLogSender(logger)
		logging.Warn().Msg("SMTP_HOST not set; fired alerts are only logged")
	}
	schedulerLogger := logging.WithComponent("alerting")
	scheduler := alerting.NewScheduler(rules, usageStore, sender, &schedulerLogger, alerting.Config{
		Interval:         cfg.Alerts.Interval,
		DefaultRecipient: cfg.Alerts.DefaultRecipient,
		Enabled:          cfg.Alerts.Enabled,
	})

	var jwtManager *auth.JWTManager
	switch cfg.Security.AuthMode {
	case auth.ModeJWT:
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
		}
		logging.Info().Msg("JWT authentication enabled")
	default:
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: Authentication is DISABLED (AUTH_MODE=none)")
		logging.Warn().Msg("  Every caller is anonymous with full access and no masking")
		logging.Warn().Msg("  exemptions. Use this only behind an authenticating proxy.")
		logging.Warn().Msg("============================================================")
	}
	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}

	handler := api.NewHandler(api.Dependencies{
		Config:    cfg,
		Policies:  policies,
		Search:    client,
		Cache:     responses,
		Usage:     usageStore,
		Streamer:  export.NewStreamer(client, cfg.Export.PageSize, logging.WithComponent("export")),
		Rules:     rules,
		Scheduler: scheduler,
		ErrorLog:  errs,
	})
	router := api.NewRouter(handler,
		auth.NewResolver(cfg.Security.AuthMode, jwtManager),
		authz.NewMiddleware(enforcer),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	// WriteTimeout stays zero: export downloads stream for as long as the
	// scroll keeps producing pages.
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddStorageService(usage.NewSnapshotter(usageStore, metricsPath, cfg.Usage.SnapshotInterval, logger))
	tree.AddStorageService(errs)
	tree.AddBackgroundService(services.NewSchedulerService(scheduler, "alert-scheduler"))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	// The snapshotter may have been in backoff when the signal arrived.
	if err := usageStore.Save(metricsPath); err != nil {
		logging.Error().Err(err).Msg("Failed to save usage metrics")
	}

	logging.Info().Msg("Shutdown complete")
}
