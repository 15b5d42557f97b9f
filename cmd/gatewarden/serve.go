// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/memory"
	"github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/events"
	"github.com/gatewarden/gatewarden/internal/httpapi"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/observability"
	"github.com/gatewarden/gatewarden/internal/store"
)

const (
	shutdownTimeout = 5 * time.Second
	sweepInterval   = time.Hour

	rateLimitBurst     = 20
	rateLimitPerSecond = 10
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authentication service",
		Long: `Start the HTTP API and observability servers. Configuration is read
from GATEWARDEN_* environment variables.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd, autoMigrate)
		},
	}

	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "apply pending schema migrations before serving")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, autoMigrate bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.SetDefault("gatewarden", version, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	issuer, err := auth.NewTokenIssuer(cfg.TokenSecret,
		auth.WithAccessTokenTTL(cfg.AccessTokenTTL))
	if err != nil {
		return err
	}

	bus := events.NewBus()

	var (
		users      auth.UserRepository
		sessions   auth.RefreshTokenStore
		readyProbe httpapi.ReadyProbe
	)
	if cfg.DatabaseURL != "" {
		if autoMigrate {
			if err := migrateUp(cfg.DatabaseURL); err != nil {
				return err
			}
		}

		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users = postgres.NewUserRepository(pool)
		sessions = postgres.NewRefreshStore(pool)
		readyProbe = func(ctx context.Context) error { return pool.Ping(ctx) }

		eventLog := store.NewEventLog(pool, slog.Default())
		go eventLog.Run(ctx, bus)

		slog.Info("connected to database")
	} else {
		slog.Warn("no database configured, using in-memory stores; state is lost on restart")
		users = memory.NewUserRepository()
		sessions = memory.NewRefreshStore()
	}

	opts := []auth.ServiceOption{
		auth.WithRefreshTTL(cfg.RefreshTokenTTL),
		auth.WithEventSink(bus),
	}
	if cfg.GoogleClientID != "" {
		verifier, err := auth.NewGoogleVerifier(cfg.GoogleClientID)
		if err != nil {
			return err
		}
		opts = append(opts, auth.WithFederatedVerifier(verifier))
		slog.Info("federated login enabled", "provider", "google")
	}

	svc, err := auth.NewService(users, auth.NewArgon2idHasher(), issuer, sessions, opts...)
	if err != nil {
		return err
	}

	go sweepExpiredSessions(ctx, sessions)

	obsServer := observability.NewServer(cfg.MetricsAddr, func() bool { return true })
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}
	slog.Info("observability server started", "addr", obsServer.Addr())

	api, err := httpapi.New(svc, issuer,
		httpapi.WithMetrics(obsServer.Metrics()),
		httpapi.WithVersion(version),
		httpapi.WithReadyProbe(readyProbe),
	)
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           httpapi.RateLimit(api.Handler(), rateLimitBurst, rateLimitPerSecond),
		ReadHeaderTimeout: 10 * time.Second,
	}

	apiErrCh := make(chan error, 1)
	go func() {
		if serveErr := httpSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			apiErrCh <- serveErr
		}
	}()

	cmd.Println("Gatewarden started")
	slog.Info("service ready", "listen_addr", cfg.ListenAddr)

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-apiErrCh:
		slog.Error("http server error", "error", err)
	case err := <-obsErrCh:
		if err != nil {
			slog.Error("observability server error", "error", err)
		}
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("error stopping http server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// migrateUp applies all pending migrations and closes the migrator.
func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("error closing migrator", "error", closeErr)
		}
	}()

	pending, err := migrator.PendingMigrations()
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		slog.Info("schema is up to date")
		return nil
	}

	slog.Info("applying pending migrations", "count", len(pending))
	if err := migrator.Up(); err != nil {
		return oops.With("operation", "auto-migrate").Wrap(err)
	}
	slog.Info("migrations applied")
	return nil
}

// sweepExpiredSessions periodically removes expired refresh sessions so the
// store does not accumulate rows for users who never log out.
func sweepExpiredSessions(ctx context.Context, sessions auth.RefreshTokenStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := sessions.DeleteExpired(ctx)
			if err != nil {
				slog.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				slog.Info("expired sessions removed", "count", removed)
			}
		}
	}
}
