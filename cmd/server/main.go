package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/agentstats/internal/config"
	"github.com/JonMunkholm/agentstats/internal/core"
	"github.com/JonMunkholm/agentstats/internal/logging"
	"github.com/JonMunkholm/agentstats/internal/store"
	"github.com/JonMunkholm/agentstats/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// backend is what the server needs from a store beyond core.Store.
type backend interface {
	core.Store
	web.Pinger
}

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store", cfg.Store.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"import_max_file_size", cfg.Import.MaxFileSize,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	service := core.NewService(st, core.Options{
		MaxFileSize:   cfg.Import.MaxFileSize,
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWaitTime:   cfg.Import.MaxWaitTime,
		CommitTimeout: cfg.Import.CommitTimeout,
	})

	server := web.NewServer(service, st, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := gracefulShutdown(shutdownCtx, server, service); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}

	// Start returns as soon as Shutdown begins; the store stays open until
	// in-flight requests and imports have finished.
	<-done
	slog.Info("server stopped")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type importDrainer interface {
	LimiterStatus() core.ImportLimiterStatus
	WaitForImports(ctx context.Context) error
}

// gracefulShutdown stops accepting requests, waits for in-flight ones, then
// waits for any import still committing. Both steps share ctx's deadline.
func gracefulShutdown(ctx context.Context, srv shutdowner, imports importDrainer) error {
	shutdownErr := srv.Shutdown(ctx)

	if status := imports.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for imports to complete", "active", status.Active)
		if err := imports.WaitForImports(ctx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
			return errors.Join(shutdownErr, err)
		}
		slog.Info("all imports completed")
	}
	return shutdownErr
}

// openStore returns the configured backend and a function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (backend, func(), error) {
	if cfg.Store.Driver == config.DriverMemory {
		slog.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	pg := store.NewPostgres(pool)
	if cfg.Database.EnsureSchema {
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	return pg, pool.Close, nil
}
