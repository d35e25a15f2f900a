package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/fileconverter/internal/config"
	"github.com/JonMunkholm/fileconverter/internal/core"
	"github.com/JonMunkholm/fileconverter/internal/history"
	"github.com/JonMunkholm/fileconverter/internal/logging"
	"github.com/JonMunkholm/fileconverter/internal/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}

	// Setup structured logging based on config
	flushLogs := logging.Setup(cfg.Log.Level, cfg.Log.Format, cfg.Log.SeqURL)
	defer flushLogs()

	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	// Conversion history: Postgres when configured, memory otherwise
	var recorder history.Recorder
	if cfg.HistoryEnabled() {
		pool, err := connectDB(ctx, cfg)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			return 1
		}
		defer pool.Close()

		store, err := history.NewStore(ctx, pool)
		if err != nil {
			slog.Error("failed to prepare history table", "error", err)
			return 1
		}
		recorder = store
	} else {
		slog.Info("DATABASE_URL not set, keeping conversion history in memory")
		recorder = history.NewMemory(0)
	}

	service := core.NewService(core.Config{
		MaxFileSize:        cfg.Upload.MaxFileSize,
		FileTTL:            cfg.Session.FileTTL,
		MaxFilesPerSession: cfg.Session.MaxFiles,
		MaxConcurrent:      cfg.Convert.MaxConcurrent,
		MaxWait:            cfg.Convert.MaxWait,
		PreviewRows:        cfg.Convert.PreviewRows,
		ChartMaxRows:       cfg.ChartMaxRows,
	}, recorder)

	server := web.NewServer(service, cfg)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	defer cancelJobs()
	go service.StartSweeper(jobCtx, cfg.Session.SweepInterval)

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for conversions still running (with timeout)
		if status := service.Status(); status.Limiter.Active > 0 {
			slog.Info("waiting for conversions to complete", "active", status.Limiter.Active)
		}
		if err := service.Shutdown(shutdownCtx); err != nil {
			slog.Warn("conversions did not complete in time", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Error("server failed", "error", err)
		return 1
	}
	<-shutdownDone
	slog.Info("server stopped")
	return 0
}

// connectDB opens and verifies the connection pool.
func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(cfg.DB.MaxConns)
	poolConfig.MinConns = int32(cfg.DB.MinConns)
	poolConfig.MaxConnLifetime = cfg.DB.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.DB.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
