package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"zap-dispatch/internal/adapter/delivery"
	httpadapter "zap-dispatch/internal/adapter/http"
	"zap-dispatch/internal/adapter/postgres"
	"zap-dispatch/internal/adapter/usecase"
	"zap-dispatch/internal/config"
	"zap-dispatch/internal/db"
	"zap-dispatch/internal/dispatch"
)

// main is the entry point of the dispatch engine. It loads configuration,
// optionally runs database migrations, initializes the connection pool,
// repositories and usecases, starts the dispatch loop and the HTTP server.
// On receiving a termination signal it stops the loop cooperatively and
// gracefully shuts down the server.
func main() {
	exitCode := 1
	defer func() {
		if r := recover(); r != nil {
			panic(r)
		} else {
			os.Exit(exitCode)
		}
	}()

	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	var logger *slog.Logger
	{
		// Initialise structured logger based on configuration.
		var handler slog.Handler
		level := cfg.Log.SlogLevel()
		switch cfg.Log.SlogFormat() {
		case "json":
			handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		default:
			handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
		}
		logger = slog.New(handler)
	}

	if err = cfg.Dispatch.Validate(); err != nil {
		logger.Error("invalid dispatch config", slog.Any("error", err))
		os.Exit(1)
	}
	loc, err := cfg.Dispatch.Location()
	if err != nil {
		logger.Error("invalid dispatch config", slog.Any("error", err))
		os.Exit(1)
	}

	// Optionally run migrations if configured. We use the Psql sub-config.
	if cfg.Psql.RunMigrations {
		if err = db.Migrate(cfg.Psql.Addr.String()); err != nil {
			logger.Error("migration error", slog.Any("error", err))
		} else {
			logger.Info("migrations applied successfully")
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Psql)
	if err != nil {
		logger.Error("database connection error", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.Psql.SeedDemo {
		if err = db.Seed(ctx, pool); err != nil {
			logger.Error("seed error", slog.Any("error", err))
		}
	}

	repo := postgres.NewCampaignRepository(pool)
	campaigns := usecase.NewCampaignUseCase(repo, logger)
	channels := usecase.NewChannelUseCase(repo)

	dispatcher := dispatch.New(
		repo,
		delivery.NewHTTPSender(cfg.Dispatch.DeliveryTimeout),
		dispatch.Gate{Location: loc, StartHour: cfg.Dispatch.StartHour, EndHour: cfg.Dispatch.EndHour},
		dispatch.NewClock(),
		dispatch.Options{SendInterval: cfg.Dispatch.SendInterval, PollInterval: cfg.Dispatch.PollInterval},
		logger,
	)
	if cfg.Dispatch.Enabled {
		dispatcher.Start(ctx)
	}

	handler := httpadapter.NewHandler(campaigns, channels, logger)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("server listening", slog.Int("port", int(cfg.HTTP.Port)))
		if err = srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	value := <-quit
	exitCode = 128 + int(value.(syscall.Signal))

	dispatcher.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	} else {
		logger.Info("server gracefully stopped")
	}

	// the signal context is cancelled at this point, so an in-progress
	// suspend aborts and the loop goroutine exits promptly
	cancel()
	select {
	case <-dispatcher.Done():
	case <-time.After(5 * time.Second):
		logger.Warn("dispatch loop did not stop in time")
	}
}
