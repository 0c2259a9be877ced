package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/currency_baskets/internal/core/ports/publishers"
	portsrepo "github.com/SscSPs/currency_baskets/internal/core/ports/repositories"
	"github.com/SscSPs/currency_baskets/internal/core/services"
	"github.com/SscSPs/currency_baskets/internal/events"
	"github.com/SscSPs/currency_baskets/internal/events/amqp"
	"github.com/SscSPs/currency_baskets/internal/handlers"
	"github.com/SscSPs/currency_baskets/internal/middleware"
	"github.com/SscSPs/currency_baskets/internal/platform/config"
	"github.com/SscSPs/currency_baskets/internal/repositories/database/pgsql"
	"github.com/SscSPs/currency_baskets/internal/repositories/memory"
	"github.com/SscSPs/currency_baskets/pkg/database"
	"github.com/gin-gonic/gin"
)

// @title Currency Baskets API
// @version 1.0
// @description Versioned account and rate ledgers with base-currency aggregation.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Bootstrap logger until the configured level is known
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run wires the application and serves until the process is signalled. Everything it opens is
// released before it returns.
func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, closeRepos, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer closeRepos()

	publisher, closePublisher, err := setupPublisher(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize rate event publisher: %w", err)
	}
	defer closePublisher()

	serviceContainer := services.NewServiceContainer(repos, publisher, services.WithLogger(logger))

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("invalid rate limit %q: %w", cfg.RateLimit, err)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer, rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("store", string(cfg.StoreBackend)))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed to run: %w", err)
	}
	return nil
}

// setupRepositories builds the configured store. The returned func releases it.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreBackend == config.StoreMemory {
		logger.Warn("Using in-memory store; revisions are lost on restart")
		return memory.NewRepositoryProvider(memory.NewStore()), func() {}, nil
	}

	logger.Info("Running database migrations...")
	changed, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if changed {
		logger.Info("Database migrations applied successfully.")
	} else {
		logger.Info("No new migrations to apply.")
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck, logger)
	if err != nil {
		return nil, nil, err
	}
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool, logger) }, nil
}

// setupPublisher connects to the broker when one is configured and otherwise logs events.
func setupPublisher(cfg *config.Config, logger *slog.Logger) (publishers.RateEventPublisher, func(), error) {
	if cfg.AMQPURL == "" {
		logger.Info("AMQP_URL not set; rate events are logged only")
		return events.LoggingPublisher{}, func() {}, nil
	}

	publisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Publishing rate events", slog.String("exchange", cfg.AMQPExchange), slog.String("routing_key", cfg.AMQPRoutingKey))
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Error closing AMQP publisher", slog.String("error", err.Error()))
		}
	}, nil
}
