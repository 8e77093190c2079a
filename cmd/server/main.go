package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hadoan/kerniflow/internal"
	"github.com/hadoan/kerniflow/internal/events"
	"github.com/hadoan/kerniflow/internal/handler/api"
	"github.com/hadoan/kerniflow/internal/middleware"
	"github.com/hadoan/kerniflow/internal/postgres"
	"github.com/hadoan/kerniflow/internal/routes"
	"github.com/hadoan/kerniflow/internal/service"
	"github.com/hadoan/kerniflow/internal/tax"
	"github.com/hadoan/kerniflow/internal/telemetry"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	// Run migrations
	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := postgres.NewPool(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	// Initialize repositories
	profileRepo := postgres.NewTaxProfileRepository(pool)
	codeRepo := postgres.NewTaxCodeRepository(pool)
	rateRepo := postgres.NewTaxRateRepository(pool)
	snapshotRepo := postgres.NewTaxSnapshotRepository(pool)

	// Initialize event publisher. An empty NATS URL disables publishing;
	// snapshot locks still succeed without a broker.
	var publisher events.Publisher
	if cfg.NATSUrl != "" {
		logger.Info("Connecting to NATS...", "url", cfg.NATSUrl)
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSUrl, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
		logger.Info("NATS connection established")
	} else {
		logger.Warn("NATS_URL not set, snapshot events disabled")
	}

	// Initialize metrics
	taxMetrics := telemetry.NewTaxMetrics(cfg.MetricsNamespace)
	httpMetrics := middleware.NewMetrics(cfg.MetricsNamespace)

	// Initialize jurisdiction packs and services
	registry := tax.NewRegistry(tax.NewGermanyPack(codeRepo, rateRepo))
	engine := service.NewEngine(profileRepo, registry, logger)
	engine.SetMetrics(taxMetrics)
	snapshotService := service.NewSnapshotService(
		engine, profileRepo, snapshotRepo, publisher, taxMetrics, cfg.DefaultJurisdiction, logger,
	)
	profileService := service.NewProfileService(profileRepo)
	codeService := service.NewTaxCodeService(codeRepo)
	rateService := service.NewTaxRateService(codeRepo, rateRepo)

	// Build the HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.HTTPErrorHandler(logger)

	routes.RegisterAPIRoutes(e, routes.APIDeps{
		Tax:      api.NewTaxHandler(engine, snapshotService, logger),
		Profiles: api.NewProfileHandler(profileService),
		TaxCodes: api.NewTaxCodeHandler(codeService),
		TaxRates: api.NewTaxRateHandler(rateService),
		Metrics:  httpMetrics,
		Logger:   logger,
	})

	// Start the server, shutting down cleanly on SIGINT/SIGTERM
	addr := fmt.Sprintf(":%d", cfg.Port)
	go func() {
		logger.Info("Starting tax API server", "address", addr)
		if err := e.Start(addr); err != nil {
			logger.Info("server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
