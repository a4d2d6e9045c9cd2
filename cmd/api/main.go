package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	catalogpg "receivingapi/internal/catalog/postgres"
	"receivingapi/internal/config"
	"receivingapi/internal/database"
	"receivingapi/internal/database/migration"
	handlers "receivingapi/internal/http/handler"
	"receivingapi/internal/http/middleware"
	"receivingapi/internal/otel"
	"receivingapi/internal/repository/postgres"
	"receivingapi/internal/service"
	"receivingapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Tracing is a no-op when OTEL_SDK_DISABLED=true
	shutdownTracing, err := otel.Init(context.Background(), time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(context.Background(), db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to set up request metrics: %v", err)
	}
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		log.Fatalf("failed to set up workflow metrics: %v", err)
	}

	// Initialize repositories and services
	recvRepo := postgres.NewReceivingPostgres(db)
	catalogGW := catalogpg.NewCatalogPostgres(db)

	svcs := handlers.Services{
		Receiving:   service.NewReceivingService(recvRepo, catalogGW, cfg.Receiving, logger, metrics),
		Imports:     service.NewImportService(recvRepo, catalogGW, logger),
		Photos:      service.NewPhotoService(objStore, recvRepo, cfg.Receiving, logger),
		Dashboard:   service.NewDashboardService(recvRepo, cfg.Receiving),
		Recommender: service.NewRecommender(catalogGW, logger),
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(promMW.Handler())
	app.Use(otelfiber.Middleware())
	// Actor identity comes from gateway-verified headers
	app.Use(middleware.ActorContext())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, svcs)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
