package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httpapi "github.com/i474232898/kma-forecast/internal/api/http"
	"github.com/i474232898/kma-forecast/internal/config"
	"github.com/i474232898/kma-forecast/internal/logging"
	"github.com/i474232898/kma-forecast/internal/metrics"
	"github.com/i474232898/kma-forecast/internal/scheduler"
	"github.com/i474232898/kma-forecast/internal/store"
	"github.com/i474232898/kma-forecast/internal/weather"
	"github.com/i474232898/kma-forecast/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector("kma_forecast", reg)

	resolver, err := cfg.NewResolver()
	if err != nil {
		logger.Fatal("failed to build resolver", zap.Error(err))
	}
	table, err := cfg.LoadRegions()
	if err != nil {
		logger.Fatal("failed to load regions", zap.Error(err))
	}

	// Shared HTTP client for outbound KMA calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	source := providers.NewKMAProvider(httpClient, cfg.KMAServiceKey, cfg.KMABaseURL, providers.DefaultBackoff(cfg.UpstreamMaxRetries))
	if cfg.KMAServiceKey == "" {
		logger.Warn("KMA_SERVICE_KEY is not set; every resolution will fail upstream")
	}

	opts := []weather.Option{
		weather.WithRegions(table),
		weather.WithDefaultRegion(cfg.DefaultRegion),
		weather.WithFetchTimeout(cfg.FetchTimeout),
		weather.WithLogger(logger),
		weather.WithMetrics(collector),
	}
	// Geocoding is optional; without a key only the region table is used.
	if cfg.GeocoderAPIKey != "" {
		opts = append(opts, weather.WithGeocoder(providers.NewGoogleGeocoder(cfg.GeocoderAPIKey)))
	}

	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	service := weather.NewService(resolver, source, memStore, opts...)

	sched := scheduler.New(cfg.TrackedRegions, cfg.RefreshCron, service, logger, collector)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "kma-forecast",
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          cfg.FetchTimeout + 5*time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(httpapi.RequestLogger(logger))
	app.Use(httpapi.MetricsMiddleware(collector))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"service":    "kma-forecast",
			"vocabulary": resolver.Parser().Vocabulary(),
		})
	})
	httpapi.RegisterMetrics(app, reg)
	httpapi.RegisterRoutes(app, service)

	go func() {
		logger.Info("listening", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
}
