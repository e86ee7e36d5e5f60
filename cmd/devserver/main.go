// Command devserver runs a local Vidro API backed by sqlite, seeded with
// fake data, so the client can be exercised without the hosted API.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/javierleyes/vidro-android/internal/infrastructure/persistence"
	"github.com/javierleyes/vidro-android/internal/infrastructure/telemetry"
	"github.com/javierleyes/vidro-android/internal/interfaces/http/middleware"
	"github.com/javierleyes/vidro-android/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to a vidro.toml file")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "fake data seed")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Name:   "devserver",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Vidro dev server",
		zap.String("port", cfg.DevServer.Port),
		zap.String("dsn", cfg.DevServer.DSN),
		zap.Bool("legacy", cfg.DevServer.Legacy),
	)

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName + "-devserver"
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(cfg.DevServer, log)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	glasses := persistence.NewGormGlassRepository(db.DB)
	visits := persistence.NewGormVisitRepository(db.DB)

	if cfg.DevServer.Seed {
		seeder := persistence.NewSeeder(glasses, visits, *seed, log)
		if err := seeder.Seed(ctx, cfg.DevServer.SeedCount); err != nil {
			log.Fatal("Failed to seed database", zap.Error(err))
		}
	}

	if !cfg.IsProduction() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.Config{
		ServiceName: serviceName,
		Tracing:     tp.IsEnabled(),
		Legacy:      cfg.DevServer.Legacy,
	}, router.Dependencies{
		Glasses: glasses,
		Visits:  visits,
		Logger:  log,
		Metrics: middleware.NewHTTPMetrics("vidro_devserver"),
		Ping:    db.Ping,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.DevServer.Port,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
