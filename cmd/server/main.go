package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chillerops/backend/internal/config"
	"github.com/chillerops/backend/internal/delivery/http"
	"github.com/chillerops/backend/internal/logging"
	"github.com/chillerops/backend/internal/metrics"
	"github.com/chillerops/backend/internal/relay"
	"github.com/chillerops/backend/internal/repository/postgres"
	"github.com/chillerops/backend/internal/service"
)

func main() {
	// Configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync() //nolint:errcheck
	zap.ReplaceGlobals(log)

	// Database connection
	dbCtx, cancelDB := context.WithTimeout(context.Background(), 10*time.Second)
	dataRepo, closeDB := postgres.Open(dbCtx, cfg.DatabaseURL)
	cancelDB()
	defer closeDB()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Dependency Injection: Services
	rl := relay.New(cfg.TransferTTL)
	predictor := service.NewPredictionClient(cfg.PredictionServiceURL, cfg.PredictionTimeout)
	weatherSvc := service.NewWeatherService(cfg.WeatherAPIKey, cfg.WeatherBaseURL, cfg.WeatherRatePerSec, cfg.WeatherTimeout)
	intakeSvc := service.NewIntakeService(predictor, rl, dataRepo, m, cfg.SessionTTL)
	resultsSvc := service.NewResultsService(rl, weatherSvc, dataRepo, m)

	if cfg.WeatherAPIKey == "" {
		log.Warn("WEATHERSTACK_API_KEY not set, weather enrichment uses mock data")
	}
	healthCtx, cancelHealth := context.WithTimeout(context.Background(), 3*time.Second)
	if err := predictor.Health(healthCtx); err != nil {
		log.Warn("prediction service is not reachable yet", zap.String("url", cfg.PredictionServiceURL), zap.Error(err))
	}
	cancelHealth()

	// Fiber App
	app := fiber.New(fiber.Config{
		AppName:      "ChillerOps API v1.0",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.PredictionTimeout + 10*time.Second,
		ErrorHandler: http.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:  "Origin,Content-Type,Accept,Authorization",
		ExposeHeaders: "Location",
	}))

	// Routes
	http.SetupRoutes(app, http.NewHandler(intakeSvc, resultsSvc, dataRepo), reg)

	// Graceful shutdown
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("env", cfg.Env))
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	intakeSvc.WaitBackground()
	resultsSvc.WaitBackground()
	log.Info("server exited gracefully")
}
