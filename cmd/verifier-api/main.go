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

	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sandipsawant10/flood-management-sub002/internal/api"
	"github.com/sandipsawant10/flood-management-sub002/internal/config"
	"github.com/sandipsawant10/flood-management-sub002/internal/core/service"
	"github.com/sandipsawant10/flood-management-sub002/internal/core/signals"
	"github.com/sandipsawant10/flood-management-sub002/internal/observability"
	"github.com/sandipsawant10/flood-management-sub002/internal/platform/external_apis"
	"github.com/sandipsawant10/flood-management-sub002/internal/platform/storage"
	"github.com/sandipsawant10/flood-management-sub002/internal/worker"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	logger.Info("starting flood report verification service", "port", cfg.ServerPort, "gin_mode", cfg.GinMode)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(connectCtx, mongoopts.Client().ApplyURI(cfg.MongoURI))
	connectCancel()
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(disconnectCtx); err != nil {
			logger.Warn("error disconnecting from MongoDB", "error", err)
		}
	}()

	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	store := storage.NewReportStore(mongoClient.Database(cfg.MongoDatabase), logger)

	weatherClient := external_apis.NewWeatherClient(cfg.WeatherTimeout, logger)
	newsClient := external_apis.NewNewsClient(cfg.NewsAPIKey, cfg.NewsTimeout, logger)
	if cfg.NewsAPIKey == "" {
		logger.Warn("NEWS_API_KEY not set, news signal will degrade to errors")
	}

	var social signals.SocialProvider = signals.DisabledSocial{}
	if cfg.SocialMockMode {
		logger.Warn("social mock mode enabled")
		social = signals.MockSocial{}
	}

	svc := service.NewVerificationService(
		store,
		signals.NewWeatherProvider(weatherClient, cfg.WeatherTimeout, metrics, logger),
		signals.NewNewsProvider(newsClient, cfg.NewsTimeout, clock, metrics, logger),
		social,
		clock,
		metrics,
		logger,
	)

	var consumer *worker.JobConsumer
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	if cfg.RabbitMQURL != "" {
		consumer, err = worker.NewJobConsumer(cfg, svc, cfg.WorkerCount, logger)
		if err != nil {
			logger.Warn("failed to initialize job consumer, jobs will not be consumed", "error", err)
			consumer = nil
		} else {
			go consumer.StartConsuming(consumerCtx)
			logger.Info("job consumer listening", "queue", cfg.VerifyQueueName, "workers", cfg.WorkerCount)
		}
	} else {
		logger.Info("RABBITMQ_URL not configured, job consumer will not start")
	}

	router := api.SetupRouter(cfg, svc)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutdown signal received", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "error", err)
	}

	if consumer != nil {
		consumer.Stop()
		cancelConsumer()
		consumer.Close()
	}
	logger.Info("shutdown complete")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler)
}
