package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dinero/internal/cache"
	"dinero/internal/config"
	"dinero/internal/events"
	"dinero/internal/log"
	"dinero/internal/services"
	"dinero/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Events published here tell the API process to drop its cached
	// dashboards for users whose ledgers this sweep touched.
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		queueName := fmt.Sprintf("%s.worker.%s", cfg.AMQPExchange, hostname())
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, queueName)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
			eventsClient = nil
		} else {
			defer eventsClient.Close()
		}
	} else {
		logger.Info("AMQP disabled, API caches will expire on their own TTLs")
	}

	memCache := cache.NewMemory(cfg.CacheSize)
	recurring := services.NewRecurringService(repo, memCache, eventsClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	// Run an initial sweep on startup, then tick.
	sweep(ctx, logger, recurring)

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received")
			logger.Info("Recurring-worker shutdown complete")
			return
		case <-ticker.C:
			sweep(ctx, logger, recurring)
		}
	}
}

func sweep(ctx context.Context, logger *log.Logger, recurring *services.RecurringService) {
	result, err := recurring.ProcessDue(ctx, time.Now())
	if err != nil {
		logger.Error("Recurring sweep failed", "error", err)
		return
	}
	logger.Info("Recurring sweep complete",
		"processed", result.Processed,
		"errors", result.Errors,
		"total", result.Total)
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return fmt.Sprintf("pid-%d", os.Getpid())
	}
	return name
}
