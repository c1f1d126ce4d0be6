package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"dinero/internal/cache"
	"dinero/internal/config"
	"dinero/internal/currency"
	"dinero/internal/events"
	apphttp "dinero/internal/http"
	"dinero/internal/log"
	"dinero/internal/services"
	"dinero/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

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

	memCache := cache.NewMemory(cfg.CacheSize)
	cacheManager := cache.NewManager()
	cacheManager.Register(memCache)
	cacheManager.StartCleanup(cfg.CacheCleanupInterval)
	defer cacheManager.Stop()

	// The worker publishes a ledger event for every recurring execution; the
	// consumer below sweeps this process's cache so dashboards stay fresh.
	var eventsClient *events.Client
	if cfg.AMQPURL != "" {
		queueName := fmt.Sprintf("%s.api.%s", cfg.AMQPExchange, hostname())
		eventsClient, err = events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, queueName)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
			eventsClient = nil
		} else {
			defer eventsClient.Close()
		}
	} else {
		logger.Info("AMQP disabled, ledger events will not cross processes")
	}

	rates := currency.NewProvider(cfg.FXBaseURL, memCache)
	balance := services.NewBalanceCalculator(repo)

	handler := &apphttp.Handler{
		Transactions: services.NewTransactionService(repo, balance, memCache, eventsClient),
		Accounts:     services.NewAccountService(repo, balance, memCache, eventsClient),
		Categories:   services.NewCategoryService(repo, memCache, eventsClient),
		Savings:      services.NewSavingsService(repo, balance, memCache, eventsClient),
		Recurring:    services.NewRecurringService(repo, memCache, eventsClient),
		Dashboard:    services.NewDashboardService(repo, balance, rates, memCache),
		Reports:      services.NewReportService(repo, memCache),
	}

	srv := apphttp.NewServer(":"+cfg.Port, handler, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting dinero server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if eventsClient != nil {
		g.Go(func() error {
			err := eventsClient.ConsumeLedgerEvents(ctx, func(ev *events.LedgerEvent) {
				cache.InvalidateUser(memCache, ev.UserID)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return fmt.Sprintf("pid-%d", os.Getpid())
	}
	return name
}
