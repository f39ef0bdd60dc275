package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bollette/internal/amqp"
	"bollette/internal/config"
	applog "bollette/internal/log"
	"bollette/internal/services"
	"bollette/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting schedule-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer sqliteRepo.Close()

	// AMQP client for announcing refreshed schedules to the export worker
	var publisher services.SchedulePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing in SQLite-only mode", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized - refreshed schedules will sync via export-worker")
		}
	} else {
		logger.Info("AMQP disabled - refreshed schedules will not be announced")
	}

	billService := services.NewBillService(sqliteRepo, publisher)
	processor := services.NewScheduleProcessor(sqliteRepo, billService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Schedule processor configured",
		"interval", cfg.RefreshInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.RefreshInterval)
	defer ticker.Stop()

	// Run an initial refresh on startup
	logger.Info("Running initial schedule refresh...")
	if count, err := processor.RefreshSchedules(ctx); err != nil {
		logger.Error("Initial refresh failed", "error", err)
	} else {
		logger.Info("Initial refresh complete", "schedules_refreshed", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				logger.Info("Refreshing schedules...")
				count, err := processor.RefreshSchedules(ctx)
				if err != nil {
					logger.Error("Periodic refresh failed", "error", err)
				} else {
					logger.Info("Periodic refresh complete",
						"schedules_refreshed", count,
						"next_check", now.Add(cfg.RefreshInterval).Format("15:04:05"))
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down schedule-worker...")
	cancel()
	logger.Info("Schedule-worker shutdown complete")
}
