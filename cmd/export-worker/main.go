package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bollette/internal/amqp"
	"bollette/internal/config"
	applog "bollette/internal/log"
	"bollette/internal/sheets"
	gsheet "bollette/internal/sheets/google"
	sheetsmem "bollette/internal/sheets/memory"
	"bollette/internal/storage"
	"bollette/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	logger.Info("Starting export-worker")

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

	// Mirror target: Google Sheets when configured, otherwise an in-memory
	// sink so the sync lifecycle still progresses in local setups.
	var (
		writer  sheets.OccurrenceWriter
		deleter sheets.ScheduleDeleter
	)
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer, deleter = sheetsClient, sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		sink := sheetsmem.New()
		writer, deleter = sink, sink
		logger.Info("Google Sheets disabled - mirroring to in-memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exportWorker := worker.NewExportWorker(sqliteRepo, writer, deleter, cfg.SyncBatchSize)

	// On startup, mirror any pending bills that might have been missed
	logger.Info("Performing startup sync check...")
	if err := exportWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
		// Don't exit - continue with normal operation
	}

	done := make(chan error, 1)
	go func() {
		done <- exportWorker.Run(ctx, amqpClient, cfg.SyncInterval)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Worker stopped", "error", err)
		}
	}

	logger.Info("Shutting down export-worker...")
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
	logger.Info("Export-worker shutdown complete")
}
