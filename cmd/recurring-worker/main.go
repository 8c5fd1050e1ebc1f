package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	"bilancio/internal/ledger"
	"bilancio/internal/log"
	"bilancio/internal/recurring"
	"bilancio/internal/storage/sqlite"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentRecurring,
	})
	log.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := sqlite.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Publish events so a running server sees worker-created transactions.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	now := time.Now()
	view := ledger.NewView(now.Year(), now.Month())

	var events ledger.EventPublisher
	if amqpClient != nil {
		events = amqpClient
	}
	svc := ledger.New(repo, view, events)
	if err := svc.Reload(ctx); err != nil {
		logger.Error("Initial reload failed", "error", err)
		os.Exit(1)
	}

	scheduler := recurring.New(repo, svc, cfg.CatchUpLimit)

	logger.Info("Recurring catch-up configured",
		"interval", cfg.RecurringInterval,
		"limit", cfg.CatchUpLimit,
		"sqlite_db", cfg.SQLiteDBPath)

	runCatchUp := func(now time.Time) {
		if err := scheduler.CatchUp(ctx, now); err != nil {
			logger.Error("Catch-up run incomplete", "error", err)
		}
	}

	// Run once on startup, then on the ticker.
	runCatchUp(time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			runCatchUp(now)
		}
	}
}
