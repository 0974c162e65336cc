package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	mirrorgoogle "fintrack/internal/mirror/google"
	"fintrack/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting fintrack-worker", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the mirror worker")
		os.Exit(1)
	}
	if cfg.MirrorSpreadsheetID == "" {
		logger.Error("MIRROR_SPREADSHEET_ID is required for the mirror worker")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The worker reads donations through the same backend the server
	// writes to.
	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Backend configuration failed", log.FieldError, err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(ctx, backendConfig)
	if err != nil {
		logger.Error("Backend initialization failed", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	mirrorClient, err := mirrorgoogle.New(ctx, cfg.MirrorSpreadsheetID, cfg.MirrorSheetName)
	if err != nil {
		logger.Error("Failed to initialize spreadsheet mirror", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Spreadsheet mirror initialized",
		"spreadsheet_id", cfg.MirrorSpreadsheetID,
		"sheet_name", cfg.MirrorSheetName)

	mirrorWorker := worker.NewMirrorWorker(result.Store, mirrorClient, logger)

	// Catch up on rows whose messages were lost while the worker was
	// down, then keep reconciling on a timer.
	if err := mirrorWorker.Reconcile(ctx); err != nil {
		logger.Error("Startup reconcile failed", log.FieldError, err)
	}
	go mirrorWorker.RunPeriodicReconcile(ctx, cfg.MirrorInterval)

	// Consume with reconnect. Connection-level failures back off and
	// redial; anything else stops the worker.
	go func() {
		defer cancel()
		attempt := 0
		for {
			if ctx.Err() != nil {
				return
			}

			client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
			if err != nil {
				delay := amqp.ExponentialBackoff(attempt)
				attempt++
				logger.Warn("Broker connection failed, retrying",
					log.FieldError, err,
					"attempt", attempt,
					"retry_in", delay.String())
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
				continue
			}
			attempt = 0

			err = client.ConsumeMirror(ctx, cfg.MirrorBatchSize, func(msg *amqp.MirrorMessage) error {
				return mirrorWorker.HandleMessage(ctx, msg)
			})
			client.Close()

			if errors.Is(err, context.Canceled) {
				return
			}
			if err != nil && !amqp.IsConnectionError(err) {
				logger.Error("Message consumption failed", log.FieldError, err)
				return
			}
			logger.Warn("Broker connection lost, reconnecting", log.FieldError, err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received",
			"signal", sig.String(),
			log.FieldOperation, log.OpShutdown)
	case <-ctx.Done():
		logger.Info("Worker context cancelled")
	}

	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
