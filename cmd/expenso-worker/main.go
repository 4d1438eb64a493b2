package main

import (
	"context"
	"errors"
	"os"

	"expenso/internal/amqp"
	"expenso/internal/backend"
	"expenso/internal/cli"
	applog "expenso/internal/log"
	"expenso/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting expenso-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	auditWorker := worker.NewAuditWorker(result.Store)

	logger.Info("Consuming transaction events", "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeTransactionEvents(ctx, auditWorker.HandleTransactionEvent); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Worker stopped gracefully")
}
