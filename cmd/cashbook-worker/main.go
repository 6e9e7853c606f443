package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"cashbook/internal/amqp"
	"cashbook/internal/cli"
	applog "cashbook/internal/log"
	"cashbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(applog.New(0, applog.ComponentApp))
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the backup worker")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("backend cleanup failed", "error", err)
		}
	}()
	if result.Events == nil {
		logger.Error("AMQP client unavailable, cannot consume change messages")
		os.Exit(1)
	}

	w := worker.NewBackupWorker(result.Docs, cfg.UserID,
		logger.WithComponent(applog.ComponentSync).Logger)

	logger.Info("starting cashbook backup worker",
		"queue", cfg.AMQPQueue,
		applog.FieldUser, cfg.UserID)

	err := result.Events.ConsumeChanges(ctx, func(msg *amqp.ChangeMessage) error {
		return w.HandleChange(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("message consumption failed", "error", err)
		os.Exit(1)
	}
	logger.Info("backup worker stopped gracefully")
}
