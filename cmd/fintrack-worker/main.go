package main

import (
	"context"
	"errors"
	"os"
	"time"

	"fintrack/internal/amqp"
	bgoogle "fintrack/internal/blob/google"
	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting fintrack-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the backup worker")
		os.Exit(1)
	}

	repo := cli.InitStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	uploader, err := bgoogle.NewFromEnv(context.Background())
	if err != nil {
		logger.Error("Failed to initialize Drive client", log.FieldError, err)
		os.Exit(1)
	}

	budgets := services.NewBudgetService(repo, nil)
	reports := services.NewReportService(repo, budgets)
	cloudSync := worker.NewCloudSync(reports, uploader, cfg.SyncTempDir)
	backup := worker.NewBackupWorker(amqpClient, cloudSync, cfg.BackupInterval)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Backup worker running", "interval", cfg.BackupInterval.String())
	if err := backup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Backup worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
