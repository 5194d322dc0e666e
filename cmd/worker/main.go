package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stocktally/stocktally/internal/app"
	"github.com/stocktally/stocktally/internal/calculator"
	"github.com/stocktally/stocktally/internal/inventory"
	jobmetrics "github.com/stocktally/stocktally/internal/jobs"
	"github.com/stocktally/stocktally/internal/platform/db"
	"github.com/stocktally/stocktally/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	calc, err := calculator.New(cfg.CalculatorSettings())
	if err != nil {
		logger.Error("init calculator", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN, "stocktally-worker")
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	client, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)

	inventoryService := inventory.NewService(inventory.NewRepository(pool), calc, nil, inventory.ServiceConfig{
		HistoryDays: cfg.SalesHistoryDays,
		Logger:      logger,
	})
	scanJob := jobs.NewStockScanJob(inventoryService, client, cfg.AlertRecipients, logger, metrics)
	ledger := jobs.NewAlertLedger(pool)
	alertJob := jobs.NewLowStockAlertJob(ledger, jobs.LogNotifier{Logger: logger}, cfg.AlertFrom, logger, metrics)
	cleanupJob := jobs.NewLedgerCleanupJob(ledger, logger, metrics)

	scanTask, err := jobs.NewStockScanTask("cron", time.Time{})
	if err != nil {
		logger.Error("build stock scan task", slog.Any("error", err))
		os.Exit(1)
	}

	cleanupTask, err := jobs.NewLedgerCleanupTask(cfg.LedgerRetentionDays)
	if err != nil {
		logger.Error("build ledger cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskStockScan, Handler: scanJob.Handle},
			{Type: jobs.TaskLowStockAlert, Handler: alertJob.Handle},
			{Type: jobs.TaskLedgerCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.StockScanCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.LedgerCleanupCron, Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	metricsServer := &http.Server{
		Addr:              cfg.WorkerMetricsAddr,
		Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("starting worker metrics server", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
