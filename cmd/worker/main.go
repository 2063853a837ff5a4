package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/dukkan-pos/dukkan/internal/app"
	"github.com/dukkan-pos/dukkan/internal/observability"
	"github.com/dukkan-pos/dukkan/internal/store"
	"github.com/dukkan-pos/dukkan/jobs"
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

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))
	slog.SetDefault(logger)

	if cfg.StoreDriver == string(store.DriverMemory) || cfg.StoreDriver == string(store.DriverBolt) {
		// bolt holds an exclusive file lock and memory is per process
		logger.Warn("worker shares no data with the server on this store driver", slog.String("driver", cfg.StoreDriver))
	}

	st, err := store.Open(ctx, cfg.StoreOptions())
	if err != nil {
		logger.Error("open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("store close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	services, err := app.NewServices(st, cfg, logger, metrics)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{
				Type: jobs.TaskProductImage,
				Handler: jobs.ProductImageHandler(services.Inventory, func(job string) jobs.Tracker {
					return metrics.TrackJob(job)
				}, logger),
			},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}
