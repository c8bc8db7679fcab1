package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-b2b/internal/app"
	jobmetrics "github.com/odyssey-erp/odyssey-b2b/internal/jobs"
	"github.com/odyssey-erp/odyssey-b2b/internal/observability"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/jobs"
)

const usage = `usage:
  worker                 run the job worker and sweep scheduler
  worker trigger <task>  enqueue quotation:expire or invoice:overdue now
  worker queue           print default queue statistics`

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
	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}

	args := os.Args[1:]
	switch {
	case len(args) == 0:
		err = runWorker(ctx, cfg, logger, redisOpts)
	case args[0] == "trigger" && len(args) == 2:
		err = withOps(redisOpts, func(ops *opsCLI) error {
			info, err := ops.Trigger(ctx, args[1])
			if err != nil {
				return err
			}
			fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
			return nil
		})
	case args[0] == "queue":
		err = withOps(redisOpts, func(ops *opsCLI) error {
			stats, err := ops.InspectQueue()
			if err != nil {
				return err
			}
			fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
				stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
			return nil
		})
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker", slog.Any("error", err))
		os.Exit(1)
	}
}

func runWorker(ctx context.Context, cfg *app.Config, logger *slog.Logger, redisOpts asynq.RedisClientOpt) error {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	svc, err := app.NewServices(ctx, app.ServiceDeps{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Metrics: metrics.Documents(),
	})
	if err != nil {
		return err
	}

	documentJobs := &jobs.DocumentJobs{
		Deliveries: svc.Delivery,
		Invoices:   svc.Invoices,
		Quotations: svc.Quotations,
		Logger:     logger,
		Metrics:    jobmetrics.NewMetrics(metrics.Registerer()),
	}
	cron, err := documentJobs.Cron(cfg.SweepCron)
	if err != nil {
		return err
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   redisOpts,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    documentJobs.Handlers(),
		Cron:        cron,
	})
	if err != nil {
		return err
	}
	return worker.Run(ctx)
}

func withOps(redisOpts asynq.RedisClientOpt, fn func(*opsCLI) error) error {
	ops := newOpsCLI(redisOpts)
	defer ops.Close()
	return fn(ops)
}
