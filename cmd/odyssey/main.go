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
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-b2b/internal/app"
	"github.com/odyssey-erp/odyssey-b2b/internal/ar"
	"github.com/odyssey-erp/odyssey-b2b/internal/assistant"
	"github.com/odyssey-erp/odyssey-b2b/internal/cart"
	"github.com/odyssey-erp/odyssey-b2b/internal/delivery"
	"github.com/odyssey-erp/odyssey-b2b/internal/masterdata/products"
	"github.com/odyssey-erp/odyssey-b2b/internal/observability"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-b2b/internal/platform/db"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/dealers"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/orders"
	"github.com/odyssey-erp/odyssey-b2b/internal/sales/quotations"
	"github.com/odyssey-erp/odyssey-b2b/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("odyssey", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
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

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	queue, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := queue.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	svc, err := app.NewServices(ctx, app.ServiceDeps{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Redis:   redisClient,
		Queue:   queue,
		Metrics: metrics.Documents(),
	})
	if err != nil {
		return err
	}
	if err := svc.Gotenberg.Ping(ctx); err != nil {
		logger.Warn("gotenberg unreachable, delivery notes will retry", slog.Any("error", err))
	}

	var translator assistant.Translator
	if cfg.GeminiAPIKey != "" {
		gemini, err := assistant.NewGeminiTranslator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer func() {
			if err := gemini.Close(); err != nil {
				logger.Warn("gemini close", slog.Any("error", err))
			}
		}()
		translator = gemini
	} else {
		logger.Info("GEMINI_API_KEY not set, assistant chat disabled")
	}
	assistantSvc := assistant.NewService(assistant.NewDispatcher(svc.Cart, svc.Orders, logger), translator, logger)

	params := app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Metrics:           metrics,
		ProductsHandler:   products.NewHandler(logger, svc.Products),
		DealersHandler:    dealers.NewHandler(logger, svc.Dealers),
		CartHandler:       cart.NewHandler(logger, svc.Cart),
		OrdersHandler:     orders.NewHandler(logger, svc.Orders),
		QuotationsHandler: quotations.NewHandler(logger, svc.Quotations),
		DeliveryHandler:   delivery.NewHandler(logger, svc.Delivery),
		InvoicesHandler:   ar.NewHandler(logger, svc.Invoices),
		AssistantHandler:  assistant.NewHandler(logger, assistantSvc),
		JobHandler:        jobs.NewHandler(inspector, logger),
	}
	if cfg.StorageDriver == "local" {
		params.FilesDir = cfg.StorageLocalDir
		params.FilesPrefix = cfg.StoragePublicURL
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      app.NewRouter(params),
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
