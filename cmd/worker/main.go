package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ngtax/ngtax/internal/app"
	"github.com/ngtax/ngtax/internal/compliance"
	"github.com/ngtax/ngtax/internal/filing"
	jobmetrics "github.com/ngtax/ngtax/internal/jobs"
	"github.com/ngtax/ngtax/internal/platform/cache"
	"github.com/ngtax/ngtax/internal/platform/db"
	"github.com/ngtax/ngtax/internal/tax"
	"github.com/ngtax/ngtax/jobs"
	"github.com/ngtax/ngtax/report"
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

	var (
		pool    *pgxpool.Pool
		store   filing.Store
		results compliance.ResultStore
	)
	if cfg.PGDSN == "" {
		logger.Warn("PG_DSN empty, worker sees only its own in-memory data")
		store = filing.NewMemoryStore()
	} else {
		pool, err = db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store = filing.NewRepository(pool)
		results = compliance.NewRepository(pool)
	}

	var notifier *tax.ReloadNotifier
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable for reload notices", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		notifier = tax.NewReloadNotifier(redisClient)
	}

	registry := tax.NewRegistry(tax.StatutorySource{}, notifier, logger)
	if _, err := registry.Load(ctx, tax.MinTaxYear); err != nil {
		logger.Error("load rate tables", slog.Any("error", err))
		os.Exit(1)
	}
	if notifier != nil {
		go app.WatchRateReloads(ctx, registry, logger)
	}

	metrics := jobmetrics.NewMetrics(prometheus.DefaultRegisterer)

	filingService := filing.NewService(store, registry, logger)
	complianceService := compliance.NewService(filingService, registry, results, logger)

	pdfClient := report.NewClient(cfg.GotenbergURL, 60*time.Second)
	renderer, err := filing.NewDocumentRenderer(pdfClient)
	if err != nil {
		logger.Error("init document renderer", slog.Any("error", err))
		os.Exit(1)
	}

	scanJob := compliance.NewScanJob(complianceService, metrics, logger)
	documentJob := filing.NewDocumentJob(filing.DocumentJobConfig{
		Service:    filingService,
		Renderer:   renderer,
		StorageDir: cfg.DocumentStorageDir,
		Metrics:    metrics,
		Logger:     logger,
	})

	scanTask, err := jobs.NewComplianceScanTask(jobs.ComplianceScanPayload{})
	if err != nil {
		logger.Error("build compliance scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskComplianceScan, Handler: scanJob.Handle},
			{Type: jobs.TaskFilingDocument, Handler: documentJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ComplianceScanCron, Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
