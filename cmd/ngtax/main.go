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
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ngtax/ngtax/internal/app"
	"github.com/ngtax/ngtax/internal/compliance"
	compliancehttp "github.com/ngtax/ngtax/internal/compliance/http"
	"github.com/ngtax/ngtax/internal/filing"
	filinghttp "github.com/ngtax/ngtax/internal/filing/http"
	"github.com/ngtax/ngtax/internal/observability"
	"github.com/ngtax/ngtax/internal/platform/cache"
	"github.com/ngtax/ngtax/internal/platform/db"
	"github.com/ngtax/ngtax/internal/tax"
	taxhttp "github.com/ngtax/ngtax/internal/tax/http"
	"github.com/ngtax/ngtax/jobs"
	"github.com/ngtax/ngtax/report"
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

	var (
		pool    *pgxpool.Pool
		store   filing.Store
		results compliance.ResultStore
	)
	if cfg.PGDSN == "" {
		logger.Warn("PG_DSN empty, using in-memory storage")
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
		logger.Warn("redis unavailable, rate reloads stay local", slog.Any("error", err))
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

	metrics := observability.NewMetrics()

	filingService := filing.NewService(store, registry, logger)
	complianceService := compliance.NewService(filingService, registry, results, logger)

	reportClient := report.NewClient(cfg.GotenbergURL, 30*time.Second)
	renderer, err := filing.NewDocumentRenderer(reportClient)
	if err != nil {
		logger.Error("parse document templates", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobsClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    metrics,
		TaxHandler: taxhttp.NewHandler(logger, registry, metrics),
		FilingHandler: filinghttp.NewHandler(filinghttp.Config{
			Logger:      logger,
			Service:     filingService,
			Renderer:    renderer,
			Queue:       jobsClient,
			LegacyYears: cfg.TaxLegacyYearCoercion,
		}),
		ComplianceHandler: compliancehttp.NewHandler(logger, complianceService),
		ReportHandler:     report.NewHandler(reportClient, logger),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
