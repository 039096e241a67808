package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ngtax/ngtax/internal/jobs"
	"github.com/ngtax/ngtax/internal/tax"
	"github.com/ngtax/ngtax/jobs"
)

// ScanJob scores every entity for a period and records the alerts.
type ScanJob struct {
	service *Service
	metrics *jobmetrics.Metrics
	logger  *slog.Logger
	clock   func() time.Time
}

// NewScanJob initialises the scan handler.
func NewScanJob(service *Service, metrics *jobmetrics.Metrics, logger *slog.Logger) *ScanJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScanJob{
		service: service,
		metrics: metrics,
		logger:  logger.With(slog.String("job", jobs.TaskComplianceScan)),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the scan.
func (j *ScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.service == nil {
		return errors.New("compliance scan: handler not configured")
	}
	var payload jobs.ComplianceScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	year, month := j.period(payload)

	start := time.Now()
	tracker := j.metrics.Track(jobs.TaskComplianceScan)
	defer func() {
		err = tracker.End(err)
	}()

	logger := j.logger.With(slog.Int("tax_year", year), slog.Int("month", month))
	if _, err := tax.ParseTaxYear(year); err != nil {
		logger.Info("skipping compliance scan", slog.Any("reason", err))
		return nil
	}
	logger.Info("starting compliance scan")

	entities, err := j.service.Entities(ctx)
	if err != nil {
		logger.Error("list entities", slog.Any("error", err))
		return err
	}

	var failures []error
	alerts := 0
	for _, entity := range entities {
		result, err := j.service.Evaluate(ctx, entity.ID, year, &month)
		if err != nil {
			logger.Error("evaluate entity", slog.String("entity_id", entity.ID.String()), slog.Any("error", err))
			failures = append(failures, fmt.Errorf("entity %s: %w", entity.ID, err))
			continue
		}
		for _, alert := range result.Alerts {
			logger.Warn("compliance alert",
				slog.String("entity_id", entity.ID.String()),
				slog.String("type", string(alert.Type)),
				slog.String("severity", string(alert.Severity)),
				slog.String("message", alert.Message),
			)
			j.metrics.AddAlerts(string(alert.Type), string(alert.Severity), 1)
		}
		alerts += len(result.Alerts)
		if err := j.service.Record(ctx, result); err != nil {
			logger.Error("store result", slog.String("entity_id", entity.ID.String()), slog.Any("error", err))
			failures = append(failures, err)
		}
	}

	logger.Info("completed compliance scan",
		slog.Int("entities", len(entities)),
		slog.Int("alerts", alerts),
		slog.Duration("duration", time.Since(start)),
	)
	return errors.Join(failures...)
}

// period defaults to the month before the job runs.
func (j *ScanJob) period(payload jobs.ComplianceScanPayload) (int, int) {
	if payload.TaxYear > 0 && payload.Month >= 1 && payload.Month <= 12 {
		return payload.TaxYear, payload.Month
	}
	now := j.clock()
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}
