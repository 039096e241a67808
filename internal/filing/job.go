package filing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/ngtax/ngtax/internal/jobs"
	"github.com/ngtax/ngtax/internal/platform/httpx"
	"github.com/ngtax/ngtax/jobs"
)

// DocumentJobConfig wires dependencies required by the worker job.
type DocumentJobConfig struct {
	Service    *Service
	Renderer   *DocumentRenderer
	StorageDir string
	Metrics    *jobmetrics.Metrics
	Logger     *slog.Logger
}

// DocumentJob renders queued filing documents to PDF files.
type DocumentJob struct {
	service    *Service
	renderer   *DocumentRenderer
	storageDir string
	metrics    *jobmetrics.Metrics
	logger     *slog.Logger
}

// NewDocumentJob constructs a job handler.
func NewDocumentJob(cfg DocumentJobConfig) *DocumentJob {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentJob{
		service:    cfg.Service,
		renderer:   cfg.Renderer,
		storageDir: cfg.StorageDir,
		metrics:    cfg.Metrics,
		logger:     logger.With(slog.String("job", jobs.TaskFilingDocument)),
	}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *DocumentJob) Handle(ctx context.Context, task *asynq.Task) (err error) {
	if j == nil || j.service == nil || j.renderer == nil {
		return fmt.Errorf("filing document job not configured")
	}
	var payload jobs.FilingDocumentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	entityID, err := uuid.Parse(payload.EntityID)
	if err != nil {
		return asynq.SkipRetry
	}
	kind, err := ParseDocumentKind(payload.Document)
	if err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics.Track(jobs.TaskFilingDocument)
	defer func() {
		err = tracker.End(err)
	}()

	doc, err := j.service.BuildDocument(ctx, entityID, kind, payload.TaxYear, payload.Month)
	if err != nil {
		j.logger.Error("build document", slog.String("entity_id", payload.EntityID), slog.Any("error", err))
		if errors.Is(err, httpx.ErrValidation) || errors.Is(err, httpx.ErrNotFound) {
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		return err
	}
	pdf, err := j.renderer.Render(ctx, doc)
	if err != nil {
		j.logger.Error("render document", slog.String("entity_id", payload.EntityID), slog.Any("error", err))
		return err
	}
	path, err := j.save(entityID, doc.FileName(), pdf)
	if err != nil {
		return err
	}
	j.metrics.DocumentRendered(string(kind))
	j.logger.Info("filing document ready",
		slog.String("entity_id", payload.EntityID),
		slog.String("document", string(kind)),
		slog.String("file", path),
	)
	return nil
}

func (j *DocumentJob) save(entityID uuid.UUID, name string, pdf []byte) (string, error) {
	dir := j.storageDir
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "ngtax-documents")
	}
	dir = filepath.Join(dir, entityID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
