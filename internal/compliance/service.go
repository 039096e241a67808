package compliance

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ngtax/ngtax/internal/filing"
)

// ResultStore persists scored results.
type ResultStore interface {
	Save(ctx context.Context, result Result) error
	History(ctx context.Context, entityID uuid.UUID, limit int) ([]Result, error)
}

// Service scores entities against the checklist.
type Service struct {
	filings *filing.Service
	rates   filing.RateLoader
	results ResultStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds the service. results may be nil when history is not kept.
func NewService(filings *filing.Service, rates filing.RateLoader, results ResultStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		filings: filings,
		rates:   rates,
		results: results,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate aggregates the period, loads filings and scores the entity.
func (s *Service) Evaluate(ctx context.Context, entityID uuid.UUID, year int, month *int) (Result, error) {
	entity, err := s.filings.Entity(ctx, entityID)
	if err != nil {
		return Result{}, err
	}
	summary, err := s.filings.Summarise(ctx, entityID, year, month)
	if err != nil {
		return Result{}, err
	}
	annual := summary
	if month != nil {
		if annual, err = s.filings.Summarise(ctx, entityID, year, nil); err != nil {
			return Result{}, err
		}
	}
	tables, err := s.rates.Load(ctx, summary.TaxYear)
	if err != nil {
		return Result{}, err
	}
	records, err := s.filings.Filings(ctx, entityID, summary.Period())
	if err != nil {
		return Result{}, err
	}
	result := NewScorer(tables).Score(summary, Filings{
		TIN:            entity.TIN,
		VATRegistered:  entity.VATRegistered,
		AnnualTurnover: annual.TotalTurnover,
		Records:        records,
	})
	result.EvaluatedAt = s.now()
	return result, nil
}

// Record stores a result when a result store is configured.
func (s *Service) Record(ctx context.Context, result Result) error {
	if s.results == nil {
		return nil
	}
	return s.results.Save(ctx, result)
}

// History lists stored results for an entity.
func (s *Service) History(ctx context.Context, entityID uuid.UUID, limit int) ([]Result, error) {
	if s.results == nil {
		return []Result{}, nil
	}
	if _, err := s.filings.Entity(ctx, entityID); err != nil {
		return nil, err
	}
	return s.results.History(ctx, entityID, limit)
}

// Entities lists every entity a scan should cover.
func (s *Service) Entities(ctx context.Context) ([]filing.Entity, error) {
	return s.filings.Entities(ctx)
}
