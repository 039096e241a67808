package filing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ngtax/ngtax/internal/tax"
)

// Store is the storage collaborator for entities, transactions and filings.
type Store interface {
	InsertEntity(ctx context.Context, entity Entity) error
	GetEntity(ctx context.Context, id uuid.UUID) (Entity, error)
	ListEntities(ctx context.Context) ([]Entity, error)
	GetTransaction(ctx context.Context, entityID, id uuid.UUID) (tax.Transaction, error)
	ListTransactions(ctx context.Context, entityID uuid.UUID, from, to time.Time) ([]tax.Transaction, error)
	InsertTransaction(ctx context.Context, tx tax.Transaction, result tax.TransactionResult) error
	UpdateTransaction(ctx context.Context, tx tax.Transaction, result tax.TransactionResult) error
	ListFilings(ctx context.Context, entityID uuid.UUID, period Period) ([]Filing, error)
	InsertFiling(ctx context.Context, filing Filing) error
}

// RateLoader hands out rate table snapshots.
type RateLoader interface {
	Load(ctx context.Context, year tax.TaxYear) (tax.RateTables, error)
}

// Aggregator recomputes period summaries from source transactions.
type Aggregator struct {
	store Store
	rates RateLoader
}

// NewAggregator constructs an aggregator.
func NewAggregator(store Store, rates RateLoader) *Aggregator {
	return &Aggregator{store: store, rates: rates}
}

// Aggregate sums every transaction of the entity dated within the period.
// Results are always recomputed against the year's rate table, never read
// back from stored derivations.
func (a *Aggregator) Aggregate(ctx context.Context, entityID uuid.UUID, year int, month *int) (PeriodSummary, error) {
	period, err := NewPeriod(year, month)
	if err != nil {
		return PeriodSummary{}, err
	}
	tables, err := a.rates.Load(ctx, period.TaxYear)
	if err != nil {
		return PeriodSummary{}, err
	}
	from, to := period.Bounds()
	txs, err := a.store.ListTransactions(ctx, entityID, from, to)
	if err != nil {
		return PeriodSummary{}, err
	}
	summary := newSummary(entityID, period)
	for _, tx := range txs {
		result, err := tax.ComputeTransaction(tx, tables)
		if err != nil {
			return PeriodSummary{}, fmt.Errorf("filing: transaction %s: %w", tx.ID, err)
		}
		summary.add(tx, result)
	}
	return summary, nil
}

// Service coordinates transaction recording, amendment and aggregation.
type Service struct {
	store      Store
	rates      RateLoader
	aggregator *Aggregator
	logger     *slog.Logger
	now        func() time.Time
}

// NewService builds the service.
func NewService(store Store, rates RateLoader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		rates:      rates,
		aggregator: NewAggregator(store, rates),
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Entity loads a taxpayer entity.
func (s *Service) Entity(ctx context.Context, id uuid.UUID) (Entity, error) {
	return s.store.GetEntity(ctx, id)
}

// RegisterEntity validates and stores a new taxpayer.
func (s *Service) RegisterEntity(ctx context.Context, e Entity) (Entity, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return Entity{}, tax.Invalid("name", tax.ErrRequired, "")
	}
	class, err := tax.ParseTaxpayerClass(string(e.TaxpayerClass))
	if err != nil {
		return Entity{}, err
	}
	e.TaxpayerClass = class
	e.TIN = strings.TrimSpace(e.TIN)
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if err := s.store.InsertEntity(ctx, e); err != nil {
		return Entity{}, err
	}
	s.logger.Info("entity registered",
		slog.String("entity_id", e.ID.String()),
		slog.String("taxpayer_class", string(e.TaxpayerClass)),
	)
	return e, nil
}

// Entities lists every taxpayer entity.
func (s *Service) Entities(ctx context.Context) ([]Entity, error) {
	return s.store.ListEntities(ctx)
}

// Record validates a new transaction, derives its results and stores both.
func (s *Service) Record(ctx context.Context, tx tax.Transaction) (tax.Transaction, tax.TransactionResult, error) {
	entity, err := s.store.GetEntity(ctx, tx.EntityID)
	if err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	tx.AmendedAt = nil
	tx, result, err := s.compute(ctx, entity, tx)
	if err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	if err := s.store.InsertTransaction(ctx, tx, result); err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	s.logger.Info("transaction recorded",
		slog.String("entity_id", tx.EntityID.String()),
		slog.String("transaction_id", tx.ID.String()),
		slog.String("kind", string(tx.Kind)),
	)
	return tx, result, nil
}

// Amend replaces a stored transaction and recalculates its results. It is the
// only path by which derived figures change after recording.
func (s *Service) Amend(ctx context.Context, tx tax.Transaction) (tax.Transaction, tax.TransactionResult, error) {
	entity, err := s.store.GetEntity(ctx, tx.EntityID)
	if err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	if _, err := s.store.GetTransaction(ctx, tx.EntityID, tx.ID); err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	amendedAt := s.now()
	tx.AmendedAt = &amendedAt
	tx, result, err := s.compute(ctx, entity, tx)
	if err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	if err := s.store.UpdateTransaction(ctx, tx, result); err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	s.logger.Info("transaction amended",
		slog.String("entity_id", tx.EntityID.String()),
		slog.String("transaction_id", tx.ID.String()),
	)
	return tx, result, nil
}

// Summarise returns the period summary for an entity.
func (s *Service) Summarise(ctx context.Context, entityID uuid.UUID, year int, month *int) (PeriodSummary, error) {
	if _, err := s.store.GetEntity(ctx, entityID); err != nil {
		return PeriodSummary{}, err
	}
	return s.aggregator.Aggregate(ctx, entityID, year, month)
}

// Filings lists filings recorded for the period.
func (s *Service) Filings(ctx context.Context, entityID uuid.UUID, period Period) ([]Filing, error) {
	return s.store.ListFilings(ctx, entityID, period)
}

// RecordFiling stores a submitted return, defaulting its due date to the
// statutory deadline.
func (s *Service) RecordFiling(ctx context.Context, f Filing) (Filing, error) {
	if _, err := s.store.GetEntity(ctx, f.EntityID); err != nil {
		return Filing{}, err
	}
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.FiledAt.IsZero() {
		f.FiledAt = s.now()
	}
	if err := f.Validate(); err != nil {
		return Filing{}, err
	}
	if f.DueAt.IsZero() {
		f.DueAt = DueDate(f.TaxType, Period{TaxYear: f.TaxYear, Month: f.Month})
	}
	if err := s.store.InsertFiling(ctx, f); err != nil {
		return Filing{}, err
	}
	if f.Late() {
		s.logger.Warn("late filing recorded",
			slog.String("entity_id", f.EntityID.String()),
			slog.String("tax_type", string(f.TaxType)),
			slog.Time("due_at", f.DueAt),
		)
	}
	return f, nil
}

func (s *Service) compute(ctx context.Context, entity Entity, tx tax.Transaction) (tax.Transaction, tax.TransactionResult, error) {
	if tx.TaxpayerClass == "" {
		tx.TaxpayerClass = entity.TaxpayerClass
	}
	if tx.TaxYear == 0 && !tx.Date.IsZero() {
		tx.TaxYear = tax.TaxYear(tx.Date.Year())
	}
	if err := tx.Validate(); err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	tables, err := s.rates.Load(ctx, tx.TaxYear)
	if err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	result, err := tax.ComputeTransaction(tx, tables)
	if err != nil {
		return tax.Transaction{}, tax.TransactionResult{}, err
	}
	return tx, result, nil
}
