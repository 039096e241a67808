package filing

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ngtax/ngtax/internal/tax"
)

// MemoryStore is an in-process Store for tests and database-less local runs.
type MemoryStore struct {
	mu           sync.RWMutex
	entities     map[uuid.UUID]Entity
	transactions map[uuid.UUID]tax.Transaction
	results      map[uuid.UUID]tax.TransactionResult
	filings      map[uuid.UUID]Filing
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entities:     make(map[uuid.UUID]Entity),
		transactions: make(map[uuid.UUID]tax.Transaction),
		results:      make(map[uuid.UUID]tax.TransactionResult),
		filings:      make(map[uuid.UUID]Filing),
	}
}

// PutEntity inserts or replaces an entity.
func (m *MemoryStore) PutEntity(e Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	m.entities[e.ID] = e
}

func (m *MemoryStore) InsertEntity(_ context.Context, e Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[e.ID]; ok {
		return ErrDuplicateEntity
	}
	m.entities[e.ID] = e
	return nil
}

func (m *MemoryStore) GetEntity(_ context.Context, id uuid.UUID) (Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entities[id]
	if !ok {
		return Entity{}, ErrEntityNotFound
	}
	return e, nil
}

func (m *MemoryStore) ListEntities(context.Context) ([]Entity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entity, 0, len(m.entities))
	for _, e := range m.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, entityID, id uuid.UUID) (tax.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.transactions[id]
	if !ok || tx.EntityID != entityID {
		return tax.Transaction{}, ErrTransactionNotFound
	}
	return tx, nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, entityID uuid.UUID, from, to time.Time) ([]tax.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tax.Transaction
	for _, tx := range m.transactions {
		if tx.EntityID != entityID || tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *MemoryStore) InsertTransaction(_ context.Context, tx tax.Transaction, result tax.TransactionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[tx.EntityID]; !ok {
		return ErrEntityNotFound
	}
	if _, ok := m.transactions[tx.ID]; ok {
		return ErrDuplicateTransaction
	}
	m.transactions[tx.ID] = tx
	m.results[tx.ID] = result
	return nil
}

func (m *MemoryStore) UpdateTransaction(_ context.Context, tx tax.Transaction, result tax.TransactionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.transactions[tx.ID]
	if !ok || existing.EntityID != tx.EntityID {
		return ErrTransactionNotFound
	}
	m.transactions[tx.ID] = tx
	m.results[tx.ID] = result
	return nil
}

// Result returns the stored derivation for a transaction.
func (m *MemoryStore) Result(id uuid.UUID) (tax.TransactionResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.results[id]
	return r, ok
}

func (m *MemoryStore) ListFilings(_ context.Context, entityID uuid.UUID, period Period) ([]Filing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Filing
	for _, f := range m.filings {
		if f.EntityID != entityID || f.TaxYear != period.TaxYear {
			continue
		}
		if period.Month != nil && f.Month != nil && *f.Month != *period.Month {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiledAt.Before(out[j].FiledAt) })
	return out, nil
}

func (m *MemoryStore) InsertFiling(_ context.Context, f Filing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entities[f.EntityID]; !ok {
		return ErrEntityNotFound
	}
	if _, ok := m.filings[f.ID]; ok {
		return ErrDuplicateFiling
	}
	m.filings[f.ID] = f
	return nil
}
