package repo

import (
	"context"
	"sync"
	"time"

	"dealpipe/internal/deal"
	"dealpipe/internal/env"
)

// Memory is the in-memory reference implementation of Repository. It is a
// pure cache: SaveChanges is a no-op. Used as the test double for everything
// above the store.
type Memory struct {
	mu    sync.RWMutex
	env   env.Env
	deals []deal.Deal
}

// static check
var _ Repository = (*Memory)(nil)

// NewMemory returns an empty in-memory repository using the given
// environment for normalization.
func NewMemory(e env.Env) *Memory {
	return &Memory{env: e}
}

// GetAll implements Repository.
func (m *Memory) GetAll(_ context.Context) ([]deal.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return cloneAll(m.deals), nil
}

// GetByID implements Repository.
func (m *Memory) GetByID(_ context.Context, id string) (*deal.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.deals {
		if m.deals[i].SameID(id) {
			clone := m.deals[i].Clone()

			return &clone, nil
		}
	}

	return nil, nil //nolint:nilnil // absence is not an error
}

// Query implements Repository.
func (m *Memory) Query(_ context.Context, f Filter, ref time.Time) ([]deal.Deal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []deal.Deal

	for i := range m.deals {
		if f.Matches(&m.deals[i], ref) {
			out = append(out, m.deals[i].Clone())
		}
	}

	return out, nil
}

// Upsert implements Repository.
func (m *Memory) Upsert(_ context.Context, d deal.Deal) (deal.Deal, []deal.Change, error) {
	record := d.Clone()
	changes := deal.Normalize(&record, m.env)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.deals = upsertRecord(m.deals, record)

	return record.Clone(), changes, nil
}

// UpsertMany implements Repository.
func (m *Memory) UpsertMany(ctx context.Context, ds []deal.Deal) ([]deal.Deal, error) {
	out := make([]deal.Deal, 0, len(ds))

	for _, d := range ds {
		stored, _, err := m.Upsert(ctx, d)
		if err != nil {
			return nil, err
		}

		out = append(out, stored)
	}

	return out, nil
}

// Delete implements Repository.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deals = deleteRecord(m.deals, id)

	return nil
}

// SaveChanges implements Repository. In-memory state has nothing to persist.
func (m *Memory) SaveChanges(_ context.Context) error {
	return nil
}

// cloneAll copies a record slice deeply.
func cloneAll(deals []deal.Deal) []deal.Deal {
	out := make([]deal.Deal, 0, len(deals))
	for i := range deals {
		out = append(out, deals[i].Clone())
	}

	return out
}

// upsertRecord replaces the record matching d's identifier or appends.
func upsertRecord(deals []deal.Deal, d deal.Deal) []deal.Deal {
	for i := range deals {
		if deals[i].SameID(d.ID) {
			deals[i] = d

			return deals
		}
	}

	return append(deals, d)
}

// deleteRecord removes the record with the given identifier, if present.
func deleteRecord(deals []deal.Deal, id string) []deal.Deal {
	for i := range deals {
		if deals[i].SameID(id) {
			return append(deals[:i], deals[i+1:]...)
		}
	}

	return deals
}
