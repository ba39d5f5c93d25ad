// Package store is the persistence gateway over a row store of coin snapshots.
package store

import (
	"context"
	"sort"
	"sync"

	"cryptoverde-api/pkg/market"
)

// Store is the datastore contract. Upsert is keyed by coin id and must apply
// the whole batch or none of it. SelectAll returns rows newest first.
type Store interface {
	Upsert(ctx context.Context, coins []market.Coin) error
	SelectAll(ctx context.Context) ([]market.Coin, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]market.Coin
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]market.Coin)}
}

// Upsert implements Store.
func (m *MemoryStore) Upsert(ctx context.Context, coins []market.Coin) error {
	if err := ctx.Err(); err != nil {
		return market.NewError(market.ErrPersistence, "store: upsert", "", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range coins {
		m.rows[c.ID] = c
	}
	return nil
}

// SelectAll implements Store.
func (m *MemoryStore) SelectAll(ctx context.Context) ([]market.Coin, error) {
	if err := ctx.Err(); err != nil {
		return nil, market.NewError(market.ErrPersistence, "store: select all", "", err)
	}
	m.mu.RLock()
	out := make([]market.Coin, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	m.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ExtractedAt.Equal(out[j].ExtractedAt) {
			return out[i].ExtractedAt.After(out[j].ExtractedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
