package repositories

import (
	"context"
	"delivery-eta-service/internal/domain"
	"delivery-eta-service/internal/ports"
	"fmt"
	"slices"
	"sync"
)

// In-memory RuleStore used by tests and local demos.
// LoadShop returns copies, so callers cannot mutate stored records.
type MemoryRuleStore struct {
	mu    sync.RWMutex
	shops map[string]ports.ShopRecords
	loads int
}

func NewMemoryRuleStore(shops ...ports.ShopRecords) *MemoryRuleStore {
	m := &MemoryRuleStore{shops: make(map[string]ports.ShopRecords, len(shops))}
	for _, s := range shops {
		m.shops[domain.NormalizeShop(s.Shop)] = s
	}
	return m
}

func (m *MemoryRuleStore) Put(rec ports.ShopRecords) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shops[domain.NormalizeShop(rec.Shop)] = rec
}

func (m *MemoryRuleStore) LoadShop(ctx context.Context, shop string) (ports.ShopRecords, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loads++
	rec, ok := m.shops[domain.NormalizeShop(shop)]
	if !ok {
		return ports.ShopRecords{}, fmt.Errorf("memory rule store: shop %q: %w", shop, domain.ErrShopNotFound)
	}

	rec.Rules = slices.Clone(rec.Rules)
	rec.Holidays = slices.Clone(rec.Holidays)
	return rec, nil
}

// Loads returns how many times LoadShop was called.
func (m *MemoryRuleStore) Loads() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loads
}
