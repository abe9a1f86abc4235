package provider

import (
	"context"
	"sync"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// FakeStorefront serves pre-seeded catalog pages. Deterministic replacement
// for randomized delay simulation in tests.
type FakeStorefront struct {
	mu    sync.Mutex
	Pages []CatalogPage
	Err   error
	Calls int
}

func (f *FakeStorefront) ListVariants(ctx context.Context, cursor string, limit int) (CatalogPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return CatalogPage{}, err
	}
	if f.Err != nil {
		return CatalogPage{}, f.Err
	}
	idx := f.Calls
	f.Calls++
	if idx >= len(f.Pages) {
		return CatalogPage{}, nil
	}
	page := f.Pages[idx]
	page.HasNext = idx < len(f.Pages)-1
	return page, nil
}

// FakeWarehouse serves a pre-seeded inventory snapshot and records submitted
// orders.
type FakeWarehouse struct {
	mu        sync.Mutex
	Records   []domain.SKURecord
	Err       error
	Submitted []*domain.Order
	ValidKeys map[string]string // tenant id -> api key
}

func (f *FakeWarehouse) FetchInventory(ctx context.Context) ([]domain.SKURecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]domain.SKURecord, len(f.Records))
	copy(out, f.Records)
	return out, nil
}

func (f *FakeWarehouse) SubmitOrder(ctx context.Context, order *domain.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Submitted = append(f.Submitted, order)
	return nil
}

// SubmittedOrders returns a snapshot of the orders received via SubmitOrder.
func (f *FakeWarehouse) SubmittedOrders() []*domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*domain.Order(nil), f.Submitted...)
}

func (f *FakeWarehouse) ValidateCredentials(ctx context.Context, tenantID, apiKey string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return false, f.Err
	}
	key, ok := f.ValidKeys[tenantID]
	return ok && key == apiKey, nil
}
