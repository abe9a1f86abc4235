// Package catalog holds the latest known set of (sku -> product/variant
// metadata) pulled from the merchant's storefront.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// Store is the catalog snapshot for one tenant. Mutated only by
// UpsertVariants; the reconciler and sync engine only read it.
type Store struct {
	mu       sync.RWMutex
	variants map[string]domain.CatalogVariant
	order    []string // SKUs in insertion order of last successful upsert
	logger   *zap.Logger
}

// NewStore creates an empty catalog snapshot store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		variants: make(map[string]domain.CatalogVariant),
		logger:   logger,
	}
}

// UpsertVariants applies a catalog snapshot batch. Idempotent: re-applying
// the same snapshot yields no observable change. Items with empty or
// whitespace-only SKUs are excluded from the snapshot while the rest of the
// batch still applies; their presence is reported as an ErrValidation.
func (s *Store) UpsertVariants(items []domain.CatalogVariant) error {
	var skipped int
	s.mu.Lock()
	for _, item := range items {
		sku := strings.TrimSpace(item.SKU)
		if sku == "" {
			skipped++
			continue
		}
		item.SKU = sku
		if _, known := s.variants[sku]; !known {
			s.order = append(s.order, sku)
		}
		s.variants[sku] = item
	}
	s.mu.Unlock()

	if skipped > 0 {
		s.logger.Warn("Catalog upsert skipped items with blank SKUs", zap.Int("skipped", skipped))
		return &errors.ErrValidation{
			Message: fmt.Sprintf("%d catalog item(s) with empty SKU excluded from snapshot", skipped),
			Fields:  map[string]string{"sku": "must not be empty or whitespace-only"},
		}
	}
	return nil
}

// ListSKUs returns all catalog SKUs in insertion order.
func (s *Store) ListSKUs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the variant metadata for an SKU.
func (s *Store) Get(sku string) (domain.CatalogVariant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variants[sku]
	return v, ok
}

// Len returns the number of SKUs in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.variants)
}
