// Package warehouse holds the 3PL's last reported stock per SKU.
package warehouse

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// Mirror is the warehouse inventory mirror for one tenant. Mutated only by
// ApplySnapshot/UpdateRecord; reconciler and query facade only read it.
type Mirror struct {
	mu      sync.RWMutex
	records map[string]domain.SKURecord
	order   []string
	synced  bool // true once an initial full sync has completed
	logger  *zap.Logger
}

// NewMirror creates an empty warehouse mirror
func NewMirror(logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mirror{
		records: make(map[string]domain.SKURecord),
		logger:  logger,
	}
}

// ApplySnapshot replaces the mirror wholesale and marks the initial full sync
// complete. Records violating available >= 0 are excluded and reported as an
// ErrValidation; the rest of the snapshot still applies.
func (m *Mirror) ApplySnapshot(records []domain.SKURecord) error {
	fresh := make(map[string]domain.SKURecord, len(records))
	order := make([]string, 0, len(records))
	var skipped []string
	for _, rec := range records {
		sku := strings.TrimSpace(rec.SKU)
		if sku == "" || rec.Available() < 0 {
			skipped = append(skipped, rec.SKU)
			continue
		}
		rec.SKU = sku
		if _, dup := fresh[sku]; !dup {
			order = append(order, sku)
		}
		fresh[sku] = rec
	}

	m.mu.Lock()
	m.records = fresh
	m.order = order
	m.synced = true
	m.mu.Unlock()

	if len(skipped) > 0 {
		m.logger.Warn("Inventory snapshot excluded invalid records", zap.Strings("skus", skipped))
		return &errors.ErrValidation{
			Message: fmt.Sprintf("%d inventory record(s) excluded: empty SKU or reserved exceeds on-hand", len(skipped)),
		}
	}
	return nil
}

// UpdateRecord applies an incremental on-hand adjustment for one SKU.
// Unknown SKUs fail with ErrNotFound; adjustments that would take available
// below zero fail with ErrValidation and leave the record untouched.
func (m *Mirror) UpdateRecord(sku string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sku]
	if !ok {
		return &errors.ErrNotFound{Resource: "sku", ID: sku}
	}
	updated := rec
	updated.OnHand += delta
	if updated.Available() < 0 {
		return &errors.ErrValidation{
			Message: fmt.Sprintf("adjustment of %d would make sku %s availability negative", delta, sku),
		}
	}
	m.records[sku] = updated
	return nil
}

// Get returns the record for an SKU or ErrNotFound.
func (m *Mirror) Get(sku string) (domain.SKURecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[sku]
	if !ok {
		return domain.SKURecord{}, &errors.ErrNotFound{Resource: "sku", ID: sku}
	}
	return rec, nil
}

// Lookup is the reconciler-facing read: (record, found, error). The in-memory
// mirror never fails a lookup; transport-backed sources can.
func (m *Mirror) Lookup(sku string) (domain.SKURecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[sku]
	return rec, ok, nil
}

// Synced reports whether an initial full sync has completed for this tenant.
// Distinguishes "looked and it's missing" from "haven't looked yet".
func (m *Mirror) Synced() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.synced
}

// KnownSKUs returns every SKU in the mirror in snapshot order.
func (m *Mirror) KnownSKUs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// List returns all records in snapshot order.
func (m *Mirror) List() []domain.SKURecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.SKURecord, 0, len(m.order))
	for _, sku := range m.order {
		out = append(out, m.records[sku])
	}
	return out
}
