package reconcile

import (
	"sync"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// ReportStore publishes validation reports atomically. Readers always get the
// last successfully published complete report, even while a new pass is in
// flight or has failed; they never observe a partially-updated one. The prior
// report is retained for delta reporting only.
type ReportStore struct {
	mu       sync.RWMutex
	current  *domain.ValidationReport
	previous *domain.ValidationReport
}

// NewReportStore creates an empty report store
func NewReportStore() *ReportStore {
	return &ReportStore{}
}

// Publish swaps in a complete report as a single atomic unit.
func (s *ReportStore) Publish(report *domain.ValidationReport) {
	s.mu.Lock()
	s.previous = s.current
	s.current = report
	s.mu.Unlock()
}

// Current returns the last published report, or false if no pass has
// completed yet.
func (s *ReportStore) Current() (*domain.ValidationReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Delta lists SKUs whose validity flipped between the previous and current
// reports.
type Delta struct {
	NewlyValid   []string
	NewlyInvalid []string
}

// Delta compares the current report against the retained previous one.
func (s *ReportStore) Delta() Delta {
	s.mu.RLock()
	curr, prev := s.current, s.previous
	s.mu.RUnlock()

	var d Delta
	if curr == nil {
		return d
	}
	for _, sku := range curr.ValidSKUs {
		if prev != nil && !prev.IsValidSKU(sku) {
			d.NewlyValid = append(d.NewlyValid, sku)
		}
	}
	for _, inv := range curr.InvalidSKUs {
		if prev == nil || prev.IsValidSKU(inv.SKU) {
			d.NewlyInvalid = append(d.NewlyInvalid, inv.SKU)
		}
	}
	return d
}
