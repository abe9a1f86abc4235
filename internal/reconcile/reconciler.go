// Package reconcile classifies every catalog SKU against the warehouse
// mirror and publishes the authoritative valid/invalid partition consumed by
// the order sync engine and the query facade.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// Source is the reconciler's view of the warehouse inventory. The in-memory
// mirror implements it directly; transport-backed sources may fail per-SKU,
// which classifies that SKU as fetch_error without poisoning the batch.
type Source interface {
	Lookup(sku string) (domain.SKURecord, bool, error)
	Synced() bool
	KnownSKUs() []string
}

// Reconciler produces full replacement validation reports.
type Reconciler struct {
	tenantID string
	source   Source
	logger   *zap.Logger
	now      func() time.Time
}

// NewReconciler creates a reconciler for one tenant
func NewReconciler(tenantID string, source Source, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		tenantID: tenantID,
		source:   source,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one reconciliation pass over the given catalog SKUs and
// returns a fresh, sealed report. Classification is independent per SKU; a
// single lookup failure becomes a fetch_error entry rather than an aborted
// pass. Exceeding the context deadline aborts the pass without a report so
// the scheduler can retry it wholesale.
func (r *Reconciler) Run(ctx context.Context, catalogSKUs []string) (*domain.ValidationReport, error) {
	report := &domain.ValidationReport{
		TenantID:    r.tenantID,
		GeneratedAt: r.now(),
	}
	synced := r.source.Synced()
	known := r.source.KnownSKUs()

	for _, sku := range catalogSKUs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		checked := r.now()

		rec, found, err := r.source.Lookup(sku)
		switch {
		case err != nil:
			r.logger.Warn("SKU lookup failed during reconciliation",
				zap.String("sku", sku), zap.Error(err))
			report.InvalidSKUs = append(report.InvalidSKUs, domain.SKUValidation{
				SKU:         sku,
				Reason:      domain.ReasonFetchError,
				LastChecked: checked,
			})
		case !found && !synced:
			report.InvalidSKUs = append(report.InvalidSKUs, domain.SKUValidation{
				SKU:                   sku,
				Reason:                domain.ReasonNotSyncedWithWarehouse,
				SuggestedAlternatives: suggestAlternatives(sku, known),
				LastChecked:           checked,
			})
		case !found:
			report.InvalidSKUs = append(report.InvalidSKUs, domain.SKUValidation{
				SKU:                   sku,
				Reason:                domain.ReasonNotFoundInWarehouse,
				SuggestedAlternatives: suggestAlternatives(sku, known),
				LastChecked:           checked,
			})
		case rec.MappingRequired:
			report.InvalidSKUs = append(report.InvalidSKUs, domain.SKUValidation{
				SKU:                   sku,
				Reason:                domain.ReasonMappingRequired,
				SuggestedAlternatives: suggestAlternatives(sku, known),
				LastChecked:           checked,
			})
		case rec.Discontinued:
			report.InvalidSKUs = append(report.InvalidSKUs, domain.SKUValidation{
				SKU:                   sku,
				Reason:                domain.ReasonDiscontinued,
				SuggestedAlternatives: suggestAlternatives(sku, known),
				LastChecked:           checked,
			})
		case rec.Available() <= 0:
			report.InvalidSKUs = append(report.InvalidSKUs, domain.SKUValidation{
				SKU:                   sku,
				Reason:                domain.ReasonOutOfStock,
				SuggestedAlternatives: suggestAlternatives(sku, known),
				LastChecked:           checked,
			})
		default:
			report.ValidSKUs = append(report.ValidSKUs, sku)
		}
	}

	report.Seal()
	r.logger.Info("Reconciliation pass complete",
		zap.String("tenant_id", r.tenantID),
		zap.Int("valid", len(report.ValidSKUs)),
		zap.Int("invalid", len(report.InvalidSKUs)),
	)
	return report, nil
}
