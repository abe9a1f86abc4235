package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/catalog"
	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/notifier"
	"github.com/SiteBossInc/owl-sync/internal/provider"
	"github.com/SiteBossInc/owl-sync/internal/reconcile"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
)

const catalogPageSize = 50

// SyncPipeline runs one tenant's full sync pass: pull the storefront
// catalog, pull the warehouse snapshot, reconcile, publish the report.
type SyncPipeline struct {
	tenantID   string
	storefront provider.Storefront
	warehouse3 provider.Warehouse3PL
	catalog    *catalog.Store
	mirror     *warehouse.Mirror
	reconciler *reconcile.Reconciler
	reports    *reconcile.ReportStore
	logger     *zap.Logger

	mu       sync.Mutex
	lastSync time.Time
	now      func() time.Time

	webhooks          domain.WebhookSettings
	lowStockThreshold int
}

// NewSyncPipeline wires a pipeline for a single tenant.
func NewSyncPipeline(tenantID string, storefront provider.Storefront, wh provider.Warehouse3PL, cat *catalog.Store, mirror *warehouse.Mirror, reports *reconcile.ReportStore, logger *zap.Logger) *SyncPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncPipeline{
		tenantID:   tenantID,
		storefront: storefront,
		warehouse3: wh,
		catalog:    cat,
		mirror:     mirror,
		reconciler: reconcile.NewReconciler(tenantID, mirror, logger),
		reports:    reports,
		logger:     logger,
		now:        time.Now,
	}
}

// SetWebhookSettings enables low-stock alerts using the tenant's
// notification toggles.
func (p *SyncPipeline) SetWebhookSettings(webhooks domain.WebhookSettings, lowStockThreshold int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.webhooks = webhooks
	p.lowStockThreshold = lowStockThreshold
}

// RunOnce executes a single sync pass. A transport failure on either
// side aborts the pass without publishing, so the last good report
// stays current.
func (p *SyncPipeline) RunOnce(ctx context.Context) error {
	start := p.now()

	if err := p.pullCatalog(ctx); err != nil {
		p.logger.Warn("Sync pass aborted: catalog pull failed",
			zap.String("tenant_id", p.tenantID), zap.Error(err))
		return err
	}

	records, err := p.warehouse3.FetchInventory(ctx)
	if err != nil {
		p.logger.Warn("Sync pass aborted: inventory fetch failed",
			zap.String("tenant_id", p.tenantID), zap.Error(err))
		return err
	}
	prevStatus := p.stockStatuses()
	if err := p.mirror.ApplySnapshot(records); err != nil {
		// validation errors mean some records were excluded; the
		// snapshot itself still applied
		p.logger.Warn("Inventory snapshot applied with exclusions",
			zap.String("tenant_id", p.tenantID), zap.Error(err))
	}

	report, err := p.reconciler.Run(ctx, p.catalog.ListSKUs())
	if err != nil {
		p.logger.Warn("Sync pass aborted: reconciliation failed",
			zap.String("tenant_id", p.tenantID), zap.Error(err))
		return err
	}
	p.reports.Publish(report)
	p.mu.Lock()
	p.lastSync = p.now()
	p.mu.Unlock()

	p.alertNewlyLowStock(prevStatus)

	p.logger.Info("Sync pass complete",
		zap.String("tenant_id", p.tenantID),
		zap.Int("catalog_skus", p.catalog.Len()),
		zap.Int("warehouse_records", len(records)),
		zap.Int("valid", len(report.ValidSKUs)),
		zap.Int("invalid", len(report.InvalidSKUs)),
		zap.Duration("took", p.now().Sub(start)))
	return nil
}

// pullCatalog walks the storefront cursor pages and upserts every
// variant into the snapshot store.
func (p *SyncPipeline) pullCatalog(ctx context.Context) error {
	cursor := ""
	for {
		page, err := p.storefront.ListVariants(ctx, cursor, catalogPageSize)
		if err != nil {
			return fmt.Errorf("storefront page fetch: %w", err)
		}
		if len(page.Items) > 0 {
			if err := p.catalog.UpsertVariants(page.Items); err != nil {
				p.logger.Warn("Catalog upsert skipped invalid variants",
					zap.String("tenant_id", p.tenantID), zap.Error(err))
			}
		}
		if !page.HasNext || page.NextCursor == "" {
			return nil
		}
		cursor = page.NextCursor
	}
}

func (p *SyncPipeline) stockStatuses() map[string]domain.StockStatus {
	p.mu.Lock()
	threshold := p.lowStockThreshold
	p.mu.Unlock()

	statuses := make(map[string]domain.StockStatus)
	for _, r := range p.mirror.List() {
		statuses[r.SKU] = r.Status(threshold)
	}
	return statuses
}

// alertNewlyLowStock fires a low-stock webhook for SKUs that dropped
// out of in_stock during this pass. Fire-and-forget.
func (p *SyncPipeline) alertNewlyLowStock(prev map[string]domain.StockStatus) {
	p.mu.Lock()
	webhooks := p.webhooks
	threshold := p.lowStockThreshold
	p.mu.Unlock()

	if !webhooks.Enabled || !webhooks.InventoryUpdates {
		return
	}
	for _, r := range p.mirror.List() {
		status := r.Status(threshold)
		if status == domain.StockStatusInStock {
			continue
		}
		if was, known := prev[r.SKU]; known && was != domain.StockStatusInStock {
			continue
		}
		rec := r
		go notifier.NotifyLowStock(webhooks, rec, threshold, p.logger)
	}
}

// LastSync reports when the last successful pass finished. Zero time
// means no pass has completed yet.
func (p *SyncPipeline) LastSync() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSync
}
