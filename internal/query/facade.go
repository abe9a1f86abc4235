// Package query is the read-only aggregation layer consumed by the
// presentation surface. Pure derivations over the other components'
// current state; no storage of its own.
package query

import (
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/reconcile"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// SyncState reports when the engine last completed a pass.
type SyncState interface {
	LastSync() time.Time
}

// Facade aggregates engine state for read-only queries.
type Facade struct {
	tenantID          string
	reports           *reconcile.ReportStore
	mirror            *warehouse.Mirror
	engine            *orders.Engine
	sync              SyncState
	lowStockThreshold int
	logger            *zap.Logger
	now               func() time.Time
}

// NewFacade builds the query layer over the live engine components.
func NewFacade(tenantID string, reports *reconcile.ReportStore, mirror *warehouse.Mirror, engine *orders.Engine, sync SyncState, lowStockThreshold int, logger *zap.Logger) *Facade {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Facade{
		tenantID:          tenantID,
		reports:           reports,
		mirror:            mirror,
		engine:            engine,
		sync:              sync,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
		now:               time.Now,
	}
}

// SKUReport is the last successfully published validation report. The
// checked_at timestamp tells the caller how stale it is; a pass in
// flight or failed never blanks this out.
type SKUReport struct {
	TenantID    string                 `json:"tenant_id"`
	ValidSKUs   []string               `json:"valid_skus"`
	InvalidSKUs []domain.SKUValidation `json:"invalid_skus"`
	SuccessRate int                    `json:"success_rate"`
	CheckedAt   time.Time              `json:"checked_at"`
}

// SKUReport returns the current validation report, or NotFound when no
// pass has ever published one.
func (f *Facade) SKUReport() (*SKUReport, error) {
	report, ok := f.reports.Current()
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "validation report", ID: f.tenantID}
	}
	return &SKUReport{
		TenantID:    f.tenantID,
		ValidSKUs:   report.ValidSKUs,
		InvalidSKUs: report.InvalidSKUs,
		SuccessRate: report.SuccessRate(),
		CheckedAt:   report.GeneratedAt,
	}, nil
}

// InventoryItem is one mirror record decorated with its stock badge.
type InventoryItem struct {
	SKU          string             `json:"sku"`
	Title        string             `json:"title"`
	OnHand       int                `json:"on_hand"`
	Reserved     int                `json:"reserved"`
	Available    int                `json:"available"`
	Location     string             `json:"location"`
	Status       domain.StockStatus `json:"status"`
	Discontinued bool               `json:"discontinued,omitempty"`
	LastUpdated  time.Time          `json:"last_updated"`
}

// InventoryListing lists the full warehouse mirror with stock badges.
func (f *Facade) InventoryListing() []InventoryItem {
	records := f.mirror.List()
	items := make([]InventoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, f.inventoryItem(r))
	}
	return items
}

// InventoryItem looks up a single SKU. Misses map to NotFound.
func (f *Facade) InventoryItem(sku string) (*InventoryItem, error) {
	r, err := f.mirror.Get(sku)
	if err != nil {
		return nil, err
	}
	item := f.inventoryItem(r)
	return &item, nil
}

func (f *Facade) inventoryItem(r domain.SKURecord) InventoryItem {
	return InventoryItem{
		SKU:          r.SKU,
		Title:        r.Title,
		OnHand:       r.OnHand,
		Reserved:     r.Reserved,
		Available:    r.Available(),
		Location:     r.Location,
		Status:       r.Status(f.lowStockThreshold),
		Discontinued: r.Discontinued,
		LastUpdated:  r.LastUpdated,
	}
}

// Dashboard is the counter block shown on the integration home screen.
type Dashboard struct {
	TenantID       string     `json:"tenant_id"`
	OrdersToday    int        `json:"orders_today"`
	TotalOrders    int        `json:"total_orders"`
	SKUSuccessRate int        `json:"sku_success_rate"`
	ValidSKUs      int        `json:"valid_skus"`
	InvalidSKUs    int        `json:"invalid_skus"`
	LastSync       *time.Time `json:"last_sync,omitempty"`
	Connected      bool       `json:"connected"`
}

// Dashboard derives the counters from current engine state. Before the
// first completed pass the rates read as zero and connected is false.
func (f *Facade) Dashboard() *Dashboard {
	d := &Dashboard{
		TenantID:    f.tenantID,
		OrdersToday: f.engine.OrdersToday(f.now()),
		TotalOrders: f.engine.TotalOrders(),
	}
	if report, ok := f.reports.Current(); ok {
		d.SKUSuccessRate = report.SuccessRate()
		d.ValidSKUs = len(report.ValidSKUs)
		d.InvalidSKUs = len(report.InvalidSKUs)
	}
	if last := f.sync.LastSync(); !last.IsZero() {
		d.LastSync = &last
		d.Connected = true
	}
	return d
}
