package query

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/reconcile"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

type fixedSync struct{ last time.Time }

func (f fixedSync) LastSync() time.Time { return f.last }

func newTestFacade(t *testing.T, sync SyncState) (*Facade, *reconcile.ReportStore, *warehouse.Mirror, *orders.Engine) {
	t.Helper()
	logger := zap.NewNop()
	reports := reconcile.NewReportStore()
	mirror := warehouse.NewMirror(logger)
	engine := orders.NewEngine("shipitez", reports, mirror, logger)
	f := NewFacade("shipitez", reports, mirror, engine, sync, 10, logger)
	return f, reports, mirror, engine
}

func publishReport(reports *reconcile.ReportStore, generatedAt time.Time) *domain.ValidationReport {
	report := &domain.ValidationReport{
		TenantID:    "shipitez",
		GeneratedAt: generatedAt,
		ValidSKUs:   []string{"WINE-CABERNET-2021", "WINE-MERLOT-2020", "WINE-RIESLING-2022"},
		InvalidSKUs: []domain.SKUValidation{
			{SKU: "WINE-SYRAH-2019", Reason: domain.ReasonOutOfStock, LastChecked: generatedAt},
		},
	}
	report.Seal()
	reports.Publish(report)
	return report
}

func TestSKUReportBeforeFirstPass(t *testing.T) {
	f, _, _, _ := newTestFacade(t, fixedSync{})

	_, err := f.SKUReport()
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestSKUReportReflectsLastPublishedPass(t *testing.T) {
	f, reports, _, _ := newTestFacade(t, fixedSync{})
	generatedAt := time.Date(2026, 9, 1, 9, 30, 0, 0, time.UTC)
	publishReport(reports, generatedAt)

	report, err := f.SKUReport()
	require.NoError(t, err)
	assert.Equal(t, generatedAt, report.CheckedAt)
	assert.Len(t, report.ValidSKUs, 3)
	require.Len(t, report.InvalidSKUs, 1)
	assert.Equal(t, domain.ReasonOutOfStock, report.InvalidSKUs[0].Reason)
	assert.Equal(t, 75, report.SuccessRate)
}

func TestInventoryListingBadges(t *testing.T) {
	f, _, mirror, _ := newTestFacade(t, fixedSync{})
	require.NoError(t, mirror.ApplySnapshot([]domain.SKURecord{
		{SKU: "WINE-CABERNET-2021", Title: "Cabernet Sauvignon 2021", OnHand: 50, Reserved: 5, Location: "Fulfillment Center"},
		{SKU: "WINE-MERLOT-2020", Title: "Merlot 2020", OnHand: 8, Location: "Fulfillment Center"},
		{SKU: "WINE-SYRAH-2019", Title: "Syrah 2019", OnHand: 3, Reserved: 3, Location: "Fulfillment Center"},
	}))

	items := f.InventoryListing()
	require.Len(t, items, 3)
	assert.Equal(t, 45, items[0].Available)
	assert.Equal(t, domain.StockStatusInStock, items[0].Status)
	assert.Equal(t, domain.StockStatusLowStock, items[1].Status)
	assert.Equal(t, domain.StockStatusOutOfStock, items[2].Status)
}

func TestInventoryItemLookup(t *testing.T) {
	f, _, mirror, _ := newTestFacade(t, fixedSync{})
	require.NoError(t, mirror.ApplySnapshot([]domain.SKURecord{
		{SKU: "WINE-CABERNET-2021", OnHand: 12, Location: "Fulfillment Center"},
	}))

	item, err := f.InventoryItem("WINE-CABERNET-2021")
	require.NoError(t, err)
	assert.Equal(t, 12, item.Available)

	_, err = f.InventoryItem("NO-SUCH-SKU")
	var notFound *errors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
}

func TestDashboardCounters(t *testing.T) {
	lastSync := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	f, reports, mirror, engine := newTestFacade(t, fixedSync{last: lastSync})
	require.NoError(t, mirror.ApplySnapshot([]domain.SKURecord{
		{SKU: "WINE-CABERNET-2021", OnHand: 50, Location: "Fulfillment Center"},
	}))
	publishReport(reports, lastSync)

	_, _, err := engine.Ingest(orders.IngestRequest{
		ExternalOrderID: "shopify-1001",
		OrderNumber:     "#1001",
		Customer:        domain.CustomerSnapshot{Name: "Ada Vintner"},
		Currency:        "USD",
		Total:           decimal.NewFromInt(120),
		Items: []orders.LineItem{
			{SKU: "WINE-CABERNET-2021", Title: "Cabernet Sauvignon 2021", Quantity: 2, Price: decimal.NewFromInt(60)},
		},
	})
	require.NoError(t, err)

	d := f.Dashboard()
	assert.Equal(t, 1, d.OrdersToday)
	assert.Equal(t, 1, d.TotalOrders)
	assert.Equal(t, 75, d.SKUSuccessRate)
	assert.Equal(t, 3, d.ValidSKUs)
	assert.Equal(t, 1, d.InvalidSKUs)
	require.NotNil(t, d.LastSync)
	assert.Equal(t, lastSync, *d.LastSync)
	assert.True(t, d.Connected)
}

func TestDashboardBeforeFirstPass(t *testing.T) {
	f, _, _, _ := newTestFacade(t, fixedSync{})

	d := f.Dashboard()
	assert.Zero(t, d.SKUSuccessRate)
	assert.Nil(t, d.LastSync)
	assert.False(t, d.Connected)
}
