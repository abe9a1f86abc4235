package reconcile

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
)

// flakySource wraps a mirror and fails lookups for selected SKUs, standing in
// for a transport-backed inventory source.
type flakySource struct {
	*warehouse.Mirror
	failSKUs map[string]bool
}

func (f *flakySource) Lookup(sku string) (domain.SKURecord, bool, error) {
	if f.failSKUs[sku] {
		return domain.SKURecord{}, false, fmt.Errorf("warehouse lookup timed out for %s", sku)
	}
	return f.Mirror.Lookup(sku)
}

func seededMirror(t *testing.T) *warehouse.Mirror {
	t.Helper()
	m := warehouse.NewMirror(nil)
	require.NoError(t, m.ApplySnapshot([]domain.SKURecord{
		{SKU: "WINE-CABERNET-2021", OnHand: 150, Reserved: 25},
		{SKU: "WINE-CHARDONNAY-2022", OnHand: 89, Reserved: 12},
		{SKU: "WINE-GLASSES-SET", OnHand: 0, Reserved: 0},
		{SKU: "BOTTLE-OPENER-SILVER", OnHand: 30, Reserved: 0, Discontinued: true},
		{SKU: "WINE-MERLOT-2021", OnHand: 40, Reserved: 0},
		{SKU: "WINE-PINOT-2023", OnHand: 10, MappingRequired: true},
	}))
	return m
}

func TestClassification(t *testing.T) {
	r := NewReconciler("shipitez", seededMirror(t), nil)
	report, err := r.Run(context.Background(), []string{
		"WINE-CABERNET-2021",
		"WINE-GLASSES-SET",
		"BOTTLE-OPENER-SILVER",
		"WINE-MERLOT-2020",
		"WINE-PINOT-2023",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"WINE-CABERNET-2021"}, report.ValidSKUs)
	require.Len(t, report.InvalidSKUs, 4)

	reasons := map[string]domain.InvalidReason{}
	for _, inv := range report.InvalidSKUs {
		reasons[inv.SKU] = inv.Reason
	}
	assert.Equal(t, domain.ReasonOutOfStock, reasons["WINE-GLASSES-SET"])
	assert.Equal(t, domain.ReasonDiscontinued, reasons["BOTTLE-OPENER-SILVER"])
	assert.Equal(t, domain.ReasonNotFoundInWarehouse, reasons["WINE-MERLOT-2020"])
	assert.Equal(t, domain.ReasonMappingRequired, reasons["WINE-PINOT-2023"])
}

func TestNotSyncedBeforeInitialFullSync(t *testing.T) {
	// A mirror that has never completed a full sync classifies misses as
	// not_synced_with_warehouse, not not_found_in_warehouse.
	m := warehouse.NewMirror(nil)
	r := NewReconciler("shipitez", m, nil)

	report, err := r.Run(context.Background(), []string{"WINE-CABERNET-2021"})
	require.NoError(t, err)
	require.Len(t, report.InvalidSKUs, 1)
	assert.Equal(t, domain.ReasonNotSyncedWithWarehouse, report.InvalidSKUs[0].Reason)
}

func TestFetchErrorDoesNotPoisonBatch(t *testing.T) {
	src := &flakySource{
		Mirror:   seededMirror(t),
		failSKUs: map[string]bool{"WINE-CHARDONNAY-2022": true},
	}
	r := NewReconciler("shipitez", src, nil)

	report, err := r.Run(context.Background(), []string{
		"WINE-CABERNET-2021",
		"WINE-CHARDONNAY-2022",
		"WINE-MERLOT-2021",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"WINE-CABERNET-2021", "WINE-MERLOT-2021"}, report.ValidSKUs)
	require.Len(t, report.InvalidSKUs, 1)
	assert.Equal(t, "WINE-CHARDONNAY-2022", report.InvalidSKUs[0].SKU)
	assert.Equal(t, domain.ReasonFetchError, report.InvalidSKUs[0].Reason)
}

func TestSuggestedAlternativesDeterministic(t *testing.T) {
	r := NewReconciler("shipitez", seededMirror(t), nil)

	first, err := r.Run(context.Background(), []string{"WINE-MERLOT-2020"})
	require.NoError(t, err)
	second, err := r.Run(context.Background(), []string{"WINE-MERLOT-2020"})
	require.NoError(t, err)

	require.Len(t, first.InvalidSKUs, 1)
	suggestions := first.InvalidSKUs[0].SuggestedAlternatives
	assert.Equal(t, suggestions, second.InvalidSKUs[0].SuggestedAlternatives)
	assert.LessOrEqual(t, len(suggestions), 3)
	assert.Contains(t, suggestions, "WINE-MERLOT-2021")
}

func TestDeadlineAbortsWithoutPublishing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewReconciler("shipitez", seededMirror(t), nil)
	_, err := r.Run(ctx, []string{"WINE-CABERNET-2021"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuccessRate(t *testing.T) {
	report := &domain.ValidationReport{
		ValidSKUs: []string{"A", "B", "C"},
		InvalidSKUs: []domain.SKUValidation{
			{SKU: "D", Reason: domain.ReasonOutOfStock},
		},
	}
	assert.Equal(t, 75, report.SuccessRate())

	empty := &domain.ValidationReport{}
	assert.Equal(t, 100, empty.SuccessRate())
}

func TestReportStoreAtomicPublish(t *testing.T) {
	store := NewReportStore()

	old := &domain.ValidationReport{GeneratedAt: time.Now(), ValidSKUs: []string{"OLD-1", "OLD-2"}}
	old.Seal()
	store.Publish(old)

	next := &domain.ValidationReport{GeneratedAt: time.Now(), ValidSKUs: []string{"NEW-1", "NEW-2"}}
	next.Seal()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			report, ok := store.Current()
			require.True(t, ok)
			// A reader sees either the full old report or the full new one.
			switch report.ValidSKUs[0] {
			case "OLD-1":
				assert.Equal(t, []string{"OLD-1", "OLD-2"}, report.ValidSKUs)
			case "NEW-1":
				assert.Equal(t, []string{"NEW-1", "NEW-2"}, report.ValidSKUs)
			default:
				t.Errorf("observed mixed report: %v", report.ValidSKUs)
				return
			}
		}
	}()

	store.Publish(next)
	close(stop)
	wg.Wait()

	current, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, []string{"NEW-1", "NEW-2"}, current.ValidSKUs)
}

func TestReportStoreDelta(t *testing.T) {
	store := NewReportStore()

	first := &domain.ValidationReport{ValidSKUs: []string{"A", "B"}}
	first.Seal()
	store.Publish(first)

	second := &domain.ValidationReport{
		ValidSKUs:   []string{"A", "C"},
		InvalidSKUs: []domain.SKUValidation{{SKU: "B", Reason: domain.ReasonOutOfStock}},
	}
	second.Seal()
	store.Publish(second)

	d := store.Delta()
	assert.Equal(t, []string{"C"}, d.NewlyValid)
	assert.Equal(t, []string{"B"}, d.NewlyInvalid)
}
