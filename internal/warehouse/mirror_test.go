package warehouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

func record(sku string, onHand, reserved int) domain.SKURecord {
	return domain.SKURecord{
		SKU:         sku,
		Title:       sku,
		OnHand:      onHand,
		Reserved:    reserved,
		Location:    "Warehouse A - Section 1",
		LastUpdated: time.Now(),
	}
}

func TestApplySnapshotReplacesWholesale(t *testing.T) {
	m := NewMirror(nil)
	assert.False(t, m.Synced())

	require.NoError(t, m.ApplySnapshot([]domain.SKURecord{
		record("WINE-CABERNET-2021", 150, 25),
		record("WINE-GLASSES-SET", 1, 1),
	}))
	assert.True(t, m.Synced())
	assert.Equal(t, []string{"WINE-CABERNET-2021", "WINE-GLASSES-SET"}, m.KnownSKUs())

	// A new snapshot drops records that are no longer reported.
	require.NoError(t, m.ApplySnapshot([]domain.SKURecord{
		record("WINE-OPENER-GOLD", 45, 5),
	}))
	assert.Equal(t, []string{"WINE-OPENER-GOLD"}, m.KnownSKUs())

	_, err := m.Get("WINE-CABERNET-2021")
	var nf *errors.ErrNotFound
	require.ErrorAs(t, err, &nf)
}

func TestApplySnapshotExcludesNegativeAvailability(t *testing.T) {
	m := NewMirror(nil)
	err := m.ApplySnapshot([]domain.SKURecord{
		record("GOOD-SKU", 10, 2),
		record("BAD-SKU", 1, 5), // reserved exceeds on-hand
	})

	var vErr *errors.ErrValidation
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"GOOD-SKU"}, m.KnownSKUs())
	assert.True(t, m.Synced())
}

func TestUpdateRecord(t *testing.T) {
	m := NewMirror(nil)
	require.NoError(t, m.ApplySnapshot([]domain.SKURecord{record("WINE-CABERNET-2021", 10, 4)}))

	require.NoError(t, m.UpdateRecord("WINE-CABERNET-2021", -3))
	rec, err := m.Get("WINE-CABERNET-2021")
	require.NoError(t, err)
	assert.Equal(t, 3, rec.Available())

	// Unknown SKU
	err = m.UpdateRecord("NOPE", 1)
	var nf *errors.ErrNotFound
	require.ErrorAs(t, err, &nf)

	// Would go negative: rejected, record untouched
	err = m.UpdateRecord("WINE-CABERNET-2021", -10)
	var vErr *errors.ErrValidation
	require.ErrorAs(t, err, &vErr)
	rec, _ = m.Get("WINE-CABERNET-2021")
	assert.Equal(t, 3, rec.Available())
}

func TestStockStatusDerivation(t *testing.T) {
	tests := []struct {
		available int
		threshold int
		expected  domain.StockStatus
	}{
		{0, 10, domain.StockStatusOutOfStock},
		{-1, 10, domain.StockStatusOutOfStock},
		{5, 10, domain.StockStatusLowStock},
		{10, 10, domain.StockStatusLowStock},
		{11, 10, domain.StockStatusInStock},
		{125, 10, domain.StockStatusInStock},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, domain.StockStatusFor(tt.available, tt.threshold),
			"available=%d threshold=%d", tt.available, tt.threshold)
	}
}
