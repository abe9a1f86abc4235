package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

func variant(sku, title string) domain.CatalogVariant {
	return domain.CatalogVariant{
		SKU:       sku,
		Title:     title,
		Price:     decimal.NewFromFloat(19.99),
		UpdatedAt: time.Now(),
	}
}

func TestUpsertVariantsIdempotent(t *testing.T) {
	s := NewStore(nil)
	batch := []domain.CatalogVariant{
		variant("WINE-CABERNET-2021", "Cabernet Sauvignon 2021"),
		variant("WINE-CHARDONNAY-2022", "Chardonnay 2022"),
	}

	require.NoError(t, s.UpsertVariants(batch))
	first := s.ListSKUs()

	require.NoError(t, s.UpsertVariants(batch))
	assert.Equal(t, first, s.ListSKUs())
	assert.Equal(t, 2, s.Len())
}

func TestUpsertVariantsBlankSKUExcludedNotFatal(t *testing.T) {
	s := NewStore(nil)
	err := s.UpsertVariants([]domain.CatalogVariant{
		variant("WINE-OPENER-GOLD", "Gold Wine Opener"),
		variant("   ", "No SKU Assigned"),
		variant("", "Also No SKU"),
	})

	var vErr *errors.ErrValidation
	require.ErrorAs(t, err, &vErr)

	// The valid item still landed; the blank ones did not.
	assert.Equal(t, []string{"WINE-OPENER-GOLD"}, s.ListSKUs())
	_, ok := s.Get("WINE-OPENER-GOLD")
	assert.True(t, ok)
}

func TestListSKUsInsertionOrder(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.UpsertVariants([]domain.CatalogVariant{
		variant("ZULU-SKU", "Z"),
		variant("ALPHA-SKU", "A"),
	}))
	require.NoError(t, s.UpsertVariants([]domain.CatalogVariant{
		variant("MIKE-SKU", "M"),
		variant("ALPHA-SKU", "A v2"), // re-upsert keeps original position
	}))

	assert.Equal(t, []string{"ZULU-SKU", "ALPHA-SKU", "MIKE-SKU"}, s.ListSKUs())

	v, ok := s.Get("ALPHA-SKU")
	require.True(t, ok)
	assert.Equal(t, "A v2", v.Title)
}
