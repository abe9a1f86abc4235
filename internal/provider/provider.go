// Package provider defines the transport boundary to the external
// collaborators: the storefront catalog API and the 3PL warehouse API. Real
// implementations live in subpackages; deterministic fakes for tests live in
// fake.go.
package provider

import (
	"context"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// CatalogPage is one cursor-paginated page of storefront variants.
type CatalogPage struct {
	Items      []domain.CatalogVariant
	NextCursor string
	HasNext    bool
}

// Storefront lists the merchant's product variants. Calls may block on the
// network; implementations must honor the context deadline.
type Storefront interface {
	ListVariants(ctx context.Context, cursor string, limit int) (CatalogPage, error)
}

// Warehouse3PL talks to the fulfillment provider's warehouse API.
type Warehouse3PL interface {
	// FetchInventory returns the full stock snapshot for the tenant.
	FetchInventory(ctx context.Context) ([]domain.SKURecord, error)
	// SubmitOrder pushes an ingested order to the 3PL for fulfillment.
	SubmitOrder(ctx context.Context, order *domain.Order) error
}

// CredentialValidator checks a (tenant_id, api_key) pair against the 3PL.
// The core treats it as an opaque boolean validator.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context, tenantID, apiKey string) (bool, error)
}
