package repository

import (
	"context"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// TenantRepository defines tenant data access methods
type TenantRepository interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error)
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)
	List(ctx context.Context) ([]*domain.Tenant, error)
	Create(ctx context.Context, tenant *domain.Tenant) error
	Update(ctx context.Context, tenant *domain.Tenant) error
}

// SettingsRepository defines per-tenant integration settings access
type SettingsRepository interface {
	GetByTenantID(ctx context.Context, tenantID string) (*domain.IntegrationSettings, error)
	Upsert(ctx context.Context, settings *domain.IntegrationSettings) error
}

// Repositories aggregates all repositories
type Repositories struct {
	Tenant   TenantRepository
	Settings SettingsRepository
}
