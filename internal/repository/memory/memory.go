// Package memory holds repositories backed by process memory. Used in
// tests and when the server runs without a database configured.
package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/repository"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

type tenantRepository struct {
	mu      sync.RWMutex
	tenants map[string]*domain.Tenant
	order   []string
}

type settingsRepository struct {
	mu       sync.RWMutex
	settings map[string]*domain.IntegrationSettings
}

// NewRepositories creates an in-memory repository set.
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Tenant:   &tenantRepository{tenants: make(map[string]*domain.Tenant)},
		Settings: &settingsRepository{settings: make(map[string]*domain.IntegrationSettings)},
	}
}

func (r *tenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		t := r.tenants[id]
		if !t.IsActive {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(t.APIKeyHash), []byte(apiKey)) == nil {
			cp := *t
			return &cp, nil
		}
	}
	return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenants[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "tenant", ID: id}
	}
	cp := *t
	return &cp, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Tenant, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.tenants[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[tenant.ID]; ok {
		return &errors.ErrDuplicate{Resource: "tenant", ID: tenant.ID}
	}
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	cp := *tenant
	r.tenants[tenant.ID] = &cp
	r.order = append(r.order, tenant.ID)
	return nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.tenants[tenant.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "tenant", ID: tenant.ID}
	}
	tenant.CreatedAt = existing.CreatedAt
	tenant.UpdatedAt = time.Now()
	cp := *tenant
	r.tenants[tenant.ID] = &cp
	return nil
}

func (r *settingsRepository) GetByTenantID(ctx context.Context, tenantID string) (*domain.IntegrationSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.settings[tenantID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "integration settings", ID: tenantID}
	}
	cp := *s
	return &cp, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.IntegrationSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.settings[settings.TenantID]; ok {
		settings.CreatedAt = existing.CreatedAt
	} else {
		settings.CreatedAt = time.Now()
	}
	settings.UpdatedAt = time.Now()
	cp := *settings
	r.settings[settings.TenantID] = &cp
	return nil
}
