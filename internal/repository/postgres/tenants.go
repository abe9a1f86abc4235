package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

type tenantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *sql.DB, logger *zap.Logger) *tenantRepository {
	return &tenantRepository{
		db:     db,
		logger: logger,
	}
}

// APIKeyLookupHash is the indexed SHA256 hex of an API key. Actual
// verification is bcrypt against api_key_hash.
func APIKeyLookupHash(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

const tenantColumns = `id, name, display_name, contact_email, contact_phone, support_url, logo_url, api_key_hash, api_key_lookup, is_active, created_at, updated_at`

func scanTenant(row interface{ Scan(...interface{}) error }) (*domain.Tenant, error) {
	var t domain.Tenant
	var supportURL, logoURL sql.NullString
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.DisplayName,
		&t.ContactEmail,
		&t.ContactPhone,
		&supportURL,
		&logoURL,
		&t.APIKeyHash,
		&t.APIKeyLookup,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if supportURL.Valid {
		t.SupportURL = &supportURL.String
	}
	if logoURL.Valid {
		t.LogoURL = &logoURL.String
	}
	return &t, nil
}

func (r *tenantRepository) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	// Indexed lookup by SHA256 hex, then bcrypt verification.
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE is_active = true AND api_key_lookup = $1
	`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, APIKeyLookupHash(apiKey)))
	if err == sql.ErrNoRows {
		r.logger.Info("API key did not match any tenant", zap.Int("api_key_len", len(apiKey)))
		return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
	}
	if err != nil {
		r.logger.Error("Failed to query tenant by API key", zap.Error(err))
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(tenant.APIKeyHash), []byte(apiKey)) != nil {
		r.logger.Debug("API key lookup found tenant but bcrypt verification failed", zap.String("tenant_id", tenant.ID))
		return nil, &errors.ErrUnauthorized{Message: "invalid API key"}
	}
	return tenant, nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		WHERE id = $1
	`
	tenant, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "tenant", ID: id}
	}
	if err != nil {
		r.logger.Error("Failed to get tenant", zap.String("tenant_id", id), zap.Error(err))
		return nil, err
	}
	return tenant, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	query := `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list tenants", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var tenants []*domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (` + tenantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	now := time.Now()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.DisplayName,
		tenant.ContactEmail,
		tenant.ContactPhone,
		tenant.SupportURL,
		tenant.LogoURL,
		tenant.APIKeyHash,
		tenant.APIKeyLookup,
		tenant.IsActive,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create tenant", zap.String("tenant_id", tenant.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $2, display_name = $3, contact_email = $4, contact_phone = $5,
		    support_url = $6, logo_url = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`
	tenant.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		tenant.DisplayName,
		tenant.ContactEmail,
		tenant.ContactPhone,
		tenant.SupportURL,
		tenant.LogoURL,
		tenant.IsActive,
		tenant.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update tenant", zap.String("tenant_id", tenant.ID), zap.Error(err))
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "tenant", ID: tenant.ID}
	}
	return nil
}
