package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

type settingsRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSettingsRepository creates a new integration settings repository.
// Settings are stored as one JSONB document per tenant.
func NewSettingsRepository(db *sql.DB, logger *zap.Logger) *settingsRepository {
	return &settingsRepository{
		db:     db,
		logger: logger,
	}
}

func (r *settingsRepository) GetByTenantID(ctx context.Context, tenantID string) (*domain.IntegrationSettings, error) {
	query := `
		SELECT settings, created_at, updated_at
		FROM integration_settings
		WHERE tenant_id = $1
	`
	var raw []byte
	var createdAt, updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&raw, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, &errors.ErrNotFound{Resource: "integration settings", ID: tenantID}
	}
	if err != nil {
		r.logger.Error("Failed to get integration settings", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}

	var settings domain.IntegrationSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		r.logger.Error("Failed to decode integration settings", zap.String("tenant_id", tenantID), zap.Error(err))
		return nil, err
	}
	settings.TenantID = tenantID
	settings.CreatedAt = createdAt
	settings.UpdatedAt = updatedAt
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *domain.IntegrationSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO integration_settings (tenant_id, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (tenant_id)
		DO UPDATE SET settings = EXCLUDED.settings, updated_at = EXCLUDED.updated_at
	`
	settings.UpdatedAt = time.Now()
	if _, err := r.db.ExecContext(ctx, query, settings.TenantID, raw, settings.UpdatedAt); err != nil {
		r.logger.Error("Failed to upsert integration settings", zap.String("tenant_id", settings.TenantID), zap.Error(err))
		return err
	}
	return nil
}
