package postgres

import (
	"database/sql"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *sql.DB, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Tenant:   NewTenantRepository(db, logger),
		Settings: NewSettingsRepository(db, logger),
	}
}
