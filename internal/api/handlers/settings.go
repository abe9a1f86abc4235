package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/api/middleware"
	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/repository"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// HandleGetSettings handles GET /v1/settings. Tenants without stored
// settings get the defaults rather than a 404.
func HandleGetSettings(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := middleware.GetTenantFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		settings, err := repos.Settings.GetByTenantID(c.Request.Context(), tenant.ID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusOK, domain.DefaultIntegrationSettings(tenant.ID))
				return
			}
			logger.Error("Failed to get settings", zap.String("tenant_id", tenant.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, settings)
	}
}

// WebhookApplier receives updated webhook settings so alerting toggles
// take effect without a restart.
type WebhookApplier interface {
	SetWebhookSettings(webhooks domain.WebhookSettings, lowStockThreshold int)
}

// HandlePutSettings handles PUT /v1/settings. Order-ingestion filters and
// webhook toggles take effect immediately; a changed sync frequency applies
// from the next scheduler start.
func HandlePutSettings(repos *repository.Repositories, engine *orders.Engine, webhooks WebhookApplier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := middleware.GetTenantFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var settings domain.IntegrationSettings
		if err := c.ShouldBindJSON(&settings); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		settings.TenantID = tenant.ID

		if f := settings.InventorySync.Frequency; f != "" && !f.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid inventory sync frequency", "frequency": f})
			return
		}
		if f := settings.OrderIngestion.BatchingFrequency; f != "" && !f.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order batching frequency", "frequency": f})
			return
		}
		if settings.InventorySync.LowStockThreshold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "low_stock_threshold must be >= 0"})
			return
		}

		if err := repos.Settings.Upsert(c.Request.Context(), &settings); err != nil {
			logger.Error("Failed to save settings", zap.String("tenant_id", tenant.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		engine.SetFilters(orders.IngestFilters{
			MinOrderAmount: settings.OrderIngestion.MinOrderAmount,
			ExcludeTags:    settings.OrderIngestion.ExcludeTags,
		})
		if webhooks != nil {
			webhooks.SetWebhookSettings(settings.Webhooks, settings.InventorySync.LowStockThreshold)
		}

		logger.Info("Integration settings updated", zap.String("tenant_id", tenant.ID))
		c.JSON(http.StatusOK, &settings)
	}
}
