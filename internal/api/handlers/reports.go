package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/query"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// HandleGetSKUReport handles GET /v1/sku-report. Always serves the last
// successfully published report; 404 only before the first completed pass.
func HandleGetSKUReport(facade *query.Facade, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := facade.SKUReport()
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "no validation report published yet"})
				return
			}
			logger.Error("Failed to get SKU report", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// HandleGetInventory handles GET /v1/inventory. An optional ?sku= query
// narrows to a single record; misses then return 404.
func HandleGetInventory(facade *query.Facade, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sku := strings.TrimSpace(c.Query("sku")); sku != "" {
			item, err := facade.InventoryItem(sku)
			if err != nil {
				if _, ok := err.(*errors.ErrNotFound); ok {
					c.JSON(http.StatusNotFound, gin.H{"error": "sku not found", "sku": sku})
					return
				}
				logger.Error("Failed to look up inventory item", zap.String("sku", sku), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
				return
			}
			c.JSON(http.StatusOK, item)
			return
		}

		items := facade.InventoryListing()
		c.JSON(http.StatusOK, gin.H{"items": items, "total_count": len(items)})
	}
}

// HandleGetDashboard handles GET /v1/dashboard
func HandleGetDashboard(facade *query.Facade, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, facade.Dashboard())
	}
}
