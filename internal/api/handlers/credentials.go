package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/provider"
)

// HandleValidateCredentials handles POST /v1/credentials/validate. Used
// by the settings screen to test a (tenant_id, api_key) pair against
// the warehouse before saving.
func HandleValidateCredentials(validator provider.CredentialValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			TenantID string `json:"tenant_id"`
			APIKey   string `json:"api_key"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		body.TenantID = strings.TrimSpace(body.TenantID)
		body.APIKey = strings.TrimSpace(body.APIKey)
		if body.TenantID == "" || body.APIKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tenant_id and api_key are required"})
			return
		}

		valid, err := validator.ValidateCredentials(c.Request.Context(), body.TenantID, body.APIKey)
		if err != nil {
			logger.Warn("Credential validation failed upstream", zap.String("tenant_id", body.TenantID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "warehouse unreachable"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"valid": valid})
	}
}
