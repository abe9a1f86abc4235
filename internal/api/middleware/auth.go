package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/repository"
)

const TenantContextKey = "tenant"

// AuthMiddleware authenticates requests using API key
func AuthMiddleware(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		apiKey := strings.TrimSpace(parts[1])
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			c.Abort()
			return
		}

		tenant, err := repos.Tenant.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logger.Warn("Failed to authenticate tenant", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			c.Abort()
			return
		}

		if !tenant.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "tenant account is inactive"})
			c.Abort()
			return
		}

		c.Set(TenantContextKey, tenant)
		c.Next()
	}
}

// GetTenantFromContext retrieves the authenticated tenant from the Gin context
func GetTenantFromContext(c *gin.Context) (*domain.Tenant, bool) {
	tenant, exists := c.Get(TenantContextKey)
	if !exists {
		return nil, false
	}

	t, ok := tenant.(*domain.Tenant)
	return t, ok
}

// HashAPIKey hashes an API key using bcrypt
func HashAPIKey(apiKey string) string {
	// Cost of 10 for API keys (faster than passwords)
	hash, err := bcrypt.GenerateFromPassword([]byte(apiKey), 10)
	if err != nil {
		return ""
	}
	return string(hash)
}

// VerifyAPIKey verifies an API key against a hash
func VerifyAPIKey(apiKey, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(apiKey))
	return err == nil
}
