package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/api/handlers"
	"github.com/SiteBossInc/owl-sync/internal/api/middleware"
	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/provider"
	"github.com/SiteBossInc/owl-sync/internal/query"
	"github.com/SiteBossInc/owl-sync/internal/repository"
)

// Deps are the live components the HTTP surface exposes.
type Deps struct {
	Cfg       *config.Config
	Repos     *repository.Repositories
	Engine    *orders.Engine
	Facade    *query.Facade
	Warehouse provider.Warehouse3PL
	Validator provider.CredentialValidator
	// Webhooks receives settings updates so alert toggles apply live.
	// Optional.
	Webhooks handlers.WebhookApplier
	// OnTrackingEvent fires after a tracking webhook lands (real-time
	// sync trigger). Optional.
	OnTrackingEvent func()
}

// NewRouter creates and configures the Gin router
func NewRouter(d Deps, logger *zap.Logger) *gin.Engine {
	if d.Cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(customRecovery(logger))
	router.Use(loggingMiddleware(logger))

	// Root: friendly response so GET / returns 200 instead of 404
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": "OWL Sync Engine",
			"endpoints": []string{
				"GET /health",
				"POST /webhooks/tracking",
				"GET /v1/sku-report",
				"GET /v1/inventory",
				"GET /v1/orders",
				"POST /v1/orders",
				"GET /v1/orders/:id",
				"POST /v1/orders/:id/resolve-backorders",
				"GET /v1/dashboard",
				"GET /v1/settings",
				"PUT /v1/settings",
				"POST /v1/credentials/validate",
			},
		})
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 3PL/carrier tracking events land here, HMAC-authenticated
	router.POST("/webhooks/tracking", handlers.HandleTrackingWebhook(d.Cfg, d.Engine, d.Repos, d.OnTrackingEvent, logger))

	// API v1 routes
	v1 := router.Group("/v1")
	v1.Use(middleware.AuthMiddleware(d.Repos, logger))
	{
		v1.GET("/sku-report", handlers.HandleGetSKUReport(d.Facade, logger))
		v1.GET("/inventory", handlers.HandleGetInventory(d.Facade, logger))
		v1.GET("/dashboard", handlers.HandleGetDashboard(d.Facade, logger))

		v1.GET("/orders", handlers.HandleSearchOrders(d.Engine, logger))
		v1.POST("/orders", handlers.HandleIngestOrder(d.Engine, d.Warehouse, d.Repos, logger))
		v1.GET("/orders/:id", handlers.HandleGetOrder(d.Engine, logger))
		v1.POST("/orders/:id/resolve-backorders", handlers.HandleResolveBackorders(d.Engine, logger))
		v1.POST("/orders/:id/exception", handlers.HandleMarkException(d.Engine, logger))

		v1.GET("/settings", handlers.HandleGetSettings(d.Repos, logger))
		v1.PUT("/settings", handlers.HandlePutSettings(d.Repos, d.Engine, d.Webhooks, logger))

		v1.POST("/credentials/validate", handlers.HandleValidateCredentials(d.Validator, logger))
	}

	return router
}

// customRecovery is a custom recovery middleware that logs panics
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		status := c.Writer.Status()
		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
	}
}
