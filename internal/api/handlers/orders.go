package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/provider"
	"github.com/SiteBossInc/owl-sync/internal/repository"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// HandleIngestOrder handles POST /v1/orders. Accepted orders are pushed to
// the 3PL for fulfillment when the tenant has auto-fulfill enabled.
func HandleIngestOrder(engine *orders.Engine, warehouse3 provider.Warehouse3PL, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req orders.IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}

		order, outcome, err := engine.Ingest(req)
		if err != nil {
			if ve, ok := err.(*errors.ErrValidation); ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "fields": ve.Fields})
				return
			}
			logger.Error("Failed to ingest order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		switch outcome {
		case orders.OutcomeDuplicate:
			// benign re-delivery; return the existing order
			c.JSON(http.StatusOK, gin.H{"outcome": outcome, "order": order})
		case orders.OutcomeRejected:
			c.JSON(http.StatusOK, gin.H{"outcome": outcome})
		default:
			submitForFulfillment(warehouse3, repos, order, logger)
			c.JSON(http.StatusCreated, gin.H{"outcome": outcome, "order": order})
		}
	}
}

// submitForFulfillment pushes a newly accepted order to the 3PL when the
// tenant has auto-fulfill enabled. Fire-and-forget: a submission failure is
// logged, never surfaced through the ingest response.
func submitForFulfillment(warehouse3 provider.Warehouse3PL, repos *repository.Repositories, order *domain.Order, logger *zap.Logger) {
	if warehouse3 == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		settings, err := repos.Settings.GetByTenantID(ctx, order.TenantID)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); !ok {
				logger.Warn("Could not load settings for order submission",
					zap.String("tenant_id", order.TenantID), zap.Error(err))
				return
			}
			settings = domain.DefaultIntegrationSettings(order.TenantID)
		}
		if !settings.OrderIngestion.Enabled || !settings.OrderIngestion.AutoFulfill {
			return
		}

		if err := warehouse3.SubmitOrder(ctx, order); err != nil {
			logger.Error("Failed to submit order to 3PL",
				zap.String("order_id", order.ID.String()),
				zap.String("external_order_id", order.ExternalOrderID),
				zap.Error(err))
			return
		}
		logger.Info("Order submitted for fulfillment",
			zap.String("order_id", order.ID.String()),
			zap.String("external_order_id", order.ExternalOrderID))
	}()
}

// HandleGetOrder handles GET /v1/orders/:id. The id segment accepts either
// the engine's UUID or the storefront's external order id.
func HandleGetOrder(engine *orders.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		idParam := c.Param("id")
		if idParam == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "order ID or external_order_id required"})
			return
		}

		order, err := engine.Get(idParam)
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to get order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, order)
	}
}

// HandleSearchOrders handles GET /v1/orders
func HandleSearchOrders(engine *orders.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		filters, err := parseSearchFilters(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result := engine.Search(filters)
		c.JSON(http.StatusOK, result)
	}
}

func parseSearchFilters(c *gin.Context) (orders.SearchFilters, error) {
	filters := orders.SearchFilters{
		Query:    strings.TrimSpace(c.Query("query")),
		Customer: strings.TrimSpace(c.Query("customer")),
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.OrderStatus(raw)
		if !status.IsValid() {
			return filters, &badFilterError{"status", raw}
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, err := parseDateOrTime(raw, false)
		if err != nil {
			return filters, &badFilterError{"from", raw}
		}
		filters.CreatedFrom = &from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, err := parseDateOrTime(raw, true)
		if err != nil {
			return filters, &badFilterError{"to", raw}
		}
		filters.CreatedTo = &to
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return filters, &badFilterError{"offset", raw}
		}
		filters.Offset = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return filters, &badFilterError{"limit", raw}
		}
		filters.Limit = n
	}
	return filters, nil
}

// parseDateOrTime accepts RFC3339 or a bare date. Bare dates used as an
// upper bound extend to end of day so "to=2026-09-01" includes that day.
func parseDateOrTime(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

type badFilterError struct {
	field string
	value string
}

func (e *badFilterError) Error() string {
	return "invalid " + e.field + " filter: " + e.value
}

// HandleResolveBackorders handles POST /v1/orders/:id/resolve-backorders.
// Releases backordered items whose SKUs have become valid since ingestion.
func HandleResolveBackorders(engine *orders.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := engine.Get(c.Param("id"))
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to resolve order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		released, err := engine.ResolveBackorders(order.ID)
		if err != nil {
			logger.Error("Failed to resolve backorders", zap.String("order_id", order.ID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "released_items": released})
	}
}

// HandleMarkException handles POST /v1/orders/:id/exception
func HandleMarkException(engine *orders.Engine, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Note string `json:"note"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		order, err := engine.Get(c.Param("id"))
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			logger.Error("Failed to resolve order", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if err := engine.MarkException(order.ID, body.Note); err != nil {
			logger.Error("Failed to mark exception", zap.String("order_id", order.ID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "status": domain.OrderStatusException})
	}
}
