// Package notifier delivers outbound webhook notifications to tenant
// endpoints. Sends are fire-and-forget; callers run them in a goroutine
// so the request path is never blocked on a tenant's endpoint.
package notifier

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

const webhookTimeout = 10 * time.Second

// NotifyOrderUpdate sends an order status change to the tenant's
// webhook endpoint, honoring the tenant's notification toggles.
func NotifyOrderUpdate(settings domain.WebhookSettings, order *domain.Order, logger *zap.Logger) {
	if !settings.Enabled || !settings.OrderUpdates {
		return
	}
	post(settings.EndpointURL, map[string]interface{}{
		"event":             "order_status",
		"order_id":          order.ID.String(),
		"external_order_id": order.ExternalOrderID,
		"status":            order.Status,
		"updated_at":        order.UpdatedAt,
	}, logger)
}

// NotifyFulfillmentUpdate sends a parcel tracking update.
func NotifyFulfillmentUpdate(settings domain.WebhookSettings, order *domain.Order, parcel *domain.Parcel, logger *zap.Logger) {
	if !settings.Enabled || !settings.FulfillmentUpdates {
		return
	}
	post(settings.EndpointURL, map[string]interface{}{
		"event":             "fulfillment_update",
		"order_id":          order.ID.String(),
		"external_order_id": order.ExternalOrderID,
		"parcel_number":     parcel.ParcelNumber,
		"parcel_status":     parcel.Status,
		"tracking_number":   parcel.TrackingNumber,
		"carrier":           parcel.Carrier,
	}, logger)
}

// NotifyLowStock alerts the tenant when a SKU crosses its low stock
// threshold during an inventory sync.
func NotifyLowStock(settings domain.WebhookSettings, record domain.SKURecord, threshold int, logger *zap.Logger) {
	if !settings.Enabled || !settings.InventoryUpdates {
		return
	}
	post(settings.EndpointURL, map[string]interface{}{
		"event":     "low_stock",
		"sku":       record.SKU,
		"title":     record.Title,
		"available": record.Available(),
		"threshold": threshold,
	}, logger)
}

func post(webhookURL string, payload map[string]interface{}, logger *zap.Logger) {
	if webhookURL == "" {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("Webhook: failed to marshal payload", zap.Error(err))
		return
	}
	client := &http.Client{Timeout: webhookTimeout}
	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		logger.Warn("Webhook: failed to create request", zap.String("url", webhookURL), zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		logger.Warn("Webhook: notification request failed", zap.String("url", webhookURL), zap.Error(err))
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("Webhook: notification returned non-2xx",
			zap.String("url", webhookURL), zap.Int("status", resp.StatusCode))
		return
	}
	logger.Info("Webhook: notification sent", zap.String("url", webhookURL), zap.Int("status", resp.StatusCode))
}
