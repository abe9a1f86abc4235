package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/notifier"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/repository"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

type trackingWebhookBody struct {
	ParcelID    string    `json:"parcel_id"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Location    string    `json:"location"`
	Description string    `json:"description"`

	// optional carrier metadata, usually present on the first shipped event
	Carrier           string     `json:"carrier,omitempty"`
	CarrierService    string     `json:"carrier_service,omitempty"`
	TrackingNumber    string     `json:"tracking_number,omitempty"`
	TrackingURL       string     `json:"tracking_url,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
}

func verifyTrackingHMAC(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	// constant-time compare
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}

// HandleTrackingWebhook handles POST /webhooks/tracking. The 3PL and
// carriers post parcel movement events here; the HMAC is computed over
// the raw body with the shared webhook secret. onEvent, when set, is
// called after a successful update (real-time sync trigger).
func HandleTrackingWebhook(cfg *config.Config, engine *orders.Engine, repos *repository.Repositories, onEvent func(), logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := strings.TrimSpace(cfg.TrackingWebhookSecret)
		if secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "tracking webhook not configured"})
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body"})
			return
		}

		if !verifyTrackingHMAC(secret, bodyBytes, c.GetHeader("X-Owl-Hmac-Sha256")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
			return
		}

		var body trackingWebhookBody
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		parcelID, err := uuid.Parse(body.ParcelID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parcel_id"})
			return
		}
		status := domain.ParcelStatus(body.Status)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown parcel status", "status": body.Status})
			return
		}
		ts := body.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}

		order, err := engine.RecordParcelEvent(parcelID, domain.TrackingEvent{
			Status:      status,
			Timestamp:   ts,
			Location:    body.Location,
			Description: body.Description,
		})
		if err != nil {
			if _, ok := err.(*errors.ErrNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "parcel not found"})
				return
			}
			logger.Error("Failed to record tracking event",
				zap.String("parcel_id", parcelID.String()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if body.Carrier != "" || body.CarrierService != "" || body.TrackingNumber != "" ||
			body.TrackingURL != "" || body.EstimatedDelivery != nil {
			_ = engine.SetParcelCarrier(parcelID, orders.CarrierInfo{
				Carrier:           body.Carrier,
				CarrierService:    body.CarrierService,
				TrackingNumber:    body.TrackingNumber,
				TrackingURL:       body.TrackingURL,
				EstimatedDelivery: body.EstimatedDelivery,
			})
		}

		if onEvent != nil {
			onEvent()
		}

		// fire-and-forget tenant notifications; order is a detached copy so
		// the goroutine never races the engine
		if settings, serr := repos.Settings.GetByTenantID(c.Request.Context(), order.TenantID); serr == nil {
			go func() {
				notifier.NotifyOrderUpdate(settings.Webhooks, order, logger)
				for _, p := range order.Parcels {
					if p.ID == parcelID {
						notifier.NotifyFulfillmentUpdate(settings.Webhooks, order, p, logger)
					}
				}
			}()
		}

		logger.Info("Tracking event recorded",
			zap.String("parcel_id", parcelID.String()),
			zap.String("parcel_status", string(status)),
			zap.String("order_status", string(order.Status)))
		c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "order_status": order.Status})
	}
}
