package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/api/middleware"
	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/orders"
	"github.com/SiteBossInc/owl-sync/internal/provider"
	"github.com/SiteBossInc/owl-sync/internal/query"
	"github.com/SiteBossInc/owl-sync/internal/reconcile"
	"github.com/SiteBossInc/owl-sync/internal/repository"
	"github.com/SiteBossInc/owl-sync/internal/repository/memory"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
)

const (
	testAPIKey = "owl_test_key_shipitez"
	testSecret = "hook-secret"
)

type staticSync struct{ last time.Time }

func (s staticSync) LastSync() time.Time { return s.last }

// webhookRecorder captures settings pushed through the PUT handler.
type webhookRecorder struct {
	mu        sync.Mutex
	webhooks  domain.WebhookSettings
	threshold int
	calls     int
}

func (r *webhookRecorder) SetWebhookSettings(w domain.WebhookSettings, lowStockThreshold int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.webhooks = w
	r.threshold = lowStockThreshold
	r.calls++
}

type testApp struct {
	router   *gin.Engine
	engine   *orders.Engine
	reports  *reconcile.ReportStore
	mirror   *warehouse.Mirror
	repos    *repository.Repositories
	fake     *provider.FakeWarehouse
	recorder *webhookRecorder
	tracked  int
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	repos := memory.NewRepositories()
	require.NoError(t, repos.Tenant.Create(context.Background(), &domain.Tenant{
		ID:         "shipitez",
		Name:       "shipitez",
		APIKeyHash: middleware.HashAPIKey(testAPIKey),
		IsActive:   true,
	}))

	reports := reconcile.NewReportStore()
	mirror := warehouse.NewMirror(logger)
	engine := orders.NewEngine("shipitez", reports, mirror, logger)
	facade := query.NewFacade("shipitez", reports, mirror, engine, staticSync{last: time.Now()}, 10, logger)

	fake := &provider.FakeWarehouse{ValidKeys: map[string]string{"shipitez": "warehouse-key"}}
	recorder := &webhookRecorder{}
	app := &testApp{
		engine: engine, reports: reports, mirror: mirror,
		repos: repos, fake: fake, recorder: recorder,
	}
	app.router = NewRouter(Deps{
		Cfg: &config.Config{
			Environment:           "test",
			TrackingWebhookSecret: testSecret,
		},
		Repos:           repos,
		Engine:          engine,
		Facade:          facade,
		Warehouse:       fake,
		Validator:       fake,
		Webhooks:        recorder,
		OnTrackingEvent: func() { app.tracked++ },
	}, logger)
	return app
}

func (a *testApp) seedReport(t *testing.T) {
	t.Helper()
	require.NoError(t, a.mirror.ApplySnapshot([]domain.SKURecord{
		{SKU: "WINE-CABERNET-2021", Title: "Cabernet Sauvignon 2021", OnHand: 40, Location: "Fulfillment Center"},
	}))
	report := &domain.ValidationReport{
		TenantID:    "shipitez",
		GeneratedAt: time.Now(),
		ValidSKUs:   []string{"WINE-CABERNET-2021"},
	}
	report.Seal()
	a.reports.Publish(report)
}

func (a *testApp) do(method, path, apiKey string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestHealthAndRoot(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/", "", nil).Code)
}

func TestAuthRequired(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/v1/dashboard", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/v1/dashboard", "wrong-key", nil).Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/v1/dashboard", testAPIKey, nil).Code)
}

func TestSKUReportEndpoint(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/v1/sku-report", testAPIKey, nil).Code)

	app.seedReport(t)
	w := app.do(http.MethodGet, "/v1/sku-report", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ValidSKUs   []string `json:"valid_skus"`
		SuccessRate int      `json:"success_rate"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"WINE-CABERNET-2021"}, body.ValidSKUs)
	assert.Equal(t, 100, body.SuccessRate)
}

func TestInventoryEndpoint(t *testing.T) {
	app := newTestApp(t)
	app.seedReport(t)

	w := app.do(http.MethodGet, "/v1/inventory", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/v1/inventory?sku=WINE-CABERNET-2021", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/v1/inventory?sku=NO-SUCH", testAPIKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func ingestBody(externalID string) map[string]interface{} {
	return map[string]interface{}{
		"external_order_id": externalID,
		"order_number":      "#1001",
		"currency":          "USD",
		"total_price":       "120.00",
		"customer":          map[string]string{"name": "Ada Vintner"},
		"items": []map[string]interface{}{
			{"sku": "WINE-CABERNET-2021", "title": "Cabernet Sauvignon 2021", "quantity": 2, "price": "60.00"},
		},
	}
}

func TestOrderIngestAndFetch(t *testing.T) {
	app := newTestApp(t)
	app.seedReport(t)

	w := app.do(http.MethodPost, "/v1/orders", testAPIKey, ingestBody("shopify-1001"))
	require.Equal(t, http.StatusCreated, w.Code)

	// duplicate ingest is a benign 200, not an error
	w = app.do(http.MethodPost, "/v1/orders", testAPIKey, ingestBody("shopify-1001"))
	require.Equal(t, http.StatusOK, w.Code)
	var dup struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	assert.Equal(t, string(orders.OutcomeDuplicate), dup.Outcome)

	w = app.do(http.MethodGet, "/v1/orders/shopify-1001", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/v1/orders/no-such-order", testAPIKey, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/v1/orders?query=1001", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var search orders.SearchResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &search))
	assert.Equal(t, 1, search.TotalCount)
}

func TestOrderIngestValidation(t *testing.T) {
	app := newTestApp(t)
	app.seedReport(t)

	body := ingestBody("")
	w := app.do(http.MethodPost, "/v1/orders", testAPIKey, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAutoFulfillSubmitsOrderToWarehouse(t *testing.T) {
	app := newTestApp(t)
	app.seedReport(t)

	settings := domain.DefaultIntegrationSettings("shipitez")
	settings.OrderIngestion.AutoFulfill = true
	require.NoError(t, app.repos.Settings.Upsert(context.Background(), settings))

	w := app.do(http.MethodPost, "/v1/orders", testAPIKey, ingestBody("shopify-3001"))
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Eventually(t, func() bool {
		submitted := app.fake.SubmittedOrders()
		return len(submitted) == 1 && submitted[0].ExternalOrderID == "shopify-3001"
	}, time.Second, 10*time.Millisecond)
}

func TestNoSubmissionWithoutAutoFulfill(t *testing.T) {
	app := newTestApp(t)
	app.seedReport(t)

	// defaults leave auto-fulfill off
	w := app.do(http.MethodPost, "/v1/orders", testAPIKey, ingestBody("shopify-3002"))
	require.Equal(t, http.StatusCreated, w.Code)

	assert.Never(t, func() bool {
		return len(app.fake.SubmittedOrders()) > 0
	}, 200*time.Millisecond, 20*time.Millisecond)
}

func TestSearchFilterValidation(t *testing.T) {
	app := newTestApp(t)

	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodGet, "/v1/orders?status=bogus", testAPIKey, nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodGet, "/v1/orders?from=not-a-date", testAPIKey, nil).Code)
	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodGet, "/v1/orders?limit=0", testAPIKey, nil).Code)
}

func signTracking(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTrackingWebhook(t *testing.T) {
	app := newTestApp(t)
	app.seedReport(t)

	w := app.do(http.MethodPost, "/v1/orders", testAPIKey, ingestBody("shopify-2001"))
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Order domain.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Order.Parcels)
	parcelID := created.Order.Parcels[0].ID

	payload, _ := json.Marshal(map[string]interface{}{
		"parcel_id": parcelID.String(),
		"status":    "shipped",
		"timestamp": time.Now().Format(time.RFC3339),
		"location":  "Fulfillment Center",
	})

	// unsigned request is rejected
	req := httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/tracking", bytes.NewReader(payload))
	req.Header.Set("X-Owl-Hmac-Sha256", signTracking(payload))
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, app.tracked)

	w = app.do(http.MethodGet, "/v1/orders/shopify-2001", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, domain.OrderStatusShipped, fetched.Status)
}

func TestSettingsRoundTrip(t *testing.T) {
	app := newTestApp(t)

	// defaults before anything is stored
	w := app.do(http.MethodGet, "/v1/settings", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var defaults domain.IntegrationSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &defaults))
	assert.Equal(t, domain.SyncHourly, defaults.InventorySync.Frequency)

	defaults.InventorySync.Frequency = domain.SyncEvery6Hour
	defaults.InventorySync.LowStockThreshold = 25
	defaults.OrderIngestion.ExcludeTags = []string{"wholesale"}
	defaults.Webhooks.InventoryUpdates = false
	w = app.do(http.MethodPut, "/v1/settings", testAPIKey, defaults)
	require.Equal(t, http.StatusOK, w.Code)

	// webhook toggles and the low-stock threshold apply without a restart
	assert.Equal(t, 1, app.recorder.calls)
	assert.Equal(t, 25, app.recorder.threshold)
	assert.False(t, app.recorder.webhooks.InventoryUpdates)

	w = app.do(http.MethodGet, "/v1/settings", testAPIKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var saved domain.IntegrationSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, domain.SyncEvery6Hour, saved.InventorySync.Frequency)
	assert.Equal(t, []string{"wholesale"}, saved.OrderIngestion.ExcludeTags)

	w = app.do(http.MethodPut, "/v1/settings", testAPIKey, map[string]interface{}{
		"inventory_sync": map[string]interface{}{"frequency": "weekly"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCredentialValidation(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/v1/credentials/validate", testAPIKey, map[string]string{
		"tenant_id": "shipitez", "api_key": "warehouse-key",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Valid)

	w = app.do(http.MethodPost, "/v1/credentials/validate", testAPIKey, map[string]string{
		"tenant_id": "shipitez", "api_key": "wrong",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid)
}
