// Package siteboss implements the warehouse/3PL provider against the
// SiteBoss OWL REST API.
package siteboss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/config"
	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// Client calls the SiteBoss OWL API with a tenant-scoped API key
type Client struct {
	baseURL    string
	apiKey     string
	tenantID   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a SiteBoss OWL HTTP client
func NewClient(cfg config.SiteBossConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		tenantID:   cfg.TenantID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// envelope is the SiteBoss OWL response wrapper
type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

type inventoryRecord struct {
	SKU             string    `json:"sku"`
	Title           string    `json:"title"`
	Quantity        int       `json:"quantity"`
	Reserved        int       `json:"reserved"`
	Location        string    `json:"location"`
	Discontinued    bool      `json:"discontinued,omitempty"`
	MappingRequired bool      `json:"mapping_required,omitempty"`
	LastUpdated     time.Time `json:"last_updated"`
}

// FetchInventory returns the tenant's full stock snapshot.
func (c *Client) FetchInventory(ctx context.Context) ([]domain.SKURecord, error) {
	body, err := c.get(ctx, "/v1/inventory", url.Values{"tenant_id": {c.tenantID}})
	if err != nil {
		return nil, &errors.ErrTransport{Op: "siteboss inventory fetch", Err: err}
	}

	var records []inventoryRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &errors.ErrTransport{
			Op:  "siteboss inventory fetch",
			Err: fmt.Errorf("failed to parse inventory payload: %w", err),
		}
	}

	out := make([]domain.SKURecord, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.SKURecord{
			SKU:             rec.SKU,
			Title:           rec.Title,
			OnHand:          rec.Quantity,
			Reserved:        rec.Reserved,
			Location:        rec.Location,
			Discontinued:    rec.Discontinued,
			MappingRequired: rec.MappingRequired,
			LastUpdated:     rec.LastUpdated,
		})
	}
	return out, nil
}

// SubmitOrder pushes an ingested order to the 3PL for fulfillment.
func (c *Client) SubmitOrder(ctx context.Context, order *domain.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}
	if _, err := c.post(ctx, "/v1/orders", payload); err != nil {
		return &errors.ErrTransport{Op: "siteboss order submit", Err: err}
	}
	return nil
}

// ValidateCredentials checks a (tenant_id, api_key) pair. The API answers
// with success=false rather than an error for bad keys, so only transport
// problems surface as errors.
func (c *Client) ValidateCredentials(ctx context.Context, tenantID, apiKey string) (bool, error) {
	payload, err := json.Marshal(map[string]string{
		"tenant_id": tenantID,
		"api_key":   apiKey,
	})
	if err != nil {
		return false, err
	}

	u := c.baseURL + "/v1/credentials/validate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("SiteBoss credential validation request failed", zap.Error(err))
		return false, &errors.ErrTransport{Op: "siteboss credential validation", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return false, &errors.ErrTransport{
			Op:  "siteboss credential validation",
			Err: fmt.Errorf("siteboss returned %d: %s", resp.StatusCode, string(body)),
		}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return false, &errors.ErrTransport{Op: "siteboss credential validation", Err: err}
	}
	return env.Success, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, fmt.Errorf("siteboss client not configured: base URL and API key required")
	}
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, err
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("SiteBoss request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("siteboss returned %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("siteboss request unsuccessful: %s", env.Message)
	}
	return env.Data, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (json.RawMessage, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, fmt.Errorf("siteboss client not configured: base URL and API key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("SiteBoss request failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("siteboss returned %d: %s", resp.StatusCode, string(body))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !env.Success {
		return nil, fmt.Errorf("siteboss request unsuccessful: %s", env.Message)
	}
	return env.Data, nil
}
