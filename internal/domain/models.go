package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CatalogVariant is one (sku -> product/variant metadata) entry pulled from
// the merchant's storefront catalog.
type CatalogVariant struct {
	SKU               string
	Title             string
	VariantTitle      string
	ProductID         string
	InventoryQuantity int
	Price             decimal.Decimal
	UpdatedAt         time.Time
}

// SKURecord is the 3PL warehouse's last reported state for one SKU.
// Invariant: Available() >= 0.
type SKURecord struct {
	SKU          string
	Title        string
	OnHand       int
	Reserved     int
	Location     string
	Discontinued bool
	// MappingRequired is set by the 3PL when the merchant SKU needs a
	// manual mapping before fulfillment can use it.
	MappingRequired bool
	LastUpdated     time.Time
}

// Available is on-hand stock minus reservations.
func (r SKURecord) Available() int {
	return r.OnHand - r.Reserved
}

// Status derives the stock badge from availability and the low-stock threshold.
func (r SKURecord) Status(lowStockThreshold int) StockStatus {
	return StockStatusFor(r.Available(), lowStockThreshold)
}

// SKUValidation is the per-SKU outcome of one reconciliation pass.
// Results are never mutated in place; each pass produces a fresh set.
type SKUValidation struct {
	SKU                   string        `json:"sku"`
	Valid                 bool          `json:"valid"`
	Reason                InvalidReason `json:"reason,omitempty"`
	SuggestedAlternatives []string      `json:"suggested_alternatives,omitempty"`
	LastChecked           time.Time     `json:"last_checked"`
}

// ValidationReport is the full replacement result set of one reconciliation
// pass. Published atomically: readers see either the previous complete report
// or this one, never a mix.
type ValidationReport struct {
	TenantID    string          `json:"tenant_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	ValidSKUs   []string        `json:"valid_skus"`
	InvalidSKUs []SKUValidation `json:"invalid_skus"`

	valid map[string]struct{}
}

// Seal builds the internal lookup index. Called once before publishing;
// reports are immutable afterwards.
func (r *ValidationReport) Seal() {
	r.valid = make(map[string]struct{}, len(r.ValidSKUs))
	for _, sku := range r.ValidSKUs {
		r.valid[sku] = struct{}{}
	}
}

// IsValidSKU reports whether the SKU passed this pass's validation.
func (r *ValidationReport) IsValidSKU(sku string) bool {
	if r == nil {
		return false
	}
	if r.valid != nil {
		_, ok := r.valid[sku]
		return ok
	}
	for _, s := range r.ValidSKUs {
		if s == sku {
			return true
		}
	}
	return false
}

// SuccessRate is valid/(valid+invalid)*100 rounded to the nearest integer.
// An empty report counts as 100.
func (r *ValidationReport) SuccessRate() int {
	total := len(r.ValidSKUs) + len(r.InvalidSKUs)
	if total == 0 {
		return 100
	}
	return int(float64(len(r.ValidSKUs))/float64(total)*100 + 0.5)
}

// CustomerSnapshot is the customer contact data captured at ingestion time.
// The storefront's copy stays the source of truth; this is read-only input.
type CustomerSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// TimelineEvent is one append-only entry in an order's history.
// Insertion order is chronological order; events are never deleted.
type TimelineEvent struct {
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Note      string      `json:"note,omitempty"`
}

// TrackingEvent is one carrier event recorded against a parcel.
// OutOfOrder marks events that arrived with a timestamp older than the
// parcel's latest recorded event; they are kept but never regress status.
type TrackingEvent struct {
	Status      ParcelStatus `json:"status"`
	Timestamp   time.Time    `json:"timestamp"`
	Location    string       `json:"location,omitempty"`
	Description string       `json:"description,omitempty"`
	OutOfOrder  bool         `json:"out_of_order,omitempty"`
}

// ParcelItem is one line item inside a parcel. Items reference SKU records by
// identifier only.
type ParcelItem struct {
	SKU      string     `json:"sku"`
	Title    string     `json:"title"`
	Quantity int        `json:"quantity"`
	Status   ItemStatus `json:"status"`
}

// Parcel is a physical shipment unit owning a subset of an order's items.
type Parcel struct {
	ID                uuid.UUID       `json:"id"`
	ParcelNumber      string          `json:"parcel_number"`
	Carrier           *string         `json:"carrier,omitempty"`
	CarrierService    *string         `json:"carrier_service,omitempty"`
	TrackingNumber    *string         `json:"tracking_number,omitempty"`
	TrackingURL       *string         `json:"tracking_url,omitempty"`
	Status            ParcelStatus    `json:"status"`
	Location          string          `json:"location,omitempty"`
	Items             []ParcelItem    `json:"items"`
	ShippedAt         *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time      `json:"delivered_at,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	TrackingEvents    []TrackingEvent `json:"tracking_events"`
}

// Order is owned exclusively by the sync engine once ingested.
type Order struct {
	ID              uuid.UUID        `json:"id"`
	ExternalOrderID string           `json:"external_order_id"`
	OrderNumber     string           `json:"order_number"`
	TenantID        string           `json:"tenant_id"`
	Status          OrderStatus      `json:"status"`
	Customer        CustomerSnapshot `json:"customer"`
	Total           decimal.Decimal  `json:"total_price"`
	Currency        string           `json:"currency"`
	Timeline        []TimelineEvent  `json:"timeline"`
	Parcels         []*Parcel        `json:"parcels"`
	Tags            []string         `json:"tags,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Clone returns a deep copy of the order. The sync engine hands copies to
// callers so serving paths never alias state mutated under the engine lock.
func (o *Order) Clone() *Order {
	c := *o
	c.Timeline = append([]TimelineEvent(nil), o.Timeline...)
	c.Tags = append([]string(nil), o.Tags...)
	c.Parcels = make([]*Parcel, len(o.Parcels))
	for i, p := range o.Parcels {
		c.Parcels[i] = p.Clone()
	}
	return &c
}

// Clone returns a deep copy of the parcel.
func (p *Parcel) Clone() *Parcel {
	c := *p
	c.Carrier = clonePtr(p.Carrier)
	c.CarrierService = clonePtr(p.CarrierService)
	c.TrackingNumber = clonePtr(p.TrackingNumber)
	c.TrackingURL = clonePtr(p.TrackingURL)
	c.ShippedAt = clonePtr(p.ShippedAt)
	c.DeliveredAt = clonePtr(p.DeliveredAt)
	c.EstimatedDelivery = clonePtr(p.EstimatedDelivery)
	c.Items = append([]ParcelItem(nil), p.Items...)
	c.TrackingEvents = append([]TrackingEvent(nil), p.TrackingEvents...)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Tenant is the 3PL provider identity a merchant store is connected to.
// Read-mostly; created out of band, referenced by every sync operation.
type Tenant struct {
	ID           string
	Name         string
	DisplayName  string
	ContactEmail string
	ContactPhone string
	SupportURL   *string
	LogoURL      *string
	APIKeyHash   string
	APIKeyLookup string // SHA256(apiKey) hex for fast lookup; set on create
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OrderIngestionSettings controls how merchant orders enter the engine.
type OrderIngestionSettings struct {
	Enabled           bool             `json:"enabled"`
	BatchingFrequency SyncFrequency    `json:"batching_frequency"`
	AutoFulfill       bool             `json:"auto_fulfill"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount,omitempty"`
	ExcludeTags       []string         `json:"exclude_tags,omitempty"`
}

// InventorySyncSettings controls the warehouse mirror sync cadence.
type InventorySyncSettings struct {
	Enabled           bool          `json:"enabled"`
	Frequency         SyncFrequency `json:"frequency"`
	SyncAllProducts   bool          `json:"sync_all_products"`
	LowStockThreshold int           `json:"low_stock_threshold"`
}

// WebhookSettings controls outbound notifications.
type WebhookSettings struct {
	Enabled            bool   `json:"enabled"`
	OrderUpdates       bool   `json:"order_updates"`
	InventoryUpdates   bool   `json:"inventory_updates"`
	FulfillmentUpdates bool   `json:"fulfillment_updates"`
	EndpointURL        string `json:"endpoint_url,omitempty"`
}

// IntegrationSettings is the per-tenant sync configuration.
type IntegrationSettings struct {
	TenantID        string                 `json:"tenant_id"`
	Platform        string                 `json:"platform"`
	StoreIdentifier string                 `json:"store_identifier"`
	IsActive        bool                   `json:"is_active"`
	OrderIngestion  OrderIngestionSettings `json:"order_ingestion"`
	InventorySync   InventorySyncSettings  `json:"inventory_sync"`
	Webhooks        WebhookSettings        `json:"webhooks"`
	LastSync        *time.Time             `json:"last_sync,omitempty"`
	SyncStatus      string                 `json:"sync_status,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// DefaultIntegrationSettings are applied when a tenant has no stored settings.
func DefaultIntegrationSettings(tenantID string) *IntegrationSettings {
	return &IntegrationSettings{
		TenantID:        tenantID,
		Platform:        "shopify",
		IsActive:        true,
		OrderIngestion: OrderIngestionSettings{
			Enabled:           true,
			BatchingFrequency: SyncRealTime,
		},
		InventorySync: InventorySyncSettings{
			Enabled:           true,
			Frequency:         SyncHourly,
			SyncAllProducts:   true,
			LowStockThreshold: 10,
		},
		Webhooks: WebhookSettings{
			Enabled:            true,
			OrderUpdates:       true,
			InventoryUpdates:   true,
			FulfillmentUpdates: true,
		},
	}
}
