// Package orders owns the lifecycle of each order from ingestion through its
// delivered or exception terminal state.
package orders

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/SiteBossInc/owl-sync/internal/domain"
	"github.com/SiteBossInc/owl-sync/internal/reconcile"
	"github.com/SiteBossInc/owl-sync/internal/warehouse"
	"github.com/SiteBossInc/owl-sync/pkg/errors"
)

// Outcome of an ingest call.
type Outcome string

const (
	// OutcomeAccepted - the order was created
	OutcomeAccepted Outcome = "accepted"
	// OutcomeDuplicate - the external order id was already known; benign no-op
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeRejected - the order was filtered out by ingestion settings
	OutcomeRejected Outcome = "rejected"
)

// LineItem is one storefront order line as received from the merchant.
type LineItem struct {
	SKU      string          `json:"sku"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// IngestRequest is the storefront order payload handed to the engine.
type IngestRequest struct {
	ExternalOrderID string                  `json:"external_order_id"`
	OrderNumber     string                  `json:"order_number"`
	Customer        domain.CustomerSnapshot `json:"customer"`
	Currency        string                  `json:"currency"`
	Total           decimal.Decimal         `json:"total_price"`
	Tags            []string                `json:"tags,omitempty"`
	Items           []LineItem              `json:"items"`
}

// IngestFilters mirror the tenant's order-ingestion settings. Orders failing
// a filter are rejected (a user-visible, non-alerting outcome), not errored.
type IngestFilters struct {
	MinOrderAmount *decimal.Decimal
	ExcludeTags    []string
}

// Engine is the order sync engine for one tenant.
type Engine struct {
	mu       sync.RWMutex
	tenantID string
	reports  *reconcile.ReportStore
	mirror   *warehouse.Mirror
	filters  IngestFilters
	logger   *zap.Logger

	byID       map[uuid.UUID]*domain.Order
	byExternal map[string]*domain.Order
	parcels    map[uuid.UUID]*parcelRef
	ordered    []*domain.Order
	parcelSeq  int
	now        func() time.Time
}

type parcelRef struct {
	order  *domain.Order
	parcel *domain.Parcel
}

// NewEngine creates an order sync engine. The report store supplies the
// current SKU validation partition for the packing policy; the mirror
// supplies fulfillment-center locations.
func NewEngine(tenantID string, reports *reconcile.ReportStore, mirror *warehouse.Mirror, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tenantID:   tenantID,
		reports:    reports,
		mirror:     mirror,
		logger:     logger,
		byID:       make(map[uuid.UUID]*domain.Order),
		byExternal: make(map[string]*domain.Order),
		parcels:    make(map[uuid.UUID]*parcelRef),
		now:        time.Now,
	}
}

// SetFilters updates the ingestion filters from tenant settings.
func (e *Engine) SetFilters(f IngestFilters) {
	e.mu.Lock()
	e.filters = f
	e.mu.Unlock()
}

// Ingest creates an order from a storefront payload. Ingestion is at-most-once
// per external order id: re-ingesting a known id returns the existing order
// with a duplicate outcome so at-least-once delivery upstream stays harmless.
func (e *Engine) Ingest(req IngestRequest) (*domain.Order, Outcome, error) {
	externalID := strings.TrimSpace(req.ExternalOrderID)
	if externalID == "" {
		return nil, "", &errors.ErrValidation{
			Message: "external_order_id is required",
			Fields:  map[string]string{"external_order_id": "must not be empty"},
		}
	}
	if len(req.Items) == 0 {
		return nil, "", &errors.ErrValidation{
			Message: "order must contain at least one line item",
			Fields:  map[string]string{"items": "must not be empty"},
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if existing, ok := e.byExternal[externalID]; ok {
		e.logger.Info("Duplicate order ingestion ignored",
			zap.String("external_order_id", externalID))
		return existing.Clone(), OutcomeDuplicate, nil
	}

	if reason, filtered := e.filteredOut(req); filtered {
		e.logger.Info("Order rejected by ingestion filters",
			zap.String("external_order_id", externalID), zap.String("reason", reason))
		return nil, OutcomeRejected, nil
	}

	now := e.now()
	order := &domain.Order{
		ID:              uuid.New(),
		ExternalOrderID: externalID,
		OrderNumber:     req.OrderNumber,
		TenantID:        e.tenantID,
		Status:          domain.OrderStatusReceived,
		Customer:        req.Customer,
		Total:           req.Total,
		Currency:        req.Currency,
		Tags:            req.Tags,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.Timeline = append(order.Timeline, domain.TimelineEvent{
		Status:    domain.OrderStatusReceived,
		Timestamp: now,
		Note:      "Order received and validated",
	})

	e.pack(order, req.Items, now)

	// Parcels exist; fulfillment starts immediately.
	order.Status = domain.OrderStatusProcessing
	order.Timeline = append(order.Timeline, domain.TimelineEvent{
		Status:    domain.OrderStatusProcessing,
		Timestamp: now,
		Note:      "Order processing started",
	})

	e.byID[order.ID] = order
	e.byExternal[externalID] = order
	e.ordered = append(e.ordered, order)

	e.logger.Info("Order ingested",
		zap.String("external_order_id", externalID),
		zap.String("order_id", order.ID.String()),
		zap.Int("parcels", len(order.Parcels)),
	)
	return order.Clone(), OutcomeAccepted, nil
}

func (e *Engine) filteredOut(req IngestRequest) (string, bool) {
	if e.filters.MinOrderAmount != nil && req.Total.LessThan(*e.filters.MinOrderAmount) {
		return "below minimum order amount", true
	}
	for _, tag := range req.Tags {
		for _, excluded := range e.filters.ExcludeTags {
			if strings.EqualFold(strings.TrimSpace(tag), strings.TrimSpace(excluded)) {
				return fmt.Sprintf("excluded tag %q", excluded), true
			}
		}
	}
	return "", false
}

// Get returns an order by internal UUID or external order id. The returned
// order is a deep copy; readers never alias live engine state.
func (e *Engine) Get(idOrExternalID string) (*domain.Order, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if id, err := uuid.Parse(idOrExternalID); err == nil {
		if order, ok := e.byID[id]; ok {
			return order.Clone(), nil
		}
	}
	if order, ok := e.byExternal[idOrExternalID]; ok {
		return order.Clone(), nil
	}
	return nil, &errors.ErrNotFound{Resource: "order", ID: idOrExternalID}
}

// RecordParcelEvent appends a carrier tracking event to a parcel, advances
// parcel status by semantic rank, recomputes the order aggregate, and appends
// a synthesized timeline event when the order status changes. Out-of-order
// events (older timestamp than the parcel's latest) are accepted but flagged
// and never regress status. Returns a deep copy of the updated order.
func (e *Engine) RecordParcelEvent(parcelID uuid.UUID, event domain.TrackingEvent) (*domain.Order, error) {
	if !event.Status.IsValid() {
		return nil, &errors.ErrValidation{
			Message: fmt.Sprintf("unknown tracking status %q", event.Status),
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ref, ok := e.parcels[parcelID]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "parcel", ID: parcelID.String()}
	}
	order, parcel := ref.order, ref.parcel

	if event.Timestamp.IsZero() {
		event.Timestamp = e.now()
	}
	if n := len(parcel.TrackingEvents); n > 0 && event.Timestamp.Before(parcel.TrackingEvents[n-1].Timestamp) {
		event.OutOfOrder = true
		e.logger.Warn("Out-of-order tracking event",
			zap.String("parcel_id", parcelID.String()),
			zap.String("status", string(event.Status)),
			zap.Time("timestamp", event.Timestamp),
		)
	}
	parcel.TrackingEvents = append(parcel.TrackingEvents, event)

	if event.Status.Rank() > parcel.Status.Rank() {
		e.advanceParcel(parcel, event)
	}

	e.recomputeOrderStatus(order, parcel)
	order.UpdatedAt = e.now()
	return order.Clone(), nil
}

func (e *Engine) advanceParcel(parcel *domain.Parcel, event domain.TrackingEvent) {
	parcel.Status = event.Status
	ts := event.Timestamp

	switch event.Status {
	case domain.ParcelStatusShipped:
		if parcel.ShippedAt == nil {
			parcel.ShippedAt = &ts
		}
	case domain.ParcelStatusDelivered:
		if parcel.ShippedAt == nil {
			parcel.ShippedAt = &ts
		}
		parcel.DeliveredAt = &ts
	}

	if itemStatus, ok := itemStatusFor(event.Status); ok {
		for i := range parcel.Items {
			if parcel.Items[i].Status == domain.ItemStatusBackordered {
				continue // backordered items wait for explicit resolution
			}
			parcel.Items[i].Status = itemStatus
		}
	}
}

func itemStatusFor(s domain.ParcelStatus) (domain.ItemStatus, bool) {
	switch s {
	case domain.ParcelStatusPicking:
		return domain.ItemStatusPicking, true
	case domain.ParcelStatusPacked:
		return domain.ItemStatusPacked, true
	case domain.ParcelStatusShipped:
		return domain.ItemStatusShipped, true
	case domain.ParcelStatusInTransit:
		return domain.ItemStatusInTransit, true
	case domain.ParcelStatusDelivered:
		return domain.ItemStatusDelivered, true
	default:
		return "", false
	}
}

// recomputeOrderStatus applies the parcel-aggregate rule. The aggregate only
// moves the order forward; a recomputation never regresses a higher status.
func (e *Engine) recomputeOrderStatus(order *domain.Order, changed *domain.Parcel) {
	next := aggregateStatus(order)
	if next == order.Status || next.Rank() <= order.Status.Rank() {
		return
	}
	order.Status = next
	order.Timeline = append(order.Timeline, domain.TimelineEvent{
		Status:    next,
		Timestamp: e.now(),
		Note:      fmt.Sprintf("Parcel %s is %s", changed.ParcelNumber, changed.Status),
	})
}

// aggregateStatus derives the order-level status from its parcels: an order
// is "partially_X" iff at least one but not all parcels are at X-equivalent,
// and "X" iff all are. delivered requires every parcel delivered.
func aggregateStatus(order *domain.Order) domain.OrderStatus {
	total := len(order.Parcels)
	if total == 0 {
		return order.Status
	}

	var delivered, shippedEq, packed, picking, exception int
	for _, p := range order.Parcels {
		switch {
		case p.Status == domain.ParcelStatusException:
			exception++
		case p.Status == domain.ParcelStatusDelivered:
			delivered++
		}
		if p.Status.ShippedEquivalent() {
			shippedEq++
		}
		if p.Status.Rank() >= domain.ParcelStatusPacked.Rank() {
			packed++
		}
		if p.Status.Rank() >= domain.ParcelStatusPicking.Rank() {
			picking++
		}
	}

	switch {
	case exception > 0:
		return domain.OrderStatusException
	case delivered == total:
		return domain.OrderStatusDelivered
	case delivered > 0:
		return domain.OrderStatusPartiallyDelivered
	case shippedEq == total:
		return domain.OrderStatusShipped
	case shippedEq > 0:
		return domain.OrderStatusPartiallyShipped
	case packed == total:
		return domain.OrderStatusPacked
	case picking > 0:
		return domain.OrderStatusPicking
	default:
		return domain.OrderStatusProcessing
	}
}

// CarrierInfo is carrier metadata reported alongside a tracking update.
type CarrierInfo struct {
	Carrier           string
	CarrierService    string
	TrackingNumber    string
	TrackingURL       string
	EstimatedDelivery *time.Time
}

// SetParcelCarrier records carrier metadata for a parcel. Empty fields leave
// existing values untouched.
func (e *Engine) SetParcelCarrier(parcelID uuid.UUID, info CarrierInfo) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ref, ok := e.parcels[parcelID]
	if !ok {
		return &errors.ErrNotFound{Resource: "parcel", ID: parcelID.String()}
	}
	p := ref.parcel
	if info.Carrier != "" {
		v := info.Carrier
		p.Carrier = &v
	}
	if info.CarrierService != "" {
		v := info.CarrierService
		p.CarrierService = &v
	}
	if info.TrackingNumber != "" {
		v := info.TrackingNumber
		p.TrackingNumber = &v
	}
	if info.TrackingURL != "" {
		v := info.TrackingURL
		p.TrackingURL = &v
	}
	if info.EstimatedDelivery != nil {
		v := *info.EstimatedDelivery
		p.EstimatedDelivery = &v
	}
	return nil
}

// MarkException moves an order to the exception state with a note. Fails on
// terminal orders.
func (e *Engine) MarkException(orderID uuid.UUID, note string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, ok := e.byID[orderID]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}
	if !order.Status.CanTransitionTo(domain.OrderStatusException) {
		return &errors.ErrInvalidStateTransition{From: order.Status, To: domain.OrderStatusException}
	}
	order.Status = domain.OrderStatusException
	order.Timeline = append(order.Timeline, domain.TimelineEvent{
		Status:    domain.OrderStatusException,
		Timestamp: e.now(),
		Note:      note,
	})
	order.UpdatedAt = e.now()
	return nil
}

// ResolveBackorders re-checks an order's backordered items against the
// current validation report and releases those that became valid: items move
// to pending and a fully released parcel moves to picking. Returns the number
// of released items.
func (e *Engine) ResolveBackorders(orderID uuid.UUID) (int, error) {
	report, ok := e.reports.Current()
	if !ok {
		return 0, nil // nothing to check against yet
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	order, found := e.byID[orderID]
	if !found {
		return 0, &errors.ErrNotFound{Resource: "order", ID: orderID.String()}
	}

	released := 0
	for _, parcel := range order.Parcels {
		releasedHere, remaining := 0, 0
		for i := range parcel.Items {
			if parcel.Items[i].Status != domain.ItemStatusBackordered {
				continue
			}
			if report.IsValidSKU(parcel.Items[i].SKU) {
				parcel.Items[i].Status = domain.ItemStatusPending
				releasedHere++
			} else {
				remaining++
			}
		}
		released += releasedHere
		if releasedHere > 0 && remaining == 0 && parcel.Status == domain.ParcelStatusProcessing {
			parcel.Status = domain.ParcelStatusPicking
			parcel.TrackingEvents = append(parcel.TrackingEvents, domain.TrackingEvent{
				Status:      domain.ParcelStatusPicking,
				Timestamp:   e.now(),
				Description: "Backordered items released to picking",
			})
		}
	}

	if released > 0 {
		order.Timeline = append(order.Timeline, domain.TimelineEvent{
			Status:    order.Status,
			Timestamp: e.now(),
			Note:      fmt.Sprintf("%d backordered item(s) released", released),
		})
		order.UpdatedAt = e.now()
	}
	return released, nil
}

// OrdersToday counts orders created on the same calendar day as now.
func (e *Engine) OrdersToday(now time.Time) int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	day := now.Format("2006-01-02")
	count := 0
	for _, order := range e.ordered {
		if order.CreatedAt.In(now.Location()).Format("2006-01-02") == day {
			count++
		}
	}
	return count
}

// TotalOrders returns the number of ingested orders.
func (e *Engine) TotalOrders() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.ordered)
}
