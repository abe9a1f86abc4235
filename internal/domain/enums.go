package domain

import "time"

// OrderStatus represents the fulfillment status of an order
type OrderStatus string

const (
	// RECEIVED - order ingested and validated
	OrderStatusReceived OrderStatus = "received"
	// PROCESSING - line items partitioned into parcels, fulfillment started
	OrderStatusProcessing OrderStatus = "processing"
	// PICKING - items being picked from the warehouse
	OrderStatusPicking OrderStatus = "picking"
	// PACKED - all parcels packed, awaiting carrier pickup
	OrderStatusPacked OrderStatus = "packed"
	// SHIPPED - every parcel handed to a carrier
	OrderStatusShipped OrderStatus = "shipped"
	// PARTIALLY_SHIPPED - some but not all parcels handed to a carrier
	OrderStatusPartiallyShipped OrderStatus = "partially_shipped"
	// DELIVERED - every parcel delivered (terminal)
	OrderStatusDelivered OrderStatus = "delivered"
	// PARTIALLY_DELIVERED - some but not all parcels delivered (not terminal)
	OrderStatusPartiallyDelivered OrderStatus = "partially_delivered"
	// EXCEPTION - manual intervention required (terminal)
	OrderStatusException OrderStatus = "exception"
)

// IsValid checks if the order status is valid
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusReceived,
		OrderStatusProcessing,
		OrderStatusPicking,
		OrderStatusPacked,
		OrderStatusShipped,
		OrderStatusPartiallyShipped,
		OrderStatusDelivered,
		OrderStatusPartiallyDelivered,
		OrderStatusException:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed.
// partially_delivered is not terminal: remaining parcels may still complete.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusException
}

// CanTransitionTo checks if a status transition is valid
func (s OrderStatus) CanTransitionTo(newStatus OrderStatus) bool {
	if !newStatus.IsValid() {
		return false
	}
	// exception is reachable from any non-terminal state
	if newStatus == OrderStatusException {
		return !s.IsTerminal()
	}

	switch s {
	case OrderStatusReceived:
		return newStatus == OrderStatusProcessing
	case OrderStatusProcessing:
		return newStatus == OrderStatusPicking ||
			newStatus == OrderStatusPacked ||
			newStatus == OrderStatusShipped ||
			newStatus == OrderStatusPartiallyShipped
	case OrderStatusPicking:
		return newStatus == OrderStatusPacked ||
			newStatus == OrderStatusShipped ||
			newStatus == OrderStatusPartiallyShipped
	case OrderStatusPacked:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusPartiallyShipped
	case OrderStatusShipped:
		return newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusPartiallyDelivered
	case OrderStatusPartiallyShipped:
		return newStatus == OrderStatusShipped ||
			newStatus == OrderStatusDelivered ||
			newStatus == OrderStatusPartiallyDelivered
	case OrderStatusPartiallyDelivered:
		return newStatus == OrderStatusDelivered
	case OrderStatusDelivered, OrderStatusException:
		return false // Terminal states
	default:
		return false
	}
}

// Rank orders statuses by fulfillment progress. Aggregation only ever moves
// an order forward; a lower-ranked recomputation never overwrites a
// higher-ranked status.
func (s OrderStatus) Rank() int {
	switch s {
	case OrderStatusReceived:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusPicking:
		return 2
	case OrderStatusPacked:
		return 3
	case OrderStatusPartiallyShipped:
		return 4
	case OrderStatusShipped:
		return 5
	case OrderStatusPartiallyDelivered:
		return 6
	case OrderStatusDelivered:
		return 7
	case OrderStatusException:
		return 8
	default:
		return -1
	}
}

// ParcelStatus represents the fulfillment status of a single parcel
type ParcelStatus string

const (
	ParcelStatusCreated    ParcelStatus = "created"
	ParcelStatusProcessing ParcelStatus = "processing"
	ParcelStatusPicking    ParcelStatus = "picking"
	ParcelStatusPacked     ParcelStatus = "packed"
	ParcelStatusShipped    ParcelStatus = "shipped"
	ParcelStatusInTransit  ParcelStatus = "in_transit"
	ParcelStatusDelivered  ParcelStatus = "delivered"
	ParcelStatusException  ParcelStatus = "exception"
)

// IsValid checks if the parcel status is valid
func (s ParcelStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank gives the semantic ordering of carrier events. Out-of-order tracking
// events are resolved by rank, not wall clock: delivered > in_transit >
// shipped > packed > picking > processing > created.
func (s ParcelStatus) Rank() int {
	switch s {
	case ParcelStatusCreated:
		return 0
	case ParcelStatusProcessing:
		return 1
	case ParcelStatusPicking:
		return 2
	case ParcelStatusPacked:
		return 3
	case ParcelStatusShipped:
		return 4
	case ParcelStatusInTransit:
		return 5
	case ParcelStatusDelivered:
		return 6
	case ParcelStatusException:
		return 7
	default:
		return -1
	}
}

// ShippedEquivalent reports whether the parcel has left the warehouse.
func (s ParcelStatus) ShippedEquivalent() bool {
	return s == ParcelStatusShipped || s == ParcelStatusInTransit || s == ParcelStatusDelivered
}

// ItemStatus represents the status of a single parcel line item
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "pending"
	ItemStatusPicking     ItemStatus = "picking"
	ItemStatusPacked      ItemStatus = "packed"
	ItemStatusShipped     ItemStatus = "shipped"
	ItemStatusInTransit   ItemStatus = "in_transit"
	ItemStatusDelivered   ItemStatus = "delivered"
	ItemStatusBackordered ItemStatus = "backordered"
)

// StockStatus classifies warehouse availability for an SKU
type StockStatus string

const (
	StockStatusInStock    StockStatus = "in_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)

// StockStatusFor derives the stock status from available quantity and the
// configured low-stock threshold.
func StockStatusFor(available, lowStockThreshold int) StockStatus {
	switch {
	case available <= 0:
		return StockStatusOutOfStock
	case available <= lowStockThreshold:
		return StockStatusLowStock
	default:
		return StockStatusInStock
	}
}

// InvalidReason explains why an SKU failed validation against the warehouse
type InvalidReason string

const (
	// The warehouse completed a full sync and the SKU is not in it
	ReasonNotFoundInWarehouse InvalidReason = "not_found_in_warehouse"
	// The warehouse has never completed an initial full sync for this tenant
	ReasonNotSyncedWithWarehouse InvalidReason = "not_synced_with_warehouse"
	ReasonDiscontinued           InvalidReason = "discontinued"
	ReasonOutOfStock             InvalidReason = "out_of_stock"
	ReasonMappingRequired        InvalidReason = "mapping_required"
	// The per-SKU warehouse lookup failed; does not poison the rest of the pass
	ReasonFetchError InvalidReason = "fetch_error"
)

// SyncFrequency is the configured cadence for catalog/inventory sync passes
type SyncFrequency string

const (
	SyncRealTime   SyncFrequency = "real-time"
	SyncEvery15Min SyncFrequency = "15min"
	SyncHourly     SyncFrequency = "hourly"
	SyncEvery6Hour SyncFrequency = "6hour"
	SyncDaily      SyncFrequency = "daily"
)

// IsValid checks if the sync frequency is a known cadence
func (f SyncFrequency) IsValid() bool {
	switch f {
	case SyncRealTime, SyncEvery15Min, SyncHourly, SyncEvery6Hour, SyncDaily:
		return true
	default:
		return false
	}
}

// Interval returns the tick interval for the cadence. real-time returns 0:
// passes are driven by webhook triggers only.
func (f SyncFrequency) Interval() time.Duration {
	switch f {
	case SyncEvery15Min:
		return 15 * time.Minute
	case SyncHourly:
		return time.Hour
	case SyncEvery6Hour:
		return 6 * time.Hour
	case SyncDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}
