package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

const defaultLocation = "Fulfillment Center"

// pack partitions the order's line items into parcels. Items whose SKU is
// currently valid combine into one parcel per fulfillment center; items with
// invalid (or not-yet-validated) SKUs go into a processing parcel as
// backordered, pending manual resolution, so they do not block shipment of
// the rest of the order. Called with e.mu held.
func (e *Engine) pack(order *domain.Order, items []LineItem, now time.Time) {
	var report *domain.ValidationReport
	if e.reports != nil {
		report, _ = e.reports.Current()
	}

	byLocation := make(map[string][]domain.ParcelItem)
	var locations []string
	var backordered []domain.ParcelItem

	for _, item := range items {
		if report != nil && report.IsValidSKU(item.SKU) {
			loc := e.locationFor(item.SKU)
			if _, seen := byLocation[loc]; !seen {
				locations = append(locations, loc)
			}
			byLocation[loc] = append(byLocation[loc], domain.ParcelItem{
				SKU:      item.SKU,
				Title:    item.Title,
				Quantity: item.Quantity,
				Status:   domain.ItemStatusPending,
			})
		} else {
			backordered = append(backordered, domain.ParcelItem{
				SKU:      item.SKU,
				Title:    item.Title,
				Quantity: item.Quantity,
				Status:   domain.ItemStatusBackordered,
			})
		}
	}

	for _, loc := range locations {
		e.addParcel(order, domain.ParcelStatusCreated, loc, byLocation[loc], now, "Parcel created")
	}
	if len(backordered) > 0 {
		e.addParcel(order, domain.ParcelStatusProcessing, defaultLocation, backordered, now,
			"Parcel created - awaiting inventory")
	}
}

func (e *Engine) locationFor(sku string) string {
	if e.mirror == nil {
		return defaultLocation
	}
	rec, found, err := e.mirror.Lookup(sku)
	if err != nil || !found || rec.Location == "" {
		return defaultLocation
	}
	return rec.Location
}

func (e *Engine) addParcel(order *domain.Order, status domain.ParcelStatus, location string, items []domain.ParcelItem, now time.Time, note string) {
	e.parcelSeq++
	parcel := &domain.Parcel{
		ID:           uuid.New(),
		ParcelNumber: fmt.Sprintf("PKG-%03d", e.parcelSeq),
		Status:       status,
		Location:     location,
		Items:        items,
		TrackingEvents: []domain.TrackingEvent{{
			Status:      domain.ParcelStatusCreated,
			Timestamp:   now,
			Location:    location,
			Description: note,
		}},
	}
	order.Parcels = append(order.Parcels, parcel)
	e.parcels[parcel.ID] = &parcelRef{order: order, parcel: parcel}
}
