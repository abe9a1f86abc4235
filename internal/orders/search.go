package orders

import (
	"sort"
	"strings"
	"time"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

const defaultSearchLimit = 20

// SearchFilters narrow an order search. All filters combine with AND.
type SearchFilters struct {
	// Query matches order id, external order id, or order number substring
	Query string
	// Customer matches customer name, email, or phone substring
	Customer string
	Status   *domain.OrderStatus
	// CreatedFrom is an inclusive lower bound
	CreatedFrom *time.Time
	// CreatedTo is an inclusive upper bound; callers passing a bare date are
	// expected to extend it to end of day
	CreatedTo *time.Time
	Offset    int
	Limit     int
}

// SearchResult is a page of matching orders.
type SearchResult struct {
	Orders     []*domain.Order `json:"orders"`
	TotalCount int             `json:"total_count"`
	HasMore    bool            `json:"has_more"`
}

// Search returns matching orders ordered by created_at descending, paginated
// by offset+limit. HasMore is (offset+limit) < totalMatching. Results are
// deep copies of engine state.
func (e *Engine) Search(filters SearchFilters) SearchResult {
	e.mu.RLock()
	matching := make([]*domain.Order, 0, len(e.ordered))
	for _, order := range e.ordered {
		if matches(order, filters) {
			matching = append(matching, order.Clone())
		}
	}
	e.mu.RUnlock()

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	total := len(matching)
	start := offset
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return SearchResult{
		Orders:     matching[start:end],
		TotalCount: total,
		HasMore:    offset+limit < total,
	}
}

func matches(order *domain.Order, f SearchFilters) bool {
	if q := strings.TrimSpace(f.Query); q != "" {
		if !containsFold(order.ID.String(), q) &&
			!containsFold(order.ExternalOrderID, q) &&
			!containsFold(order.OrderNumber, q) {
			return false
		}
	}
	if q := strings.TrimSpace(f.Customer); q != "" {
		if !containsFold(order.Customer.Name, q) &&
			!containsFold(order.Customer.Email, q) &&
			!containsFold(order.Customer.Phone, q) {
			return false
		}
	}
	if f.Status != nil && order.Status != *f.Status {
		return false
	}
	if f.CreatedFrom != nil && order.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && order.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
