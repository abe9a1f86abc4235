package errors

import (
	"fmt"

	"github.com/SiteBossInc/owl-sync/internal/domain"
)

// ErrNotFound is returned when a resource is not found
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation is returned when validation fails
type ErrValidation struct {
	Message string
	Fields  map[string]string
}

func (e *ErrValidation) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "validation failed"
}

// ErrDuplicate is returned when an already-known resource is submitted again.
// Re-ingestion of a known external_order_id is a benign no-op at the engine
// level; this type exists for callers that need to tell the case apart.
type ErrDuplicate struct {
	Resource string
	ID       string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Resource, e.ID)
}

// ErrTransport is returned when an upstream catalog/warehouse call fails.
// Retryable; the scheduler backs off and retries the whole pass.
type ErrTransport struct {
	Op  string
	Err error
}

func (e *ErrTransport) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *ErrTransport) Unwrap() error {
	return e.Err
}

// ErrUnauthorized is returned when authentication fails
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrInvalidStateTransition is returned when an invalid order state transition is attempted
type ErrInvalidStateTransition struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}
