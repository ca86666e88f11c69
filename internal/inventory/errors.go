package inventory

import (
	"errors"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// Error kinds. Every error returned by Service wraps exactly one of them.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
	ErrUnauthenticated   = errors.New("not authenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrStore             = errors.New("store failure")
)

// ValidationError names the input field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// InsufficientStockError reports the first lot that could not cover a debit.
type InsufficientStockError struct {
	ItemID     int64
	Expiration model.Date
	Requested  int
	Available  int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d lot %s: requested %d, available %d",
		e.ItemID, e.Expiration, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func notFound(what string, id int64) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// StoreError wraps an unexpected failure of the backing store. Its message
// carries the cause for logs; callers facing the outside should only report
// the kind.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }
