package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks missing or invalid caller input.
	ErrValidation = errors.New("validation failed")
	// ErrInsufficientStock marks a checkout line exceeding available quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvariant marks a broken domain invariant, e.g. a referenced entity vanished.
	ErrInvariant = errors.New("invariant violation")
	// ErrConflict indicates the record already exists or a concurrent write won.
	ErrConflict = errors.New("conflict")
	// ErrSetupRequired is returned while the store profile has not been configured.
	ErrSetupRequired = errors.New("store setup required")
)

// ValidationError carries user-facing messages keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError reports the product whose stock would go negative.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvariantViolation signals a programming defect rather than bad input.
type InvariantViolation struct {
	Detail string
}

func (e *InvariantViolation) Error() string {
	return ErrInvariant.Error() + ": " + e.Detail
}

func (e *InvariantViolation) Unwrap() error { return ErrInvariant }

// UserSafeMessage returns a message that can be shown to the operator.
func UserSafeMessage(err error) string {
	var verr *ValidationError
	var stock *InsufficientStockError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &stock):
		return stock.Error()
	case errors.Is(err, ErrNotFound):
		return "record not found"
	case errors.Is(err, ErrSetupRequired):
		return "store name and phone must be configured first"
	case errors.Is(err, ErrConflict):
		return "record changed concurrently, please retry"
	default:
		return "unexpected error, please try again"
	}
}
