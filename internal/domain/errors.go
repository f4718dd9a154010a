package domain

import (
	"errors"
	"fmt"
)

// Provider-side failures. The market data service absorbs these at its
// boundary and converts them to a cache miss; callers only ever see
// QuoteUnavailableError when no fallback exists.
var (
	// ErrQuoteNotFound means the provider has no data for the symbol.
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrProvider means the provider returned an error or malformed data.
	ErrProvider = errors.New("provider error")

	// ErrProviderTimeout means the provider call exceeded its deadline.
	ErrProviderTimeout = errors.New("provider timeout")
)

// ValidationError reports caller-supplied data that violates an invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// NewNotFoundError creates a NotFoundError for an entity and key
func NewNotFoundError(entity string, key interface{}) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf("%v", key)}
}

// QuoteUnavailableError means the provider failed and no cached or persisted
// price exists for the symbol. Distinct from NotFoundError: the data may
// exist but is currently unreachable.
type QuoteUnavailableError struct {
	Symbol string
	Cause  error
}

func (e *QuoteUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("no price available for %s: %v", e.Symbol, e.Cause)
	}
	return fmt.Sprintf("no price available for %s", e.Symbol)
}

func (e *QuoteUnavailableError) Unwrap() error {
	return e.Cause
}

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsQuoteUnavailable reports whether err is a QuoteUnavailableError
func IsQuoteUnavailable(err error) bool {
	var qu *QuoteUnavailableError
	return errors.As(err, &qu)
}
