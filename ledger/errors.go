/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine wraps these with additional context; the API layer maps them
  to HTTP status codes.

ERROR CATEGORIES:
  1. Validation errors  - Malformed input, rejected before any store access
  2. Not-found errors   - A participant record missing at atomic-unit time
  3. Conflict errors    - The atomic unit lost the store's concurrency race
  4. Invariant errors   - A mutation that would break a ledger invariant

USAGE:
  Callers match with errors.Is/As:

    if ledger.IsNotFound(err) { ... }
    var nf *ledger.NotFoundError
    if errors.As(err, &nf) { log.Printf("missing %s %s", nf.Kind, nf.ID) }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed input (negative amount,
	// missing required reference, invalid schedule definition). The store
	// is never touched.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an installment, debt, account, or
	// transaction is missing at atomic-unit time. The unit aborts with no
	// side effects.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when the atomic unit loses the store's
	// concurrency race. The engine retries the whole unit a bounded number
	// of times before surfacing this.
	ErrConflict = errors.New("concurrent modification detected")

	// ErrInvariant is returned when a mutation would break a ledger
	// invariant (e.g., deleting a debt that has linked payments).
	ErrInvariant = errors.New("invariant violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry kind + offending record id
// =============================================================================

// NotFoundError names the record that was missing.
type NotFoundError struct {
	Kind string // "account", "debt", "installment", "transaction"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvariantViolationError describes a mutation rejected to protect ledger
// consistency.
type InvariantViolationError struct {
	Reason string
	DebtID DebtID
}

func (e *InvariantViolationError) Error() string {
	if e.DebtID != "" {
		return fmt.Sprintf("invariant violation on debt %s: %s", e.DebtID, e.Reason)
	}
	return fmt.Sprintf("invariant violation: %s", e.Reason)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariant }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the whole atomic unit might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than an engine or store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvariant)
}
