/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All allocation error types in one place for consistency and
  discoverability.

ERROR CATEGORIES:
  1. InvalidInput - malformed raw records; the run aborts before any pool
     mutation and the error is surfaced to the caller.
  2. InvariantViolation - internal contract breach (a pool driven negative,
     a negative remaining quantity reaching the engine). Programmer error,
     never business-recoverable.

  Shortages and zero-coverage outcomes are NOT errors. They are normal
  results and are always computed and returned.

USAGE:
  if errors.Is(err, allocation.ErrInvalidInput) {
      // reject the request, nothing was allocated
  }

SEE ALSO:
  - normalize.go: Rejects bad raw records with InvalidInputError
  - engine.go: Guards engine contracts with InvariantViolationError
*/
package allocation

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidInput is returned for malformed raw records: negative
	// quantities, shipped exceeding ordered, unknown stages.
	ErrInvalidInput = errors.New("invalid allocation input")

	// ErrInvariantViolation is returned when an internal contract is
	// breached. This is a programmer error, not a business condition.
	ErrInvariantViolation = errors.New("allocation invariant violated")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidInputError identifies the offending record and field.
type InvalidInputError struct {
	Record string // e.g. "order CO123 line 2", "item quantities for WIDGET-9"
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s %s", e.Record, e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// InvariantViolationError snapshots the allocation state at the point of
// breach so the failure is diagnosable from the log alone.
type InvariantViolationError struct {
	Invariant string
	Item      string
	Stage     Stage
	CONum     string
	COLine    int
	Value     int
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violated: %s (item=%q stage=%q line=%s/%d value=%d)",
		e.Invariant, e.Item, e.Stage, e.CONum, e.COLine, e.Value)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }
