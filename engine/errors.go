/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place. The engine itself mostly degrades instead
  of erroring (clamped amounts, excluded currencies, capped horizons);
  these errors cover the boundary: missing records and malformed ladders.

SEE ALSO:
  - store.go: Store implementations return the not-found sentinels
  - tiers.go: ValidateLadder returns LadderError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInstrumentNotFound is returned when a referenced instrument
	// doesn't exist.
	ErrInstrumentNotFound = errors.New("instrument not found")

	// ErrTierNotFound is returned when a referenced tier doesn't exist.
	ErrTierNotFound = errors.New("tier not found")

	// ErrFlowNotFound is returned when a referenced ledger flow doesn't
	// exist.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrMachineOwnedFlow is returned when a caller tries to hand-edit a
	// flow the synchronizer owns. Such flows are regenerated on every sync.
	ErrMachineOwnedFlow = errors.New("flow is machine-owned and cannot be edited")

	// ErrInvalidLadder wraps ladder precondition violations.
	ErrInvalidLadder = errors.New("invalid tier ladder")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// LadderError reports which tier violates the ladder precondition.
type LadderError struct {
	TierID TierID
	Reason string
}

func (e *LadderError) Error() string {
	return fmt.Sprintf("invalid tier ladder at %s: %s", e.TierID, e.Reason)
}

func (e *LadderError) Unwrap() error { return ErrInvalidLadder }

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrInstrumentNotFound) ||
		errors.Is(err, ErrTierNotFound) ||
		errors.Is(err, ErrFlowNotFound)
}
