/*
errors.go - Centralized error types for the plan engine

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Domain packages wrap these with additional context.

ERROR CATEGORIES (per the error taxonomy):
  1. Validation failures are NOT errors - they are values (see military/).
  2. Parsing defects - fatal for a report, surfaced as wrapped sentinels.
  3. Reconciliation mismatches are designed output, not errors; only
     internal invariant violations (duplicate join keys) are faults.

USAGE:
    if errors.Is(err, plan.ErrTotalsMismatch) { ... }
*/
package plan

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrTotalsMissing is returned when a legacy report has no totals
	// section. Parsing must not return unverified data for financial
	// reconciliation.
	ErrTotalsMissing = errors.New("legacy report totals section missing")

	// ErrTotalsMismatch is returned when recomputed detail sums disagree
	// with the report's own totals. This signals a parsing defect (wrong
	// column offsets), not a business discrepancy.
	ErrTotalsMismatch = errors.New("legacy report totals do not match detail rows")

	// ErrDuplicateKey is returned when one side of a reconciliation join
	// contains the same PSN twice. Inputs are supposed to be immutable
	// one-row-per-PSN snapshots, so this is an internal invariant fault.
	ErrDuplicateKey = errors.New("duplicate key within one reconciliation side")

	// ErrBadFieldSpec is returned when a layout's field offsets fall
	// outside the line being parsed in a way the format does not allow.
	ErrBadFieldSpec = errors.New("field spec outside line bounds")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TotalsMismatchError reports which aggregate diverged and by how much.
type TotalsMismatchError struct {
	Field    string
	Reported string
	Computed string
}

func (e *TotalsMismatchError) Error() string {
	return fmt.Sprintf("totals mismatch on %s: report says %s, detail rows sum to %s",
		e.Field, e.Reported, e.Computed)
}

func (e *TotalsMismatchError) Unwrap() error { return ErrTotalsMismatch }

// DuplicateKeyError identifies the offending PSN and side.
type DuplicateKeyError struct {
	Side string
	Key  PSN
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %s in %s records", e.Key, e.Side)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }
