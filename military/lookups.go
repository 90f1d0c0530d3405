/*
Package military validates out-of-cycle ("military and rehire")
profit-sharing contributions.

PURPOSE:
  A contribution posted outside the normal year-end cycle must clear a
  chain of business rules before it is accepted: positive amount, posting
  year bounds, lookback window, badge resolution, hire-date consistency,
  minimum age, duplicate suppression, and the supplemental-marking
  requirement for cross-year postings.

DESIGN:
  Each rule is a pure check producing an Outcome; the validator is an
  ordered list of such checks. All rules are evaluated so a caller sees
  every violation in one pass, except that rules whose external lookup
  precondition is unmet report the missing lookup instead of fabricating a
  comparison (a nonexistent badge does not also get an "under 21" failure).

  Validation failures are values, never errors: a missing hire date is a
  rule failure with its own name, not a fault that aborts a batch.

SEE ALSO:
  - validator.go: The rule chain itself
  - plan/dates.go: Age and lookback-window evaluators
*/
package military

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// EXTERNAL LOOKUPS - read-only collaborators
// =============================================================================

// EmployeeDirectory resolves badge numbers to demographic facts. All
// methods are read-only; "not found" is expressed through the ok return,
// while transport failures surface as errors.
type EmployeeDirectory interface {
	// BadgeExists reports whether the badge resolves to an employee.
	BadgeExists(ctx context.Context, badge int) (bool, error)

	// EarliestHireDate returns the employee's earliest known hire date.
	EarliestHireDate(ctx context.Context, badge int) (time.Time, bool, error)

	// DateOfBirth returns the employee's date of birth.
	DateOfBirth(ctx context.Context, badge int) (time.Time, bool, error)
}

// ContributionRecord is one prior contribution on file for a badge.
type ContributionRecord struct {
	Date           time.Time
	Amount         decimal.Decimal
	IsSupplemental bool
}

// ContributionHistory looks up prior contributions for duplicate
// detection. The year queried is the CONTRIBUTION-DATE year, not the
// nominally selected profit year; see the duplicate rule in validator.go.
type ContributionHistory interface {
	ContributionsForYear(ctx context.Context, badge, year int) ([]ContributionRecord, error)
}
