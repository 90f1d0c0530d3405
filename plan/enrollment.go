/*
enrollment.go - Enrollment classifier

PURPOSE:
  Derives the enrollment category from (vesting schedule, has-forfeited).
  The category is never stored as a source of truth: it is recomputed from
  those two facts so the whole system, and the legacy system, classify any
  given pair identically.

LEGACY PARITY:
  The mainframe (PAY450) updates the enrollment flag lazily and skips the
  forfeiture reclassification entirely when the computed vesting percent
  for the year is 0% - there is no vested money to protect, so the flag
  stays on the contributions value. Dropping that skip produces a
  population-wide classification drift that is trivially visible in
  reconciliation and has regressed before, so it lives here as a named
  policy function rather than an inline conditional.
*/
package plan

import "github.com/shopspring/decimal"

// Counter names for classification decision points.
const (
	CounterEnrollmentClassified   = "enrollment.classified"
	CounterEnrollmentSkipUnvested = "enrollment.skip_unvested"
)

// ClassifyEnrollment maps a (schedule, forfeited) pair to its enrollment
// category. Total function: every input classifies to exactly one of the
// six categories. hasHistory disambiguates the unset-schedule case: a
// participant with no schedule but historical records is an unresolved
// import rather than never-enrolled.
func ClassifyEnrollment(schedule VestingScheduleID, hasForfeited, hasHistory bool) EnrollmentCategory {
	switch schedule {
	case ScheduleOldPlan:
		if hasForfeited {
			return OldPlanWithForfeitureRecords
		}
		return OldPlanWithContributions
	case ScheduleNewPlan:
		if hasForfeited {
			return NewPlanWithForfeitureRecords
		}
		return NewPlanWithContributions
	default:
		if hasHistory {
			return ImportStatusUnknown
		}
		return NotEnrolled
	}
}

// SkipWhenUnvested reports whether a forfeiture reclassification must be
// suppressed because the participant's vesting percent for the year is
// zero. Named legacy-parity policy; see the package comment above and
// remove callers here first if parity requirements are ever retired.
func SkipWhenUnvested(vestingPercent decimal.Decimal) bool {
	return vestingPercent.IsZero()
}

// ApplyEnrollment resolves the enrollment category to persist for a year,
// replicating the legacy skip-on-zero-percent behavior: when the computed
// category is a forfeiture reclassification but nothing is vested, the
// current category stands. Every decision increments a counter so parity
// debugging can attribute individual divergences.
func ApplyEnrollment(current, computed EnrollmentCategory, vestingPercent decimal.Decimal, m Metrics) EnrollmentCategory {
	if m == nil {
		m = NopMetrics{}
	}
	forfeitureCategory := computed == OldPlanWithForfeitureRecords || computed == NewPlanWithForfeitureRecords
	if forfeitureCategory && SkipWhenUnvested(vestingPercent) {
		m.Incr(CounterEnrollmentSkipUnvested)
		return current
	}
	m.Incr(CounterEnrollmentClassified)
	return computed
}
