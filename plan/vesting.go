/*
vesting.go - Vesting step tables and vested balance calculation

PURPOSE:
  Maps years-in-plan to a vesting percentage per schedule, applies the
  full-vesting overrides, and computes the vested balance with the exact
  rounding the legacy fixed-point arithmetic used.

STEP TABLES:
  The legacy table is a 7-entry array: 0, 0, 20, 40, 60, 80, 100. The two
  schedules index it differently:

    Old plan (7 years): year N reads entry N-1, so
      0->0  1->0  2->0  3->20  4->40  5->60  6->80  7+->100
    New plan (6 years): year N reads entry N, so
      0->0  1->0  2->20  3->40  4->60  5->80  6+->100

  Both are monotonically non-decreasing and saturate at 100.

OVERRIDES:
  Death, deemed distribution, and the age/service rule force 100%
  regardless of years-in-plan.
*/
package plan

import "github.com/shopspring/decimal"

// =============================================================================
// STEP TABLES
// =============================================================================

// vestSteps is the legacy percentage table shared by both schedules.
var vestSteps = [...]int64{0, 0, 20, 40, 60, 80, 100}

// FullVestingYears returns the years-in-plan at which a schedule reaches
// 100%.
func FullVestingYears(schedule VestingScheduleID) int {
	if schedule == ScheduleNewPlan {
		return 6
	}
	return 7
}

// =============================================================================
// OVERRIDES
// =============================================================================

// FullVestingOverride enumerates the events that force 100% vesting.
type FullVestingOverride byte

const (
	NoOverride FullVestingOverride = iota

	// OverrideDeath: deceased participants vest fully.
	OverrideDeath

	// OverrideAgeService: 65 or older with a first contribution more than
	// 5 years ago (zero-contribution reason 6).
	OverrideAgeService

	// OverrideDeemedDistribution: balance deemed distributed.
	OverrideDeemedDistribution
)

// =============================================================================
// CALCULATOR
// =============================================================================

var hundred = decimal.NewFromInt(100)

// Vest returns the vesting percentage (0-100) for the given years-in-plan
// and schedule, honoring overrides. ScheduleNone always vests 0% absent an
// override.
func Vest(yearsInPlan int, schedule VestingScheduleID, override FullVestingOverride) decimal.Decimal {
	if override != NoOverride {
		return hundred
	}
	if schedule == ScheduleNone || yearsInPlan < 0 {
		return decimal.Zero
	}

	idx := yearsInPlan
	if schedule == ScheduleOldPlan {
		// Old plan year 0 has no table entry; nothing is vested yet.
		if yearsInPlan == 0 {
			return decimal.Zero
		}
		idx = yearsInPlan - 1
	}
	if idx >= len(vestSteps) {
		idx = len(vestSteps) - 1
	}
	return decimal.NewFromInt(vestSteps[idx])
}

// VestedBalance applies a vesting percentage to a balance, rounding to the
// cent half away from zero.
func VestedBalance(currentBalance, vestingPercent decimal.Decimal) decimal.Decimal {
	return RoundCurrency(currentBalance.Mul(vestingPercent).Div(hundred))
}
