/*
dates.go - Temporal rule evaluators

PURPOSE:
  Pure functions computing age-at-date, years-in-plan, and lookback-window
  membership. These feed both the enrollment classifier and the vesting
  calculator, and they encode the calendar quirks the legacy system
  accumulated (Y2K pivot, the "+1 when about to become newly eligible"
  divergence).

KEY RULES:
  AgeAt:                 Floor of whole years; birthday correction
  YearsInPlan:           Legacy count plus the documented +1 adjustment
  InLookbackWindow:      Governs how far back a late contribution may post
  PivotTwoDigitYear:     Y2K-style pivot, applied ONLY to legacy text

SEE ALSO:
  - enrollment.go: Consumes years-in-plan via the vesting calculator
  - legacy/: The only caller of the century pivot
*/
package plan

import "time"

// DefaultLookbackYears is how many prior years a late or supplemental
// contribution may still post against. Expanded from 3 to 5 historically.
const DefaultLookbackYears = 5

// MinimumHours is the annual hours threshold for earning a plan year.
const MinimumHours = 1000

// MinimumVestingAge is the age at which hours start counting toward
// years-in-plan.
const MinimumVestingAge = 18

// MinimumContributionAge is the age required to receive a contribution.
const MinimumContributionAge = 21

// AgeAt returns the participant's age in whole years at asOf. The result
// is decremented when asOf falls before the birthday in the asOf year.
func AgeAt(dateOfBirth, asOf time.Time) int {
	years := asOf.Year() - dateOfBirth.Year()
	anniversary := time.Date(asOf.Year(), dateOfBirth.Month(), dateOfBirth.Day(), 0, 0, 0, 0, time.UTC)
	if asOf.Before(anniversary) {
		years--
	}
	return years
}

// YearsInPlanInput carries the facts needed to adjust the legacy
// years-of-service figure for the year being evaluated.
type YearsInPlanInput struct {
	// LegacyYears is the count of qualifying years already on record.
	LegacyYears int

	// HasContributionForYear is true once a contribution row exists for the
	// profit year being evaluated.
	HasContributionForYear bool

	// HoursWorked is the participant's hours for the evaluated year.
	HoursWorked int

	// Age is the participant's age at the fiscal year end.
	Age int
}

// YearsInPlan returns the participant's years-in-plan for the evaluated
// profit year, applying AboutToBecomeEligible on top of the legacy count.
func YearsInPlan(in YearsInPlanInput) int {
	years := in.LegacyYears
	if AboutToBecomeEligible(in) {
		years++
	}
	return years
}

// AboutToBecomeEligible reports whether the participant earns one more
// plan year than the legacy system currently shows. The legacy figure lags
// by a year when the participant's first contribution for the evaluated
// year has not been posted yet but they have already met the hours and age
// requirements. This is a documented, intentional divergence from the
// legacy system and is kept as a named policy so reconciliation tooling
// can point at it.
func AboutToBecomeEligible(in YearsInPlanInput) bool {
	return !in.HasContributionForYear &&
		in.HoursWorked >= MinimumHours &&
		in.Age >= MinimumVestingAge
}

// InLookbackWindow reports whether a contribution dated in contribYear may
// post against currentYear. The current year always qualifies; prior years
// qualify when within windowYears strictly before the current year.
func InLookbackWindow(contribYear, currentYear, windowYears int) bool {
	if contribYear == currentYear {
		return true
	}
	return contribYear >= currentYear-windowYears && contribYear < currentYear
}

// PivotTwoDigitYear expands a two-digit legacy year field. Digits that
// would project a date into the future when read as 20xx are interpreted
// as 19xx instead. The pivot applies only when decoding legacy text; the
// live system stores full dates and never needs it.
func PivotTwoDigitYear(yy int, now time.Time) int {
	year := 2000 + yy
	if year > now.Year() {
		year -= 100
	}
	return year
}
