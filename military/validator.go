package military

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/plan-engine/plan"
)

// MinimumPostingYear is the earliest profit year the current system will
// accept an out-of-cycle contribution for.
const MinimumPostingYear = 2020

// =============================================================================
// RULE NAMES - stable identifiers, also used as counter suffixes
// =============================================================================

const (
	RuleAmountPositive         = "AmountPositive"
	RuleProfitYearRange        = "ProfitYearRange"
	RuleContributionDateWindow = "ContributionDateWindow"
	RuleBadgeExists            = "BadgeExists"
	RuleDateNotFuture          = "DateNotFuture"
	RuleNotBeforeHire          = "NotBeforeHire"
	RuleHireDateMissing        = "HireDateMissing"
	RuleMinimumAge             = "MinimumAge"
	RuleDateOfBirthMissing     = "DateOfBirthMissing"
	RuleNoDuplicateRegular     = "NoDuplicateRegular"
	RuleSupplementalRequired   = "SupplementalRequired"
)

func counterName(rule string) string { return "military.reject." + rule }

// =============================================================================
// REQUEST / RESULT
// =============================================================================

// Request is a proposed out-of-cycle contribution.
type Request struct {
	Badge            int
	Amount           decimal.Decimal
	ProfitYear       int
	ContributionDate time.Time
	IsSupplemental   bool
}

// Failure is one violated rule with a human-readable message.
type Failure struct {
	Rule    string
	Message string
}

func (f Failure) String() string { return f.Rule + ": " + f.Message }

// Result collects every rule violation for one request.
type Result struct {
	Failures []Failure
}

func (r Result) Valid() bool { return len(r.Failures) == 0 }

// Has reports whether a specific rule failed.
func (r Result) Has(rule string) bool {
	for _, f := range r.Failures {
		if f.Rule == rule {
			return true
		}
	}
	return false
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator runs the contribution rule chain. Lookups are fetched once per
// request and shared across rules to avoid repeated round trips.
type Validator struct {
	Directory EmployeeDirectory
	History   ContributionHistory
	Metrics   plan.Metrics

	// LookbackYears defaults to plan.DefaultLookbackYears when zero.
	LookbackYears int

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now().UTC()
}

func (v *Validator) lookback() int {
	if v.LookbackYears > 0 {
		return v.LookbackYears
	}
	return plan.DefaultLookbackYears
}

func (v *Validator) metrics() plan.Metrics {
	if v.Metrics != nil {
		return v.Metrics
	}
	return plan.NopMetrics{}
}

// Validate evaluates the full rule chain and returns every violation.
// Only transport-level lookup errors are returned as errors; business
// outcomes, including missing lookup data, are failures in the Result.
func (v *Validator) Validate(ctx context.Context, req Request) (Result, error) {
	var res Result
	now := v.now()
	currentYear := now.Year()

	fail := func(rule, format string, args ...any) {
		res.Failures = append(res.Failures, Failure{Rule: rule, Message: fmt.Sprintf(format, args...)})
		v.metrics().Incr(counterName(rule))
	}

	// Rule 1: amount must be positive.
	if !req.Amount.IsPositive() {
		fail(RuleAmountPositive, "contribution amount must be greater than zero")
	}

	// Rule 2: posting year bounds.
	if req.ProfitYear < MinimumPostingYear || req.ProfitYear > currentYear {
		fail(RuleProfitYearRange, "profit year %d must be between %d and %d",
			req.ProfitYear, MinimumPostingYear, currentYear)
	}

	// Rule 3: contribution date within the lookback window.
	contribYear := req.ContributionDate.Year()
	if !plan.InLookbackWindow(contribYear, currentYear, v.lookback()) {
		fail(RuleContributionDateWindow,
			"contribution date year %d is outside the %d-year lookback window ending %d",
			contribYear, v.lookback(), currentYear)
	}

	// Rule 5: no future-dated contributions. (Ordered before the badge
	// lookup because it needs no external data.)
	if req.ContributionDate.After(now) {
		fail(RuleDateNotFuture, "contribution date %s cannot be in the future",
			req.ContributionDate.Format("2006-01-02"))
	}

	// Rule 4: badge must resolve. Fetched once; dependent rules below see
	// the same answer.
	badgeOK, err := v.Directory.BadgeExists(ctx, req.Badge)
	if err != nil {
		return Result{}, fmt.Errorf("badge lookup for %d: %w", req.Badge, err)
	}
	if !badgeOK {
		fail(RuleBadgeExists, "badge number %d was not found", req.Badge)
	}

	// Rule 6: contribution year must not precede the earliest hire year.
	// A failed badge lookup reports the missing hire date rather than a
	// fabricated comparison.
	hireDate, hireOK, err := v.Directory.EarliestHireDate(ctx, req.Badge)
	if err != nil {
		return Result{}, fmt.Errorf("hire date lookup for %d: %w", req.Badge, err)
	}
	if !hireOK {
		fail(RuleHireDateMissing, "no hire date on file for badge %d", req.Badge)
	} else if contribYear < hireDate.Year() {
		fail(RuleNotBeforeHire,
			"contribution year %d is before the employee's earliest known hire year %d",
			contribYear, hireDate.Year())
	}

	// Rule 7: at least 21 at the contribution date.
	dob, dobOK, err := v.Directory.DateOfBirth(ctx, req.Badge)
	if err != nil {
		return Result{}, fmt.Errorf("date of birth lookup for %d: %w", req.Badge, err)
	}
	if !dobOK {
		fail(RuleDateOfBirthMissing, "no date of birth on file for badge %d", req.Badge)
	} else if age := plan.AgeAt(dob, req.ContributionDate); age < plan.MinimumContributionAge {
		fail(RuleMinimumAge,
			"employee must be at least 21 years old at the contribution date (is %d)", age)
	}

	// Rule 8: no duplicate regular contribution for the contribution-date
	// year. Keyed by contribution-date year, not the selected profit year:
	// a mis-selected profit year in the entry screen must not let a
	// duplicate through. Supplemental submissions are corrections/late
	// postings and are exempt.
	if !req.IsSupplemental && badgeOK {
		existing, err := v.History.ContributionsForYear(ctx, req.Badge, contribYear)
		if err != nil {
			return Result{}, fmt.Errorf("contribution history lookup for %d/%d: %w", req.Badge, contribYear, err)
		}
		for _, rec := range existing {
			if !rec.IsSupplemental {
				fail(RuleNoDuplicateRegular,
					"a regular contribution already exists for badge %d in %d",
					req.Badge, contribYear)
				break
			}
		}
	}

	// Rule 9: cross-year postings must be marked supplemental; they carry
	// no years-of-service credit.
	if req.ProfitYear != contribYear && !req.IsSupplemental {
		fail(RuleSupplementalRequired,
			"contribution dated %d posting to profit year %d must be marked Supplemental",
			contribYear, req.ProfitYear)
	}

	return res, nil
}
