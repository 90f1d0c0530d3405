/*
Package plan provides the core profit-sharing plan domain: participant
snapshots, enrollment classification, vesting schedules, and the temporal
rules that drive year-end processing.

PURPOSE:
  This package contains the pure business rules migrated from the retiring
  mainframe ("READY") system. Everything here is deterministic and free of
  I/O so that legacy-parity reconciliation can attribute any divergence to
  a specific, named rule.

KEY CONCEPTS IN THIS FILE (types.go):
  - PSN: Badge number plus a 4-digit beneficiary suffix (the join key used
    throughout reconciliation)
  - ParticipantSnapshot: Immutable year-end state for one participant
  - VestingScheduleID / EnrollmentCategory: The two enumerations whose
    interaction defines enrollment classification

DESIGN PRINCIPLES:
  1. Immutability: Snapshots are superseded, never mutated
  2. Precision: decimal.Decimal for every currency amount; rounding rules
     match the legacy fixed-point arithmetic exactly
  3. Parity: Legacy quirks are named policy functions, not inline branches

SEE ALSO:
  - dates.go: Temporal rule evaluators (age, years-in-plan, lookback)
  - enrollment.go: Enrollment classifier
  - vesting.go: Vesting step tables and currency rounding
*/
package plan

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// Badge is an employee badge number (6-7 digits in practice).
type Badge int

// PSNSuffix distinguishes beneficiary records under one badge. Suffix 0 is
// the employee record itself.
type PSNSuffix int16

// PSN identifies one row in the plan: an employee or one of their
// beneficiaries.
type PSN struct {
	Badge  Badge
	Suffix PSNSuffix
}

// Key flattens a PSN into a single comparable integer, matching the legacy
// convention of badge*10000+suffix.
func (p PSN) Key() int64 {
	return int64(p.Badge)*10_000 + int64(p.Suffix)
}

func (p PSN) String() string {
	if p.Suffix == 0 {
		return strconv.Itoa(int(p.Badge))
	}
	return fmt.Sprintf("%06d%04d", int(p.Badge), int(p.Suffix))
}

// ParsePSN splits a legacy identifier into badge and beneficiary suffix.
// Identifiers longer than 7 characters carry a trailing 4-digit suffix;
// shorter identifiers are a bare badge with implicit suffix 0. The split is
// purely width-based, as in the legacy reports.
func ParsePSN(s string) (PSN, error) {
	if s == "" {
		return PSN{}, fmt.Errorf("empty identifier")
	}
	if len(s) > 7 {
		badge, err := strconv.Atoi(s[:len(s)-4])
		if err != nil {
			return PSN{}, fmt.Errorf("bad badge in identifier %q: %w", s, err)
		}
		suffix, err := strconv.Atoi(s[len(s)-4:])
		if err != nil {
			return PSN{}, fmt.Errorf("bad suffix in identifier %q: %w", s, err)
		}
		return PSN{Badge: Badge(badge), Suffix: PSNSuffix(suffix)}, nil
	}
	badge, err := strconv.Atoi(s)
	if err != nil {
		return PSN{}, fmt.Errorf("bad identifier %q: %w", s, err)
	}
	return PSN{Badge: Badge(badge)}, nil
}

// =============================================================================
// VESTING SCHEDULES
// =============================================================================

// VestingScheduleID selects which step table applies to a participant.
type VestingScheduleID byte

const (
	// ScheduleNone means the participant has never been enrolled.
	ScheduleNone VestingScheduleID = 0

	// ScheduleOldPlan is the original plan: 7 years to full vesting.
	ScheduleOldPlan VestingScheduleID = 1

	// ScheduleNewPlan took effect in 2007: 6 years to full vesting.
	ScheduleNewPlan VestingScheduleID = 2
)

// NewPlanEffectiveYear is the first profit year governed by the new vesting
// rules. Any contribution in or after this year moves the participant onto
// the new schedule.
const NewPlanEffectiveYear = 2007

func (v VestingScheduleID) String() string {
	switch v {
	case ScheduleOldPlan:
		return "old-plan"
	case ScheduleNewPlan:
		return "new-plan"
	default:
		return "none"
	}
}

// =============================================================================
// ENROLLMENT CATEGORIES
// =============================================================================

// EnrollmentCategory is the derived classification combining vesting
// schedule and forfeiture history. The numeric values are the legacy
// enrollment flag values and must not be renumbered: reconciliation
// compares them against parsed report codes.
type EnrollmentCategory byte

const (
	NotEnrolled                  EnrollmentCategory = 0
	OldPlanWithContributions     EnrollmentCategory = 1
	NewPlanWithContributions     EnrollmentCategory = 2
	OldPlanWithForfeitureRecords EnrollmentCategory = 3
	NewPlanWithForfeitureRecords EnrollmentCategory = 4

	// ImportStatusUnknown marks rows whose legacy import carried history we
	// could not classify. Distinct from NotEnrolled so that reconciliation
	// can tell "never in the plan" from "imported but unresolved".
	ImportStatusUnknown EnrollmentCategory = 9
)

func (e EnrollmentCategory) String() string {
	switch e {
	case NotEnrolled:
		return "not-enrolled"
	case OldPlanWithContributions:
		return "old-plan-contributions"
	case NewPlanWithContributions:
		return "new-plan-contributions"
	case OldPlanWithForfeitureRecords:
		return "old-plan-forfeitures"
	case NewPlanWithForfeitureRecords:
		return "new-plan-forfeitures"
	case ImportStatusUnknown:
		return "import-unknown"
	default:
		return fmt.Sprintf("enrollment(%d)", byte(e))
	}
}

// =============================================================================
// PARTICIPANT SNAPSHOT - Computed year-end state
// =============================================================================

// EmploymentStatus mirrors the legacy single-character status codes.
type EmploymentStatus string

const (
	StatusActive     EmploymentStatus = "A"
	StatusTerminated EmploymentStatus = "T"
	StatusDeceased   EmploymentStatus = "Z"
)

// BeneficiaryAllocation is one beneficiary's share of a participant's
// balance. Allocation sums are validated upstream at write time; this
// engine treats them as a precondition.
type BeneficiaryAllocation struct {
	Suffix    PSNSuffix
	ContactID string
	Percent   decimal.Decimal
}

// ParticipantSnapshot is the year-end state computed for one participant
// and one profit year. Snapshots are immutable: when source data changes
// the pipeline reruns and the new snapshot supersedes the old one.
type ParticipantSnapshot struct {
	PSN  PSN
	SSN  string
	Name string

	DateOfBirth     time.Time
	HireDate        time.Time
	RehireDate      *time.Time
	TerminationDate *time.Time
	Status          EmploymentStatus
	Store           int
	Department      int

	ProfitYear int

	Schedule     VestingScheduleID
	HasForfeited bool
	YearsInPlan  int

	VestingPercent decimal.Decimal
	CurrentBalance decimal.Decimal
	VestedBalance  decimal.Decimal

	Enrollment             EnrollmentCategory
	ZeroContributionReason ZeroContributionReason

	Beneficiaries []BeneficiaryAllocation

	HoursWorked decimal.Decimal
	Wages       decimal.Decimal
}

// =============================================================================
// CURRENCY HELPERS
// =============================================================================

// RoundCurrency rounds to 2 decimal places using round-half-away-from-zero,
// matching the legacy fixed-point arithmetic. decimal.Round implements
// exactly that; RoundBank (half-to-even) would produce systematic
// off-by-cent mismatches during reconciliation and must never be used for
// plan amounts.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MustMoney parses a currency literal, for tests and fixtures.
func MustMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(fmt.Sprintf("bad money literal %q: %v", s, err))
	}
	return d
}
