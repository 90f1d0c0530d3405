/*
rules.go - Per-participant rule evaluation

PURPOSE:
  One participant in, one snapshot out. Sequencing matters: age feeds the
  zero-contribution reason, the reason feeds the vesting override, the
  vesting percent feeds the enrollment decision.
*/
package yearend

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/plan-engine/plan"
)

func (p *Pipeline) evaluate(ctx context.Context, profitYear int, in ParticipantInput, metrics plan.Metrics) (plan.ParticipantSnapshot, error) {
	badge := int(in.PSN.Badge)

	dob, hasDOB, err := p.Directory.DateOfBirth(ctx, badge)
	if err != nil {
		return plan.ParticipantSnapshot{}, fmt.Errorf("date of birth for badge %d: %w", badge, err)
	}
	hire, hasHire, err := p.Directory.EarliestHireDate(ctx, badge)
	if err != nil {
		return plan.ParticipantSnapshot{}, fmt.Errorf("hire date for badge %d: %w", badge, err)
	}
	contribs, err := p.History.ContributionsForYear(ctx, badge, profitYear)
	if err != nil {
		return plan.ParticipantSnapshot{}, fmt.Errorf("contributions for badge %d: %w", badge, err)
	}
	schedule, err := p.scheduleFor(ctx, badge, hire, hasHire)
	if err != nil {
		return plan.ParticipantSnapshot{}, err
	}

	// Age at the close of the profit year. A missing date of birth fails
	// every age-gated rule rather than passing as age zero.
	age := -1
	if hasDOB {
		age = plan.AgeAt(dob, yearEnd(profitYear))
	} else {
		metrics.Incr(CounterDateOfBirthMissing)
	}

	yearsInput := plan.YearsInPlanInput{
		LegacyYears:            in.LegacyYears,
		HasContributionForYear: len(contribs) > 0,
		HoursWorked:            wholeHours(in.HoursWorked),
		Age:                    age,
	}
	years := plan.YearsInPlan(yearsInput)
	if plan.AboutToBecomeEligible(yearsInput) {
		metrics.Incr(CounterEligibilityBumped)
	}

	reason := deriveReason(in, age, profitYear)
	override := vestingOverride(in.Status, reason, metrics)

	percent := plan.Vest(years, schedule, override)
	vested := plan.VestedBalance(in.CurrentBalance, percent)

	computed := plan.ClassifyEnrollment(schedule, in.HasForfeited, in.HasHistory)
	enrollment := plan.ApplyEnrollment(in.CurrentEnrollment, computed, percent, metrics)

	metrics.Incr(CounterSnapshotComputed)

	snap := plan.ParticipantSnapshot{
		PSN:  in.PSN,
		SSN:  in.SSN,
		Name: in.Name,

		DateOfBirth:     dob,
		HireDate:        hire,
		TerminationDate: in.TerminationDate,
		Status:          in.Status,
		Store:           in.Store,
		Department:      in.Department,

		ProfitYear: profitYear,

		Schedule:     schedule,
		HasForfeited: in.HasForfeited,
		YearsInPlan:  years,

		VestingPercent: percent,
		CurrentBalance: in.CurrentBalance,
		VestedBalance:  vested,

		Enrollment:             enrollment,
		ZeroContributionReason: reason,

		Beneficiaries: in.Beneficiaries,

		HoursWorked: in.HoursWorked,
		Wages:       in.Wages,
	}
	return snap, nil
}

// scheduleFor prefers the directory's answer and falls back to the
// hire-year default: hired on or after the new plan's effective year
// means the new schedule, earlier means the old one, never hired means
// no schedule at all.
func (p *Pipeline) scheduleFor(ctx context.Context, badge int, hire time.Time, hasHire bool) (plan.VestingScheduleID, error) {
	if p.Schedules != nil {
		schedule, ok, err := p.Schedules.Schedule(ctx, badge)
		if err != nil {
			return plan.ScheduleNone, fmt.Errorf("schedule for badge %d: %w", badge, err)
		}
		if ok {
			return schedule, nil
		}
	}
	if !hasHire {
		return plan.ScheduleNone, nil
	}
	if hire.Year() >= plan.NewPlanEffectiveYear {
		return plan.ScheduleNewPlan, nil
	}
	return plan.ScheduleOldPlan, nil
}

// deriveReason classifies why no standard contribution posts this year.
// Order matters: the age-65 rule outranks the termination rule because
// it carries the vesting override.
func deriveReason(in ParticipantInput, age, profitYear int) plan.ZeroContributionReason {
	metHours := wholeHours(in.HoursWorked) >= plan.MinimumHours

	switch {
	case age >= 65 && in.FirstContributionYear > 0 && profitYear-in.FirstContributionYear > 5:
		return plan.ReasonAge65FullyVested
	case age >= 0 && age < plan.MinimumContributionAge && metHours:
		return plan.ReasonUnder21WithHours
	case in.Status == plan.StatusTerminated && metHours:
		return plan.ReasonTerminatedVestOnly
	default:
		return in.ImportedReason.Normalize()
	}
}

func vestingOverride(status plan.EmploymentStatus, reason plan.ZeroContributionReason, metrics plan.Metrics) plan.FullVestingOverride {
	switch {
	case status == plan.StatusDeceased:
		metrics.Incr(CounterFullVestByDeath)
		return plan.OverrideDeath
	case reason == plan.ReasonAge65FullyVested:
		metrics.Incr(CounterFullVestByAge)
		return plan.OverrideAgeService
	default:
		return plan.NoOverride
	}
}

// wholeHours truncates; 999.99 hours has not met a 1000-hour threshold.
func wholeHours(hours decimal.Decimal) int {
	return int(hours.IntPart())
}

func yearEnd(profitYear int) time.Time {
	return time.Date(profitYear, time.December, 31, 0, 0, 0, 0, time.UTC)
}
