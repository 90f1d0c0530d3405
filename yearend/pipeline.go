/*
Package yearend runs the year-end batch: one immutable participant
snapshot per person per profit year.

PURPOSE:
  Pulls the per-participant facts together (demographics, contribution
  history, schedule), evaluates the temporal rules, vesting, and
  enrollment classification, and emits snapshots ready for persistence
  and reconciliation. Source data changes are handled by rerunning the
  batch; snapshots are superseded, never mutated.

KEY CONCEPTS:
  - ParticipantInput: The payroll-side facts for one person and year
  - Pipeline: Bounded-parallel evaluation over the population
  - Snapshots are ordered by badge regardless of completion order

SEE ALSO:
  - rules.go: The per-participant rule evaluation
  - plan/: The pure evaluators this package orchestrates
*/
package yearend

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/plan-engine/military"
	"github.com/ledgerline/plan-engine/plan"
)

// DefaultConcurrency bounds per-participant evaluation when the caller
// does not set a limit. Lookups hit an embedded store, so a small
// constant is plenty.
const DefaultConcurrency = 8

// Counter names for pipeline decision points.
const (
	CounterSnapshotComputed   = "yearend.snapshot_computed"
	CounterEligibilityBumped  = "yearend.eligibility_bumped"
	CounterFullVestByDeath    = "yearend.full_vest_death"
	CounterFullVestByAge      = "yearend.full_vest_age_service"
	CounterDateOfBirthMissing = "yearend.dob_missing"
)

// ParticipantInput carries the payroll-side facts for one participant
// and one profit year. Demographics and contribution facts are looked up
// through the pipeline's collaborators, not carried here.
type ParticipantInput struct {
	PSN  plan.PSN
	SSN  string
	Name string

	Status     plan.EmploymentStatus
	Store      int
	Department int

	TerminationDate *time.Time

	HasForfeited bool
	HasHistory   bool

	// LegacyYears is the years-in-plan figure already on record.
	LegacyYears int

	// FirstContributionYear is 0 when no contribution has ever posted.
	FirstContributionYear int

	// ImportedReason is the zero-contribution code carried on the legacy
	// row; out-of-range codes normalize to ReasonNormal.
	ImportedReason plan.ZeroContributionReason

	CurrentEnrollment plan.EnrollmentCategory
	CurrentBalance    decimal.Decimal
	HoursWorked       decimal.Decimal
	Wages             decimal.Decimal

	Beneficiaries []plan.BeneficiaryAllocation
}

// ScheduleDirectory resolves a participant's vesting schedule. Not-found
// participants fall back to a hire-year default; see scheduleFor.
type ScheduleDirectory interface {
	Schedule(ctx context.Context, badge int) (plan.VestingScheduleID, bool, error)
}

// Pipeline evaluates a population for one profit year.
type Pipeline struct {
	Directory military.EmployeeDirectory
	History   military.ContributionHistory
	Schedules ScheduleDirectory
	Metrics   plan.Metrics

	// Concurrency bounds parallel participant evaluation; zero or
	// negative means DefaultConcurrency.
	Concurrency int
}

// Run computes one snapshot per input. Lookup transport failures abort
// the whole run; business outcomes never do. The returned snapshots are
// ordered by PSN whatever order the workers finished in.
func (p *Pipeline) Run(ctx context.Context, profitYear int, participants []ParticipantInput) ([]plan.ParticipantSnapshot, error) {
	metrics := p.Metrics
	if metrics == nil {
		metrics = plan.NopMetrics{}
	}
	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	snapshots := make([]plan.ParticipantSnapshot, len(participants))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range participants {
		i, in := i, in
		g.Go(func() error {
			snap, err := p.evaluate(ctx, profitYear, in, metrics)
			if err != nil {
				return err
			}
			snapshots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].PSN.Key() < snapshots[j].PSN.Key()
	})
	return snapshots, nil
}
