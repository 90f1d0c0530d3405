/*
Bridge adapters building reconcile.Row values from the two sides of the
migration: computed year-end snapshots on one side, parsed legacy report
records on the other.

PURPOSE:
  Keeps the field naming in one place so both sides agree on what is
  being compared. The engine itself never knows where a Row came from.

SEE ALSO:
  - diff.go: The comparison engine
  - legacy/termination.go: The parsed legacy side
*/
package reconcile

import (
	"github.com/ledgerline/plan-engine/legacy"
	"github.com/ledgerline/plan-engine/plan"
)

// Field names shared by both sides. A field absent from one side is
// compared as "(absent)" rather than skipped.
const (
	FieldEndingBalance = "ending_balance"
	FieldVestedBalance = "vested_balance"
	FieldVestedPercent = "vested_percent"
	FieldTermDate      = "term_date"
	FieldEnrollment    = "enrollment"
)

// TerminationPolicy is the standard policy for termination report
// sign-off. Currency compares at the report's printed precision.
func TerminationPolicy(accept ...AcceptPredicate) Policy {
	return Policy{
		Fields: []FieldPolicy{
			{Name: FieldEndingBalance, Precision: 2},
			{Name: FieldVestedBalance, Precision: 2},
			{Name: FieldVestedPercent, Precision: 0},
			{Name: FieldTermDate},
			{Name: FieldEnrollment},
		},
		Accept: accept,
	}
}

// FromSnapshot maps a computed year-end snapshot onto the shared fields.
func FromSnapshot(s plan.ParticipantSnapshot) Row {
	termDate := NoDate()
	if s.TerminationDate != nil {
		termDate = Date(*s.TerminationDate)
	}
	return Row{
		PSN:  s.PSN,
		Name: s.Name,
		Fields: map[string]FieldValue{
			FieldEndingBalance: Money(s.CurrentBalance),
			FieldVestedBalance: Money(s.VestedBalance),
			FieldVestedPercent: Money(s.VestingPercent),
			FieldTermDate:      termDate,
			FieldEnrollment:    Text(s.Enrollment.String()),
		},
	}
}

// FromTermination maps a parsed QPAY066 detail row onto the shared
// fields. The legacy report prints enrollment as a bare digit, so the
// code is normalised through the same category names the snapshot uses.
func FromTermination(r legacy.TerminationRecord) Row {
	termDate := NoDate()
	if r.TerminationDate != nil {
		termDate = Date(*r.TerminationDate)
	}
	return Row{
		PSN:  r.PSN,
		Name: r.Name,
		Fields: map[string]FieldValue{
			FieldEndingBalance: Money(r.EndingBalance),
			FieldVestedBalance: Money(r.VestedBalance),
			FieldVestedPercent: Money(r.VestedPercent),
			FieldTermDate:      termDate,
			FieldEnrollment:    Text(enrollmentFromCode(r.EnrollmentCode)),
		},
	}
}

func enrollmentFromCode(code string) string {
	if len(code) != 1 || code[0] < '0' || code[0] > '9' {
		return plan.ImportStatusUnknown.String()
	}
	return plan.EnrollmentCategory(code[0] - '0').String()
}

// FromSnapshots and FromTerminations are slice conveniences for the CLI.

func FromSnapshots(in []plan.ParticipantSnapshot) []Row {
	out := make([]Row, 0, len(in))
	for _, s := range in {
		out = append(out, FromSnapshot(s))
	}
	return out
}

func FromTerminations(in []legacy.TerminationRecord) []Row {
	out := make([]Row, 0, len(in))
	for _, r := range in {
		out = append(out, FromTermination(r))
	}
	return out
}
