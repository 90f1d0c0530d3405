/*
Package reconcile compares computed participant records against records
parsed from legacy report text and classifies every divergence.

PURPOSE:
  During the migration, correctness is signed off by diffing the new
  system's year-end output against the legacy system's own reports. The
  engine performs a full outer join on PSN, compares tracked fields under
  per-field precision rules, and separates true mismatches from accepted
  differences - known, intentional divergences confirmed by an independent
  authoritative source.

KEY CONCEPTS:
  - Row/FieldValue: One keyed record with typed field values
  - Policy: Tracked fields, precisions, and accept predicates
  - Report: Counts plus the full mismatch list, for humans and CI gates

INVARIANTS:
  - Accepted differences are surfaced, never dropped: the report carries
    both the raw divergence and the fact that it was accepted.
  - Inputs are immutable snapshots; running twice yields identical output.
  - Duplicate keys within one side are an internal fault, not a diff.

SEE ALSO:
  - bridge.go: Adapters from snapshots and parsed legacy records
  - report.go: Human review rendering
*/
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerline/plan-engine/plan"
)

// =============================================================================
// FIELD VALUES
// =============================================================================

type fieldKind int

const (
	kindText fieldKind = iota
	kindMoney
	kindDate
)

// FieldValue is one typed field on one side of the comparison.
type FieldValue struct {
	kind  fieldKind
	money decimal.Decimal
	date  time.Time
	text  string
}

func Money(d decimal.Decimal) FieldValue { return FieldValue{kind: kindMoney, money: d} }
func Text(s string) FieldValue           { return FieldValue{kind: kindText, text: s} }

// Date builds a date field. Legacy-side dates must already have the
// century pivot applied (the parser does this); the engine compares
// calendar days only.
func Date(t time.Time) FieldValue { return FieldValue{kind: kindDate, date: t} }

// NoDate is the absent-date value (e.g. active employees with no
// termination date).
func NoDate() FieldValue { return FieldValue{kind: kindDate} }

func (v FieldValue) String() string {
	switch v.kind {
	case kindMoney:
		return v.money.StringFixed(2)
	case kindDate:
		if v.date.IsZero() {
			return "-"
		}
		return v.date.Format("2006-01-02")
	default:
		return v.text
	}
}

func (v FieldValue) equal(other FieldValue, precision int32) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case kindMoney:
		return v.money.Round(precision).Equal(other.money.Round(precision))
	case kindDate:
		if v.date.IsZero() || other.date.IsZero() {
			return v.date.IsZero() == other.date.IsZero()
		}
		y1, m1, d1 := v.date.Date()
		y2, m2, d2 := other.date.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	default:
		return v.text == other.text
	}
}

// Row is one keyed record on either side of the join.
type Row struct {
	PSN    plan.PSN
	Name   string
	Fields map[string]FieldValue
}

// =============================================================================
// POLICY
// =============================================================================

// FieldPolicy names a tracked field and, for currency fields, the
// documented precision to compare at.
type FieldPolicy struct {
	Name      string
	Precision int32
}

// AcceptPredicate reclassifies an otherwise-failing field difference as
// accepted. Predicates typically consult a secondary authoritative source
// that confirms the CURRENT system's value, not the legacy text.
type AcceptPredicate struct {
	Name string
	Fn   func(psn plan.PSN, field string, current, legacy FieldValue) bool
}

// Policy configures one reconciliation run.
type Policy struct {
	Fields []FieldPolicy
	Accept []AcceptPredicate
}

// =============================================================================
// RESULTS
// =============================================================================

// FieldDiff is one field-level divergence for one PSN.
type FieldDiff struct {
	PSN     plan.PSN
	Name    string
	Field   string
	Current string
	Legacy  string

	// Accepted differences remain in the report with the predicate that
	// accepted them; they are never silently dropped.
	Accepted   bool
	AcceptedBy string
}

// Report is the designed output of a run. Mismatches are not errors.
type Report struct {
	RunID string

	TotalCurrent int
	TotalLegacy  int

	OnlyInCurrent []plan.PSN
	OnlyInLegacy  []plan.PSN

	ExactMatches  int
	AcceptedDiffs []FieldDiff
	Mismatches    []FieldDiff
}

// Clean reports whether the run may pass a CI gate: no true mismatches
// and no one-sided records.
func (r *Report) Clean() bool {
	return len(r.Mismatches) == 0 && len(r.OnlyInCurrent) == 0 && len(r.OnlyInLegacy) == 0
}

// =============================================================================
// ENGINE
// =============================================================================

// Run joins the two sides on PSN and compares tracked fields. Single-pass
// and single-threaded: inputs are immutable snapshots sized to one profit
// year, so no locking is needed.
func Run(current, legacy []Row, policy Policy) (*Report, error) {
	currentByKey, err := index(current, "current")
	if err != nil {
		return nil, err
	}
	legacyByKey, err := index(legacy, "legacy")
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:        uuid.NewString(),
		TotalCurrent: len(current),
		TotalLegacy:  len(legacy),
	}

	for _, key := range sortedKeys(currentByKey, legacyByKey) {
		cur, inCurrent := currentByKey[key]
		leg, inLegacy := legacyByKey[key]

		switch {
		case inCurrent && !inLegacy:
			report.OnlyInCurrent = append(report.OnlyInCurrent, cur.PSN)
		case inLegacy && !inCurrent:
			report.OnlyInLegacy = append(report.OnlyInLegacy, leg.PSN)
		default:
			compareRow(report, cur, leg, policy)
		}
	}
	return report, nil
}

func index(rows []Row, side string) (map[int64]Row, error) {
	byKey := make(map[int64]Row, len(rows))
	for _, row := range rows {
		key := row.PSN.Key()
		if _, dup := byKey[key]; dup {
			return nil, &plan.DuplicateKeyError{Side: side, Key: row.PSN}
		}
		byKey[key] = row
	}
	return byKey, nil
}

func sortedKeys(a, b map[int64]Row) []int64 {
	keys := make([]int64, 0, len(a)+len(b))
	seen := make(map[int64]bool, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
		seen[k] = true
	}
	for k := range b {
		if !seen[k] {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func compareRow(report *Report, cur, leg Row, policy Policy) {
	rowClean := true
	for _, fp := range policy.Fields {
		cv, curHas := cur.Fields[fp.Name]
		lv, legHas := leg.Fields[fp.Name]
		if !curHas && !legHas {
			continue
		}
		if curHas && legHas && cv.equal(lv, fp.Precision) {
			continue
		}

		diff := FieldDiff{
			PSN:     cur.PSN,
			Name:    cur.Name,
			Field:   fp.Name,
			Current: valueOrAbsent(cv, curHas),
			Legacy:  valueOrAbsent(lv, legHas),
		}
		if by, ok := accepted(policy, cur.PSN, fp.Name, cv, lv); ok {
			diff.Accepted = true
			diff.AcceptedBy = by
			report.AcceptedDiffs = append(report.AcceptedDiffs, diff)
		} else {
			report.Mismatches = append(report.Mismatches, diff)
		}
		rowClean = false
	}
	if rowClean {
		report.ExactMatches++
	}
}

func valueOrAbsent(v FieldValue, has bool) string {
	if !has {
		return "(absent)"
	}
	return v.String()
}

func accepted(policy Policy, psn plan.PSN, field string, cur, leg FieldValue) (string, bool) {
	for _, p := range policy.Accept {
		if p.Fn != nil && p.Fn(psn, field, cur, leg) {
			return p.Name, true
		}
	}
	return "", false
}

// =============================================================================
// ACCEPT PREDICATES
// =============================================================================

// SecondarySource is an independent authoritative view (e.g. the vesting
// database view) queried to confirm the current system's value when the
// legacy report text disagrees.
type SecondarySource interface {
	Confirm(psn plan.PSN, field string, value string) bool
}

// AcceptWhenConfirmed accepts a difference when the secondary source
// agrees with the CURRENT system's value. The legacy vesting view has
// known precision and timing quirks, so agreement with the independent
// view outranks the report text.
func AcceptWhenConfirmed(name string, src SecondarySource) AcceptPredicate {
	return AcceptPredicate{
		Name: name,
		Fn: func(psn plan.PSN, field string, current, legacy FieldValue) bool {
			return src.Confirm(psn, field, current.String())
		},
	}
}

// SecondarySourceFunc adapts a function to SecondarySource.
type SecondarySourceFunc func(psn plan.PSN, field string, value string) bool

func (f SecondarySourceFunc) Confirm(psn plan.PSN, field string, value string) bool {
	return f(psn, field, value)
}

var _ fmt.Stringer = FieldValue{}
