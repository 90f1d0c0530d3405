/*
termination.go - QPAY066 "Termination - Profit Sharing" report format

COLUMN MAP (from the production report):
  0-11    Badge/PSN (right-aligned; >7 chars means badge + 4-digit suffix)
  12-30   Employee name
  31-43   Beginning balance      \
  44-57   Beneficiary allocation |
  58-69   Distribution amount    | right-aligned currency,
  70-82   Forfeit                | trailing-minus negatives
  83-95   Ending balance         |
  96-109  Vested balance         /
  110-115 Termination date, YYMMDD (century pivot applies)
  118-124 YTD vested PS hours
  125-    Space-delimited: vested percent, age, enrollment code

TOTALS SECTION:
  AMOUNT IN PROFIT SHARING      sum of ending balances
  VESTED AMOUNT                 sum of vested balances
  TOTAL FORFEITURES             sum of forfeits (negative)
  TOTAL BENEFICIARY ALLOCTIONS  sum of allocations
                  ^^^ the label typo is in the real report; match it verbatim.
*/
package legacy

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/plan-engine/plan"
)

// Totals labels as printed, including the report's own typo.
const (
	labelAmountInProfitSharing = "AMOUNT IN PROFIT SHARING"
	labelVestedAmount          = "VESTED AMOUNT"
	labelTotalForfeitures      = "TOTAL FORFEITURES"
	labelBeneficiaryAllocs     = "TOTAL BENEFICIARY ALLOCTIONS"
)

// TerminationLayout is the QPAY066 column table.
var TerminationLayout = Layout{
	Name:          "QPAY066",
	MinLineLength: 108,
	Fields: []FieldSpec{
		{Name: "psn", Start: 0, Len: 12},
		{Name: "name", Start: 12, Len: 19},
		{Name: "beginning_balance", Start: 31, Len: 13},
		{Name: "beneficiary_allocation", Start: 44, Len: 14},
		{Name: "distribution_amount", Start: 58, Len: 12},
		{Name: "forfeit", Start: 70, Len: 13},
		{Name: "ending_balance", Start: 83, Len: 13},
		{Name: "vested_balance", Start: 96, Len: 14},
		{Name: "term_date", Start: 110, Len: 6},
		{Name: "hours", Start: 118, Len: 7},
		{Name: "tail", Start: 125, Len: LenToEnd},
	},
}

// TerminationRecord is one decoded detail row.
type TerminationRecord struct {
	PSN  plan.PSN
	Name string

	BeginningBalance      decimal.Decimal
	BeneficiaryAllocation decimal.Decimal
	DistributionAmount    decimal.Decimal
	Forfeit               decimal.Decimal
	EndingBalance         decimal.Decimal
	VestedBalance         decimal.Decimal

	TerminationDate *time.Time
	HoursWorked     decimal.Decimal
	VestedPercent   decimal.Decimal
	Age             int
	HasAge          bool
	EnrollmentCode  string
}

// TerminationTotals is the report's own totals section.
type TerminationTotals struct {
	AmountInProfitSharing       decimal.Decimal
	VestedAmount                decimal.Decimal
	TotalForfeitures            decimal.Decimal
	TotalBeneficiaryAllocations decimal.Decimal
}

// TerminationReport is the fully parsed and verified report.
type TerminationReport struct {
	Records []TerminationRecord
	Totals  TerminationTotals
}

// ParseTerminationReport decodes a QPAY066 report and verifies it: the
// totals section must be present and must equal the recomputed detail
// sums, or parsing fails. now anchors the two-digit-year pivot.
func ParseTerminationReport(text string, now time.Time) (*TerminationReport, error) {
	scanner := &Scanner{
		Layout: TerminationLayout,
		TotalLabels: []string{
			labelAmountInProfitSharing,
			labelVestedAmount,
			labelTotalForfeitures,
			labelBeneficiaryAllocs,
		},
	}

	report := &TerminationReport{}
	seen := map[string]bool{}

	err := scanner.Scan(text, Callbacks{
		DataRow: func(line string) error {
			rec, err := parseTerminationRow(line, now)
			if err != nil {
				return err
			}
			report.Records = append(report.Records, *rec)
			return nil
		},
		TotalLine: func(label, rest string) error {
			value, err := ParseMoney(rest)
			if err != nil {
				return fmt.Errorf("totals line %q: %w", label, err)
			}
			seen[label] = true
			switch label {
			case labelAmountInProfitSharing:
				report.Totals.AmountInProfitSharing = value
			case labelVestedAmount:
				report.Totals.VestedAmount = value
			case labelTotalForfeitures:
				report.Totals.TotalForfeitures = value
			case labelBeneficiaryAllocs:
				report.Totals.TotalBeneficiaryAllocations = value
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	if len(seen) < 4 {
		return nil, fmt.Errorf("%w: found %d of 4 totals lines", plan.ErrTotalsMissing, len(seen))
	}
	if err := verifyTotals(report); err != nil {
		return nil, err
	}
	return report, nil
}

// ComputeTerminationTotals recomputes the aggregate sums from detail rows.
// Forfeitures are summed as they appear (already negative).
func ComputeTerminationTotals(records []TerminationRecord) TerminationTotals {
	var t TerminationTotals
	for _, r := range records {
		t.AmountInProfitSharing = t.AmountInProfitSharing.Add(r.EndingBalance)
		t.VestedAmount = t.VestedAmount.Add(r.VestedBalance)
		t.TotalForfeitures = t.TotalForfeitures.Add(r.Forfeit)
		t.TotalBeneficiaryAllocations = t.TotalBeneficiaryAllocations.Add(r.BeneficiaryAllocation)
	}
	return t
}

func verifyTotals(report *TerminationReport) error {
	computed := ComputeTerminationTotals(report.Records)
	checks := []struct {
		field    string
		reported decimal.Decimal
		computed decimal.Decimal
	}{
		{"AmountInProfitSharing", report.Totals.AmountInProfitSharing, computed.AmountInProfitSharing},
		{"VestedAmount", report.Totals.VestedAmount, computed.VestedAmount},
		{"TotalForfeitures", report.Totals.TotalForfeitures, computed.TotalForfeitures},
		{"TotalBeneficiaryAllocations", report.Totals.TotalBeneficiaryAllocations, computed.TotalBeneficiaryAllocations},
	}
	for _, c := range checks {
		if !c.reported.Equal(c.computed) {
			return &plan.TotalsMismatchError{
				Field:    c.field,
				Reported: c.reported.StringFixed(2),
				Computed: c.computed.StringFixed(2),
			}
		}
	}
	return nil
}

func parseTerminationRow(line string, now time.Time) (*TerminationRecord, error) {
	fields, err := TerminationLayout.Extract(line)
	if err != nil {
		return nil, err
	}

	psn, err := plan.ParsePSN(fields["psn"])
	if err != nil {
		return nil, fmt.Errorf("data row: %w", err)
	}

	rec := &TerminationRecord{PSN: psn, Name: fields["name"]}

	money := func(name string, dst *decimal.Decimal) error {
		v, err := ParseMoney(fields[name])
		if err != nil {
			return fmt.Errorf("data row for %s, field %s: %w", psn, name, err)
		}
		*dst = v
		return nil
	}
	for _, f := range []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"beginning_balance", &rec.BeginningBalance},
		{"beneficiary_allocation", &rec.BeneficiaryAllocation},
		{"distribution_amount", &rec.DistributionAmount},
		{"forfeit", &rec.Forfeit},
		{"ending_balance", &rec.EndingBalance},
		{"vested_balance", &rec.VestedBalance},
	} {
		if err := money(f.name, f.dst); err != nil {
			return nil, err
		}
	}

	if d := fields["term_date"]; len(d) == 6 {
		if t, ok := parseTermDate(d, now); ok {
			rec.TerminationDate = &t
		}
	}

	if hours := fields["hours"]; hours != "" {
		v, err := decimal.NewFromString(hours)
		if err == nil {
			rec.HoursWorked = v
		}
	}

	// Trailing tokens: vested percent, age, optional enrollment code.
	tokens := strings.Fields(fields["tail"])
	if len(tokens) > 0 {
		if v, err := decimal.NewFromString(tokens[0]); err == nil {
			rec.VestedPercent = v
		}
	}
	if len(tokens) > 1 {
		if age, ok := ParseOptionalInt(tokens[1]); ok {
			rec.Age = age
			rec.HasAge = true
		}
	}
	if len(tokens) > 2 {
		rec.EnrollmentCode = tokens[2]
	}

	return rec, nil
}

// parseTermDate decodes a YYMMDD field with the century pivot.
func parseTermDate(s string, now time.Time) (time.Time, bool) {
	yy, ok1 := ParseOptionalInt(s[0:2])
	mm, ok2 := ParseOptionalInt(s[2:4])
	dd, ok3 := ParseOptionalInt(s[4:6])
	if !ok1 || !ok2 || !ok3 || mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, false
	}
	year := plan.PivotTwoDigitYear(yy, now)
	return time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC), true
}
