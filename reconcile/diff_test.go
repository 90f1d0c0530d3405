package reconcile_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/plan-engine/legacy"
	"github.com/ledgerline/plan-engine/plan"
	"github.com/ledgerline/plan-engine/reconcile"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func employeeRow(badge int64, fields map[string]reconcile.FieldValue) reconcile.Row {
	return reconcile.Row{
		PSN:    plan.PSN{Badge: plan.Badge(badge)},
		Name:   "DOE, JANE",
		Fields: fields,
	}
}

func balancePolicy() reconcile.Policy {
	return reconcile.Policy{
		Fields: []reconcile.FieldPolicy{
			{Name: reconcile.FieldVestedBalance, Precision: 2},
			{Name: reconcile.FieldTermDate},
		},
	}
}

func TestRun_ExactMatch(t *testing.T) {
	// GIVEN the same balance on both sides, differing only past the
	// compared precision
	current := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.5649")),
	})}
	legacyRows := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.56")),
	})}

	// WHEN reconciling
	report, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)

	// THEN the row counts as an exact match
	assert.Equal(t, 1, report.ExactMatches)
	assert.Empty(t, report.Mismatches)
	assert.True(t, report.Clean())
}

func TestRun_MismatchSurfaced(t *testing.T) {
	current := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.57")),
	})}
	legacyRows := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.56")),
	})}

	report, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)

	require.Len(t, report.Mismatches, 1)
	d := report.Mismatches[0]
	assert.Equal(t, reconcile.FieldVestedBalance, d.Field)
	assert.Equal(t, "1234.57", d.Current)
	assert.Equal(t, "1234.56", d.Legacy)
	assert.False(t, report.Clean())
}

func TestRun_AcceptedDifferenceStaysInReport(t *testing.T) {
	// GIVEN a vesting view that confirms the current system's value
	view := reconcile.SecondarySourceFunc(func(psn plan.PSN, field, value string) bool {
		return field == reconcile.FieldVestedBalance && value == "1234.57"
	})
	policy := balancePolicy()
	policy.Accept = []reconcile.AcceptPredicate{
		reconcile.AcceptWhenConfirmed("vesting view", view),
	}

	current := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.57")),
	})}
	legacyRows := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.56")),
	})}

	// WHEN reconciling
	report, err := reconcile.Run(current, legacyRows, policy)
	require.NoError(t, err)

	// THEN the difference is accepted but not dropped
	assert.Empty(t, report.Mismatches)
	require.Len(t, report.AcceptedDiffs, 1)
	assert.Equal(t, "vesting view", report.AcceptedDiffs[0].AcceptedBy)
	assert.True(t, report.AcceptedDiffs[0].Accepted)
	assert.Equal(t, 0, report.ExactMatches)
	assert.True(t, report.Clean())
}

func TestRun_OneSidedRecords(t *testing.T) {
	current := []reconcile.Row{
		employeeRow(700100, nil),
		employeeRow(700200, nil),
	}
	legacyRows := []reconcile.Row{
		employeeRow(700200, nil),
		employeeRow(700300, nil),
	}

	report, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)

	require.Len(t, report.OnlyInCurrent, 1)
	assert.Equal(t, plan.Badge(700100), report.OnlyInCurrent[0].Badge)
	require.Len(t, report.OnlyInLegacy, 1)
	assert.Equal(t, plan.Badge(700300), report.OnlyInLegacy[0].Badge)
	assert.False(t, report.Clean())
}

func TestRun_DuplicateKeyIsAnError(t *testing.T) {
	rows := []reconcile.Row{employeeRow(700100, nil), employeeRow(700100, nil)}

	_, err := reconcile.Run(rows, nil, balancePolicy())

	require.Error(t, err)
	assert.ErrorIs(t, err, plan.ErrDuplicateKey)
	var dup *plan.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "current", dup.Side)
	assert.Equal(t, plan.Badge(700100), dup.Key.Badge)
}

func TestRun_BeneficiarySuffixesAreDistinctKeys(t *testing.T) {
	// An employee and their beneficiary share a badge but not a PSN.
	current := []reconcile.Row{
		{PSN: plan.PSN{Badge: 700100}, Fields: nil},
		{PSN: plan.PSN{Badge: 700100, Suffix: 1}, Fields: nil},
	}

	report, err := reconcile.Run(current, nil, balancePolicy())
	require.NoError(t, err)
	assert.Len(t, report.OnlyInCurrent, 2)
}

func TestRun_Deterministic(t *testing.T) {
	current := []reconcile.Row{
		employeeRow(700300, map[string]reconcile.FieldValue{
			reconcile.FieldVestedBalance: reconcile.Money(money("10.00")),
		}),
		employeeRow(700100, map[string]reconcile.FieldValue{
			reconcile.FieldVestedBalance: reconcile.Money(money("20.00")),
		}),
	}
	legacyRows := []reconcile.Row{
		employeeRow(700100, map[string]reconcile.FieldValue{
			reconcile.FieldVestedBalance: reconcile.Money(money("21.00")),
		}),
		employeeRow(700400, nil),
	}

	first, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)
	second, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)

	// Run IDs differ; everything else must not.
	assert.NotEqual(t, first.RunID, second.RunID)
	first.RunID, second.RunID = "", ""
	assert.Equal(t, first, second)
}

func TestFieldValue_DateComparesCalendarDay(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	sameDayLocal := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)

	current := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldTermDate: reconcile.Date(day),
	})}
	legacyRows := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldTermDate: reconcile.Date(sameDayLocal),
	})}

	report, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ExactMatches)
}

func TestFieldValue_AbsentDateOnOneSideMismatches(t *testing.T) {
	current := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldTermDate: reconcile.NoDate(),
	})}
	legacyRows := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldTermDate: reconcile.Date(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
	})}

	report, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "-", report.Mismatches[0].Current)
	assert.Equal(t, "2024-01-15", report.Mismatches[0].Legacy)
}

func TestBridge_SnapshotAndTerminationAgree(t *testing.T) {
	// GIVEN a snapshot and a parsed legacy row describing the same person
	term := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	snap := plan.ParticipantSnapshot{
		PSN:             plan.PSN{Badge: 703917},
		Name:            "SMITH, JOHN",
		TerminationDate: &term,
		CurrentBalance:  money("1000.00"),
		VestedBalance:   money("600.00"),
		VestingPercent:  money("60"),
		Enrollment:      plan.NewPlanWithContributions,
	}
	rec := legacy.TerminationRecord{
		PSN:             plan.PSN{Badge: 703917},
		Name:            "SMITH, JOHN",
		TerminationDate: &term,
		EndingBalance:   money("1000.00"),
		VestedBalance:   money("600.00"),
		VestedPercent:   money("60"),
		EnrollmentCode:  "2",
	}

	// WHEN reconciling with the standard termination policy
	report, err := reconcile.Run(
		[]reconcile.Row{reconcile.FromSnapshot(snap)},
		[]reconcile.Row{reconcile.FromTermination(rec)},
		reconcile.TerminationPolicy(),
	)
	require.NoError(t, err)

	// THEN every tracked field lines up
	assert.True(t, report.Clean(), "unexpected diffs: %#v", report.Mismatches)
	assert.Equal(t, 1, report.ExactMatches)
}

func TestRender_LeadsWithVerdict(t *testing.T) {
	current := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.57")),
	})}
	legacyRows := []reconcile.Row{employeeRow(700100, map[string]reconcile.FieldValue{
		reconcile.FieldVestedBalance: reconcile.Money(money("1234.56")),
	})}

	report, err := reconcile.Run(current, legacyRows, balancePolicy())
	require.NoError(t, err)
	out := report.Render()

	assert.Contains(t, out, "RESULT: REVIEW REQUIRED")
	assert.Contains(t, out, "MISMATCHES")
	assert.Contains(t, out, "DOE, JANE")
	// Inline diff marks the changed digit.
	assert.Contains(t, out, "[-6-]")
	assert.Contains(t, out, "[+7+]")
}

func TestRender_CleanRun(t *testing.T) {
	report, err := reconcile.Run(nil, nil, balancePolicy())
	require.NoError(t, err)
	assert.Contains(t, report.Render(), "RESULT: CLEAN")
}
