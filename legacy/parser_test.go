package legacy_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/plan-engine/legacy"
	"github.com/ledgerline/plan-engine/plan"
)

var fixtureNow = time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)

func loadGolden(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/qpay066_2024.txt")
	require.NoError(t, err)
	return string(data)
}

// =============================================================================
// NUMERIC CONVENTIONS
// =============================================================================

func TestParseMoney_TrailingMinus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"45,072.21-", "-45072.21"},
		{"9,000.00-", "-9000.00"},
		{"100.00", "100.00"},
		{"24,692,640.86", "24692640.86"},
		{"  1,234.56-  ", "-1234.56"},
		{"", "0"},
		{"   ", "0"},
	}
	for _, tc := range cases {
		got, err := legacy.ParseMoney(tc.in)
		require.NoError(t, err, "ParseMoney(%q)", tc.in)
		want, _ := decimal.NewFromString(tc.want)
		assert.True(t, got.Equal(want), "ParseMoney(%q) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestParseMoney_Garbage(t *testing.T) {
	for _, in := range []string{"abc", "12..3", "--5"} {
		if _, err := legacy.ParseMoney(in); err == nil {
			t.Errorf("ParseMoney(%q) should fail", in)
		}
	}
}

// =============================================================================
// GOLDEN REPORT ROUND TRIP
// =============================================================================

func TestParseTerminationReport_GoldenRoundTrip(t *testing.T) {
	// GIVEN: The captured QPAY066 termination report
	// WHEN: Parsing all detail rows and the totals section
	// THEN: 497 rows decode, and summing the rows reproduces the report's
	// own totals exactly

	report, err := legacy.ParseTerminationReport(loadGolden(t), fixtureNow)
	require.NoError(t, err)

	assert.Len(t, report.Records, 497)
	assert.True(t, report.Totals.AmountInProfitSharing.Equal(plan.MustMoney("24692640.86")),
		"amount in profit sharing: %s", report.Totals.AmountInProfitSharing)
	assert.True(t, report.Totals.TotalForfeitures.Equal(plan.MustMoney("-9439.79")),
		"total forfeitures: %s", report.Totals.TotalForfeitures)

	computed := legacy.ComputeTerminationTotals(report.Records)
	assert.True(t, computed.AmountInProfitSharing.Equal(report.Totals.AmountInProfitSharing))
	assert.True(t, computed.VestedAmount.Equal(report.Totals.VestedAmount))
	assert.True(t, computed.TotalForfeitures.Equal(report.Totals.TotalForfeitures))
	assert.True(t, computed.TotalBeneficiaryAllocations.Equal(report.Totals.TotalBeneficiaryAllocations))
}

func TestParseTerminationReport_FieldDecoding(t *testing.T) {
	report, err := legacy.ParseTerminationReport(loadGolden(t), fixtureNow)
	require.NoError(t, err)

	first := report.Records[0]
	assert.Equal(t, plan.Badge(600045), first.PSN.Badge)
	assert.Equal(t, plan.PSNSuffix(0), first.PSN.Suffix)
	assert.Equal(t, "CLARK, SUSAN", first.Name)
	assert.True(t, first.BeginningBalance.Equal(plan.MustMoney("97596.56")))
	assert.True(t, first.DistributionAmount.Equal(plan.MustMoney("2243.32")))
	assert.True(t, first.EndingBalance.Equal(plan.MustMoney("95353.24")))
	assert.True(t, first.VestedBalance.Equal(plan.MustMoney("95353.24")))
	require.NotNil(t, first.TerminationDate)
	assert.Equal(t, 2023, first.TerminationDate.Year())
	assert.True(t, first.VestedPercent.Equal(decimal.NewFromInt(100)))
	require.True(t, first.HasAge)
	assert.Equal(t, 57, first.Age)
	assert.Equal(t, "3", first.EnrollmentCode)

	// Beneficiary rows split on width alone.
	var foundSuffix bool
	for _, r := range report.Records {
		if r.PSN.Suffix != 0 {
			foundSuffix = true
			assert.Greater(t, int(r.PSN.Badge), 0)
		}
	}
	assert.True(t, foundSuffix, "golden report should contain beneficiary rows")
}

func TestParseTerminationReport_CenturyPivot(t *testing.T) {
	// Term dates with two-digit years in the 9x range must decode as 19xx,
	// not a future 20xx date.

	report, err := legacy.ParseTerminationReport(loadGolden(t), fixtureNow)
	require.NoError(t, err)

	var sawNineties bool
	for _, r := range report.Records {
		if r.TerminationDate == nil {
			continue
		}
		assert.LessOrEqual(t, r.TerminationDate.Year(), fixtureNow.Year(),
			"term date %s projects into the future", r.TerminationDate)
		if r.TerminationDate.Year() >= 1990 && r.TerminationDate.Year() < 2000 {
			sawNineties = true
		}
	}
	assert.True(t, sawNineties, "fixture should exercise the 19xx pivot")
}

// =============================================================================
// HARD FAILURES
// =============================================================================

const sampleRow = "      703917SMITH, JOHN             1,000.00                                            1,000.00        600.00240115  1200.00  60  45  2"

func TestParseTerminationReport_MissingTotalsIsFatal(t *testing.T) {
	_, err := legacy.ParseTerminationReport(sampleRow+"\n", fixtureNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, plan.ErrTotalsMissing), "got %v", err)
}

func TestParseTerminationReport_InconsistentTotalsIsFatal(t *testing.T) {
	// GIVEN: A report whose totals disagree with its detail rows
	// THEN: Parsing fails loudly instead of returning unverified data

	text := sampleRow + "\n" +
		"  AMOUNT IN PROFIT SHARING      9,999.99\n" +
		"  VESTED AMOUNT                   600.00\n" +
		"  TOTAL FORFEITURES                 0.00\n" +
		"  TOTAL BENEFICIARY ALLOCTIONS      0.00\n"

	_, err := legacy.ParseTerminationReport(text, fixtureNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, plan.ErrTotalsMismatch), "got %v", err)

	var detail *plan.TotalsMismatchError
	require.True(t, errors.As(err, &detail))
	assert.Equal(t, "AmountInProfitSharing", detail.Field)
}

func TestParseTerminationReport_HeadersAndNoiseSkipped(t *testing.T) {
	text := "QPAY066  TERMINATION - PROFIT SHARING   PAGE 1\n" +
		" BADGE/PSN # EMPLOYEE NAME\n" +
		"\n" +
		sampleRow + "\n" +
		"  AMOUNT IN PROFIT SHARING      1,000.00\n" +
		"  VESTED AMOUNT                   600.00\n" +
		"  TOTAL FORFEITURES                 0.00\n" +
		"  TOTAL BENEFICIARY ALLOCTIONS      0.00\n"

	report, err := legacy.ParseTerminationReport(text, fixtureNow)
	require.NoError(t, err)
	require.Len(t, report.Records, 1)
	assert.Equal(t, plan.Badge(703917), report.Records[0].PSN.Badge)
}

// =============================================================================
// ENCODING
// =============================================================================

func TestDecodeLatin1(t *testing.T) {
	// 0xC9 is E-acute in ISO-8859-1; raw bytes would break UTF-8 slicing.
	raw := []byte{'R', 0xC9, 'M', 'Y'}
	got, err := legacy.DecodeLatin1(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "RÉMY", got)
}
