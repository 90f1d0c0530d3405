package military_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/plan-engine/military"
	"github.com/ledgerline/plan-engine/plan"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeDirectory struct {
	exists   bool
	hireDate time.Time
	hireOK   bool
	dob      time.Time
	dobOK    bool
}

func (f *fakeDirectory) BadgeExists(ctx context.Context, badge int) (bool, error) {
	return f.exists, nil
}
func (f *fakeDirectory) EarliestHireDate(ctx context.Context, badge int) (time.Time, bool, error) {
	return f.hireDate, f.hireOK, nil
}
func (f *fakeDirectory) DateOfBirth(ctx context.Context, badge int) (time.Time, bool, error) {
	return f.dob, f.dobOK, nil
}

type fakeHistory struct {
	records map[int][]military.ContributionRecord // keyed by year
}

func (f *fakeHistory) ContributionsForYear(ctx context.Context, badge, year int) ([]military.ContributionRecord, error) {
	return f.records[year], nil
}

// fixedNow keeps the tests stable regardless of the wall clock.
var fixedNow = time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)

func newValidator(dir *fakeDirectory, hist *fakeHistory, m plan.Metrics) *military.Validator {
	if dir == nil {
		dir = &fakeDirectory{
			exists:   true,
			hireDate: time.Date(2010, time.March, 1, 0, 0, 0, 0, time.UTC),
			hireOK:   true,
			dob:      time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC),
			dobOK:    true,
		}
	}
	if hist == nil {
		hist = &fakeHistory{}
	}
	return &military.Validator{
		Directory: dir,
		History:   hist,
		Metrics:   m,
		Now:       func() time.Time { return fixedNow },
	}
}

func validRequest() military.Request {
	return military.Request{
		Badge:            703917,
		Amount:           decimal.NewFromInt(100),
		ProfitYear:       2024,
		ContributionDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		IsSupplemental:   true,
	}
}

// =============================================================================
// RULE CHAIN SCENARIOS
// =============================================================================

func TestValidate_ValidRequestPasses(t *testing.T) {
	v := newValidator(nil, nil, nil)
	res, err := v.Validate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Valid(), "unexpected failures: %v", res.Failures)
}

func TestValidate_ZeroAmountRejected(t *testing.T) {
	v := newValidator(nil, nil, nil)
	req := validRequest()
	req.Amount = decimal.Zero

	res, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleAmountPositive))
	assert.Contains(t, res.Failures[0].Message, "greater than zero")
}

func TestValidate_ProfitYearBounds(t *testing.T) {
	v := newValidator(nil, nil, nil)

	tooLow := validRequest()
	tooLow.ProfitYear = 2019
	tooLow.ContributionDate = time.Date(2021, time.January, 15, 0, 0, 0, 0, time.UTC)
	res, err := v.Validate(context.Background(), tooLow)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleProfitYearRange))

	tooHigh := validRequest()
	tooHigh.ProfitYear = fixedNow.Year() + 1
	res, err = v.Validate(context.Background(), tooHigh)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleProfitYearRange))
}

func TestValidate_ContributionDateOutsideLookback(t *testing.T) {
	// GIVEN: Contribution dated currentYear-6 with a 5-year window
	// THEN: Rejected as outside the lookback window

	v := newValidator(nil, nil, nil)
	req := validRequest()
	req.ProfitYear = 2020
	req.ContributionDate = time.Date(fixedNow.Year()-6, time.June, 1, 0, 0, 0, 0, time.UTC)

	res, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleContributionDateWindow))
}

func TestValidate_FutureDateRejected(t *testing.T) {
	v := newValidator(nil, nil, nil)
	req := validRequest()
	req.ProfitYear = 2025
	req.ContributionDate = fixedNow.AddDate(0, 0, 1)

	res, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleDateNotFuture))
}

func TestValidate_UnknownBadge_NoFabricatedSecondaryFailures(t *testing.T) {
	// GIVEN: A badge that does not resolve, so neither hire date nor DOB
	// exist
	// WHEN: Validating
	// THEN: The badge, hire-date-missing, and dob-missing rules fail, but
	// no age or hire-year comparison is fabricated

	dir := &fakeDirectory{exists: false}
	v := newValidator(dir, nil, nil)

	res, err := v.Validate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleBadgeExists))
	assert.True(t, res.Has(military.RuleHireDateMissing))
	assert.True(t, res.Has(military.RuleDateOfBirthMissing))
	assert.False(t, res.Has(military.RuleMinimumAge))
	assert.False(t, res.Has(military.RuleNotBeforeHire))
}

func TestValidate_ContributionBeforeHireYear(t *testing.T) {
	dir := &fakeDirectory{
		exists:   true,
		hireDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		hireOK:   true,
		dob:      time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC),
		dobOK:    true,
	}
	v := newValidator(dir, nil, nil)

	res, err := v.Validate(context.Background(), validRequest()) // dated 2024
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleNotBeforeHire))
}

func TestValidate_Under21Rejected(t *testing.T) {
	dir := &fakeDirectory{
		exists:   true,
		hireDate: time.Date(2022, time.March, 1, 0, 0, 0, 0, time.UTC),
		hireOK:   true,
		dob:      time.Date(2004, time.June, 1, 0, 0, 0, 0, time.UTC), // 19 at 2024-01-15
		dobOK:    true,
	}
	v := newValidator(dir, nil, nil)

	res, err := v.Validate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleMinimumAge))
	assert.Contains(t, res.Failures[0].Message, "at least 21")
}

func TestValidate_CrossYearPostingMustBeSupplemental(t *testing.T) {
	// GIVEN: ProfitYear 2025 but contribution dated in 2024, not marked
	// supplemental
	// THEN: Rejected with the supplemental-marking rule

	v := newValidator(nil, nil, nil)
	req := validRequest()
	req.ProfitYear = 2025
	req.ContributionDate = time.Date(2024, time.November, 3, 0, 0, 0, 0, time.UTC)
	req.IsSupplemental = false

	res, err := v.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleSupplementalRequired))
	for _, f := range res.Failures {
		if f.Rule == military.RuleSupplementalRequired {
			assert.Contains(t, f.Message, "Supplemental")
		}
	}
}

func TestValidate_DuplicateRegularByContributionYear(t *testing.T) {
	// GIVEN: A regular contribution already on file for the
	// contribution-date year (2024), regardless of the selected profit
	// year
	// THEN: A second regular submission is rejected; a supplemental one is
	// accepted

	hist := &fakeHistory{records: map[int][]military.ContributionRecord{
		2024: {{Date: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), IsSupplemental: false}},
	}}
	v := newValidator(nil, hist, nil)

	regular := validRequest()
	regular.IsSupplemental = false
	res, err := v.Validate(context.Background(), regular)
	require.NoError(t, err)
	assert.True(t, res.Has(military.RuleNoDuplicateRegular))

	supplemental := validRequest() // IsSupplemental=true
	res, err = v.Validate(context.Background(), supplemental)
	require.NoError(t, err)
	assert.True(t, res.Valid(), "supplemental should bypass duplicate check: %v", res.Failures)
}

func TestValidate_ExistingSupplementalDoesNotBlockRegular(t *testing.T) {
	hist := &fakeHistory{records: map[int][]military.ContributionRecord{
		2024: {{Date: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), IsSupplemental: true}},
	}}
	v := newValidator(nil, hist, nil)

	regular := validRequest()
	regular.IsSupplemental = false
	res, err := v.Validate(context.Background(), regular)
	require.NoError(t, err)
	assert.False(t, res.Has(military.RuleNoDuplicateRegular))
}

func TestValidate_AllRulesEvaluated(t *testing.T) {
	// A request violating several independent rules reports all of them,
	// and each failure increments its named counter.

	counters := plan.NewCounters()
	v := newValidator(nil, nil, counters)

	req := military.Request{
		Badge:            703917,
		Amount:           decimal.Zero,
		ProfitYear:       2019,
		ContributionDate: time.Date(2018, time.June, 1, 0, 0, 0, 0, time.UTC),
		IsSupplemental:   false,
	}
	res, err := v.Validate(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, res.Has(military.RuleAmountPositive))
	assert.True(t, res.Has(military.RuleProfitYearRange))
	assert.True(t, res.Has(military.RuleContributionDateWindow))
	assert.True(t, res.Has(military.RuleSupplementalRequired))

	assert.EqualValues(t, 1, counters.Get("military.reject."+military.RuleAmountPositive))
	assert.EqualValues(t, 1, counters.Get("military.reject."+military.RuleProfitYearRange))
}
