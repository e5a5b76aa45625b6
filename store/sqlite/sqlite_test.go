package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/charge-rate-engine/chargerate"
	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/ratesource"
	"github.com/warp/charge-rate-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

var t0 = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func ptr[T any](v T) *T { return &v }

func newStore(t *testing.T) (*sqlite.Store, *generic.FixedClock) {
	t.Helper()
	clock := generic.NewFixedClock(t0)
	s, err := sqlite.New(":memory:", sqlite.WithClock(clock))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, clock
}

// seed writes one award with two rules, one apprentice on it, two hosts and
// an active placement for (appr-1, host-1).
func seed(t *testing.T, s *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.SaveAward(ctx, generic.Award{ID: "award-elec", Code: "MA000025", Name: "Electrical"}, []generic.PenaltyRule{
		{Name: "Saturday", Type: generic.PenaltyWeekend, Multiplier: dec("1.5")},
		{Name: "Overtime", Type: generic.PenaltyOvertime, Multiplier: dec("2")},
	}))
	require.NoError(t, s.SaveApprentice(ctx, generic.Apprentice{
		ID: "appr-1", FirstName: "Alex", LastName: "Nguyen", YearLevel: 2,
		HasCompletedYear12: true, Sector: "commercial",
		TrainingContractAwardID: ptr(generic.AwardID("award-elec")),
	}))
	require.NoError(t, s.SaveHostEmployer(ctx, generic.HostEmployer{ID: "host-1", Name: "Sparks"}))
	require.NoError(t, s.SaveHostEmployer(ctx, generic.HostEmployer{
		ID: "host-2", Name: "Volt", MarginOverride: ptr(dec("0.2")), AdminRateOverride: ptr(dec("0.1")),
	}))
	require.NoError(t, s.SavePlacement(ctx, generic.Placement{
		ID: "pl-1", ApprenticeID: "appr-1", HostEmployerID: "host-1",
		AwardID: ptr(generic.AwardID("award-elec")), NegotiatedRate: ptr(dec("21.50")),
		Active: true, UpdatedAt: t0,
	}))
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

func TestStore_ReferenceData(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	a, err := s.GetApprentice(ctx, "appr-1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.YearLevel)
	assert.True(t, a.HasCompletedYear12)
	assert.False(t, a.IsAdult)
	assert.Equal(t, "commercial", a.Sector)
	require.NotNil(t, a.TrainingContractAwardID)
	assert.Equal(t, generic.AwardID("award-elec"), *a.TrainingContractAwardID)

	h, err := s.GetHostEmployer(ctx, "host-1")
	require.NoError(t, err)
	assert.Nil(t, h.MarginOverride)
	assert.Nil(t, h.AdminRateOverride)

	h, err = s.GetHostEmployer(ctx, "host-2")
	require.NoError(t, err)
	require.NotNil(t, h.MarginOverride)
	assert.True(t, h.MarginOverride.Equal(dec("0.2")))

	award, err := s.GetAward(ctx, "award-elec")
	require.NoError(t, err)
	assert.Equal(t, "MA000025", award.Code)

	rules, err := s.GetPenaltyRules(ctx, "award-elec")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "Saturday", rules[0].Name)
	assert.Equal(t, generic.PenaltyOvertime, rules[1].Type)
	assert.True(t, rules[1].Multiplier.Equal(dec("2")))
}

func TestStore_SaveAwardReplacesRules(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.SaveAward(ctx, generic.Award{ID: "award-elec", Code: "MA000025", Name: "Electrical 2025"}, nil))

	rules, err := s.GetPenaltyRules(ctx, "award-elec")
	require.NoError(t, err)
	assert.NotNil(t, rules)
	assert.Empty(t, rules)
}

func TestStore_NotFound(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.GetApprentice(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetHostEmployer(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetAward(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetPenaltyRules(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetCalculation(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetQuote(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetPlacement(ctx, "x")
	assert.True(t, generic.IsNotFound(err))
	assert.True(t, generic.IsNotFound(s.UpdateChargeRate(ctx, "x", dec("1"))))
	assert.True(t, generic.IsNotFound(s.MarkApproved(ctx, "x", "me", t0)))
}

// =============================================================================
// PLACEMENTS
// =============================================================================

func TestStore_FindActivePlacement(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	// GIVEN: a newer active duplicate and an inactive one
	require.NoError(t, s.SavePlacement(ctx, generic.Placement{
		ID: "pl-2", ApprenticeID: "appr-1", HostEmployerID: "host-1", Active: true, UpdatedAt: t0.Add(time.Hour),
	}))
	require.NoError(t, s.SavePlacement(ctx, generic.Placement{
		ID: "pl-3", ApprenticeID: "appr-1", HostEmployerID: "host-1", Active: false, UpdatedAt: t0.Add(2 * time.Hour),
	}))

	// WHEN/THEN: the most recently updated active one wins
	p, err := s.FindActivePlacement(ctx, "appr-1", "host-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, generic.PlacementID("pl-2"), p.ID)

	// AND: no placement is (nil, nil)
	p, err = s.FindActivePlacement(ctx, "appr-1", "host-2")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestStore_UpdateChargeRate(t *testing.T) {
	s, clock := newStore(t)
	seed(t, s)
	ctx := context.Background()

	clock.Advance(time.Minute)
	require.NoError(t, s.UpdateChargeRate(ctx, "pl-1", dec("55.76")))

	p, err := s.GetPlacement(ctx, "pl-1")
	require.NoError(t, err)
	require.NotNil(t, p.CurrentChargeRate)
	assert.Equal(t, "55.76", p.CurrentChargeRate.String())
	require.NotNil(t, p.NegotiatedRate)
	assert.Equal(t, "21.5", p.NegotiatedRate.String())
	assert.Equal(t, t0.Add(time.Minute), p.UpdatedAt)
}

// =============================================================================
// CALCULATIONS
// =============================================================================

func sampleCalculation(id string, at time.Time, estimates map[string]decimal.Decimal) generic.ChargeRateCalculation {
	return generic.ChargeRateCalculation{
		ID:             generic.CalculationID(id),
		ApprenticeID:   "appr-1",
		HostEmployerID: "host-1",
		PlacementID:    ptr(generic.PlacementID("pl-1")),
		AwardID:        ptr(generic.AwardID("award-elec")),
		RateSource:     "financial_year_table",
		Result: generic.CalculationResult{
			PayRate:             dec("25"),
			TotalAnnualHours:    dec("1976"),
			BillableAnnualHours: dec("1444"),
			BaseWage:            dec("49400"),
			OnCosts: generic.OnCosts{
				Superannuation: dec("5681"),
				WorkersComp:    dec("2321.8"),
				PayrollTax:     dec("2395.9"),
				LeaveLoading:   dec("665"),
				StudyCost:      dec("850"),
				PPECost:        dec("300"),
				AdminCost:      dec("8398"),
			},
			TotalCost:        dec("70011.7"),
			CostPerHour:      dec("48.4845567867036011"),
			ChargeRate:       dec("55.7572403047091413"),
			PenaltyEstimates: estimates,
		},
		Margin:       dec("0.15"),
		WeeklyHours:  dec("38"),
		CalculatedAt: at,
	}
}

func TestStore_CalculationRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	want := sampleCalculation("calc-1", t0, map[string]decimal.Decimal{"Saturday": dec("1.875")})
	require.NoError(t, s.InsertCalculation(ctx, want))

	got, err := s.GetCalculation(ctx, "calc-1")
	require.NoError(t, err)

	// Decimals keep every digit; no float drift.
	assert.Equal(t, want.Result.ChargeRate.String(), got.Result.ChargeRate.String())
	assert.Equal(t, want.Result.CostPerHour.String(), got.Result.CostPerHour.String())
	assert.True(t, got.Result.OnCosts.Total().Equal(want.Result.OnCosts.Total()))
	require.Contains(t, got.Result.PenaltyEstimates, "Saturday")
	assert.True(t, got.Result.PenaltyEstimates["Saturday"].Equal(dec("1.875")))
	assert.Equal(t, want.RateSource, got.RateSource)
	assert.Equal(t, *want.PlacementID, *got.PlacementID)
	assert.Equal(t, t0, got.CalculatedAt)
	assert.False(t, got.Approved)
	assert.Nil(t, got.ApprovedAt)
}

func TestStore_CalculationWithoutEstimatesOrAward(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	rec := sampleCalculation("calc-1", t0, nil)
	rec.AwardID = nil
	rec.PlacementID = nil
	require.NoError(t, s.InsertCalculation(ctx, rec))

	got, err := s.GetCalculation(ctx, "calc-1")
	require.NoError(t, err)
	assert.Nil(t, got.Result.PenaltyEstimates)
	assert.Nil(t, got.AwardID)
	assert.Nil(t, got.PlacementID)
}

func TestStore_DuplicateCalculationRejected(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-1", t0, nil)))
	assert.Error(t, s.InsertCalculation(ctx, sampleCalculation("calc-1", t0, nil)))
}

func TestStore_ListCalculationsNewestFirst(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-old", t0, nil)))
	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-new", t0.Add(time.Second), nil)))

	recs, err := s.ListCalculations(ctx, "appr-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, generic.CalculationID("calc-new"), recs[0].ID)
}

func TestStore_MarkApproved(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-1", t0, nil)))

	require.NoError(t, s.MarkApproved(ctx, "calc-1", "manager-7", t0.Add(time.Hour)))

	got, err := s.GetCalculation(ctx, "calc-1")
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, "manager-7", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.Equal(t, t0.Add(time.Hour), *got.ApprovedAt)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTxRollsBack(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-1", t0, nil)))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(r generic.Repositories) error {
		require.NoError(t, r.MarkApproved(ctx, "calc-1", "manager-7", t0))
		require.NoError(t, r.UpdateChargeRate(ctx, "pl-1", dec("55.76")))

		// Reads inside the transaction see its own writes.
		rec, err := r.GetCalculation(ctx, "calc-1")
		require.NoError(t, err)
		assert.True(t, rec.Approved)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	rec, err := s.GetCalculation(ctx, "calc-1")
	require.NoError(t, err)
	assert.False(t, rec.Approved)

	p, err := s.GetPlacement(ctx, "pl-1")
	require.NoError(t, err)
	assert.Nil(t, p.CurrentChargeRate)
}

// =============================================================================
// QUOTES
// =============================================================================

func TestStore_QuoteRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-1", t0, nil)))
	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-2", t0, nil)))

	q := generic.Quote{
		ID: "quote-1", HostEmployerID: "host-1",
		Lines: []generic.QuoteLine{
			{ApprenticeID: "appr-1", CalculationID: "calc-2", WeeklyHours: dec("38"), ChargeRate: dec("55.76"), TotalPrice: dec("110181.76")},
			{ApprenticeID: "appr-1", CalculationID: "calc-1", WeeklyHours: dec("30.4"), ChargeRate: dec("40"), TotalPrice: dec("63232")},
		},
		TotalAmount: dec("173413.76"),
		Status:      generic.QuoteDraft,
		CreatedAt:   t0,
		ValidUntil:  t0.AddDate(0, 0, 30),
	}
	require.NoError(t, s.InsertQuote(ctx, q))

	got, err := s.GetQuote(ctx, "quote-1")
	require.NoError(t, err)
	assert.Equal(t, generic.QuoteDraft, got.Status)
	assert.True(t, got.TotalAmount.Equal(q.TotalAmount))
	assert.Equal(t, q.ValidUntil, got.ValidUntil)
	require.Len(t, got.Lines, 2)
	assert.Equal(t, generic.CalculationID("calc-2"), got.Lines[0].CalculationID, "line order preserved")
	assert.True(t, got.Lines[1].WeeklyHours.Equal(dec("30.4")))
}

func TestStore_QuoteWithUnknownCalculationFails(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()

	err := s.InsertQuote(ctx, generic.Quote{
		ID: "quote-1", HostEmployerID: "host-1", TotalAmount: dec("1"), Status: generic.QuoteDraft,
		CreatedAt: t0, ValidUntil: t0,
		Lines: []generic.QuoteLine{{ApprenticeID: "appr-1", CalculationID: "missing", WeeklyHours: dec("1"), ChargeRate: dec("1"), TotalPrice: dec("1")}},
	})
	require.Error(t, err)

	// The header insert was rolled back with the line.
	_, err = s.GetQuote(ctx, "quote-1")
	assert.True(t, generic.IsNotFound(err))
}

// =============================================================================
// RESET / FILE DATABASE
// =============================================================================

func TestStore_Reset(t *testing.T) {
	s, _ := newStore(t)
	seed(t, s)
	ctx := context.Background()
	require.NoError(t, s.InsertCalculation(ctx, sampleCalculation("calc-1", t0, nil)))

	require.NoError(t, s.Reset(ctx))

	_, err := s.GetApprentice(ctx, "appr-1")
	assert.True(t, generic.IsNotFound(err))
	_, err = s.GetCalculation(ctx, "calc-1")
	assert.True(t, generic.IsNotFound(err))

	// Seeding again works on the emptied schema.
	seed(t, s)
}

func TestStore_FileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.db")
	ctx := context.Background()

	s, err := sqlite.New(path)
	require.NoError(t, err)
	seed(t, s)
	require.NoError(t, s.Close())

	// Migrations are idempotent on reopen.
	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()

	a, err := s.GetApprentice(ctx, "appr-1")
	require.NoError(t, err)
	assert.Equal(t, "Alex", a.FirstName)
}

// =============================================================================
// END TO END ON SQLITE
// =============================================================================

func TestStore_CalculatorEndToEnd(t *testing.T) {
	s, clock := newStore(t)
	seed(t, s)
	ctx := context.Background()
	calc := chargerate.NewCalculator(s, ratesource.NewResolver(), chargerate.WithClock(clock))

	// Negotiated rate on pl-1 wins over the award.
	rec, err := calc.CalculateAndPersist(ctx, chargerate.Request{ApprenticeID: "appr-1", HostEmployerID: "host-1", Year: 2025})
	require.NoError(t, err)
	assert.Equal(t, chargerate.SourceNegotiated, rec.RateSource)
	assert.True(t, rec.Result.PayRate.Equal(dec("21.50")))
	assert.Len(t, rec.Result.PenaltyEstimates, 2)

	approved, err := calc.Approve(ctx, rec.ID, "manager-7")
	require.NoError(t, err)
	assert.True(t, approved.Approved)

	p, err := s.GetPlacement(ctx, "pl-1")
	require.NoError(t, err)
	require.NotNil(t, p.CurrentChargeRate)
	assert.True(t, p.CurrentChargeRate.Equal(generic.RoundCurrency(rec.Result.ChargeRate)))

	_, err = calc.Approve(ctx, rec.ID, "manager-7")
	assert.True(t, generic.IsConflict(err))

	q, err := calc.GenerateQuote(ctx, chargerate.QuoteRequest{
		HostEmployerID: "host-2", ApprenticeIDs: []generic.ApprenticeID{"appr-1"}, Year: 2025,
	})
	require.NoError(t, err)
	stored, err := s.GetQuote(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, stored.Lines, 1)
	assert.True(t, stored.TotalAmount.Equal(q.TotalAmount))

	// host-2 has no placement: year-12 table for FY2024, year 2.
	line, err := s.GetCalculation(ctx, stored.Lines[0].CalculationID)
	require.NoError(t, err)
	assert.Equal(t, generic.RateSourceName(ratesource.SourceYear12Table), line.RateSource)
	assert.True(t, line.Result.PayRate.Equal(dec("20.40")))
	assert.True(t, line.Margin.Equal(dec("0.2")))
}
