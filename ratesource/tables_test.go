package ratesource_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/ratesource"
)

func dec(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func assertRate(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(want)), "want %s, got %s", want, got.String())
}

func key(code string, fy int, attrs ratesource.Attributes) ratesource.Key {
	return ratesource.Key{AwardCode: code, FinancialYear: generic.FinancialYear(fy), Attributes: attrs}
}

// firstHit runs the static strategies the way the resolver does.
func firstHit(t *testing.T, tables *ratesource.Tables, k ratesource.Key) (ratesource.Source, ratesource.Match) {
	t.Helper()
	for _, l := range tables.Strategies() {
		if m, ok := l.Find(k); ok {
			return l.Source, m
		}
	}
	return ratesource.SourceDefault, ratesource.Match{}
}

// =============================================================================
// STRATEGY ORDER
// =============================================================================

func TestStrategies_SpecificityOrder(t *testing.T) {
	tables := ratesource.DefaultTables()

	var order []ratesource.Source
	for _, l := range tables.Strategies() {
		order = append(order, l.Source)
	}
	assert.Equal(t, []ratesource.Source{
		ratesource.SourceAdultTable,
		ratesource.SourceYear12Table,
		ratesource.SourceSectorTable,
		ratesource.SourceFinancialYearTable,
		ratesource.SourceCalendarYearTable,
	}, order)
}

func TestStrategies_AdultBeatsYear12(t *testing.T) {
	// GIVEN: an adult apprentice who also finished year 12
	k := key(ratesource.AwardElectrical, 2024, ratesource.Attributes{YearLevel: 2, IsAdult: true, HasCompletedYear12: true})

	// WHEN/THEN: the adult table answers
	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceAdultTable, src)
	assertRate(t, "27.30", m.Rate)
}

func TestStrategies_Year12(t *testing.T) {
	k := key(ratesource.AwardElectrical, 2024, ratesource.Attributes{YearLevel: 1, HasCompletedYear12: true})

	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceYear12Table, src)
	assertRate(t, "17.42", m.Rate)
}

func TestStrategies_SectorIsNormalized(t *testing.T) {
	k := key(ratesource.AwardBuilding, 2024, ratesource.Attributes{YearLevel: 1, Sector: "  Residential "})

	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceSectorTable, src)
	assertRate(t, "17.10", m.Rate)
}

func TestStrategies_SectorMissFallsToFinancialYear(t *testing.T) {
	// GIVEN: civil sector only publishes years 1 and 2
	k := key(ratesource.AwardBuilding, 2024, ratesource.Attributes{YearLevel: 3, Sector: "civil"})

	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceFinancialYearTable, src)
	assertRate(t, "25.31", m.Rate)
}

func TestStrategies_AdultWithoutAdultRowFallsThrough(t *testing.T) {
	// Plumbing has no adult table.
	k := key(ratesource.AwardPlumbing, 2024, ratesource.Attributes{YearLevel: 4, IsAdult: true})

	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceFinancialYearTable, src)
	assertRate(t, "28.07", m.Rate)
}

// =============================================================================
// FINANCIAL-YEAR TABLE
// =============================================================================

func TestFinancialYear_PastLastPublishedYear(t *testing.T) {
	// GIVEN: building publishes FY2023 and FY2024 only
	tests := []struct {
		name  string
		fy    int
		level int
		want  string
	}{
		{"calendar 2026", 2025, 1, "17.36"},
		{"calendar 2027", 2026, 1, "17.36"},
		{"calendar 2027 level 4", 2026, 4, "28.92"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := key(ratesource.AwardBuilding, tt.fy, ratesource.Attributes{YearLevel: tt.level})

			// WHEN
			src, m := firstHit(t, ratesource.DefaultTables(), k)

			// THEN: the latest published year answers, stamped with that year
			assert.Equal(t, ratesource.SourceFinancialYearTable, src)
			assertRate(t, tt.want, m.Rate)
			assert.Equal(t, generic.FinancialYear(2024), m.FinancialYear)
		})
	}
}

func TestFinancialYear_EarliestAfterWhenNothingBefore(t *testing.T) {
	k := key(ratesource.AwardPlumbing, 2020, ratesource.Attributes{YearLevel: 2})

	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceFinancialYearTable, src)
	assertRate(t, "20.13", m.Rate)
	assert.Equal(t, generic.FinancialYear(2023), m.FinancialYear)
}

func TestFinancialYear_ExactYearBeatsNearest(t *testing.T) {
	k := key(ratesource.AwardElectrical, 2023, ratesource.Attributes{YearLevel: 3})

	_, m := firstHit(t, ratesource.DefaultTables(), k)
	assertRate(t, "23.67", m.Rate)
	assert.Equal(t, generic.FinancialYear(2023), m.FinancialYear)
}

// =============================================================================
// CALENDAR-YEAR TABLE
// =============================================================================

// calendarOnly keeps just the calendar-year rows so the generic
// financial-year table can't answer first.
func calendarOnly() *ratesource.Tables {
	return &ratesource.Tables{CalendarYear: ratesource.DefaultTables().CalendarYear}
}

func TestCalendarYear_PicksLatestNotAfter(t *testing.T) {
	// GIVEN: FY2025 -> calendar 2026, electrical only has 2022 and 2023 rows
	k := key(ratesource.AwardElectrical, 2025, ratesource.Attributes{YearLevel: 1})

	src, m := firstHit(t, calendarOnly(), k)
	assert.Equal(t, ratesource.SourceCalendarYearTable, src)
	assertRate(t, "15.31", m.Rate)
	assert.Equal(t, generic.FinancialYear(2022), m.FinancialYear)
}

func TestCalendarYear_ExactYear(t *testing.T) {
	// FY2021 -> calendar 2022
	k := key(ratesource.AwardElectrical, 2021, ratesource.Attributes{YearLevel: 4})

	src, m := firstHit(t, calendarOnly(), k)
	assert.Equal(t, ratesource.SourceCalendarYearTable, src)
	assertRate(t, "25.31", m.Rate)
}

func TestCalendarYear_EarliestAfterWhenNothingBefore(t *testing.T) {
	// Hair and beauty has no financial-year rows, so the built-in tables reach
	// the calendar table too.
	k := key(ratesource.AwardHairBeauty, 2019, ratesource.Attributes{YearLevel: 1})

	src, m := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceCalendarYearTable, src)
	assertRate(t, "13.93", m.Rate)
}

func TestStrategies_NoRowAnywhere(t *testing.T) {
	k := key("MA999999", 2029, ratesource.Attributes{YearLevel: 1})

	src, _ := firstHit(t, ratesource.DefaultTables(), k)
	assert.Equal(t, ratesource.SourceDefault, src)
}

// =============================================================================
// SECTOR RATES
// =============================================================================

func TestSectorRates(t *testing.T) {
	tables := ratesource.DefaultTables()

	rows := tables.SectorRates(ratesource.AwardBuilding, 2024, "Commercial")
	require.Len(t, rows, 4)
	assertRate(t, "17.61", rows[0].HourlyRate)
}

func TestSectorRates_UnknownSectorIsEmptyNotNil(t *testing.T) {
	rows := ratesource.DefaultTables().SectorRates(ratesource.AwardBuilding, 2024, "marine")
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

// =============================================================================
// MERGE / LOAD
// =============================================================================

func TestMerge_BuiltinRowWins(t *testing.T) {
	tables := ratesource.DefaultTables()
	tables.Merge(ratesource.Tables{
		FinancialYear: []ratesource.Row{
			{AwardCode: ratesource.AwardElectrical, FinancialYear: 2024, YearLevel: 1, HourlyRate: dec("99.00")},
			{AwardCode: ratesource.AwardElectrical, FinancialYear: 2025, YearLevel: 1, HourlyRate: dec("17.02")},
		},
	})

	_, m := firstHit(t, tables, key(ratesource.AwardElectrical, 2024, ratesource.Attributes{YearLevel: 1}))
	assertRate(t, "16.42", m.Rate)

	src, m := firstHit(t, tables, key(ratesource.AwardElectrical, 2025, ratesource.Attributes{YearLevel: 1}))
	assert.Equal(t, ratesource.SourceFinancialYearTable, src)
	assertRate(t, "17.02", m.Rate)
}

func TestLoadTables(t *testing.T) {
	doc := `{
		"financial_year": [
			{"award_code": "ma000025", "financial_year": 2025, "year_level": 1, "hourly_rate": "17.02"}
		],
		"calendar_year": [
			{"award_code": "MA000036", "calendar_year": 2030, "year_level": 2, "hourly_rate": 22.5}
		]
	}`

	tables, err := ratesource.LoadTables(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, tables.FinancialYear, 1)
	assert.Equal(t, "MA000025", tables.FinancialYear[0].AwardCode)
	assertRate(t, "17.02", tables.FinancialYear[0].HourlyRate)
	require.Len(t, tables.CalendarYear, 1)
	assertRate(t, "22.5", tables.CalendarYear[0].HourlyRate)
}

func TestLoadTables_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed json", `{"financial_year": [`},
		{"unknown field", `{"weekly": []}`},
		{"bad award code", `{"financial_year": [{"award_code": "X1", "financial_year": 2025, "year_level": 1, "hourly_rate": "17"}]}`},
		{"year level out of range", `{"financial_year": [{"award_code": "MA000025", "financial_year": 2025, "year_level": 5, "hourly_rate": "17"}]}`},
		{"zero rate", `{"adult": [{"award_code": "MA000025", "financial_year": 2025, "year_level": 1, "hourly_rate": "0"}]}`},
		{"sector row without sector", `{"sector": [{"award_code": "MA000020", "financial_year": 2025, "year_level": 1, "hourly_rate": "17"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ratesource.LoadTables(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTables_ValidationErrorsAreClientErrors(t *testing.T) {
	_, err := ratesource.LoadTables(strings.NewReader(`{"calendar_year": [{"award_code": "MA000025", "calendar_year": 2030, "year_level": 0, "hourly_rate": "1"}]}`))
	require.Error(t, err)
	assert.True(t, generic.IsClientError(err))
}
