package ratesource

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
)

// DefaultHourlyRate is the last tier of the cascade. It is also what the
// orchestrator uses when no award can be determined at all.
var DefaultHourlyRate = decimal.NewFromInt(25)

// =============================================================================
// TABLE ROWS
// =============================================================================

// Row is keyed by financial year. Sector is only meaningful in the sector
// table.
type Row struct {
	AwardCode      string                `json:"award_code"`
	FinancialYear  generic.FinancialYear `json:"financial_year"`
	YearLevel      int                   `json:"year_level"`
	Sector         string                `json:"sector,omitempty"`
	Classification string                `json:"classification,omitempty"`
	HourlyRate     decimal.Decimal       `json:"hourly_rate"`
}

// CalendarRow is keyed by the calendar year a rate is effective from.
type CalendarRow struct {
	AwardCode      string               `json:"award_code"`
	CalendarYear   generic.CalendarYear `json:"calendar_year"`
	YearLevel      int                  `json:"year_level"`
	Classification string               `json:"classification,omitempty"`
	HourlyRate     decimal.Decimal      `json:"hourly_rate"`
}

// Tables holds every static fallback table. Adding a jurisdiction or a year
// is appending rows; no lookup code changes.
type Tables struct {
	Adult         []Row         `json:"adult"`
	Year12        []Row         `json:"year12"`
	Sector        []Row         `json:"sector"`
	FinancialYear []Row         `json:"financial_year"`
	CalendarYear  []CalendarRow `json:"calendar_year"`
}

// Merge appends other's rows after t's. On duplicate keys the first row wins,
// so built-in data can't be silently replaced.
func (t *Tables) Merge(other Tables) {
	t.Adult = append(t.Adult, other.Adult...)
	t.Year12 = append(t.Year12, other.Year12...)
	t.Sector = append(t.Sector, other.Sector...)
	t.FinancialYear = append(t.FinancialYear, other.FinancialYear...)
	t.CalendarYear = append(t.CalendarYear, other.CalendarYear...)
}

// =============================================================================
// LOOKUP STRATEGIES
// =============================================================================

// Match is a hit in one table.
type Match struct {
	Rate           decimal.Decimal
	Classification string
	FinancialYear  generic.FinancialYear
}

// Lookup is one tier of the static cascade: key -> match, or no match.
type Lookup struct {
	Source Source
	Find   func(Key) (Match, bool)
}

// Strategies returns the static tiers in specificity order. The default
// tier is not included; the resolver appends it.
func (t *Tables) Strategies() []Lookup {
	return []Lookup{
		{Source: SourceAdultTable, Find: t.findAdult},
		{Source: SourceYear12Table, Find: t.findYear12},
		{Source: SourceSectorTable, Find: t.findSector},
		{Source: SourceFinancialYearTable, Find: t.findFinancialYear},
		{Source: SourceCalendarYearTable, Find: t.findCalendarYear},
	}
}

func (t *Tables) findAdult(k Key) (Match, bool) {
	if !k.IsAdult {
		return Match{}, false
	}
	return findRow(t.Adult, k, "")
}

func (t *Tables) findYear12(k Key) (Match, bool) {
	if !k.HasCompletedYear12 {
		return Match{}, false
	}
	return findRow(t.Year12, k, "")
}

func (t *Tables) findSector(k Key) (Match, bool) {
	if k.Sector == "" {
		return Match{}, false
	}
	return findRow(t.Sector, k, normalizeSector(k.Sector))
}

// findFinancialYear picks the nearest published year for the award and level:
// the latest year not after the requested one, otherwise the earliest year
// after it. The match carries the year of the row actually used.
func (t *Tables) findFinancialYear(k Key) (Match, bool) {
	var before, after *Row
	for i := range t.FinancialYear {
		row := &t.FinancialYear[i]
		if row.AwardCode != k.AwardCode || row.YearLevel != k.YearLevel {
			continue
		}
		if row.FinancialYear <= k.FinancialYear {
			if before == nil || row.FinancialYear > before.FinancialYear {
				before = row
			}
		} else if after == nil || row.FinancialYear < after.FinancialYear {
			after = row
		}
	}

	chosen := before
	if chosen == nil {
		chosen = after
	}
	if chosen == nil {
		return Match{}, false
	}
	return Match{Rate: chosen.HourlyRate, Classification: chosen.Classification, FinancialYear: chosen.FinancialYear}, true
}

// findCalendarYear converts the key to a calendar year and picks the nearest
// row: the latest year not after the requested one, otherwise the earliest
// year after it.
func (t *Tables) findCalendarYear(k Key) (Match, bool) {
	want := k.CalendarYear()

	var before, after *CalendarRow
	for i := range t.CalendarYear {
		row := &t.CalendarYear[i]
		if row.AwardCode != k.AwardCode || row.YearLevel != k.YearLevel {
			continue
		}
		if row.CalendarYear <= want {
			if before == nil || row.CalendarYear > before.CalendarYear {
				before = row
			}
		} else if after == nil || row.CalendarYear < after.CalendarYear {
			after = row
		}
	}

	chosen := before
	if chosen == nil {
		chosen = after
	}
	if chosen == nil {
		return Match{}, false
	}
	return Match{
		Rate:           chosen.HourlyRate,
		Classification: chosen.Classification,
		FinancialYear:  generic.CalendarToFinancialYear(chosen.CalendarYear),
	}, true
}

// SectorRates lists the sector table rows for an award and year. It returns
// an empty slice when the sector is unknown; callers needing a guaranteed
// rate must go through the resolver.
func (t *Tables) SectorRates(awardCode string, fy generic.FinancialYear, sector string) []Row {
	sector = normalizeSector(sector)
	out := []Row{}
	for _, row := range t.Sector {
		if row.AwardCode == awardCode && row.FinancialYear == fy && normalizeSector(row.Sector) == sector {
			out = append(out, row)
		}
	}
	return out
}

func findRow(rows []Row, k Key, sector string) (Match, bool) {
	for _, row := range rows {
		if row.AwardCode != k.AwardCode || row.FinancialYear != k.FinancialYear || row.YearLevel != k.YearLevel {
			continue
		}
		if sector != "" && normalizeSector(row.Sector) != sector {
			continue
		}
		return Match{Rate: row.HourlyRate, Classification: row.Classification, FinancialYear: row.FinancialYear}, true
	}
	return Match{}, false
}

func normalizeSector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
