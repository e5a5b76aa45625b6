/*
Package ratesource resolves the hourly base pay rate of an apprentice.

PURPOSE:
  Given an award code, a calendar year and apprentice attributes, produce
  one authoritative hourly rate. The resolver never fails for missing data:
  every path ends, at worst, in the hard-coded default rate. It fails only
  for malformed input.

RESOLUTION ORDER (first success wins, no merging):
  1. Fresh cache entry for (endpoint, financial year)
  2. Remote rate source (needs a credential; 15s timeout)
  3. Stale cache entry, if the remote attempt failed
  4. Static tables: adult -> year 12 -> sector -> financial year ->
     calendar year (nearest) -> default

YEARS:
  Callers pass a calendar year. Tables and the remote source are keyed by
  financial year = calendar year - 1. Output records are stamped with the
  calendar year = financial year + 1. See generic/time.go.

FILES:
  result.go:   Result type, Source names, Resolution
  cache.go:    TTL cache with injectable clock
  remote.go:   HTTP rate source + credential provider
  tables.go:   Static fallback tables as ordered lookup strategies
  data.go:     Built-in table rows
  loader.go:   JSON table loader for additional rows
  resolver.go: The cascade
*/
package ratesource

import (
	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
)

// =============================================================================
// RESULT - outcome of one resolution attempt
// =============================================================================

// Result carries either a value or the failure of one attempt. The cascade
// inspects it and decides whether to fall through; attempts never panic or
// swallow errors themselves.
type Result[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Result[T]         { return Result[T]{Value: v} }
func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }
func (r Result[T]) IsOk() bool        { return r.Err == nil }

// =============================================================================
// SOURCE
// =============================================================================

// Source names the tier that produced a rate.
type Source string

const (
	SourceRemote             Source = "remote"
	SourceCache              Source = "cache"
	SourceStaleCache         Source = "stale_cache"
	SourceAdultTable         Source = "adult_table"
	SourceYear12Table        Source = "year12_table"
	SourceSectorTable        Source = "sector_table"
	SourceFinancialYearTable Source = "financial_year_table"
	SourceCalendarYearTable  Source = "calendar_year_table"
	SourceDefault            Source = "default"
)

// IsFallback reports whether the rate came from static data.
func (s Source) IsFallback() bool {
	switch s {
	case SourceRemote, SourceCache, SourceStaleCache:
		return false
	}
	return true
}

// =============================================================================
// INPUT / OUTPUT
// =============================================================================

// Attributes select a classification within an award.
type Attributes struct {
	YearLevel          int // 1-4
	IsAdult            bool
	HasCompletedYear12 bool
	Sector             string
}

// AttributesOf extracts resolver attributes from an apprentice record.
func AttributesOf(a generic.Apprentice) Attributes {
	return Attributes{
		YearLevel:          a.YearLevel,
		IsAdult:            a.IsAdult,
		HasCompletedYear12: a.HasCompletedYear12,
		Sector:             a.Sector,
	}
}

// Key is the normalized lookup key every fallback table is queried with.
type Key struct {
	AwardCode     string
	FinancialYear generic.FinancialYear
	Attributes
}

// CalendarYear is the requested year on the caller's side.
func (k Key) CalendarYear() generic.CalendarYear {
	return generic.FinancialYearToCalendar(k.FinancialYear)
}

// Resolution is a resolved rate plus where it came from.
type Resolution struct {
	Rate           decimal.Decimal
	Source         Source
	AwardCode      string
	Classification string

	// FinancialYear is the table key the rate belongs to; EffectiveYear is
	// the calendar year it is published as effective from.
	FinancialYear generic.FinancialYear
	EffectiveYear generic.CalendarYear
}
