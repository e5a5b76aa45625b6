/*
Package costmodel turns an hourly pay rate into a margin-loaded charge rate.

PURPOSE:
  Pure computation. Given a pay rate, a work pattern, a cost configuration
  and the billable options, derive annual hours, billable hours, on-costs,
  total cost, cost per billable hour and the charge rate. No I/O, no clock,
  deterministic; safe to call concurrently and to memoize by input.

KEY TYPES (config.go):
  WorkConfiguration: hours/day, days/week, weeks/year and non-working time
  CostConfiguration: on-cost rates, flat annual costs, default margin
  BillableOptions:   which non-working categories are charged to the host

DEFAULTS:
  7.6h x 5d x 52w, 20 annual leave, 10 public holidays, 10 sick days,
  5 training weeks. Super 11.5%, WC 4.7%, payroll tax 4.85%, leave loading
  17.5%, study $850, PPE $300, admin 17%, margin 15%, 5 adverse-weather days.
  Every billable option defaults to false: the host pays only for time on site.

SEE ALSO:
  - engine.go: ComputeChargeRate
  - penalty/: informational penalty estimates folded into results
*/
package costmodel

import (
	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
)

// =============================================================================
// WORK CONFIGURATION
// =============================================================================

type WorkConfiguration struct {
	HoursPerDay     decimal.Decimal
	DaysPerWeek     decimal.Decimal
	WeeksPerYear    decimal.Decimal
	AnnualLeaveDays decimal.Decimal
	PublicHolidays  decimal.Decimal
	SickLeaveDays   decimal.Decimal
	TrainingWeeks   decimal.Decimal // off-the-job training
}

func DefaultWorkConfiguration() WorkConfiguration {
	return WorkConfiguration{
		HoursPerDay:     generic.Dec(7.6),
		DaysPerWeek:     decimal.NewFromInt(5),
		WeeksPerYear:    decimal.NewFromInt(52),
		AnnualLeaveDays: decimal.NewFromInt(20),
		PublicHolidays:  decimal.NewFromInt(10),
		SickLeaveDays:   decimal.NewFromInt(10),
		TrainingWeeks:   decimal.NewFromInt(5),
	}
}

// WeeklyHours is hours/day x days/week.
func (w WorkConfiguration) WeeklyHours() decimal.Decimal {
	return w.HoursPerDay.Mul(w.DaysPerWeek)
}

// Validate enforces non-negative values and a usable working week.
func (w WorkConfiguration) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"hours_per_day", w.HoursPerDay},
		{"days_per_week", w.DaysPerWeek},
		{"weeks_per_year", w.WeeksPerYear},
		{"annual_leave_days", w.AnnualLeaveDays},
		{"public_holidays", w.PublicHolidays},
		{"sick_leave_days", w.SickLeaveDays},
		{"training_weeks", w.TrainingWeeks},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return &generic.ConfigurationError{Field: f.name, Reason: "must not be negative"}
		}
	}
	if !w.DaysPerWeek.IsPositive() {
		return &generic.ConfigurationError{Field: "days_per_week", Reason: "must be positive"}
	}
	if w.WeeksPerYear.GreaterThan(decimal.NewFromInt(53)) {
		return &generic.ConfigurationError{Field: "weeks_per_year", Reason: "exceeds a calendar year"}
	}
	return nil
}

// =============================================================================
// COST CONFIGURATION
// =============================================================================

// CostConfiguration rates are fractions: 0.115 means 11.5%.
type CostConfiguration struct {
	SuperannuationRate decimal.Decimal
	WorkersCompRate    decimal.Decimal
	PayrollTaxRate     decimal.Decimal
	LeaveLoadingRate   decimal.Decimal
	StudyCost          decimal.Decimal // flat, per year
	PPECost            decimal.Decimal // flat, per year
	AdminRate          decimal.Decimal
	DefaultMargin      decimal.Decimal
	AdverseWeatherDays decimal.Decimal
}

func DefaultCostConfiguration() CostConfiguration {
	return CostConfiguration{
		SuperannuationRate: generic.Dec(0.115),
		WorkersCompRate:    generic.Dec(0.047),
		PayrollTaxRate:     generic.Dec(0.0485),
		LeaveLoadingRate:   generic.Dec(0.175),
		StudyCost:          decimal.NewFromInt(850),
		PPECost:            decimal.NewFromInt(300),
		AdminRate:          generic.Dec(0.17),
		DefaultMargin:      generic.Dec(0.15),
		AdverseWeatherDays: decimal.NewFromInt(5),
	}
}

// Validate rejects negative values. Rates above 1 are accepted.
func (c CostConfiguration) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"superannuation_rate", c.SuperannuationRate},
		{"workers_comp_rate", c.WorkersCompRate},
		{"payroll_tax_rate", c.PayrollTaxRate},
		{"leave_loading_rate", c.LeaveLoadingRate},
		{"study_cost", c.StudyCost},
		{"ppe_cost", c.PPECost},
		{"admin_rate", c.AdminRate},
		{"default_margin", c.DefaultMargin},
		{"adverse_weather_days", c.AdverseWeatherDays},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			return &generic.ConfigurationError{Field: f.name, Reason: "must not be negative"}
		}
	}
	return nil
}

// =============================================================================
// BILLABLE OPTIONS
// =============================================================================

// BillableOptions marks which non-working categories are charged to the
// host. A category left false is removed from the billable denominator.
type BillableOptions struct {
	AnnualLeave    bool
	PublicHolidays bool
	SickLeave      bool
	Training       bool
	AdverseWeather bool
}

// DefaultBillableOptions excludes everything.
func DefaultBillableOptions() BillableOptions { return BillableOptions{} }
