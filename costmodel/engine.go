package costmodel

import (
	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/penalty"
)

// LeaveLoadingCapHours is four weeks at a nominal 38-hour week. Leave loading
// never scales past it, whatever the actual leave entitlement.
var LeaveLoadingCapHours = decimal.NewFromInt(152)

// =============================================================================
// INPUT
// =============================================================================

// Input is the full argument tuple of a calculation. Two equal Inputs always
// produce equal results.
type Input struct {
	PayRate  decimal.Decimal
	Work     WorkConfiguration
	Cost     CostConfiguration
	Billable BillableOptions
	Margin   decimal.Decimal

	// PenaltyRules, when non-nil, adds informational penalty estimates.
	PenaltyRules []generic.PenaltyRule
}

// =============================================================================
// ENGINE
// =============================================================================

// ComputeChargeRate runs the cost model for a pay rate.
func ComputeChargeRate(payRate decimal.Decimal, work WorkConfiguration, cost CostConfiguration, billable BillableOptions, margin decimal.Decimal) (generic.CalculationResult, error) {
	return Compute(Input{
		PayRate:  payRate,
		Work:     work,
		Cost:     cost,
		Billable: billable,
		Margin:   margin,
	})
}

// Compute runs the cost model.
//
// On-costs are charged against total paid hours, not billable hours: the host
// also carries the on-costs of leave and training time. The whole cost is then
// spread over billable hours only.
func Compute(in Input) (generic.CalculationResult, error) {
	if !in.PayRate.IsPositive() {
		return generic.CalculationResult{}, &generic.ValidationError{Field: "pay_rate", Reason: "must be positive"}
	}
	if err := in.Work.Validate(); err != nil {
		return generic.CalculationResult{}, err
	}
	if err := in.Cost.Validate(); err != nil {
		return generic.CalculationResult{}, err
	}
	if in.Margin.IsNegative() {
		return generic.CalculationResult{}, &generic.ConfigurationError{Field: "margin", Reason: "must not be negative"}
	}

	totalHours := AnnualHours(in.Work)
	billableHours := BillableAnnualHours(in.Work, in.Cost, in.Billable)
	if !billableHours.IsPositive() {
		return generic.CalculationResult{}, &generic.ConfigurationError{
			Field:  "billable_hours",
			Reason: "non-billable time leaves no billable hours (got " + billableHours.String() + ")",
		}
	}

	baseWage := in.PayRate.Mul(totalHours)
	onCosts := computeOnCosts(in.PayRate, totalHours, baseWage, in.Cost)
	totalCost := baseWage.Add(onCosts.Total())
	costPerHour := totalCost.Div(billableHours)
	chargeRate := costPerHour.Mul(decimal.NewFromInt(1).Add(in.Margin))

	result := generic.CalculationResult{
		PayRate:             in.PayRate,
		TotalAnnualHours:    totalHours,
		BillableAnnualHours: billableHours,
		BaseWage:            baseWage,
		OnCosts:             onCosts,
		TotalCost:           totalCost,
		CostPerHour:         costPerHour,
		ChargeRate:          chargeRate,
	}

	if in.PenaltyRules != nil {
		estimates, err := penalty.Estimate(in.PayRate, in.PenaltyRules)
		if err != nil {
			return generic.CalculationResult{}, err
		}
		result.PenaltyEstimates = estimates
	}

	return result, nil
}

// AnnualHours is hours/day x days/week x weeks/year.
func AnnualHours(w WorkConfiguration) decimal.Decimal {
	return w.HoursPerDay.Mul(w.DaysPerWeek).Mul(w.WeeksPerYear)
}

// UnbilledWeeks converts every non-billable day category into weeks and adds
// training weeks when training is not billable. Not floored.
func UnbilledWeeks(w WorkConfiguration, c CostConfiguration, b BillableOptions) decimal.Decimal {
	unbilledDays := decimal.Zero
	if !b.AnnualLeave {
		unbilledDays = unbilledDays.Add(w.AnnualLeaveDays)
	}
	if !b.PublicHolidays {
		unbilledDays = unbilledDays.Add(w.PublicHolidays)
	}
	if !b.SickLeave {
		unbilledDays = unbilledDays.Add(w.SickLeaveDays)
	}
	if !b.AdverseWeather {
		unbilledDays = unbilledDays.Add(c.AdverseWeatherDays)
	}

	weeks := decimal.Zero
	if w.DaysPerWeek.IsPositive() {
		weeks = unbilledDays.Div(w.DaysPerWeek)
	}
	if !b.Training {
		weeks = weeks.Add(w.TrainingWeeks)
	}
	return weeks
}

// BillableAnnualHours may be zero or negative; Compute rejects that.
func BillableAnnualHours(w WorkConfiguration, c CostConfiguration, b BillableOptions) decimal.Decimal {
	billableWeeks := w.WeeksPerYear.Sub(UnbilledWeeks(w, c, b))
	return w.HoursPerDay.Mul(w.DaysPerWeek).Mul(billableWeeks)
}

func computeOnCosts(payRate, totalHours, baseWage decimal.Decimal, c CostConfiguration) generic.OnCosts {
	loadedHours := decimal.Min(totalHours, LeaveLoadingCapHours)
	return generic.OnCosts{
		Superannuation: baseWage.Mul(c.SuperannuationRate),
		WorkersComp:    baseWage.Mul(c.WorkersCompRate),
		PayrollTax:     baseWage.Mul(c.PayrollTaxRate),
		LeaveLoading:   payRate.Mul(loadedHours).Mul(c.LeaveLoadingRate),
		StudyCost:      c.StudyCost,
		PPECost:        c.PPECost,
		AdminCost:      baseWage.Mul(c.AdminRate),
	}
}
