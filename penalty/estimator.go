/*
Package penalty estimates the annual cost impact of an award's penalty rates.

INFORMATIONAL ONLY:
  Estimates come from fixed "typical distribution" fractions of worked time
  per penalty type, not from timesheets. They are for display next to a
  charge rate and never feed into the charge rate itself.

DISTRIBUTION:
  weekend 0.15, public holiday 0.038, overtime 0.05, evening 0.10, night 0.05.
  Unknown types contribute zero.

FORMULA:
  estimate = payRate x (multiplier - 1) x distribution, floored at zero.
*/
package penalty

import (
	"github.com/shopspring/decimal"

	"github.com/warp/charge-rate-engine/generic"
)

// TypicalDistribution is the assumed share of worked time per penalty type.
var TypicalDistribution = map[generic.PenaltyType]decimal.Decimal{
	generic.PenaltyWeekend:       generic.Dec(0.15),
	generic.PenaltyPublicHoliday: generic.Dec(0.038),
	generic.PenaltyOvertime:      generic.Dec(0.05),
	generic.PenaltyEvening:       generic.Dec(0.10),
	generic.PenaltyNight:         generic.Dec(0.05),
}

// Estimate returns rule name -> estimated cost for every rule.
// Rules sharing a name are summed.
func Estimate(payRate decimal.Decimal, rules []generic.PenaltyRule) (map[string]decimal.Decimal, error) {
	if payRate.IsNegative() {
		return nil, &generic.ValidationError{Field: "pay_rate", Reason: "must not be negative"}
	}

	out := make(map[string]decimal.Decimal, len(rules))
	one := decimal.NewFromInt(1)
	for _, rule := range rules {
		if rule.Multiplier.IsNegative() {
			return nil, &generic.ConfigurationError{Field: "penalty_rules." + rule.Name, Reason: "negative multiplier"}
		}

		fraction, ok := TypicalDistribution[rule.Type]
		if !ok {
			fraction = decimal.Zero
		}

		loading := rule.Multiplier.Sub(one)
		if loading.IsNegative() {
			loading = decimal.Zero
		}

		cost := payRate.Mul(loading).Mul(fraction)
		if prev, ok := out[rule.Name]; ok {
			cost = prev.Add(cost)
		}
		out[rule.Name] = cost
	}
	return out, nil
}
