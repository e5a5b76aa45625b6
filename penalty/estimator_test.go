package penalty_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/penalty"
)

func rule(name string, typ generic.PenaltyType, multiplier string) generic.PenaltyRule {
	return generic.PenaltyRule{Name: name, Type: typ, Multiplier: generic.MustParseDecimal(multiplier)}
}

func TestEstimate_KnownTypes(t *testing.T) {
	// GIVEN: $25/h and one rule per known type
	// THEN: payRate x (multiplier - 1) x distribution
	rules := []generic.PenaltyRule{
		rule("Saturday", generic.PenaltyWeekend, "1.5"),
		rule("Public holiday", generic.PenaltyPublicHoliday, "2.5"),
		rule("Overtime first 2h", generic.PenaltyOvertime, "1.5"),
		rule("Evening shift", generic.PenaltyEvening, "1.15"),
		rule("Night shift", generic.PenaltyNight, "1.3"),
	}

	got, err := penalty.Estimate(decimal.NewFromInt(25), rules)
	require.NoError(t, err)

	expected := map[string]string{
		"Saturday":          "1.875", // 25 x 0.5 x 0.15
		"Public holiday":    "1.425", // 25 x 1.5 x 0.038
		"Overtime first 2h": "0.625", // 25 x 0.5 x 0.05
		"Evening shift":     "0.375", // 25 x 0.15 x 0.10
		"Night shift":       "0.375", // 25 x 0.3 x 0.05
	}
	require.Len(t, got, len(expected))
	for name, want := range expected {
		assert.True(t, got[name].Equal(generic.MustParseDecimal(want)), "%s: got %s want %s", name, got[name], want)
	}
}

func TestEstimate_UnknownTypeContributesZero(t *testing.T) {
	got, err := penalty.Estimate(decimal.NewFromInt(25), []generic.PenaltyRule{
		rule("Split shift", generic.PenaltyType("split_shift"), "1.25"),
	})
	require.NoError(t, err)

	v, ok := got["Split shift"]
	require.True(t, ok, "unknown types still appear in the map")
	assert.True(t, v.IsZero())
}

func TestEstimate_NeverNegativeForMultiplierAtLeastOne(t *testing.T) {
	for _, m := range []string{"1", "1.0001", "2", "3.5"} {
		got, err := penalty.Estimate(decimal.NewFromInt(30), []generic.PenaltyRule{
			rule("r", generic.PenaltyWeekend, m),
		})
		require.NoError(t, err)
		assert.False(t, got["r"].IsNegative(), "multiplier %s", m)
	}
}

func TestEstimate_DiscountMultiplierFlooredAtZero(t *testing.T) {
	got, err := penalty.Estimate(decimal.NewFromInt(30), []generic.PenaltyRule{
		rule("reduced", generic.PenaltyWeekend, "0.8"),
	})
	require.NoError(t, err)
	assert.True(t, got["reduced"].IsZero())
}

func TestEstimate_NegativeMultiplierIsConfigurationError(t *testing.T) {
	_, err := penalty.Estimate(decimal.NewFromInt(30), []generic.PenaltyRule{
		rule("broken", generic.PenaltyWeekend, "-1"),
	})
	assert.ErrorIs(t, err, generic.ErrConfiguration)
}

func TestEstimate_EmptyRules(t *testing.T) {
	got, err := penalty.Estimate(decimal.NewFromInt(30), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}
