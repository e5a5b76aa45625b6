package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestEstimate_Table(t *testing.T) {
	out, err := run(t, "estimate", "--pay-rate", "25", "--format", "table", "--margin", "0.15")
	require.NoError(t, err)

	assert.Contains(t, out, "Billable annual hours")
	assert.Contains(t, out, "1444")
	assert.Contains(t, out, "70011.70")
	assert.Contains(t, out, "55.76")
}

func TestEstimate_JSON(t *testing.T) {
	out, err := run(t, "estimate", "--pay-rate", "25", "--format", "json", "--margin", "0.15")
	require.NoError(t, err)
	assert.Contains(t, out, `"TotalAnnualHours": "1976"`)
}

func TestEstimate_Errors(t *testing.T) {
	_, err := run(t, "estimate", "--pay-rate", "abc", "--format", "table")
	assert.Error(t, err)

	_, err = run(t, "estimate", "--pay-rate", "25", "--billable", "weekends")
	assert.Error(t, err)
}

func TestRate(t *testing.T) {
	out, err := run(t, "rate", "--award", "MA000025", "--year", "2025", "--level", "2")
	require.NoError(t, err)

	assert.Contains(t, out, `"rate": "19.42"`)
	assert.Contains(t, out, `"source": "financial_year_table"`)
	assert.Contains(t, out, `"financial_year": 2024`)
}

func TestRate_MalformedAward(t *testing.T) {
	_, err := run(t, "rate", "--award", "ELEC", "--year", "2025", "--level", "1")
	assert.Error(t, err)
}
