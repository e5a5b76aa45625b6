package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/charge-rate-engine/costmodel"
	"github.com/warp/charge-rate-engine/generic"
)

var (
	estimatePayRate  string
	estimateMargin   string
	estimateFormat   string
	estimateBillable []string
)

// estimateCmd runs the cost model without touching a store
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Run the cost model for a pay rate",
	Long: `Run the cost model for an hourly pay rate using the configured work
pattern and on-costs.

--billable charges non-working time to the host; accepted values are
annual_leave, public_holidays, sick_leave, training and adverse_weather.`,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVar(&estimatePayRate, "pay-rate", "", "hourly pay rate, e.g. 25.00")
	estimateCmd.Flags().StringVar(&estimateMargin, "margin", "", "profit margin fraction (default: defaults.cost.default_margin)")
	estimateCmd.Flags().StringVarP(&estimateFormat, "format", "f", "table", "output format (table, json)")
	estimateCmd.Flags().StringSliceVar(&estimateBillable, "billable", nil, "non-working categories charged to the host")
	_ = estimateCmd.MarkFlagRequired("pay-rate")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	payRate, err := decimal.NewFromString(estimatePayRate)
	if err != nil {
		return &generic.ValidationError{Field: "pay-rate", Reason: err.Error()}
	}

	cost := cfg.Cost()
	margin := cost.DefaultMargin
	if estimateMargin != "" {
		if margin, err = decimal.NewFromString(estimateMargin); err != nil {
			return &generic.ValidationError{Field: "margin", Reason: err.Error()}
		}
	}

	billable := cfg.Billable()
	for _, name := range estimateBillable {
		if err := setBillable(&billable, name); err != nil {
			return err
		}
	}

	result, err := costmodel.ComputeChargeRate(payRate, cfg.Work(), cost, billable, margin)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch estimateFormat {
	case "json":
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	case "table":
		round := generic.RoundCurrency
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "Pay rate\t%s\n", result.PayRate)
		fmt.Fprintf(tw, "Total annual hours\t%s\n", result.TotalAnnualHours)
		fmt.Fprintf(tw, "Billable annual hours\t%s\n", result.BillableAnnualHours)
		fmt.Fprintf(tw, "Base wage\t%s\n", round(result.BaseWage).StringFixed(2))
		fmt.Fprintf(tw, "  Superannuation\t%s\n", round(result.OnCosts.Superannuation).StringFixed(2))
		fmt.Fprintf(tw, "  Workers comp\t%s\n", round(result.OnCosts.WorkersComp).StringFixed(2))
		fmt.Fprintf(tw, "  Payroll tax\t%s\n", round(result.OnCosts.PayrollTax).StringFixed(2))
		fmt.Fprintf(tw, "  Leave loading\t%s\n", round(result.OnCosts.LeaveLoading).StringFixed(2))
		fmt.Fprintf(tw, "  Study\t%s\n", round(result.OnCosts.StudyCost).StringFixed(2))
		fmt.Fprintf(tw, "  PPE\t%s\n", round(result.OnCosts.PPECost).StringFixed(2))
		fmt.Fprintf(tw, "  Admin\t%s\n", round(result.OnCosts.AdminCost).StringFixed(2))
		fmt.Fprintf(tw, "Total cost\t%s\n", round(result.TotalCost).StringFixed(2))
		fmt.Fprintf(tw, "Cost per hour\t%s\n", round(result.CostPerHour).StringFixed(2))
		fmt.Fprintf(tw, "Margin\t%s\n", margin)
		fmt.Fprintf(tw, "Charge rate\t%s\n", round(result.ChargeRate).StringFixed(2))
		return tw.Flush()
	default:
		return &generic.ValidationError{Field: "format", Reason: fmt.Sprintf("unknown format %q", estimateFormat)}
	}
	return nil
}

func setBillable(b *costmodel.BillableOptions, name string) error {
	switch name {
	case "annual_leave":
		b.AnnualLeave = true
	case "public_holidays":
		b.PublicHolidays = true
	case "sick_leave":
		b.SickLeave = true
	case "training":
		b.Training = true
	case "adverse_weather":
		b.AdverseWeather = true
	default:
		return &generic.ValidationError{Field: "billable", Reason: fmt.Sprintf("unknown category %q", name)}
	}
	return nil
}
