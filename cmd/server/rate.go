package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/warp/charge-rate-engine/generic"
	"github.com/warp/charge-rate-engine/ratesource"
)

var (
	rateAward  string
	rateYear   int
	rateLevel  int
	rateAdult  bool
	rateYear12 bool
	rateSector string
)

// rateCmd resolves one apprentice rate and prints where it came from
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Resolve an apprentice pay rate",
	Long: `Resolve an apprentice hourly pay rate through the fallback cascade:
remote source, cache, static tables, then the $25 default.

Years are calendar years; the matching table key is the financial year
that began in July of the previous year.`,
	RunE: runRate,
}

func init() {
	rateCmd.Flags().StringVar(&rateAward, "award", "", "award code, e.g. MA000025")
	rateCmd.Flags().IntVar(&rateYear, "year", 0, "calendar year (default: rate_source.calendar_year, then the current year)")
	rateCmd.Flags().IntVar(&rateLevel, "level", 1, "apprenticeship year level 1-4")
	rateCmd.Flags().BoolVar(&rateAdult, "adult", false, "adult apprentice")
	rateCmd.Flags().BoolVar(&rateYear12, "year12", false, "completed Year 12")
	rateCmd.Flags().StringVar(&rateSector, "sector", "", "industry sector, e.g. residential")
	_ = rateCmd.MarkFlagRequired("award")
}

func runRate(cmd *cobra.Command, args []string) error {
	clock := generic.SystemClock{}
	resolver, err := newResolver(cfg, clock, logger)
	if err != nil {
		return err
	}

	year := generic.CalendarYear(rateYear)
	if year == 0 {
		year = generic.CalendarYear(cfg.RateSource.CalendarYear)
	}
	if year == 0 {
		year = generic.CalendarYear(clock.Now().Year())
	}

	res, err := resolver.ResolveApprenticeRate(cmd.Context(), rateAward, year, ratesource.Attributes{
		YearLevel:          rateLevel,
		IsAdult:            rateAdult,
		HasCompletedYear12: rateYear12,
		Sector:             rateSector,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(map[string]any{
		"award_code":     res.AwardCode,
		"rate":           res.Rate,
		"source":         res.Source,
		"classification": res.Classification,
		"financial_year": res.FinancialYear,
		"effective_year": res.EffectiveYear,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
