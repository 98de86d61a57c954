package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/matchminer/internal/analysis/threshold"
	"github.com/Alias1177/matchminer/internal/backtest"
	"github.com/Alias1177/matchminer/internal/catalog"
)

var (
	flagField string
	flagStart float64
	flagStop  float64
	flagStep  float64
	flagRates bool
)

var thresholdsCmd = &cobra.Command{
	Use:   "thresholds",
	Short: "Find the most skewed over/under threshold of market totals",
	Example: `  analyzer thresholds
  analyzer thresholds --field TotalShots --start 15.5 --stop 30.5 --step 1 --rates`,
	RunE: runThresholds,
}

func init() {
	f := thresholdsCmd.Flags()
	f.StringVar(&flagField, "field", "", "scan a single field instead of the default market totals")
	f.Float64Var(&flagStart, "start", 0, "first candidate threshold (with --field)")
	f.Float64Var(&flagStop, "stop", 0, "last candidate threshold, inclusive (with --field)")
	f.Float64Var(&flagStep, "step", 1, "spacing between candidates (with --field)")
	f.BoolVar(&flagRates, "rates", false, "print the rates of every candidate")
}

func runThresholds(cmd *cobra.Command, args []string) error {
	fields := catalog.ScanFields()
	if flagField != "" {
		field, err := catalog.Field(flagField)
		if err != nil {
			return err
		}
		fields = []catalog.ScanField{{Field: field, Range: threshold.Range{Start: flagStart, Stop: flagStop, Step: flagStep}}}
	}

	store, err := loadStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	results, err := backtest.ScanAll(store, fields)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, backtest.FormatThresholds(results))
	if flagRates {
		for _, r := range results {
			fmt.Fprintf(out, "\n%s:\n", r.Field)
			for _, c := range r.Candidates {
				fmt.Fprintf(out, "  %6g  over %6.2f%%  under %6.2f%%  equal %6.2f%%\n",
					c.Threshold, c.OverRate, c.UnderRate, c.EqualRate)
			}
		}
	}
	return nil
}
