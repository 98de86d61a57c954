package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Alias1177/matchminer/internal/analysis/describe"
	"github.com/Alias1177/matchminer/internal/backtest"
	"github.com/Alias1177/matchminer/internal/catalog"
)

var flagBreakdown []string

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print descriptive statistics and home/away comparisons",
	RunE:  runDescribe,
}

func init() {
	describeCmd.Flags().StringSliceVar(&flagBreakdown, "by", []string{"Division", "FTResult"}, "categorical columns to count")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	store, err := loadStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Matches: %d\n\nField statistics:\n", store.Len())
	fmt.Fprint(out, backtest.FormatFields(describe.SummarizeAll(store, catalog.SummaryFields())))
	fmt.Fprint(out, "\nHome vs away:\n")
	fmt.Fprint(out, backtest.FormatSides(describe.CompareSides(store, catalog.SidePairs())))

	for _, column := range flagBreakdown {
		counts := describe.Breakdown(store, column)
		if len(counts) == 0 {
			continue
		}
		fmt.Fprintf(out, "\nBy %s:\n", column)
		for i, c := range counts {
			if i == 20 {
				fmt.Fprintf(out, "  ... %d more\n", len(counts)-i)
				break
			}
			fmt.Fprintf(out, "  %-12s %8d  %5.1f%%\n", c.Value, c.Count, c.Share)
		}
	}
	return nil
}
