package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Alias1177/matchminer/internal/analysis/describe"
	"github.com/Alias1177/matchminer/internal/analysis/threshold"
	"github.com/Alias1177/matchminer/internal/model"
)

// FormatResults creates a human-readable summary of a discovery report
func FormatResults(report *model.Report) string {
	if report == nil {
		return "No discovery results available"
	}

	var b strings.Builder
	b.WriteString("\n===== DISCOVERY RESULTS =====\n")
	fmt.Fprintf(&b, "Run: %s\n", report.RunID)
	fmt.Fprintf(&b, "Records analyzed: %d\n", report.TotalRecords)
	fmt.Fprintf(&b, "Findings: %d (excellent %d, good %d, acceptable %d)\n",
		report.Summary.Total, report.Summary.Excellent, report.Summary.Good, report.Summary.Acceptable)

	for _, a := range report.Analyses {
		fmt.Fprintf(&b, "\n--- %s (min %d matches, %.0f%%) ---\n", a.Name, a.MinSample, a.MinPrecision)
		fmt.Fprintf(&b, "Segments evaluated: %d, findings: %d\n", a.Evaluated, len(a.Findings))
		for i, f := range a.Findings {
			if i == 10 {
				fmt.Fprintf(&b, "... %d more\n", len(a.Findings)-i)
				break
			}
			b.WriteString(formatFinding(f))
		}
	}

	if len(report.Top) > 0 {
		fmt.Fprintf(&b, "\nTop %d findings:\n", len(report.Top))
		for i, f := range report.Top {
			fmt.Fprintf(&b, "%2d. ", i+1)
			b.WriteString(formatFinding(f))
		}
	}

	if len(report.Thresholds) > 0 {
		b.WriteString("\nBest thresholds:\n")
		b.WriteString(FormatThresholds(report.Thresholds))
	}
	if len(report.Fields) > 0 {
		b.WriteString("\nField statistics:\n")
		b.WriteString(FormatFields(report.Fields))
	}
	if len(report.Sides) > 0 {
		b.WriteString("\nHome vs away:\n")
		b.WriteString(FormatSides(report.Sides))
	}
	return b.String()
}

func formatFinding(f model.Finding) string {
	line := fmt.Sprintf("[%s] %s | %s -> %s: %.2f%% (%d/%d)",
		f.Tier, f.Segment, f.Outcome, f.Label, f.Precision, f.Count, f.SampleSize)
	if f.Mean != nil {
		line += fmt.Sprintf(", mean %.2f", *f.Mean)
	}
	return line + "\n"
}

// FormatThresholds lists the picked cut points of each scanned field.
func FormatThresholds(results []threshold.Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (%d matches): ", r.Field, r.Samples)
		if r.FoundOver() {
			fmt.Fprintf(&b, "OVER %g %.2f%%", r.BestOver.Threshold, r.BestOver.Rate)
		} else {
			b.WriteString("no reliable OVER threshold")
		}
		b.WriteString(", ")
		if r.FoundUnder() {
			fmt.Fprintf(&b, "UNDER %g %.2f%%", r.BestUnder.Threshold, r.BestUnder.Rate)
		} else {
			b.WriteString("no reliable UNDER threshold")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatFields lists descriptive statistics per field.
func FormatFields(fields []describe.FieldSummary) string {
	var b strings.Builder
	for _, s := range fields {
		fmt.Fprintf(&b, "- %s: mean %.2f, median %.2f, std %.2f, range [%g, %g], CV %.1f%% %s\n",
			s.Field, s.Mean, s.Median, s.Std, s.Min, s.Max, s.CV, s.Stability)
	}
	return b.String()
}

// FormatSides lists home/away comparisons.
func FormatSides(sides []describe.SideComparison) string {
	var b strings.Builder
	for _, s := range sides {
		mark := ""
		if s.Significant {
			mark = " *"
		}
		fmt.Fprintf(&b, "- %s: home %.2f, away %.2f (%+.1f%%), p=%.4f%s\n",
			s.Market, s.HomeMean, s.AwayMean, s.DiffPct, s.PValue, mark)
	}
	return b.String()
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
