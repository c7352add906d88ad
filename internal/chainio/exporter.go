package chainio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/AlexHusseini/options-alpha-toolkit/internal/analyzer"
)

// exportHeader is the results CSV layout: contract attributes first,
// then the score, then simulation aggregates when present.
var exportHeader = []string{
	"Strike", "Delta", "Gamma", "Theta", "Vega", "Bid", "Ask", "IV", "RV",
	"Metric", "Score",
	"AvgReturn", "AvgReturnPct", "WinRate", "BestCase", "PrimaryEdgeFactor",
}

// ExportReport writes one CSV row per ranked contract, in ranking order.
// Dollar figures are rounded to cents; scores keep six decimals to match
// the analyzer display convention.
func ExportReport(w io.Writer, report *analyzer.Report) error {
	if report == nil {
		return fmt.Errorf("no report to export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	// Simulation outcomes are keyed by original input index so they can
	// be joined against the ranking, which is sorted by score.
	sims := make(map[int]analyzer.SimOutcome, len(report.Simulations))
	for _, s := range report.Simulations {
		sims[s.Index] = s
	}

	for _, r := range report.Rankings {
		c := r.Contract
		row := []string{
			cents(c.Strike),
			f4(c.Delta),
			f6(c.Gamma),
			f4(c.Theta),
			f4(c.Vega),
			cents(c.Bid),
			cents(c.Ask),
			pct(c.ImpliedVol),
			pct(c.RealizedVol),
			report.Metric.String(),
			f6(r.Score),
		}

		if s, ok := sims[r.Index]; ok && s.Result != nil {
			row = append(row,
				cents(s.Result.AvgReturnDollars),
				f2(s.Result.AvgReturnPct),
				f4(s.Result.WinRate),
				cents(s.Result.BestCase),
				string(s.Result.PrimaryEdgeFactor),
			)
		} else {
			row = append(row, "", "", "", "", "")
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for strike %.2f: %w", c.Strike, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// cents renders a dollar amount rounded to cents.
func cents(v float64) string {
	return decimal.NewFromFloat(v).Round(2).StringFixed(2)
}

// pct renders a decimal volatility as a percentage with two decimals.
func pct(v float64) string {
	return decimal.NewFromFloat(v * 100).Round(2).StringFixed(2)
}

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }
func f6(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
