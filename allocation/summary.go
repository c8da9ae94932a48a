/*
summary.go - Run-wide coverage rollup

PURPOSE:
  Aggregates per-line allocation results into one catalog-wide summary:
  totals, shortage counts, coverage percentage, and dollar exposure.
  Pure aggregation; the only guard is division by zero on an empty run.

SEE ALSO:
  - engine.go: Produces the results being rolled up
  - export.go: Exports the per-line detail behind these figures
*/
package allocation

import "github.com/shopspring/decimal"

// Summarize rolls all results of one run into a single summary record.
// The line amount is a pass-through of the per-line dollar value supplied
// upstream, not computed here.
func Summarize(results []AllocationResult) Summary {
	s := Summary{
		TotalLines:      len(results),
		TotalLineAmount: decimal.Zero,
	}
	for _, r := range results {
		s.TotalQtyRemaining += r.Line.QtyRemaining
		s.TotalQtyCovered += r.QtyCovered
		s.TotalShortage += r.Shortage
		if r.FullyCovered {
			s.LinesFullyCovered++
		} else {
			s.LinesWithShortage++
		}
		s.TotalLineAmount = s.TotalLineAmount.Add(r.Line.LineAmount)
	}

	if s.TotalQtyRemaining > 0 {
		s.CoveragePercent = round1(100 * float64(s.TotalQtyCovered) / float64(s.TotalQtyRemaining))
	} else {
		s.CoveragePercent = 100.0
	}
	return s
}
