/*
export.go - CSV export of an allocation run

PURPOSE:
  Writes the per-line allocation detail in the report's contractual
  column order. Consumers import this file into spreadsheets and
  downstream BI tooling, so the header row is part of the API: never
  reorder or rename columns without versioning the export.

FORMATTING:
  Dates:      YYYY-MM-DD, empty when absent
  Percent:    one decimal place
  LineAmount: two decimal places
*/
package allocation

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ExportColumns is the contractual column order of the CSV export.
var ExportColumns = []string{
	"CO_Num", "CO_Line", "CustomerName", "DueDate", "Item", "ItemDescription",
	"QtyOrdered", "QtyShipped", "QtyRemaining", "QtyCovered", "Shortage",
	"CoveragePercent", "QtyOnHand", "AllocFromPaint", "AllocFromBlast",
	"AllocFromWeldFab", "Jobs", "ReleasedDate", "WeldFabCompletionDate",
	"BlastCompletionDate", "PaintCompletionDate", "LineAmount",
}

// WriteCSV writes the run's per-line results to w, header first, one row
// per line in allocation order.
func WriteCSV(w io.Writer, run *RunResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns); err != nil {
		return err
	}
	for i := range run.Results {
		if err := cw.Write(exportRow(&run.Results[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(r *AllocationResult) []string {
	return []string{
		r.Line.CONum,
		strconv.Itoa(r.Line.COLine),
		r.Line.CustomerName,
		formatDate(r.Line.DueDate),
		r.Line.Item,
		r.Line.ItemDescription,
		strconv.Itoa(r.Line.QtyOrdered),
		strconv.Itoa(r.Line.QtyShipped),
		strconv.Itoa(r.Line.QtyRemaining),
		strconv.Itoa(r.QtyCovered),
		strconv.Itoa(r.Shortage),
		strconv.FormatFloat(r.CoveragePercent, 'f', 1, 64),
		strconv.Itoa(r.DrawFrom(StageOnHand)),
		strconv.Itoa(r.DrawFrom(StagePaint)),
		strconv.Itoa(r.DrawFrom(StageBlast)),
		strconv.Itoa(r.DrawFrom(StageReleasedWeldFab)),
		r.Line.Jobs,
		formatDate(r.Line.ReleasedDate),
		formatStageDate(r, StageReleasedWeldFab),
		formatStageDate(r, StageBlast),
		formatStageDate(r, StagePaint),
		r.Line.LineAmount.StringFixed(2),
	}
}

func formatDate(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format("2006-01-02")
}

func formatStageDate(r *AllocationResult, stage Stage) string {
	if d, ok := r.StageCompletions[stage]; ok {
		return d.Format("2006-01-02")
	}
	return ""
}
