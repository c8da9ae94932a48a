/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract: the catalog
  UI consumes these shapes, not the engine's structs.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NOTE ON qty_covered_by_source:
  Serialized as an ordered array of {stage, qty} pairs rather than an
  object, so the order of draw survives JSON round-trips.

SEE ALSO:
  - handlers.go: Uses these types
  - allocation/types.go: The domain model behind them
*/
package api

import (
	"time"

	"github.com/forge/availability-engine/allocation"
	"github.com/forge/availability-engine/store/sqlite"
)

// =============================================================================
// RUN TYPES
// =============================================================================

// RunDTO is one full allocation run.
type RunDTO struct {
	RunID       string        `json:"run_id"`
	GeneratedAt string        `json:"generated_at"`
	Summary     SummaryDTO    `json:"summary"`
	Lines       []LineDTO     `json:"lines"`
	Warnings    []string      `json:"warnings"`
}

// RunRecordDTO is a stored run without per-line detail.
type RunRecordDTO struct {
	RunID       string     `json:"run_id"`
	GeneratedAt string     `json:"generated_at"`
	LineCount   int        `json:"line_count"`
	Summary     SummaryDTO `json:"summary"`
}

// StageDrawDTO is quantity drawn from one stage, in draw order.
type StageDrawDTO struct {
	Stage string `json:"stage"`
	Qty   int    `json:"qty"`
}

// LineDTO is the per-line allocation result.
type LineDTO struct {
	CONum                   string         `json:"co_num"`
	COLine                  int            `json:"co_line"`
	CustomerName            string         `json:"customer_name"`
	Item                    string         `json:"item"`
	ItemDescription         string         `json:"item_description"`
	DueDate                 *string        `json:"due_date"`
	QtyOrdered              int            `json:"qty_ordered"`
	QtyShipped              int            `json:"qty_shipped"`
	QtyRemaining            int            `json:"qty_remaining"`
	QtyCoveredBySource      []StageDrawDTO `json:"qty_covered_by_source"`
	QtyRemainingCovered     int            `json:"qty_remaining_covered"`
	Shortage                int            `json:"shortage"`
	CoveragePercentage      float64        `json:"coverage_percentage"`
	IsFullyCovered          bool           `json:"is_fully_covered"`
	ReleasedDate            *string        `json:"released_date"`
	EstimatedCompletionDate *string        `json:"estimated_completion_date"`
	WeldFabCompletionDate   *string        `json:"weld_fab_completion_date"`
	BlastCompletionDate     *string        `json:"blast_completion_date"`
	PaintCompletionDate     *string        `json:"paint_completion_date"`
	Jobs                    string         `json:"jobs"`
	LineAmount              string         `json:"line_amount"`
}

// SummaryDTO is the run-wide rollup.
type SummaryDTO struct {
	TotalLines        int     `json:"total_lines"`
	TotalQtyRemaining int     `json:"total_qty_remaining"`
	TotalQtyCovered   int     `json:"total_qty_covered"`
	TotalShortage     int     `json:"total_shortage"`
	LinesFullyCovered int     `json:"lines_fully_covered"`
	LinesWithShortage int     `json:"lines_with_shortage"`
	CoveragePercent   float64 `json:"coverage_percentage"`
	TotalLineAmount   string  `json:"total_line_amount"`
}

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// HolidayDTO is one configured non-working date.
type HolidayDTO struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// CreateHolidayRequest adds a holiday.
type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toRunDTO(run *allocation.RunResult) RunDTO {
	lines := make([]LineDTO, len(run.Results))
	for i := range run.Results {
		lines[i] = toLineDTO(&run.Results[i])
	}
	warnings := run.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return RunDTO{
		RunID:       run.RunID,
		GeneratedAt: run.GeneratedAt.UTC().Format(time.RFC3339),
		Summary:     toSummaryDTO(run.Summary),
		Lines:       lines,
		Warnings:    warnings,
	}
}

func toLineDTO(r *allocation.AllocationResult) LineDTO {
	draws := make([]StageDrawDTO, len(r.Draws))
	for i, d := range r.Draws {
		draws[i] = StageDrawDTO{Stage: string(d.Stage), Qty: d.Qty}
	}
	return LineDTO{
		CONum:                   r.Line.CONum,
		COLine:                  r.Line.COLine,
		CustomerName:            r.Line.CustomerName,
		Item:                    r.Line.Item,
		ItemDescription:         r.Line.ItemDescription,
		DueDate:                 isoDate(r.Line.DueDate),
		QtyOrdered:              r.Line.QtyOrdered,
		QtyShipped:              r.Line.QtyShipped,
		QtyRemaining:            r.Line.QtyRemaining,
		QtyCoveredBySource:      draws,
		QtyRemainingCovered:     r.QtyCovered,
		Shortage:                r.Shortage,
		CoveragePercentage:      r.CoveragePercent,
		IsFullyCovered:          r.FullyCovered,
		ReleasedDate:            isoDate(r.Line.ReleasedDate),
		EstimatedCompletionDate: isoDate(r.EstimatedCompletion),
		WeldFabCompletionDate:   stageDate(r, allocation.StageReleasedWeldFab),
		BlastCompletionDate:     stageDate(r, allocation.StageBlast),
		PaintCompletionDate:     stageDate(r, allocation.StagePaint),
		Jobs:                    r.Line.Jobs,
		LineAmount:              r.Line.LineAmount.StringFixed(2),
	}
}

func toSummaryDTO(s allocation.Summary) SummaryDTO {
	return SummaryDTO{
		TotalLines:        s.TotalLines,
		TotalQtyRemaining: s.TotalQtyRemaining,
		TotalQtyCovered:   s.TotalQtyCovered,
		TotalShortage:     s.TotalShortage,
		LinesFullyCovered: s.LinesFullyCovered,
		LinesWithShortage: s.LinesWithShortage,
		CoveragePercent:   s.CoveragePercent,
		TotalLineAmount:   s.TotalLineAmount.StringFixed(2),
	}
}

func toRunRecordDTO(rec sqlite.RunRecord) RunRecordDTO {
	return RunRecordDTO{
		RunID:       rec.ID,
		GeneratedAt: rec.GeneratedAt.UTC().Format(time.RFC3339),
		LineCount:   rec.LineCount,
		Summary:     toSummaryDTO(rec.Summary),
	}
}

func isoDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format("2006-01-02")
	return &s
}

func stageDate(r *allocation.AllocationResult, stage allocation.Stage) *string {
	if d, ok := r.StageCompletions[stage]; ok {
		s := d.Format("2006-01-02")
		return &s
	}
	return nil
}
