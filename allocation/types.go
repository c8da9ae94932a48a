/*
Package allocation implements the order availability allocation engine.

PURPOSE:
  Deterministically allocates finite, shared per-item inventory and
  production pools across competing customer order lines, in due-date
  order, producing auditable per-line coverage, shortage, and
  estimated-completion figures.

KEY CONCEPTS IN THIS FILE (types.go):
  - Stage: A position in the production pipeline holding depletable quantity
  - OrderLine: One customer order line with its outstanding quantity
  - Pool: Shared, depletable quantity of one item at one stage
  - StageDraw / AllocationResult: Per-line allocation outcome
  - Summary / RunResult: Run-wide rollup

DESIGN PRINCIPLES:
  1. Values, not shared objects: lines and results are rebuilt every run
  2. Pools are the only mutable state, exclusively owned by a single run
  3. Integer quantities for units; decimal.Decimal for dollar amounts
  4. Draw order is preserved so reports stay auditable

SEE ALSO:
  - engine.go: The allocation pass
  - normalize.go: Raw record ingestion and pool construction
  - summary.go: Run-wide aggregation
  - export.go: CSV export representation
*/
package allocation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// STAGES - Fixed allocation priority
// =============================================================================

// Stage identifies a position in the physical production pipeline.
type Stage string

const (
	StageOnHand          Stage = "on_hand"
	StagePaint           Stage = "paint"
	StageBlast           Stage = "blast"
	StageReleasedWeldFab Stage = "released_weld_fab"
)

// StagePriority is the fixed draw order: finished goods first, then stages
// in decreasing proximity to completion. Scarce near-complete inventory is
// never spent on a line that a farther stage could have covered.
var StagePriority = []Stage{StageOnHand, StagePaint, StageBlast, StageReleasedWeldFab}

// ProductionStages are the stages that carry a completion estimate.
// on_hand is already finished and needs none.
var ProductionStages = []Stage{StagePaint, StageBlast, StageReleasedWeldFab}

// Valid reports whether s is one of the four known stages.
func (s Stage) Valid() bool {
	switch s {
	case StageOnHand, StagePaint, StageBlast, StageReleasedWeldFab:
		return true
	}
	return false
}

// =============================================================================
// ORDER LINE - One line of a customer order
// =============================================================================

// OrderLine is the canonical view of one customer order line, materialized
// fresh on every allocation run. (CONum, COLine) is the unique identity.
type OrderLine struct {
	CONum           string
	COLine          int
	CustomerName    string
	Item            string
	ItemDescription string
	DueDate         *time.Time // nil sorts after all dated lines
	QtyOrdered      int
	QtyShipped      int
	QtyRemaining    int // QtyOrdered - QtyShipped, never negative
	ReleasedDate    *time.Time
	LineAmount      decimal.Decimal
	Jobs            string // free-text job references, pass-through
}

// =============================================================================
// POOLS - Shared depletable quantity, per item per stage
// =============================================================================

// PoolKey scopes a pool to one item at one stage. Pools for different items
// never share capacity.
type PoolKey struct {
	Item  string
	Stage Stage
}

// Pool is a depletable quantity. Available is mutated only by the single
// allocation run that owns the PoolSet; it never goes negative.
type Pool struct {
	Item      string
	Stage     Stage
	Initial   int
	Available int
}

// PoolSet is the caller-owned collection of pools for one run. There is no
// ambient pool registry; concurrent runs must each construct their own set.
type PoolSet map[PoolKey]*Pool

// NewPoolSet returns an empty pool set.
func NewPoolSet() PoolSet { return make(PoolSet) }

// Add seeds a pool. Adding the same item/stage twice accumulates quantity,
// so construction is independent of input record order.
func (ps PoolSet) Add(item string, stage Stage, qty int) {
	key := PoolKey{Item: item, Stage: stage}
	if p, ok := ps[key]; ok {
		p.Initial += qty
		p.Available += qty
		return
	}
	ps[key] = &Pool{Item: item, Stage: stage, Initial: qty, Available: qty}
}

// Get returns the pool for (item, stage), or nil when the item has no
// recorded quantity at that stage. A nil pool allocates nothing.
func (ps PoolSet) Get(item string, stage Stage) *Pool {
	return ps[PoolKey{Item: item, Stage: stage}]
}

// Available returns the remaining quantity for (item, stage), zero when no
// pool exists.
func (ps PoolSet) Available(item string, stage Stage) int {
	if p := ps.Get(item, stage); p != nil {
		return p.Available
	}
	return 0
}

// =============================================================================
// ALLOCATION RESULT - Output, one per order line
// =============================================================================

// StageDraw records quantity drawn from one stage's pool for a line.
// Draws are kept in the order they were made.
type StageDraw struct {
	Stage Stage `json:"stage"`
	Qty   int   `json:"qty"`
}

// AllocationResult is the auditable outcome for one order line.
type AllocationResult struct {
	Line OrderLine

	// Draws lists quantity by source stage, order-of-draw preserved.
	// Only stages that actually contributed appear.
	Draws []StageDraw

	QtyCovered      int     // sum of draws
	Shortage        int     // QtyRemaining - QtyCovered, never negative
	CoveragePercent float64 // 0 when QtyRemaining == 0, else rounded to 1 decimal
	FullyCovered    bool    // Shortage == 0

	// EstimatedCompletion is present only when a production stage contributed
	// and the line has a released date.
	EstimatedCompletion *time.Time

	// StageCompletions holds the per-stage estimate for every production
	// stage drawn from, keyed by stage. Feeds the export's per-stage
	// completion columns.
	StageCompletions map[Stage]time.Time
}

// DrawFrom returns the quantity drawn from the given stage, zero if none.
func (r *AllocationResult) DrawFrom(stage Stage) int {
	for _, d := range r.Draws {
		if d.Stage == stage {
			return d.Qty
		}
	}
	return 0
}

// =============================================================================
// SUMMARY - Run-wide rollup
// =============================================================================

// Summary aggregates all results of one run.
type Summary struct {
	TotalLines         int             `json:"total_lines"`
	TotalQtyRemaining  int             `json:"total_qty_remaining"`
	TotalQtyCovered    int             `json:"total_qty_covered"`
	TotalShortage      int             `json:"total_shortage"`
	LinesFullyCovered  int             `json:"lines_fully_covered"`
	LinesWithShortage  int             `json:"lines_with_shortage"`
	CoveragePercent    float64         `json:"coverage_percentage"`
	TotalLineAmount    decimal.Decimal `json:"total_line_amount"`
}

// RunResult is one complete allocation run: the ordered per-line results
// plus the summary. Published all-or-nothing; a cancelled run publishes
// nothing.
type RunResult struct {
	RunID       string
	GeneratedAt time.Time
	Results     []AllocationResult
	Summary     Summary
	Warnings    []string // e.g. stage feeds treated as zero availability
}
