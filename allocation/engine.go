/*
engine.go - The allocation pass

PURPOSE:
  Assigns finite per-item pool quantity to competing order lines fairly
  and deterministically. Earliest-due lines get priority claim on all
  available inventory; within a stage the draw order is the fixed
  production-pipeline priority (finished goods first, then stages in
  decreasing proximity to completion).

ORDERING CONTRACT (business-critical, auditable):
  1. Lines sort by due date ascending; lines with no due date sort last.
  2. Within identical due dates, (co_num, co_line) ascending breaks ties.

SINGLE PASS, NO BACKTRACKING:
  One forward pass with monotonically depleting pools. A later line can
  never reduce an earlier line's draw. O(n log n) sort + O(n) allocation;
  allocation optimizes due-date fairness, not global throughput.

CONCURRENCY:
  A run is one atomic unit of work and executes strictly sequentially.
  The pool set is exclusively owned by the run; concurrent runs must each
  construct their own pools.

COMPLETION ESTIMATES:
  Every production stage that contributed gets an estimate from the
  line's released date plus that stage's lead time. The headline
  estimate uses the last production stage drawn in priority order;
  lead times are never combined additively.

SEE ALSO:
  - normalize.go: Validates input before it reaches the engine
  - calendar/calendar.go: Business-day completion arithmetic
  - summary.go: Rollup over the produced results
*/
package allocation

import (
	"math"
	"sort"
	"time"

	"github.com/forge/availability-engine/calendar"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine runs the allocation pass. The calendar supplies business-day
// arithmetic and the per-stage lead times.
type Engine struct {
	Calendar *calendar.Calendar

	// MaxLines caps how many sorted lines one run processes. Zero means
	// unlimited. The cap applies after sorting so truncation never
	// changes relative priority.
	MaxLines int
}

// NewEngine creates an engine bound to the given calendar.
func NewEngine(cal *calendar.Calendar) *Engine {
	return &Engine{Calendar: cal}
}

// Run allocates pools to lines and returns one result per line, in
// allocation order. Pools are depleted in place; the caller owns them and
// must not share them with another run.
//
// Run never fails on valid input: shortages and zero coverage are normal
// results. InvalidInput is returned for a broken lead-time configuration
// and InvariantViolation for contract breaches, both before any pool is
// mutated.
func (e *Engine) Run(lines []OrderLine, pools PoolSet) ([]AllocationResult, error) {
	if err := e.Calendar.LeadTimes().Validate(); err != nil {
		return nil, err
	}
	if err := checkContracts(lines, pools); err != nil {
		return nil, err
	}

	ordered := SortLines(lines)
	if e.MaxLines > 0 && len(ordered) > e.MaxLines {
		ordered = ordered[:e.MaxLines]
	}

	results := make([]AllocationResult, 0, len(ordered))
	for _, line := range ordered {
		res, err := e.allocateLine(line, pools)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// allocateLine draws from the line's item pools in fixed stage priority.
// Pool mutation is permanent for the remainder of the run.
func (e *Engine) allocateLine(line OrderLine, pools PoolSet) (AllocationResult, error) {
	res := AllocationResult{Line: line}

	if line.QtyRemaining == 0 {
		// Fully shipped already: all-zero result, no pool interaction.
		res.FullyCovered = true
		return res, nil
	}

	for _, stage := range StagePriority {
		need := line.QtyRemaining - res.QtyCovered
		if need <= 0 {
			break
		}
		pool := pools.Get(line.Item, stage)
		if pool == nil {
			continue
		}
		draw := min(need, pool.Available)
		if draw <= 0 {
			continue
		}
		pool.Available -= draw
		res.Draws = append(res.Draws, StageDraw{Stage: stage, Qty: draw})
		res.QtyCovered += draw
	}

	res.Shortage = line.QtyRemaining - res.QtyCovered
	res.FullyCovered = res.Shortage == 0
	res.CoveragePercent = coveragePercent(res.QtyCovered, line.QtyRemaining)

	if err := e.estimateCompletion(&res); err != nil {
		return AllocationResult{}, err
	}
	return res, nil
}

// estimateCompletion computes per-stage completion estimates for every
// production stage drawn from. A line with no released date simply gets no
// estimate; that is not an error.
func (e *Engine) estimateCompletion(res *AllocationResult) error {
	if res.Line.ReleasedDate == nil {
		return nil
	}

	var last *StageDraw
	for i := range res.Draws {
		d := &res.Draws[i]
		if d.Stage == StageOnHand {
			continue
		}
		est, err := e.Calendar.CompletionDate(*res.Line.ReleasedDate, e.leadTimeFor(d.Stage))
		if err != nil {
			return err
		}
		if res.StageCompletions == nil {
			res.StageCompletions = make(map[Stage]time.Time, 3)
		}
		res.StageCompletions[d.Stage] = est
		last = d
	}
	if last != nil {
		est := res.StageCompletions[last.Stage]
		res.EstimatedCompletion = &est
	}
	return nil
}

func (e *Engine) leadTimeFor(stage Stage) int {
	lt := e.Calendar.LeadTimes()
	switch stage {
	case StagePaint:
		return lt.PaintAssemblyDays
	case StageBlast:
		return lt.BlastDays
	case StageReleasedWeldFab:
		return lt.WeldFabDays
	default:
		return 0
	}
}

// =============================================================================
// ORDERING
// =============================================================================

// SortLines returns a copy of lines in allocation order: due date ascending
// with nil dates last, then (co_num, co_line) ascending. The order is a pure
// function of those three fields, so permuting the input never changes it.
func SortLines(lines []OrderLine) []OrderLine {
	ordered := make([]OrderLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return lineBefore(ordered[i], ordered[j])
	})
	return ordered
}

func lineBefore(a, b OrderLine) bool {
	switch {
	case a.DueDate == nil && b.DueDate != nil:
		return false
	case a.DueDate != nil && b.DueDate == nil:
		return true
	case a.DueDate != nil && b.DueDate != nil:
		if !a.DueDate.Equal(*b.DueDate) {
			return a.DueDate.Before(*b.DueDate)
		}
	}
	if a.CONum != b.CONum {
		return a.CONum < b.CONum
	}
	return a.COLine < b.COLine
}

// =============================================================================
// CONTRACT CHECKS
// =============================================================================

// checkContracts rejects state that the normalizer is required to have
// filtered out. Hitting one of these is a programmer error.
func checkContracts(lines []OrderLine, pools PoolSet) error {
	for _, line := range lines {
		if line.QtyRemaining < 0 {
			return &InvariantViolationError{
				Invariant: "qty_remaining >= 0",
				Item:      line.Item,
				CONum:     line.CONum,
				COLine:    line.COLine,
				Value:     line.QtyRemaining,
			}
		}
	}
	for key, pool := range pools {
		if pool.Available < 0 {
			return &InvariantViolationError{
				Invariant: "pool available >= 0",
				Item:      key.Item,
				Stage:     key.Stage,
				Value:     pool.Available,
			}
		}
	}
	return nil
}

func coveragePercent(covered, remaining int) float64 {
	if remaining == 0 {
		return 0
	}
	return round1(100 * float64(covered) / float64(remaining))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
