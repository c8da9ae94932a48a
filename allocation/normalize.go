/*
normalize.go - Raw ERP records to canonical order lines and pools

PURPOSE:
  Converts the heterogeneous raw records supplied by the data-source
  adapter layer into the canonical OrderLine view and seeds the per-item
  per-stage pools for one run.

VALIDATION CONTRACT:
  Everything the engine treats as an invariant is checked here first.
  Negative quantities, shipped exceeding ordered, or an unknown stage
  abort the run with InvalidInput before any pool exists to mutate.

DETERMINISM:
  Pool construction accumulates numeric sums keyed by item and stage, so
  the result is independent of raw record order. Lines keep their
  identity and are ordered later by the engine's sort contract.

EDGE CASES:
  - An order line whose item has no stage-quantity record gets zero pools.
    Not an error; the line is simply unallocatable beyond zero coverage.
  - A missing stage feed is zero availability for that stage (the report
    is never blocked on one missing data feed).

SEE ALSO:
  - engine.go: Consumes the normalized lines and pools
  - erp/fetch.go: Assembles the raw snapshot these records come from
*/
package allocation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW RECORDS - The consumed shape of the data-source boundary
// =============================================================================

// OrderRecord is one open order line as returned by the adapter's bulk read.
type OrderRecord struct {
	CONum           string
	COLine          int
	CustomerName    string
	Item            string
	ItemDescription string
	DueDate         *time.Time
	QtyOrdered      int
	QtyShipped      int
	ReleasedDate    *time.Time
	LineAmount      decimal.Decimal
	Jobs            string
}

// ItemStageRecord carries one item's current quantity at each stage.
type ItemStageRecord struct {
	Item            string
	OnHand          int
	Paint           int
	Blast           int
	ReleasedWeldFab int
}

// ItemQuantity is one item's quantity in a single stage feed.
type ItemQuantity struct {
	Item string
	Qty  int
}

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalize validates raw records and produces the canonical lines plus a
// freshly seeded pool set. On any InvalidInput the returned pool set is nil
// and nothing has been allocated.
func Normalize(orders []OrderRecord, items []ItemStageRecord) ([]OrderLine, PoolSet, error) {
	pools := NewPoolSet()
	for _, rec := range items {
		if err := validateStageRecord(rec); err != nil {
			return nil, nil, err
		}
		pools.Add(rec.Item, StageOnHand, rec.OnHand)
		pools.Add(rec.Item, StagePaint, rec.Paint)
		pools.Add(rec.Item, StageBlast, rec.Blast)
		pools.Add(rec.Item, StageReleasedWeldFab, rec.ReleasedWeldFab)
	}

	lines := make([]OrderLine, 0, len(orders))
	for _, rec := range orders {
		line, err := normalizeOrder(rec)
		if err != nil {
			return nil, nil, err
		}
		lines = append(lines, line)
	}
	return lines, pools, nil
}

func normalizeOrder(rec OrderRecord) (OrderLine, error) {
	ref := orderRef(rec)
	if rec.CONum == "" {
		return OrderLine{}, &InvalidInputError{Record: ref, Field: "co_num", Reason: "is required"}
	}
	if rec.QtyOrdered < 0 {
		return OrderLine{}, &InvalidInputError{Record: ref, Field: "qty_ordered", Reason: "is negative"}
	}
	if rec.QtyShipped < 0 {
		return OrderLine{}, &InvalidInputError{Record: ref, Field: "qty_shipped", Reason: "is negative"}
	}
	if rec.QtyShipped > rec.QtyOrdered {
		return OrderLine{}, &InvalidInputError{Record: ref, Field: "qty_shipped", Reason: "exceeds qty_ordered"}
	}

	return OrderLine{
		CONum:           rec.CONum,
		COLine:          rec.COLine,
		CustomerName:    rec.CustomerName,
		Item:            rec.Item,
		ItemDescription: rec.ItemDescription,
		DueDate:         rec.DueDate,
		QtyOrdered:      rec.QtyOrdered,
		QtyShipped:      rec.QtyShipped,
		QtyRemaining:    rec.QtyOrdered - rec.QtyShipped,
		ReleasedDate:    rec.ReleasedDate,
		LineAmount:      rec.LineAmount,
		Jobs:            rec.Jobs,
	}, nil
}

func validateStageRecord(rec ItemStageRecord) error {
	ref := "item quantities for " + rec.Item
	if rec.Item == "" {
		return &InvalidInputError{Record: ref, Field: "item", Reason: "is required"}
	}
	for _, q := range []struct {
		field string
		qty   int
	}{
		{"on_hand", rec.OnHand},
		{"paint", rec.Paint},
		{"blast", rec.Blast},
		{"released_weld_fab", rec.ReleasedWeldFab},
	} {
		if q.qty < 0 {
			return &InvalidInputError{Record: ref, Field: q.field, Reason: "is negative"}
		}
	}
	return nil
}

func orderRef(rec OrderRecord) string {
	return fmt.Sprintf("order %s line %d", rec.CONum, rec.COLine)
}
