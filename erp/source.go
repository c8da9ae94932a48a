/*
Package erp defines the boundary to the remote ERP data-source adapters.

PURPOSE:
  The allocation engine consumes two logical bulk reads: open order lines
  and per-item stage quantities. The remote system exposes stage
  quantities as separate queryable data objects (one per pipeline stage),
  so a Source answers per-stage queries and the Fetcher assembles a
  consistent snapshot from them.

IMPLEMENTATIONS:
  - erp.MemorySource: in-memory fixture source for tests and demos
  - real adapters (out of scope here) wrap the remote system's API

FAILURE SEMANTICS:
  A failed stage feed is NOT fatal: missing stage data becomes zero
  availability for that stage and the run proceeds with a recorded
  warning. A failed order feed is fatal; there is nothing to allocate.
  Retries belong to the adapter layer, never to this package.

SEE ALSO:
  - fetch.go: Bounded-parallel snapshot assembly
  - allocation/normalize.go: Validates and canonicalizes the snapshot
*/
package erp

import (
	"context"

	"github.com/forge/availability-engine/allocation"
)

// Source is the consumed interface of the data-source adapter layer.
// Implementations perform the remote reads; they must be safe for
// concurrent calls since the Fetcher issues them in parallel.
type Source interface {
	// OpenOrderLines returns all open customer order lines.
	OpenOrderLines(ctx context.Context) ([]allocation.OrderRecord, error)

	// StageQuantities returns each item's current quantity at one stage.
	StageQuantities(ctx context.Context, stage allocation.Stage) ([]allocation.ItemQuantity, error)
}

// Snapshot is one consistent view of the remote system: the raw inputs of
// a single allocation run.
type Snapshot struct {
	Orders []allocation.OrderRecord
	Items  []allocation.ItemStageRecord

	// Warnings records stage feeds that were treated as zero availability.
	Warnings []string
}
