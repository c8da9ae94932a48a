/*
memory.go - In-memory Source for tests and demos

PURPOSE:
  A Source backed by in-memory fixtures. Used by package tests and by the
  server's demo mode when no real adapter is wired. Thread-safe: the
  Fetcher reads feeds concurrently.
*/
package erp

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/forge/availability-engine/allocation"
)

// MemorySource serves fixture data. Zero value is an empty source.
type MemorySource struct {
	mu     sync.RWMutex
	orders []allocation.OrderRecord
	stages map[allocation.Stage][]allocation.ItemQuantity

	// FailStages lists stages whose feed should return an error, for
	// exercising the degrade-to-zero path.
	FailStages map[allocation.Stage]error
	// FailOrders, when set, makes the order feed fail.
	FailOrders error
}

// NewMemorySource creates a source with the given fixtures.
func NewMemorySource(orders []allocation.OrderRecord, stages map[allocation.Stage][]allocation.ItemQuantity) *MemorySource {
	return &MemorySource{orders: orders, stages: stages}
}

// SetOrders replaces the order fixtures.
func (m *MemorySource) SetOrders(orders []allocation.OrderRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
}

// SetStage replaces one stage feed.
func (m *MemorySource) SetStage(stage allocation.Stage, recs []allocation.ItemQuantity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stages == nil {
		m.stages = make(map[allocation.Stage][]allocation.ItemQuantity)
	}
	m.stages[stage] = recs
}

func (m *MemorySource) OpenOrderLines(ctx context.Context) ([]allocation.OrderRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailOrders != nil {
		return nil, m.FailOrders
	}
	out := make([]allocation.OrderRecord, len(m.orders))
	copy(out, m.orders)
	return out, nil
}

func (m *MemorySource) StageQuantities(ctx context.Context, stage allocation.Stage) ([]allocation.ItemQuantity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.FailStages[stage]; ok {
		return nil, err
	}
	recs := m.stages[stage]
	out := make([]allocation.ItemQuantity, len(recs))
	copy(out, recs)
	return out, nil
}

var _ Source = (*MemorySource)(nil)

// =============================================================================
// DEMO FIXTURES
// =============================================================================

// DemoSource returns a source with a small manufacturing catalog that
// exercises every allocation outcome: full coverage from stock, partial
// coverage across stages, pool exhaustion, and zero coverage.
func DemoSource() *MemorySource {
	due := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	orders := []allocation.OrderRecord{
		{
			CONum: "CO1001", COLine: 1, CustomerName: "Hargrove Equipment",
			Item: "FRAME-90", ItemDescription: "90in trailer frame",
			DueDate: due(2026, time.September, 8), QtyOrdered: 10, QtyShipped: 4,
			ReleasedDate: due(2026, time.August, 24),
			LineAmount:   decimal.NewFromFloat(18450.00), Jobs: "J-5521",
		},
		{
			CONum: "CO1001", COLine: 2, CustomerName: "Hargrove Equipment",
			Item: "GATE-44", ItemDescription: "44in ramp gate",
			DueDate: due(2026, time.September, 8), QtyOrdered: 10, QtyShipped: 0,
			ReleasedDate: due(2026, time.August, 26),
			LineAmount:   decimal.NewFromFloat(6200.00), Jobs: "J-5522",
		},
		{
			CONum: "CO1002", COLine: 1, CustomerName: "Bellamy Trailers",
			Item: "FRAME-90", ItemDescription: "90in trailer frame",
			DueDate: due(2026, time.September, 15), QtyOrdered: 8, QtyShipped: 0,
			ReleasedDate: due(2026, time.August, 31),
			LineAmount:   decimal.NewFromFloat(24600.00), Jobs: "J-5530",
		},
		{
			CONum: "CO1003", COLine: 1, CustomerName: "Ketterman Ag",
			Item: "AXLE-7K", ItemDescription: "7k axle assembly",
			QtyOrdered: 6, QtyShipped: 6,
			LineAmount: decimal.NewFromFloat(0), Jobs: "",
		},
		{
			CONum: "CO1004", COLine: 1, CustomerName: "Ketterman Ag",
			Item: "HITCH-25", ItemDescription: "25k gooseneck hitch",
			DueDate: due(2026, time.September, 22), QtyOrdered: 12, QtyShipped: 0,
			LineAmount: decimal.NewFromFloat(9840.00), Jobs: "J-5533",
		},
	}

	stages := map[allocation.Stage][]allocation.ItemQuantity{
		allocation.StageOnHand: {
			{Item: "FRAME-90", Qty: 8},
			{Item: "GATE-44", Qty: 2},
		},
		allocation.StagePaint: {
			{Item: "FRAME-90", Qty: 4},
			{Item: "GATE-44", Qty: 5},
		},
		allocation.StageBlast: {
			{Item: "GATE-44", Qty: 2},
		},
		allocation.StageReleasedWeldFab: {
			{Item: "FRAME-90", Qty: 6},
			{Item: "GATE-44", Qty: 4},
		},
	}

	return NewMemorySource(orders, stages)
}
