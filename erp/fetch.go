/*
fetch.go - Bounded-parallel snapshot assembly

PURPOSE:
  Issues the order-line read and the four stage-quantity reads against the
  Source with bounded parallelism and merges them into one Snapshot. The
  reads are independent; only the merge needs coordination.

CONCURRENCY BOUND:
  At most MaxConcurrent reads are in flight (default 5). The bound covers
  remote-system courtesy, not correctness: any interleaving of the reads
  produces the same snapshot.

DETERMINISM:
  Per-stage quantities are summed by item and the merged records are
  sorted by item number, so snapshot content never depends on feed order
  or goroutine scheduling.
*/
package erp

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/forge/availability-engine/allocation"
)

// DefaultMaxConcurrent is the stated bound on simultaneous remote reads.
const DefaultMaxConcurrent = 5

// Fetcher assembles snapshots from a Source.
type Fetcher struct {
	Source        Source
	MaxConcurrent int // 0 means DefaultMaxConcurrent
}

// NewFetcher creates a fetcher with the default concurrency bound.
func NewFetcher(src Source) *Fetcher {
	return &Fetcher{Source: src, MaxConcurrent: DefaultMaxConcurrent}
}

// Fetch reads all feeds and merges them. A stage feed error degrades to
// zero availability with a warning; an order feed error aborts the fetch.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	limit := f.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}

	var (
		mu       sync.Mutex
		orders   []allocation.OrderRecord
		byStage  = make(map[allocation.Stage][]allocation.ItemQuantity, len(allocation.StagePriority))
		warnings []string
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	g.Go(func() error {
		recs, err := f.Source.OpenOrderLines(ctx)
		if err != nil {
			return fmt.Errorf("fetch open order lines: %w", err)
		}
		mu.Lock()
		orders = recs
		mu.Unlock()
		return nil
	})

	for _, stage := range allocation.StagePriority {
		stage := stage
		g.Go(func() error {
			recs, err := f.Source.StageQuantities(ctx, stage)
			if err != nil {
				// Degrade to zero availability rather than blocking the
				// whole report on one missing feed.
				mu.Lock()
				warnings = append(warnings, fmt.Sprintf("stage %s feed unavailable, treated as zero: %v", stage, err))
				mu.Unlock()
				return nil
			}
			mu.Lock()
			byStage[stage] = recs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(warnings)
	return &Snapshot{
		Orders:   orders,
		Items:    mergeStageFeeds(byStage),
		Warnings: warnings,
	}, nil
}

// mergeStageFeeds folds per-stage feeds into one record per item. Duplicate
// item rows within a feed are summed; items are returned sorted.
func mergeStageFeeds(byStage map[allocation.Stage][]allocation.ItemQuantity) []allocation.ItemStageRecord {
	merged := make(map[string]*allocation.ItemStageRecord)
	get := func(item string) *allocation.ItemStageRecord {
		rec, ok := merged[item]
		if !ok {
			rec = &allocation.ItemStageRecord{Item: item}
			merged[item] = rec
		}
		return rec
	}

	for stage, recs := range byStage {
		for _, r := range recs {
			rec := get(r.Item)
			switch stage {
			case allocation.StageOnHand:
				rec.OnHand += r.Qty
			case allocation.StagePaint:
				rec.Paint += r.Qty
			case allocation.StageBlast:
				rec.Blast += r.Qty
			case allocation.StageReleasedWeldFab:
				rec.ReleasedWeldFab += r.Qty
			}
		}
	}

	items := make([]string, 0, len(merged))
	for item := range merged {
		items = append(items, item)
	}
	sort.Strings(items)

	out := make([]allocation.ItemStageRecord, 0, len(items))
	for _, item := range items {
		out = append(out, *merged[item])
	}
	return out
}
