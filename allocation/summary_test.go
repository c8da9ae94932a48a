package allocation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge/availability-engine/allocation"
)

func TestSummarize_RollsUpTotals(t *testing.T) {
	engine := newEngine()
	ps := pools(map[allocation.PoolKey]int{
		{Item: "WIDGET", Stage: allocation.StageOnHand}: 5,
	})

	a := line("CO-A", 1, "WIDGET", 6, date(2025, time.January, 1))
	a.LineAmount = decimal.NewFromFloat(100.25)
	b := line("CO-B", 1, "WIDGET", 6, date(2025, time.January, 5))
	b.LineAmount = decimal.NewFromFloat(49.75)

	results, err := engine.Run([]allocation.OrderLine{a, b}, ps)
	require.NoError(t, err)

	s := allocation.Summarize(results)
	assert.Equal(t, 2, s.TotalLines)
	assert.Equal(t, 12, s.TotalQtyRemaining)
	assert.Equal(t, 5, s.TotalQtyCovered)
	assert.Equal(t, 7, s.TotalShortage)
	assert.Equal(t, 0, s.LinesFullyCovered)
	assert.Equal(t, 2, s.LinesWithShortage)
	assert.Equal(t, 41.7, s.CoveragePercent) // 5/12 rounded to one decimal
	assert.True(t, s.TotalLineAmount.Equal(decimal.NewFromFloat(150.00)),
		"line amounts pass through, they are not computed here")
}

func TestSummarize_EmptyRun_FullCoverage(t *testing.T) {
	s := allocation.Summarize(nil)
	assert.Equal(t, 0, s.TotalLines)
	assert.Equal(t, 100.0, s.CoveragePercent, "no outstanding quantity means nothing is short")
	assert.True(t, s.TotalLineAmount.IsZero())
}

func TestSummarize_ZeroRemainingLinesCountAsCovered(t *testing.T) {
	engine := newEngine()

	l := line("CO-A", 1, "WIDGET", 0, nil)
	l.QtyOrdered = 4
	l.QtyShipped = 4

	results, err := engine.Run([]allocation.OrderLine{l}, allocation.NewPoolSet())
	require.NoError(t, err)

	s := allocation.Summarize(results)
	assert.Equal(t, 1, s.LinesFullyCovered)
	assert.Equal(t, 0, s.LinesWithShortage)
	assert.Equal(t, 100.0, s.CoveragePercent)
}
