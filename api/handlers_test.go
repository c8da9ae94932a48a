package api_test

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forge/availability-engine/allocation"
	"github.com/forge/availability-engine/api"
	"github.com/forge/availability-engine/config"
	"github.com/forge/availability-engine/erp"
	"github.com/forge/availability-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestServer(t *testing.T, source erp.Source) *httptest.Server {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	handler := api.NewHandler(store, source, config.Default())
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func smallCatalog() *erp.MemorySource {
	due := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)
	released := time.Date(2025, time.January, 6, 0, 0, 0, 0, time.UTC)
	return erp.NewMemorySource(
		[]allocation.OrderRecord{
			{
				CONum: "CO100", COLine: 1, CustomerName: "Hargrove Equipment",
				Item: "WIDGET", DueDate: &due,
				QtyOrdered: 10, QtyShipped: 4, ReleasedDate: &released,
				LineAmount: decimal.NewFromFloat(1250.50), Jobs: "J-1",
			},
		},
		map[allocation.Stage][]allocation.ItemQuantity{
			allocation.StageOnHand: {{Item: "WIDGET", Qty: 2}},
			allocation.StagePaint:  {{Item: "WIDGET", Qty: 9}},
		},
	)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// =============================================================================
// RUN ENDPOINTS
// =============================================================================

func TestExecuteRun_ReturnsAndPersistsResult(t *testing.T) {
	server := newTestServer(t, smallCatalog())

	resp, err := http.Post(server.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run struct {
		RunID   string `json:"run_id"`
		Summary struct {
			TotalLines      int     `json:"total_lines"`
			TotalQtyCovered int     `json:"total_qty_covered"`
			CoveragePercent float64 `json:"coverage_percentage"`
		} `json:"summary"`
		Lines []struct {
			CONum              string `json:"co_num"`
			QtyRemaining       int    `json:"qty_remaining"`
			Shortage           int    `json:"shortage"`
			QtyCoveredBySource []struct {
				Stage string `json:"stage"`
				Qty   int    `json:"qty"`
			} `json:"qty_covered_by_source"`
			EstimatedCompletionDate *string `json:"estimated_completion_date"`
		} `json:"lines"`
	}
	decodeJSON(t, resp, &run)

	require.NotEmpty(t, run.RunID)
	assert.Equal(t, 1, run.Summary.TotalLines)
	assert.Equal(t, 6, run.Summary.TotalQtyCovered)
	assert.Equal(t, 100.0, run.Summary.CoveragePercent)

	require.Len(t, run.Lines, 1)
	l := run.Lines[0]
	assert.Equal(t, "CO100", l.CONum)
	assert.Equal(t, 6, l.QtyRemaining)
	assert.Equal(t, 0, l.Shortage)
	require.Len(t, l.QtyCoveredBySource, 2)
	assert.Equal(t, "on_hand", l.QtyCoveredBySource[0].Stage)
	assert.Equal(t, 2, l.QtyCoveredBySource[0].Qty)
	assert.Equal(t, "paint", l.QtyCoveredBySource[1].Stage)
	assert.Equal(t, 4, l.QtyCoveredBySource[1].Qty)
	// Paint lead time is 10 business days from the Jan 6 release.
	require.NotNil(t, l.EstimatedCompletionDate)
	assert.Equal(t, "2025-01-20", *l.EstimatedCompletionDate)

	// The run is now retrievable as the latest.
	resp, err = http.Get(server.URL + "/api/runs/latest")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var latest struct {
		RunID string `json:"run_id"`
	}
	decodeJSON(t, resp, &latest)
	assert.Equal(t, run.RunID, latest.RunID)
}

func TestGetLatestRun_EmptyStore(t *testing.T) {
	server := newTestServer(t, smallCatalog())

	resp, err := http.Get(server.URL + "/api/runs/latest")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecuteRun_OrderFeedDown(t *testing.T) {
	source := smallCatalog()
	source.FailOrders = errors.New("connection refused")
	server := newTestServer(t, source)

	resp, err := http.Post(server.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestExecuteRun_StageFeedDown_SucceedsWithWarning(t *testing.T) {
	source := smallCatalog()
	source.FailStages = map[allocation.Stage]error{
		allocation.StagePaint: errors.New("IDO timeout"),
	}
	server := newTestServer(t, source)

	resp, err := http.Post(server.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run struct {
		Warnings []string `json:"warnings"`
		Summary  struct {
			TotalShortage int `json:"total_shortage"`
		} `json:"summary"`
	}
	decodeJSON(t, resp, &run)

	require.Len(t, run.Warnings, 1)
	assert.Contains(t, run.Warnings[0], "paint")
	assert.Equal(t, 4, run.Summary.TotalShortage, "missing paint feed shows up as shortage, not as an error")
}

func TestExportRun_CSV(t *testing.T) {
	server := newTestServer(t, smallCatalog())

	resp, err := http.Post(server.URL+"/api/runs", "application/json", nil)
	require.NoError(t, err)
	var run struct {
		RunID string `json:"run_id"`
	}
	decodeJSON(t, resp, &run)

	resp, err = http.Get(server.URL + "/api/runs/" + run.RunID + "/export")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	records, err := csv.NewReader(resp.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, allocation.ExportColumns, records[0])
	assert.Equal(t, "CO100", records[1][0])
}

// =============================================================================
// CONFIGURATION ENDPOINTS
// =============================================================================

func TestHolidayEndpoints(t *testing.T) {
	server := newTestServer(t, smallCatalog())

	body := bytes.NewBufferString(`{"date": "2025-12-25", "name": "Christmas Day"}`)
	resp, err := http.Post(server.URL+"/api/holidays", "application/json", body)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/holidays")
	require.NoError(t, err)
	var holidays []struct {
		Date string `json:"date"`
		Name string `json:"name"`
	}
	decodeJSON(t, resp, &holidays)
	require.Len(t, holidays, 1)
	assert.Equal(t, "2025-12-25", holidays[0].Date)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/api/holidays/2025-12-25", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestLeadTimeEndpoints(t *testing.T) {
	server := newTestServer(t, smallCatalog())

	// Defaults come back before any override.
	resp, err := http.Get(server.URL + "/api/settings/leadtimes")
	require.NoError(t, err)
	var lt struct {
		WeldFabDays       int `json:"weld_fab_days"`
		BlastDays         int `json:"blast_days"`
		PaintAssemblyDays int `json:"paint_assembly_days"`
	}
	decodeJSON(t, resp, &lt)
	assert.Equal(t, 4, lt.WeldFabDays)
	assert.Equal(t, 7, lt.BlastDays)
	assert.Equal(t, 10, lt.PaintAssemblyDays)

	// Override and read back.
	body := bytes.NewBufferString(`{"weld_fab_days": 5, "blast_days": 8, "paint_assembly_days": 12}`)
	req, err := http.NewRequest(http.MethodPut, server.URL+"/api/settings/leadtimes", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(server.URL + "/api/settings/leadtimes")
	require.NoError(t, err)
	decodeJSON(t, resp, &lt)
	assert.Equal(t, 8, lt.BlastDays)

	// Invalid overrides are rejected.
	body = bytes.NewBufferString(`{"weld_fab_days": 0, "blast_days": 8, "paint_assembly_days": 12}`)
	req, err = http.NewRequest(http.MethodPut, server.URL+"/api/settings/leadtimes", body)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
