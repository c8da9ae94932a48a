/*
handlers.go - HTTP handlers for allocation runs and report configuration

PURPOSE:
  Connects the HTTP surface to the engine, the ERP source, and the store.
  The run handler is the single composition point of the pipeline:

    fetch snapshot -> normalize -> allocate -> summarize -> persist

ATOMICITY:
  A run is all-or-nothing. Nothing is persisted or returned until the
  whole pipeline has completed; a cancelled or failed run publishes no
  partial results. Every run constructs its own calendar and pool set,
  so concurrent runs never share mutable state.

ERROR MAPPING:
  InvalidInput        -> 422 (bad raw records or lead-time configuration)
  InvariantViolation  -> 500 (programmer error, logged with full context)
  order feed failure  -> 502 (the remote system did not answer)
  stage feed failure  -> not an error; surfaces as a run warning

SEE ALSO:
  - server.go: Route wiring
  - dto.go: Response shapes
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/forge/availability-engine/allocation"
	"github.com/forge/availability-engine/calendar"
	"github.com/forge/availability-engine/config"
	"github.com/forge/availability-engine/erp"
	"github.com/forge/availability-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Fetcher *erp.Fetcher
	Config  config.Config
}

// NewHandler creates a handler bound to the given store and ERP source.
func NewHandler(store *sqlite.Store, source erp.Source, cfg config.Config) *Handler {
	fetcher := erp.NewFetcher(source)
	if cfg.FetchConcurrency > 0 {
		fetcher.MaxConcurrent = cfg.FetchConcurrency
	}
	return &Handler{Store: store, Fetcher: fetcher, Config: cfg}
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ExecuteRun runs the full allocation pipeline and persists the result.
func (h *Handler) ExecuteRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.runAllocation(r.Context())
	if err != nil {
		h.writeRunError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// GetLatestRun returns the most recent persisted run.
func (h *Handler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.LatestRun(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load latest run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "No allocation run recorded yet", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// GetRun returns one persisted run by id.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run))
}

// ListRuns returns stored run summaries, newest first.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListRuns(r.Context(), 100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}
	dtos := make([]RunRecordDTO, len(records))
	for i, rec := range records {
		dtos[i] = toRunRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExportRun streams one persisted run as CSV.
func (h *Handler) ExportRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := h.Store.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="availability-%s.csv"`, run.RunID))
	if err := allocation.WriteCSV(w, run); err != nil {
		log.Printf("export run %s: %v", run.RunID, err)
	}
}

// runAllocation executes one complete allocation run.
func (h *Handler) runAllocation(ctx context.Context) (*allocation.RunResult, error) {
	cal, err := h.buildCalendar(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := h.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// Cancellation is all-or-nothing: do not start the pass.
		return nil, err
	}

	lines, pools, err := allocation.Normalize(snapshot.Orders, snapshot.Items)
	if err != nil {
		return nil, err
	}

	engine := allocation.NewEngine(cal)
	engine.MaxLines = h.Config.MaxOrderLines
	results, err := engine.Run(lines, pools)
	if err != nil {
		return nil, err
	}

	run := &allocation.RunResult{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Results:     results,
		Summary:     allocation.Summarize(results),
		Warnings:    snapshot.Warnings,
	}
	if err := h.Store.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}
	return run, nil
}

// buildCalendar resolves lead times (stored override wins over file
// configuration) and the holiday set for this run.
func (h *Handler) buildCalendar(ctx context.Context) (*calendar.Calendar, error) {
	lead := h.Config.LeadTimes
	if override, err := h.Store.GetLeadTimes(ctx); err != nil {
		return nil, err
	} else if override != nil {
		lead = *override
	}

	holidays, err := h.Store.HolidayDates(ctx)
	if err != nil {
		return nil, err
	}
	return calendar.New(lead, holidays), nil
}

func (h *Handler) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, allocation.ErrInvalidInput) || errors.Is(err, calendar.ErrInvalidInput):
		writeErrorCode(w, http.StatusUnprocessableEntity, "invalid_input", err)
	case errors.Is(err, allocation.ErrInvariantViolation):
		log.Printf("allocation invariant violated: %v", err)
		writeErrorCode(w, http.StatusInternalServerError, "invariant_violation", err)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		writeErrorCode(w, http.StatusRequestTimeout, "cancelled", err)
	default:
		writeErrorCode(w, http.StatusBadGateway, "source_unavailable", err)
	}
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns all configured holidays.
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]HolidayDTO, len(holidays))
	for i, hd := range holidays {
		dtos[i] = HolidayDTO{Date: hd.Date.Format("2006-01-02"), Name: hd.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateHoliday adds a holiday date.
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Store.SaveHoliday(r.Context(), sqlite.Holiday{Date: date, Name: req.Name}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, HolidayDTO{Date: req.Date, Name: req.Name})
}

// DeleteHoliday removes a holiday by date.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	if err := h.Store.DeleteHoliday(r.Context(), date); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetLeadTimes returns the effective stage lead times.
func (h *Handler) GetLeadTimes(w http.ResponseWriter, r *http.Request) {
	lead := h.Config.LeadTimes
	if override, err := h.Store.GetLeadTimes(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load lead times", err)
		return
	} else if override != nil {
		lead = *override
	}
	writeJSON(w, http.StatusOK, lead)
}

// PutLeadTimes persists a lead-time override.
func (h *Handler) PutLeadTimes(w http.ResponseWriter, r *http.Request) {
	var lt calendar.LeadTimes
	if err := json.NewDecoder(r.Body).Decode(&lt); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.Store.SaveLeadTimes(r.Context(), lt); err != nil {
		if errors.Is(err, calendar.ErrInvalidInput) {
			writeError(w, http.StatusUnprocessableEntity, "Lead times must be positive", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save lead times", err)
		return
	}
	writeJSON(w, http.StatusOK, lt)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Error = fmt.Sprintf("%s: %v", message, err)
	}
	writeJSON(w, status, resp)
}

func writeErrorCode(w http.ResponseWriter, status int, code string, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}
