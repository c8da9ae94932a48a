/*
Package calendar provides business-day arithmetic for completion estimates.

PURPOSE:
  Answers two questions for the allocation engine:
  - Is a given date a business day?
  - Given a start date and a lead time in business days, when is the work done?

BUSINESS-DAY RULE:
  Monday through Friday are business days. Saturday and Sunday are not.
  Any date in the configured holiday set is not, even on a weekday.
  Friday is a shortened shop day but still counts as one full business
  day for date arithmetic.

LEAD TIMES:
  Per-stage lead times (weld/fab, blast, paint/assembly) are configuration,
  not code. They are injected at construction time together with the
  holiday set, never read from ambient state.

ALGORITHM:
  CompletionDate walks forward one calendar day at a time starting the day
  after the start date, counting only business days, and returns the date
  on which the counter reaches the lead time. O(lead_time_days), exact.
  No 7/5 approximation.

USAGE:
  cal := calendar.New(calendar.DefaultLeadTimes(), holidays)
  done, err := cal.CompletionDate(releasedDate, cal.LeadTimes().BlastDays)

SEE ALSO:
  - allocation/engine.go: Consumes completion dates per drawn stage
  - config/config.go: Loads lead times and holiday dates from YAML
*/
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidInput is returned for non-positive lead times or a zero start date.
var ErrInvalidInput = errors.New("invalid calendar input")

// InvalidInputError carries the offending values.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid calendar input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// =============================================================================
// LEAD TIMES - Per-stage configuration
// =============================================================================

// LeadTimes holds the configured business-day lead time for each production
// stage. Values are overridable through configuration and the settings API.
type LeadTimes struct {
	WeldFabDays       int `yaml:"weld_fab_days" json:"weld_fab_days"`
	BlastDays         int `yaml:"blast_days" json:"blast_days"`
	PaintAssemblyDays int `yaml:"paint_assembly_days" json:"paint_assembly_days"`
}

// DefaultLeadTimes returns the standard shop lead times.
func DefaultLeadTimes() LeadTimes {
	return LeadTimes{
		WeldFabDays:       4,
		BlastDays:         7,
		PaintAssemblyDays: 10,
	}
}

// Validate rejects non-positive lead times before they can reach date math.
func (lt LeadTimes) Validate() error {
	if lt.WeldFabDays <= 0 {
		return &InvalidInputError{Field: "weld_fab_days", Reason: "must be positive"}
	}
	if lt.BlastDays <= 0 {
		return &InvalidInputError{Field: "blast_days", Reason: "must be positive"}
	}
	if lt.PaintAssemblyDays <= 0 {
		return &InvalidInputError{Field: "paint_assembly_days", Reason: "must be positive"}
	}
	return nil
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar classifies dates and computes completion dates. Immutable after
// construction; safe for concurrent use.
type Calendar struct {
	lead     LeadTimes
	holidays map[string]struct{} // keyed by YYYY-MM-DD
}

// New builds a Calendar from lead times and an explicit holiday set.
// Holiday time-of-day components are ignored.
func New(lead LeadTimes, holidays []time.Time) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[dayKey(h)] = struct{}{}
	}
	return &Calendar{lead: lead, holidays: set}
}

// LeadTimes returns the configured per-stage lead times.
func (c *Calendar) LeadTimes() LeadTimes { return c.lead }

// Holidays returns the configured holiday dates, unordered.
func (c *Calendar) Holidays() []string {
	out := make([]string, 0, len(c.holidays))
	for k := range c.holidays {
		out = append(out, k)
	}
	return out
}

// IsBusinessDay reports whether d counts toward lead time.
// Weekends never count; configured holidays never count.
func (c *Calendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[dayKey(d)]
	return !holiday
}

// CompletionDate returns the date on which work started after start completes,
// given a lead time in business days. The walk begins the day after start:
// the start date itself never counts toward the lead time.
func (c *Calendar) CompletionDate(start time.Time, leadTimeDays int) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, &InvalidInputError{Field: "start_date", Reason: "is required"}
	}
	if leadTimeDays <= 0 {
		return time.Time{}, &InvalidInputError{Field: "lead_time_days", Reason: "must be positive"}
	}

	d := truncateDay(start)
	counted := 0
	for counted < leadTimeDays {
		d = d.AddDate(0, 0, 1)
		if c.IsBusinessDay(d) {
			counted++
		}
	}
	return d, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func dayKey(d time.Time) string { return d.Format("2006-01-02") }

func truncateDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
