package calendar_test

import (
	"errors"
	"testing"
	"time"

	"github.com/forge/availability-engine/calendar"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newCalendar(holidays ...time.Time) *calendar.Calendar {
	return calendar.New(calendar.DefaultLeadTimes(), holidays)
}

// =============================================================================
// BUSINESS-DAY CLASSIFICATION
// =============================================================================

func TestIsBusinessDay_Weekdays(t *testing.T) {
	cal := newCalendar()

	// 2025-01-06 is a Monday
	for i := 0; i < 5; i++ {
		d := date(2025, time.January, 6+i)
		if !cal.IsBusinessDay(d) {
			t.Errorf("expected %s (%s) to be a business day", d.Format("2006-01-02"), d.Weekday())
		}
	}
}

func TestIsBusinessDay_Weekend(t *testing.T) {
	cal := newCalendar()

	sat := date(2025, time.January, 11)
	sun := date(2025, time.January, 12)
	if cal.IsBusinessDay(sat) {
		t.Error("Saturday should not be a business day")
	}
	if cal.IsBusinessDay(sun) {
		t.Error("Sunday should not be a business day")
	}
}

func TestIsBusinessDay_HolidayOnWeekday(t *testing.T) {
	holiday := date(2025, time.July, 4) // a Friday
	cal := newCalendar(holiday)

	if cal.IsBusinessDay(holiday) {
		t.Error("a configured holiday should not be a business day, even on a weekday")
	}
}

// =============================================================================
// COMPLETION DATES
// =============================================================================

func TestCompletionDate_StartDayNeverCounts(t *testing.T) {
	cal := newCalendar()

	// Start Monday, lead 1 -> Tuesday. Monday itself does not count.
	got, err := cal.CompletionDate(date(2025, time.January, 6), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2025, time.January, 7); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCompletionDate_SkipsWeekend(t *testing.T) {
	cal := newCalendar()

	// Start Friday 2025-01-03, lead 1 -> Monday 2025-01-06.
	got, err := cal.CompletionDate(date(2025, time.January, 3), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2025, time.January, 6); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCompletionDate_SkipsHoliday(t *testing.T) {
	// Monday 2025-01-06 is a holiday; work started Friday finishes Tuesday.
	cal := newCalendar(date(2025, time.January, 6))

	got, err := cal.CompletionDate(date(2025, time.January, 3), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2025, time.January, 7); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCompletionDate_SevenBusinessDays(t *testing.T) {
	cal := newCalendar()

	// Released Monday 2025-01-06, 7 business days -> Wednesday 2025-01-15
	// (the weekend of the 11th/12th does not count).
	got, err := cal.CompletionDate(date(2025, time.January, 6), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2025, time.January, 15); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCompletionDate_HolidayBlockPlusWeekend(t *testing.T) {
	// GIVEN: a 3-day holiday block (Thu 12/25, Fri 12/26, Mon 12/29)
	//        wrapped around a weekend - 5 consecutive non-business days
	// WHEN:  work starts Wed 12/24 with a 4-business-day lead time
	// THEN:  completion lands Friday 2026-01-02, skipping all 5 days
	cal := newCalendar(
		date(2025, time.December, 25),
		date(2025, time.December, 26),
		date(2025, time.December, 29),
	)

	got, err := cal.CompletionDate(date(2025, time.December, 24), 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := date(2026, time.January, 2); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestCompletionDate_InvalidInput(t *testing.T) {
	cal := newCalendar()

	if _, err := cal.CompletionDate(date(2025, time.January, 6), 0); !errors.Is(err, calendar.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero lead time, got %v", err)
	}
	if _, err := cal.CompletionDate(date(2025, time.January, 6), -3); !errors.Is(err, calendar.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative lead time, got %v", err)
	}
	if _, err := cal.CompletionDate(time.Time{}, 5); !errors.Is(err, calendar.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for zero start date, got %v", err)
	}
}

// =============================================================================
// LEAD TIMES
// =============================================================================

func TestLeadTimes_Defaults(t *testing.T) {
	lt := calendar.DefaultLeadTimes()
	if lt.WeldFabDays != 4 || lt.BlastDays != 7 || lt.PaintAssemblyDays != 10 {
		t.Errorf("unexpected default lead times: %+v", lt)
	}
	if err := lt.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLeadTimes_Validate(t *testing.T) {
	cases := []calendar.LeadTimes{
		{WeldFabDays: 0, BlastDays: 7, PaintAssemblyDays: 10},
		{WeldFabDays: 4, BlastDays: -1, PaintAssemblyDays: 10},
		{WeldFabDays: 4, BlastDays: 7, PaintAssemblyDays: 0},
	}
	for _, lt := range cases {
		if err := lt.Validate(); !errors.Is(err, calendar.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for %+v, got %v", lt, err)
		}
	}
}
