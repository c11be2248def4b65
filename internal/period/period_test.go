package period

import (
	"errors"
	"testing"
	"time"

	"github.com/datacube/aihub/internal/model"
)

func TestResolveWeek(t *testing.T) {
	start, end, err := Resolve("2026-kw07")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// ISO week 7 of 2026 starts Monday 2026-02-09.
	wantStart := time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if got := end.Sub(start); got != 7*24*time.Hour {
		t.Errorf("window = %v, want 168h", got)
	}
	if start.Weekday() != time.Monday {
		t.Errorf("week starts on %v, want Monday", start.Weekday())
	}
}

func TestResolveDay(t *testing.T) {
	start, end, err := Resolve("2026-02-07")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !start.Equal(time.Date(2026, 2, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Errorf("window = %v, want 24h", got)
	}
}

func TestResolveWindowInvariant(t *testing.T) {
	ids := []string{"2024-kw01", "2025-kw52", "2026-kw07", "2026-01-01", "2026-12-31"}
	for _, id := range ids {
		start, end, err := Resolve(id)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", id, err)
		}
		if !start.Before(end) {
			t.Errorf("Resolve(%q): start %v not before end %v", id, start, end)
		}
	}
}

func TestResolveMalformed(t *testing.T) {
	for _, id := range []string{"", "2026", "2026-KW07", "2026-kw7", "2026-kw00", "kw07-2026", "2026-2-7", "2026-02-07T00"} {
		if _, _, err := Resolve(id); !errors.Is(err, ErrParse) {
			t.Errorf("Resolve(%q) err = %v, want ErrParse", id, err)
		}
	}
}

func TestDayToWeekID(t *testing.T) {
	cases := map[string]string{
		"2026-02-07": "2026-kw06",
		"2026-01-01": "2026-kw01",
		"2027-01-01": "2026-kw53", // Jan 1 2027 falls in ISO week 53 of 2026
	}
	for day, want := range cases {
		got, err := DayToWeekID(day)
		if err != nil {
			t.Fatalf("DayToWeekID(%q): %v", day, err)
		}
		if got != want {
			t.Errorf("DayToWeekID(%q) = %q, want %q", day, got, want)
		}
	}
}

func TestDescribeWeek(t *testing.T) {
	p, err := Describe("2026-kw07")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if p.Type != model.PeriodWeek || p.WeekNum != 7 || p.Year != 2026 {
		t.Errorf("unexpected period: %+v", p)
	}
	if p.Label != "KW 07" {
		t.Errorf("label = %q", p.Label)
	}
	if p.DateRange != "09.02 - 15.02" {
		t.Errorf("date range = %q", p.DateRange)
	}
	if p.ParentID != "" {
		t.Errorf("week must not have a parent, got %q", p.ParentID)
	}
}

func TestDescribeDay(t *testing.T) {
	p, err := Describe("2026-02-07")
	if err != nil {
		t.Fatalf("Describe: %v", err)
	}
	if p.Type != model.PeriodDay || p.WeekNum != 0 {
		t.Errorf("unexpected period: %+v", p)
	}
	if p.Label != "07.02." {
		t.Errorf("label = %q", p.Label)
	}
	if p.ParentID != "2026-kw06" {
		t.Errorf("parent = %q, want 2026-kw06", p.ParentID)
	}
}

func TestCurrentIDsFormat(t *testing.T) {
	loc := time.UTC
	if id := CurrentWeekID(loc); !weekIDRe.MatchString(id) {
		t.Errorf("CurrentWeekID = %q", id)
	}
	if id := CurrentDayID(loc); !IsDayID(id) {
		t.Errorf("CurrentDayID = %q", id)
	}
}
