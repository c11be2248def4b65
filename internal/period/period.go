// Package period converts period identifiers ("2026-kw07" for an ISO
// week, "2026-02-07" for a day) into concrete time windows and the
// metadata rows the store keeps per period.
package period

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/datacube/aihub/internal/model"
)

// ErrParse marks a malformed period identifier. Callers treat it as
// fatal for the collection run.
var ErrParse = errors.New("invalid period id")

var (
	dayIDRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	weekIDRe = regexp.MustCompile(`^\d{4}-kw\d{2}$`)
)

// IsDayID reports whether id has the daily YYYY-MM-DD shape.
func IsDayID(id string) bool {
	return dayIDRe.MatchString(id)
}

// CurrentWeekID returns the current ISO week as "2026-kw07".
func CurrentWeekID(loc *time.Location) string {
	year, week := time.Now().In(loc).ISOWeek()
	return fmt.Sprintf("%d-kw%02d", year, week)
}

// CurrentDayID returns today's date as "2026-02-07".
func CurrentDayID(loc *time.Location) string {
	return time.Now().In(loc).Format("2006-01-02")
}

// DayToWeekID converts a day id to its parent ISO week id.
func DayToWeekID(dayID string) (string, error) {
	d, err := parseDay(dayID)
	if err != nil {
		return "", err
	}
	year, week := d.ISOWeek()
	return fmt.Sprintf("%d-kw%02d", year, week), nil
}

// Resolve returns the [start, end) window for a period id. Week windows
// span exactly 7 days from Monday 00:00, day windows exactly 1 day.
func Resolve(id string) (start, end time.Time, err error) {
	if IsDayID(id) {
		d, err := parseDay(id)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return d, d.AddDate(0, 0, 1), nil
	}

	year, week, err := parseWeekID(id)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start = weekStart(year, week)
	return start, start.AddDate(0, 0, 7), nil
}

// WeekDateRange renders the week window as "16.02 - 22.02".
func WeekDateRange(year, week int) string {
	start := weekStart(year, week)
	end := start.AddDate(0, 0, 6)
	return fmt.Sprintf("%02d.%02d - %02d.%02d", start.Day(), int(start.Month()), end.Day(), int(end.Month()))
}

// Describe builds the full period metadata for an id. Day periods
// carry their parent week id; the caller is responsible for ensuring
// the parent exists.
func Describe(id string) (model.Period, error) {
	if IsDayID(id) {
		d, err := parseDay(id)
		if err != nil {
			return model.Period{}, err
		}
		parent, err := DayToWeekID(id)
		if err != nil {
			return model.Period{}, err
		}
		return model.Period{
			ID:        id,
			Label:     fmt.Sprintf("%02d.%02d.", d.Day(), int(d.Month())),
			Year:      d.Year(),
			DateRange: fmt.Sprintf("%02d.%02d.%d", d.Day(), int(d.Month()), d.Year()),
			Type:      model.PeriodDay,
			SortDate:  d,
			ParentID:  parent,
		}, nil
	}

	year, week, err := parseWeekID(id)
	if err != nil {
		return model.Period{}, err
	}
	return model.Period{
		ID:        id,
		Label:     fmt.Sprintf("KW %02d", week),
		Year:      year,
		WeekNum:   week,
		DateRange: WeekDateRange(year, week),
		Type:      model.PeriodWeek,
		SortDate:  weekStart(year, week),
	}, nil
}

// weekStart returns Monday 00:00 UTC of the given ISO week, anchored
// on the rule that Jan 4 is always in week 1.
func weekStart(year, week int) time.Time {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	offset := (int(jan4.Weekday()) + 6) % 7 // Monday = 0
	return jan4.AddDate(0, 0, (week-1)*7-offset)
}

func parseDay(id string) (time.Time, error) {
	if !IsDayID(id) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, id)
	}
	d, err := time.ParseInLocation("2006-01-02", id, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrParse, id)
	}
	return d, nil
}

func parseWeekID(id string) (year, week int, err error) {
	if !weekIDRe.MatchString(id) {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, id)
	}
	parts := strings.SplitN(id, "-kw", 2)
	year, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, id)
	}
	week, err = strconv.Atoi(parts[1])
	if err != nil || week < 1 || week > 53 {
		return 0, 0, fmt.Errorf("%w: %q", ErrParse, id)
	}
	return year, week, nil
}
