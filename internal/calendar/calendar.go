// Package calendar maps abstract cycle days onto concrete training dates.
//
// Weekdays are always accepted. A single Saturday is accepted when the plan
// starts on a Thursday and the owner opted in, so a Thursday start can fill
// its first microcycle within the same week.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/cyclecoach/pkg/types"
)

// DateLayout is the civil date format used for start dates and storage.
const DateLayout = "2006-01-02"

// Start date aliases accepted by ResolveStart.
const (
	StartToday      = "today"
	StartNextMonday = "next_monday"
)

// DefaultWeekPattern is the first-week pattern of a date-less mapping.
const DefaultWeekPattern = "Mon-Tue-Wed-Thu-Fri"

// Day is one mapped training session.
type Day struct {
	SessionNumber int          `json:"session_number"`
	CycleDay      int          `json:"cycle_day"`
	Date          *time.Time   `json:"date,omitempty"`
	Weekday       time.Weekday `json:"-"`
	WeekdayName   string       `json:"weekday_name"`
}

// Options configures Map.
type Options struct {
	// Start is the first candidate date. Nil selects the fixed
	// Monday-to-Friday mapping without dates.
	Start *time.Time
	// SessionsNeeded is the number of days to map.
	SessionsNeeded int
	// CycleLength defaults to types.CycleLength.
	CycleLength int
	// IncludeSaturday requests the single-Saturday unlock. It only takes
	// effect when Start falls on a Thursday.
	IncludeSaturday bool
}

// Schedule is the result of Map.
type Schedule struct {
	Days []Day `json:"days"`
	// DayMapping names the weekday of each cycle day in the first
	// microcycle, keyed D1..Dn.
	DayMapping map[string]string `json:"day_mapping"`
	// FirstWeekPattern joins the short weekday names of the first
	// microcycle, e.g. "Thu-Fri-Sat-Mon-Tue".
	FirstWeekPattern string `json:"first_week_pattern"`
	SaturdayUnlocked bool   `json:"saturday_unlocked"`
}

// maxIterations bounds the day-by-day walk. Five weekdays are accepted in
// every seven calendar days, so the walk never needs more than
// ceil(n*7/5) days plus one partial week of slack.
func maxIterations(sessionsNeeded int) int {
	return (sessionsNeeded*7+4)/5 + 7
}

// SaturdayUnlocked reports whether the single-Saturday rule applies to a
// plan starting on start.
func SaturdayUnlocked(start time.Time, includeSaturday bool) bool {
	return includeSaturday && start.Weekday() == time.Thursday
}

// Map assigns sessions to dates. Every session gets a distinct date, and
// cycle days rotate 1..CycleLength in session order.
func Map(opts Options) (*Schedule, error) {
	if opts.SessionsNeeded <= 0 {
		return nil, fmt.Errorf("%w: %d", types.ErrInvalidSessionCount, opts.SessionsNeeded)
	}
	cycleLength := opts.CycleLength
	if cycleLength == 0 {
		cycleLength = types.CycleLength
	}
	if cycleLength < 0 {
		return nil, fmt.Errorf("%w: cycle length %d", types.ErrValidation, cycleLength)
	}

	if opts.Start == nil {
		return fixedMapping(opts.SessionsNeeded, cycleLength), nil
	}

	start := civil(*opts.Start)
	unlock := SaturdayUnlocked(start, opts.IncludeSaturday)
	saturdayUsed := false
	limit := maxIterations(opts.SessionsNeeded)

	days := make([]Day, 0, opts.SessionsNeeded)
	current := start
	for i := 0; len(days) < opts.SessionsNeeded; i++ {
		if i >= limit {
			return nil, fmt.Errorf("%w: mapped %d of %d sessions in %d days",
				types.ErrCalendarExhausted, len(days), opts.SessionsNeeded, limit)
		}
		wd := current.Weekday()
		accept := wd >= time.Monday && wd <= time.Friday
		if wd == time.Saturday && unlock && !saturdayUsed {
			accept = true
			saturdayUsed = true
		}
		if accept {
			date := current
			n := len(days)
			days = append(days, Day{
				SessionNumber: n + 1,
				CycleDay:      n%cycleLength + 1,
				Date:          &date,
				Weekday:       wd,
				WeekdayName:   wd.String(),
			})
		}
		current = current.AddDate(0, 0, 1)
	}

	return newSchedule(days, cycleLength, unlock), nil
}

// fixedMapping pins cycle day n to the n-th weekday starting on Monday.
func fixedMapping(sessionsNeeded, cycleLength int) *Schedule {
	days := make([]Day, sessionsNeeded)
	for n := range days {
		cycleDay := n%cycleLength + 1
		wd := time.Weekday((cycleDay-1)%5 + int(time.Monday))
		days[n] = Day{
			SessionNumber: n + 1,
			CycleDay:      cycleDay,
			Weekday:       wd,
			WeekdayName:   wd.String(),
		}
	}
	return newSchedule(days, cycleLength, false)
}

func newSchedule(days []Day, cycleLength int, unlock bool) *Schedule {
	s := &Schedule{
		Days:             days,
		DayMapping:       make(map[string]string, cycleLength),
		SaturdayUnlocked: unlock,
	}
	short := make([]string, 0, cycleLength)
	for i := 0; i < cycleLength && i < len(days); i++ {
		s.DayMapping[fmt.Sprintf("D%d", i+1)] = days[i].WeekdayName
		short = append(short, days[i].WeekdayName[:3])
	}
	s.FirstWeekPattern = strings.Join(short, "-")
	return s
}

// ResolveStart parses an explicit date (YYYY-MM-DD) or one of the aliases
// "today" and "next_monday" relative to now. The aliases use the calendar
// date of now in its own location. An empty string returns nil.
func ResolveStart(value string, now time.Time) (*time.Time, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	today := civil(now)
	switch value {
	case "":
		return nil, nil
	case StartToday:
		return &today, nil
	case StartNextMonday:
		ahead := (int(time.Monday) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		d := today.AddDate(0, 0, ahead)
		return &d, nil
	}
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidStartDate, value)
	}
	return &d, nil
}

// FirstTrainingDay reports the first date Map would accept from start.
func FirstTrainingDay(start time.Time, includeSaturday bool) time.Time {
	s, _ := Map(Options{Start: &start, SessionsNeeded: 1, IncludeSaturday: includeSaturday})
	return *s.Days[0].Date
}

// civil truncates t to midnight UTC of its calendar date.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
