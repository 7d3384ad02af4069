package work

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// WORK WINDOW CONFIGURATION
// =============================================================================
// The field crews run a single fixed shift; hours only accrue inside it.
// Defaults match the standard shift and can be overridden in the config file.
// =============================================================================

const (
	// DefaultWorkStart - shift start, "HH:MM"
	DefaultWorkStart = "08:00"

	// DefaultWorkEnd - shift end, "HH:MM"
	DefaultWorkEnd = "16:30"
)

// Schedule is the daily work window. The daily hour count is always the span
// between start and end; it is never set independently.
type Schedule struct {
	startHour, startMin int
	endHour, endMin     int
	dailyHours          float64
}

// NewSchedule builds a Schedule from "HH:MM" start/end strings.
func NewSchedule(start, end string) (Schedule, error) {
	sh, sm, err := parseClock(start)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid work start %q: %w", start, err)
	}
	eh, em, err := parseClock(end)
	if err != nil {
		return Schedule{}, fmt.Errorf("invalid work end %q: %w", end, err)
	}
	startMins := sh*60 + sm
	endMins := eh*60 + em
	if startMins >= endMins {
		return Schedule{}, fmt.Errorf("work window start %s must be before end %s", start, end)
	}
	return Schedule{
		startHour: sh, startMin: sm,
		endHour: eh, endMin: em,
		dailyHours: float64(endMins-startMins) / 60.0,
	}, nil
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// DailyHours returns the length of the work window in hours.
func (s Schedule) DailyHours() float64 {
	return s.dailyHours
}

// Start returns the window opening time as "HH:MM".
func (s Schedule) Start() string {
	return fmt.Sprintf("%02d:%02d", s.startHour, s.startMin)
}

// End returns the window closing time as "HH:MM".
func (s Schedule) End() string {
	return fmt.Sprintf("%02d:%02d", s.endHour, s.endMin)
}

// StartOfWorkday returns the instant the window opens on t's date.
func (s Schedule) StartOfWorkday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.startHour, s.startMin, 0, 0, t.Location())
}

// EndOfWorkday returns the instant the window closes on t's date.
func (s Schedule) EndOfWorkday(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.endHour, s.endMin, 0, 0, t.Location())
}

// ClampToWorkday pins an instant inside that date's work window.
func (s Schedule) ClampToWorkday(t time.Time) time.Time {
	start := s.StartOfWorkday(t)
	end := s.EndOfWorkday(t)
	if t.Before(start) {
		return start
	}
	if t.After(end) {
		return end
	}
	return t
}

// Calendar decides which days accrue hours: weekdays outside the holiday set.
// It is built once at startup and never mutated afterwards.
type Calendar struct {
	Schedule Schedule
	holidays map[string]struct{}
}

// NewCalendar builds a Calendar from a schedule and canonical "YYYY-MM-DD"
// holiday strings.
func NewCalendar(schedule Schedule, holidays []string) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h] = struct{}{}
	}
	return Calendar{Schedule: schedule, holidays: set}
}

// IsBusinessDay reports whether d is a weekday not listed as a holiday.
func (c Calendar) IsBusinessDay(d time.Time) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	if _, ok := c.holidays[d.Format("2006-01-02")]; ok {
		return false
	}
	return true
}

// Holidays returns the holiday set in sorted order.
func (c Calendar) Holidays() []string {
	out := make([]string, 0, len(c.holidays))
	for h := range c.holidays {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
