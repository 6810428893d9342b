package window

import (
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// Schedule computes when a window opened at start must close.
type Schedule interface {
	End(start time.Time) time.Time
}

// Fixed closes a window a fixed duration after it opens.
type Fixed struct {
	Duration time.Duration
}

// End returns start + Duration.
func (f Fixed) End(start time.Time) time.Time {
	return start.Add(f.Duration)
}

// Weekly closes a window at the next occurrence of a weekday and time of
// day in a location.
type Weekly struct {
	Day      time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// NewWeekly builds a Weekly schedule from settings.
func NewWeekly(r models.WeeklyReset) (Weekly, error) {
	rs, err := r.Parse()
	if err != nil {
		return Weekly{}, err
	}
	return Weekly{Day: rs.Day, Hour: rs.Hour, Minute: rs.Minute, Location: rs.Location}, nil
}

// mondayIndex numbers weekdays from Monday = 0 to Sunday = 6.
func mondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// WeekStart returns the most recent boundary at or before now. A now that
// falls exactly on a boundary is its own week start.
func (w Weekly) WeekStart(now time.Time) time.Time {
	loc := w.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	daysBack := (mondayIndex(local.Weekday()) - mondayIndex(w.Day) + 7) % 7
	start := time.Date(local.Year(), local.Month(), local.Day()-daysBack, w.Hour, w.Minute, 0, 0, loc)
	if start.After(local) {
		start = time.Date(start.Year(), start.Month(), start.Day()-7, w.Hour, w.Minute, 0, 0, loc)
	}
	return start
}

// Next returns the first boundary strictly after now.
func (w Weekly) Next(now time.Time) time.Time {
	start := w.WeekStart(now)
	return time.Date(start.Year(), start.Month(), start.Day()+7, w.Hour, w.Minute, 0, 0, start.Location())
}

// End returns the first boundary strictly after start.
func (w Weekly) End(start time.Time) time.Time {
	return w.Next(start)
}
