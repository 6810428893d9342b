package window

import (
	"fmt"
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// Manager applies window rules for one revision of the settings. It holds
// no window state of its own, so callers can apply it to a copy of their
// timers and commit only once the copy is persisted.
type Manager struct {
	settings models.Settings
	fourHour Fixed
	weekly   Weekly
	now      func() time.Time
}

// NewManager builds a Manager from settings. A nil clock uses time.Now.
func NewManager(s models.Settings, now func() time.Time) (*Manager, error) {
	weekly, err := NewWeekly(s.WeeklyReset)
	if err != nil {
		return nil, fmt.Errorf("weekly schedule: %w", err)
	}
	if now == nil {
		now = time.Now
	}
	return &Manager{
		settings: s,
		fourHour: Fixed{Duration: models.FourHourDuration},
		weekly:   weekly,
		now:      now,
	}, nil
}

// Now returns the manager's current time.
func (m *Manager) Now() time.Time {
	return m.now()
}

// Weekly returns the weekly schedule.
func (m *Manager) Weekly() Weekly {
	return m.weekly
}

// Schedule returns the schedule of the given window.
func (m *Manager) Schedule(kind models.WindowKind) (Schedule, error) {
	switch kind {
	case models.WindowFourHour:
		return m.fourHour, nil
	case models.WindowWeekly:
		return m.weekly, nil
	}
	return nil, fmt.Errorf("%w: %q", models.ErrUnknownWindow, kind)
}

// Recorded describes the effect of counting one round in both windows.
type Recorded struct {
	// Reopened lists windows that were started or reset by this round.
	Reopened []models.WindowKind
	// Warnings holds at most one warning per window.
	Warnings []models.Warning
}

// Record adds ref.Tokens to both windows of t and checks their thresholds.
func (m *Manager) Record(t *models.Timers, ref models.WindowRef) Recorded {
	now := m.now()
	var out Recorded
	for _, kind := range []models.WindowKind{models.WindowFourHour, models.WindowWeekly} {
		w, _ := t.Window(kind)
		sched, _ := m.Schedule(kind)
		if AddTokens(w, now, sched, ref.Tokens, ref) {
			out.Reopened = append(out.Reopened, kind)
		}
		if warn, ok := m.warning(kind, *w); ok {
			out.Warnings = append(out.Warnings, warn)
		}
	}
	return out
}

// Check returns the current warnings for t without modifying it.
func (m *Manager) Check(t models.Timers) []models.Warning {
	var out []models.Warning
	for _, kind := range []models.WindowKind{models.WindowFourHour, models.WindowWeekly} {
		w, _ := t.Window(kind)
		if Expired(*w, m.now()) {
			continue
		}
		if warn, ok := m.warning(kind, *w); ok {
			out = append(out, warn)
		}
	}
	return out
}

func (m *Manager) warning(kind models.WindowKind, w models.UsageWindow) (models.Warning, bool) {
	ws := m.settings.Window(kind)
	th := CheckThreshold(w, ws.Limit, ws.Threshold)
	if !th.Warn && !th.Exceeded {
		return models.Warning{}, false
	}
	level := models.LevelWarning
	if th.Exceeded {
		level = models.LevelExceeded
	}
	return models.Warning{
		Window:      kind,
		Level:       level,
		Tokens:      w.Tokens,
		Limit:       ws.Limit,
		Percentage:  Fraction(w.Tokens, ws.Limit),
		WindowStart: w.StartTime,
		WindowEnd:   w.EndTime,
	}, true
}

// Reset reopens the given window of t at the current time.
func (m *Manager) Reset(t *models.Timers, kind models.WindowKind) error {
	w, err := t.Window(kind)
	if err != nil {
		return err
	}
	sched, err := m.Schedule(kind)
	if err != nil {
		return err
	}
	Reset(w, m.now(), sched)
	return nil
}

// SetEnd pins the end of the four-hour window, typically to match the
// reset time reported by the chat app. end must lie within the next four
// hours. Tokens of a running window are kept.
func (m *Manager) SetEnd(t *models.Timers, end time.Time) error {
	now := m.now()
	if !end.After(now) {
		return fmt.Errorf("%w: %s is not in the future", models.ErrInvalidWindowEnd, end.Format(time.RFC3339))
	}
	if end.Sub(now) > m.fourHour.Duration {
		return fmt.Errorf("%w: %s is more than %s away", models.ErrInvalidWindowEnd, end.Format(time.RFC3339), m.fourHour.Duration)
	}

	w := &t.FourHour
	if !w.Active || w.StartTime.IsZero() || Expired(*w, now) {
		open(w, now, m.fourHour)
	}
	w.StartTime = end.Add(-m.fourHour.Duration)
	w.EndTime = end
	return nil
}

// Status returns the read-only status of both windows.
func (m *Manager) Status(t models.Timers) models.TimerStatus {
	now := m.now()
	return models.TimerStatus{
		FourHour: Status(models.WindowFourHour, t.FourHour, now, m.settings.FourHour.Limit),
		Weekly:   Status(models.WindowWeekly, t.Weekly, now, m.settings.Weekly.Limit),
	}
}
