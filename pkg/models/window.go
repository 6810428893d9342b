package models

import (
	"fmt"
	"time"
)

// FourHourDuration is the fixed length of the short usage window.
const FourHourDuration = 4 * time.Hour

// WindowKind identifies one of the two usage windows.
type WindowKind string

const (
	WindowFourHour WindowKind = "four_hour"
	WindowWeekly   WindowKind = "weekly"
)

// ParseWindowKind converts a user-supplied window name.
func ParseWindowKind(s string) (WindowKind, error) {
	switch WindowKind(s) {
	case WindowFourHour, WindowWeekly:
		return WindowKind(s), nil
	case "4h", "fourHour":
		return WindowFourHour, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
}

// WindowRef points back at a round counted in a window. Windows never
// own round data.
type WindowRef struct {
	ChatID      string    `json:"chat_id"`
	RoundNumber int       `json:"round_number"`
	Tokens      int64     `json:"tokens"`
	Timestamp   time.Time `json:"timestamp"`
}

// UsageWindow accumulates tokens between StartTime and EndTime. A zero
// StartTime means the window is inactive.
type UsageWindow struct {
	Active    bool        `json:"active"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	Tokens    int64       `json:"tokens"`
	Rounds    []WindowRef `json:"rounds"`
}

// Clone returns a copy of w with its own round log.
func (w UsageWindow) Clone() UsageWindow {
	w.Rounds = append([]WindowRef(nil), w.Rounds...)
	return w
}

// Timers holds the state of both usage windows.
type Timers struct {
	FourHour UsageWindow `json:"four_hour"`
	Weekly   UsageWindow `json:"weekly"`
}

// Clone returns a deep copy of t.
func (t Timers) Clone() Timers {
	return Timers{FourHour: t.FourHour.Clone(), Weekly: t.Weekly.Clone()}
}

// Window returns a pointer to the window of the given kind.
func (t *Timers) Window(kind WindowKind) (*UsageWindow, error) {
	switch kind {
	case WindowFourHour:
		return &t.FourHour, nil
	case WindowWeekly:
		return &t.Weekly, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownWindow, kind)
}

// WindowStatus is a read-only snapshot of a window for display. The
// remaining time goes over the wire in milliseconds.
type WindowStatus struct {
	Kind            WindowKind    `json:"kind"`
	Active          bool          `json:"active"`
	Expired         bool          `json:"expired"`
	Tokens          int64         `json:"tokens"`
	Limit           int64         `json:"limit"`
	Percentage      float64       `json:"percentage"`
	TimeRemaining   time.Duration `json:"-"`
	TimeRemainingMs int64         `json:"time_remaining_ms"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	Rounds          int           `json:"rounds"`
}

// TimerStatus is the status of both windows.
type TimerStatus struct {
	FourHour WindowStatus `json:"four_hour"`
	Weekly   WindowStatus `json:"weekly"`
}

// Threshold is the result of comparing a window's usage to its limit.
// Exceeded supersedes Warn; both are never set together.
type Threshold struct {
	Warn     bool `json:"warn"`
	Exceeded bool `json:"exceeded"`
}

// WarningLevel is the severity of a usage warning.
type WarningLevel string

const (
	LevelWarning  WarningLevel = "warning"
	LevelExceeded WarningLevel = "exceeded"
)

// Warning is emitted when a window crosses its warning threshold or limit.
type Warning struct {
	Window      WindowKind   `json:"window"`
	Level       WarningLevel `json:"level"`
	Tokens      int64        `json:"tokens"`
	Limit       int64        `json:"limit"`
	Percentage  float64      `json:"percentage"`
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
}
