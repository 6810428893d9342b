package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CategoryRatios overrides the central ratio per category. A nil entry
// inherits the central ratio.
type CategoryRatios struct {
	UserMessage   *float64 `json:"user_message" yaml:"user_message"`
	UserDocuments *float64 `json:"user_documents" yaml:"user_documents"`
	Thinking      *float64 `json:"thinking" yaml:"thinking"`
	Assistant     *float64 `json:"assistant" yaml:"assistant"`
	ToolContent   *float64 `json:"tool_content" yaml:"tool_content"`
}

// Get returns the override for c, or nil when c inherits.
func (r CategoryRatios) Get(c Category) *float64 {
	switch c {
	case CategoryUserMessage:
		return r.UserMessage
	case CategoryUserDocuments:
		return r.UserDocuments
	case CategoryThinking:
		return r.Thinking
	case CategoryAssistant:
		return r.Assistant
	case CategoryToolContent:
		return r.ToolContent
	}
	return nil
}

// Set replaces the override for c. A nil value restores inheritance.
func (r *CategoryRatios) Set(c Category, v *float64) {
	switch c {
	case CategoryUserMessage:
		r.UserMessage = v
	case CategoryUserDocuments:
		r.UserDocuments = v
	case CategoryThinking:
		r.Thinking = v
	case CategoryAssistant:
		r.Assistant = v
	case CategoryToolContent:
		r.ToolContent = v
	}
}

// WindowSettings holds the estimated limit and warning threshold of a window.
type WindowSettings struct {
	Limit     int64   `json:"limit" yaml:"limit"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

// WeeklyReset is the weekday and time of day the weekly window rolls over.
type WeeklyReset struct {
	Day      string `json:"day" yaml:"day"`
	Time     string `json:"time" yaml:"time"`
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Settings is the process-wide estimation and window configuration.
type Settings struct {
	TrackingEnabled      bool           `json:"tracking_enabled" yaml:"tracking_enabled"`
	NotificationsEnabled bool           `json:"notifications_enabled" yaml:"notifications_enabled"`
	CentralRatio         float64        `json:"central_ratio" yaml:"central_ratio"`
	Ratios               CategoryRatios `json:"ratios" yaml:"ratios"`
	FourHour             WindowSettings `json:"four_hour" yaml:"four_hour"`
	Weekly               WindowSettings `json:"weekly" yaml:"weekly"`
	WeeklyReset          WeeklyReset    `json:"weekly_reset" yaml:"weekly_reset"`
}

// DefaultSettings returns the settings used before any are stored.
func DefaultSettings() Settings {
	return Settings{
		TrackingEnabled:      true,
		NotificationsEnabled: true,
		CentralRatio:         2.6,
		FourHour:             WindowSettings{Limit: 50000, Threshold: 0.9},
		Weekly:               WindowSettings{Limit: 1000000, Threshold: 0.9},
		WeeklyReset:          WeeklyReset{Day: "monday", Time: "00:00", Timezone: "UTC"},
	}
}

// Clone returns a copy of s that shares no ratio overrides with it.
func (s Settings) Clone() Settings {
	for _, c := range Categories {
		if v := s.Ratios.Get(c); v != nil {
			cp := *v
			s.Ratios.Set(c, &cp)
		}
	}
	return s
}

// Ratio returns the effective chars-per-token ratio for c.
func (s Settings) Ratio(c Category) float64 {
	if v := s.Ratios.Get(c); v != nil {
		return *v
	}
	return s.CentralRatio
}

// Window returns the limit settings of the given window.
func (s Settings) Window(kind WindowKind) WindowSettings {
	if kind == WindowWeekly {
		return s.Weekly
	}
	return s.FourHour
}

// MaxRatio bounds chars-per-token ratios so a positive char count always
// estimates at least one token.
const MaxRatio = 1e6

// ValidRatio reports whether v is usable as a chars-per-token ratio.
func ValidRatio(v float64) bool {
	return !math.IsNaN(v) && v > 0 && v <= MaxRatio
}

// Validate reports the first configuration error in s.
func (s Settings) Validate() error {
	if !ValidRatio(s.CentralRatio) {
		return fmt.Errorf("%w: central ratio must be a finite number in (0, %g], got %v", ErrInvalidSettings, MaxRatio, s.CentralRatio)
	}
	for _, c := range Categories {
		if v := s.Ratios.Get(c); v != nil && !ValidRatio(*v) {
			return fmt.Errorf("%w: %s ratio must be a finite number in (0, %g], got %v", ErrInvalidSettings, c, MaxRatio, *v)
		}
	}
	for _, kind := range []WindowKind{WindowFourHour, WindowWeekly} {
		w := s.Window(kind)
		if w.Limit <= 0 {
			return fmt.Errorf("%w: %s limit must be > 0, got %d", ErrInvalidSettings, kind, w.Limit)
		}
		if math.IsNaN(w.Threshold) || w.Threshold <= 0 || w.Threshold > 1 {
			return fmt.Errorf("%w: %s threshold must be in (0, 1], got %v", ErrInvalidSettings, kind, w.Threshold)
		}
	}
	if _, err := s.WeeklyReset.Parse(); err != nil {
		return err
	}
	return nil
}

// ResetSchedule is a parsed WeeklyReset.
type ResetSchedule struct {
	Day      time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// Parse validates the weekly reset and resolves its timezone.
func (w WeeklyReset) Parse() (ResetSchedule, error) {
	day, err := ParseWeekday(w.Day)
	if err != nil {
		return ResetSchedule{}, err
	}
	hour, minute, err := ParseClock(w.Time)
	if err != nil {
		return ResetSchedule{}, err
	}
	loc := time.UTC
	if w.Timezone != "" {
		loc, err = time.LoadLocation(w.Timezone)
		if err != nil {
			return ResetSchedule{}, fmt.Errorf("%w: weekly reset timezone %q: %v", ErrInvalidSettings, w.Timezone, err)
		}
	}
	return ResetSchedule{Day: day, Hour: hour, Minute: minute, Location: loc}, nil
}

var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseWeekday accepts an English weekday name or its three-letter prefix,
// in any case.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) >= 3 {
		for _, d := range weekdays {
			full := strings.ToLower(d.String())
			if name == full || name == full[:3] {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", ErrInvalidSettings, s)
}

// ParseClock parses a 24-hour HH:MM time of day.
func ParseClock(s string) (hour, minute int, err error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if ok && len(hh) >= 1 && len(hh) <= 2 && len(mm) == 2 {
		h, errH := strconv.Atoi(hh)
		m, errM := strconv.Atoi(mm)
		if errH == nil && errM == nil && h >= 0 && h < 24 && m >= 0 && m < 60 {
			return h, m, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: time of day %q is not HH:MM", ErrInvalidSettings, s)
}
