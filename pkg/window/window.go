// Package window manages the rolling usage windows: their lifecycle,
// threshold checks and read-only status projections.
//
// A window moves INACTIVE -> ACTIVE -> EXPIRED -> ACTIVE. EXPIRED is never
// stored: an expired window is reset to a fresh ACTIVE window by the same
// call that detects it.
package window

import (
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// EnsureStarted opens w at now if it is inactive and reports whether it did.
func EnsureStarted(w *models.UsageWindow, now time.Time, s Schedule) bool {
	if w.Active && !w.StartTime.IsZero() {
		return false
	}
	open(w, now, s)
	return true
}

// Expired reports whether now is past the end of an active window.
func Expired(w models.UsageWindow, now time.Time) bool {
	return w.Active && !w.StartTime.IsZero() && now.After(w.EndTime)
}

// AddTokens counts tokens from ref in w, first opening the window if it is
// inactive or resetting it if it has expired. Tokens accumulated before an
// expiry are discarded. It reports whether the window was (re)opened.
func AddTokens(w *models.UsageWindow, now time.Time, s Schedule, tokens int64, ref models.WindowRef) bool {
	opened := EnsureStarted(w, now, s)
	if Expired(*w, now) {
		open(w, now, s)
		opened = true
	}
	ref.Tokens = max(tokens, 0)
	w.Rounds = append(w.Rounds, ref)
	w.Tokens += ref.Tokens
	return opened
}

// Reset reopens w at now regardless of its state.
func Reset(w *models.UsageWindow, now time.Time, s Schedule) {
	open(w, now, s)
}

func open(w *models.UsageWindow, now time.Time, s Schedule) {
	*w = models.UsageWindow{
		Active:    true,
		StartTime: now,
		EndTime:   s.End(now),
		Tokens:    0,
		Rounds:    []models.WindowRef{},
	}
}

// Fraction returns tokens as a fraction of limit. A non-positive limit
// yields 0.
func Fraction(tokens, limit int64) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(max(tokens, 0)) / float64(limit)
}

// CheckThreshold compares w's tokens with limit. Warn is set for
// threshold <= fraction < 1, Exceeded for fraction >= 1.
func CheckThreshold(w models.UsageWindow, limit int64, threshold float64) models.Threshold {
	if limit <= 0 {
		return models.Threshold{}
	}
	p := Fraction(w.Tokens, limit)
	switch {
	case p >= 1:
		return models.Threshold{Exceeded: true}
	case p >= threshold:
		return models.Threshold{Warn: true}
	}
	return models.Threshold{}
}

// Status projects w for display without modifying it. A window past its
// end reports as inactive and expired with no tokens.
func Status(kind models.WindowKind, w models.UsageWindow, now time.Time, limit int64) models.WindowStatus {
	st := models.WindowStatus{
		Kind:      kind,
		Limit:     limit,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
	}
	if !w.Active || w.StartTime.IsZero() {
		return st
	}
	if Expired(w, now) {
		st.Expired = true
		return st
	}
	st.Active = true
	st.Tokens = w.Tokens
	st.Rounds = len(w.Rounds)
	st.Percentage = Fraction(w.Tokens, limit)
	st.TimeRemaining = max(w.EndTime.Sub(now), 0)
	st.TimeRemainingMs = st.TimeRemaining.Milliseconds()
	return st
}
