// Package notify delivers usage window warnings to the user.
package notify

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// Notifier delivers a warning.
type Notifier interface {
	Notify(ctx context.Context, w models.Warning) error
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, w models.Warning) error

// Notify calls f.
func (f Func) Notify(ctx context.Context, w models.Warning) error {
	return f(ctx, w)
}

// Nop discards warnings.
type Nop struct{}

// Notify does nothing.
func (Nop) Notify(context.Context, models.Warning) error { return nil }

// Desktop shows warnings as desktop notifications.
type Desktop struct {
	send func(title, message string) error
}

// NewDesktop returns a Desktop notifier backed by the OS notification service.
func NewDesktop() *Desktop {
	return &Desktop{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
}

// Notify shows w.
func (d *Desktop) Notify(_ context.Context, w models.Warning) error {
	title, body := Message(w)
	if err := d.send(title, body); err != nil {
		return fmt.Errorf("desktop notification: %w", err)
	}
	return nil
}

// Log writes warnings to a structured logger.
type Log struct {
	logger *zap.Logger
}

// NewLog returns a Log notifier.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Notify logs w.
func (l *Log) Notify(_ context.Context, w models.Warning) error {
	l.logger.Warn("usage window warning",
		zap.String("window", string(w.Window)),
		zap.String("level", string(w.Level)),
		zap.Int64("tokens", w.Tokens),
		zap.Int64("limit", w.Limit),
		zap.Float64("percentage", w.Percentage),
		zap.Time("window_end", w.WindowEnd),
	)
	return nil
}

// Multi fans a warning out to every notifier. All are tried even if some fail.
type Multi []Notifier

// Notify delivers w to each notifier and joins their errors.
func (m Multi) Notify(ctx context.Context, w models.Warning) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Message renders the title and body of a warning.
func Message(w models.Warning) (title, body string) {
	name := "4-hour"
	if w.Window == models.WindowWeekly {
		name = "Weekly"
	}
	pct := int(math.Floor(w.Percentage * 100))
	switch w.Level {
	case models.LevelExceeded:
		title = fmt.Sprintf("%s usage limit reached", name)
	default:
		title = fmt.Sprintf("%s usage at %d%%", name, pct)
	}
	body = fmt.Sprintf("%s of %s estimated tokens used (%d%%).",
		humanize.Comma(w.Tokens), humanize.Comma(w.Limit), pct)
	if !w.WindowEnd.IsZero() {
		body += fmt.Sprintf(" Window resets %s.", w.WindowEnd.Local().Format("Mon 15:04"))
	}
	return title, body
}
