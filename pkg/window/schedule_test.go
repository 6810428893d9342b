package window

import (
	"testing"
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

func mondayMidnight() Weekly {
	return Weekly{Day: time.Monday, Hour: 0, Minute: 0, Location: time.UTC}
}

func TestWeekStartMidWeek(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC) // Wednesday
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)

	if got := mondayMidnight().WeekStart(now); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestWeekStartOnBoundary(t *testing.T) {
	now := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC) // Monday 00:00
	if got := mondayMidnight().WeekStart(now); !got.Equal(now) {
		t.Errorf("expected boundary to be inclusive, got %s", got)
	}
	want := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if got := mondayMidnight().Next(now); !got.Equal(want) {
		t.Errorf("expected next boundary %s, got %s", want, got)
	}
}

func TestWeekStartSunday(t *testing.T) {
	now := time.Date(2026, 10, 18, 23, 59, 0, 0, time.UTC) // Sunday
	want := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	if got := mondayMidnight().WeekStart(now); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestWeekStartSameDayBeforeTime(t *testing.T) {
	w := Weekly{Day: time.Wednesday, Hour: 18, Minute: 30, Location: time.UTC}
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC) // Wednesday, before 18:30

	wantStart := time.Date(2026, 10, 7, 18, 30, 0, 0, time.UTC)
	if got := w.WeekStart(now); !got.Equal(wantStart) {
		t.Errorf("expected previous week %s, got %s", wantStart, got)
	}
	wantNext := time.Date(2026, 10, 14, 18, 30, 0, 0, time.UTC)
	if got := w.Next(now); !got.Equal(wantNext) {
		t.Errorf("expected later today %s, got %s", wantNext, got)
	}
}

func TestWeeklyNextAlwaysAfterNow(t *testing.T) {
	w := Weekly{Day: time.Friday, Hour: 9, Minute: 15, Location: time.UTC}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*14; i++ {
		now := start.Add(time.Duration(i) * 37 * time.Minute)
		next := w.Next(now)
		if !next.After(now) {
			t.Fatalf("next %s not after now %s", next, now)
		}
		if next.Sub(now) > 7*24*time.Hour {
			t.Fatalf("next %s more than a week after %s", next, now)
		}
		if next.Weekday() != time.Friday || next.Hour() != 9 || next.Minute() != 15 {
			t.Fatalf("next %s is not Friday 09:15", next)
		}
	}
}

func TestWeeklyTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	w := Weekly{Day: time.Monday, Hour: 0, Minute: 0, Location: loc}

	// Sunday 16:00 UTC is already Monday 01:00 at UTC+9.
	now := time.Date(2026, 10, 18, 16, 0, 0, 0, time.UTC)
	want := time.Date(2026, 10, 19, 0, 0, 0, 0, loc)
	if got := w.WeekStart(now); !got.Equal(want) {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestNewWeekly(t *testing.T) {
	w, err := NewWeekly(models.WeeklyReset{Day: "Thu", Time: "07:05", Timezone: "UTC"})
	if err != nil {
		t.Fatal(err)
	}
	if w.Day != time.Thursday || w.Hour != 7 || w.Minute != 5 {
		t.Errorf("unexpected schedule %+v", w)
	}

	if _, err := NewWeekly(models.WeeklyReset{Day: "someday", Time: "07:05"}); err == nil {
		t.Error("expected error for bad weekday")
	}
	if _, err := NewWeekly(models.WeeklyReset{Day: "monday", Time: "25:00"}); err == nil {
		t.Error("expected error for bad time")
	}
}

func TestFixedEnd(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	if got := (Fixed{Duration: 4 * time.Hour}).End(start); !got.Equal(start.Add(4 * time.Hour)) {
		t.Errorf("unexpected end %s", got)
	}
}
