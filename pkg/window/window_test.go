package window

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

var fourHours = Fixed{Duration: 4 * time.Hour}

func ref(chat string, n int) models.WindowRef {
	return models.WindowRef{ChatID: chat, RoundNumber: n}
}

func TestEnsureStarted(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow

	if !EnsureStarted(&w, now, fourHours) {
		t.Fatal("expected inactive window to start")
	}
	if !w.Active || !w.StartTime.Equal(now) || !w.EndTime.Equal(now.Add(4*time.Hour)) {
		t.Errorf("unexpected window %+v", w)
	}
	if EnsureStarted(&w, now.Add(time.Hour), fourHours) {
		t.Error("expected running window to be left alone")
	}
	if !w.StartTime.Equal(now) {
		t.Error("start time changed on a running window")
	}
}

func TestAddTokensAccumulates(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow

	AddTokens(&w, now, fourHours, 100, ref("c1", 1))
	AddTokens(&w, now.Add(time.Hour), fourHours, 250, ref("c1", 2))

	if w.Tokens != 350 {
		t.Errorf("expected 350 tokens, got %d", w.Tokens)
	}
	if len(w.Rounds) != 2 || w.Rounds[1].Tokens != 250 || w.Rounds[1].RoundNumber != 2 {
		t.Errorf("unexpected round log %+v", w.Rounds)
	}
}

func TestAddTokensResetsExpiredWindow(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow
	AddTokens(&w, start, fourHours, 40000, ref("c1", 1))

	later := start.Add(5 * time.Hour)
	if !AddTokens(&w, later, fourHours, 700, ref("c1", 2)) {
		t.Error("expected expired window to be reopened")
	}
	if w.Tokens != 700 {
		t.Errorf("expected only the new 700 tokens, got %d", w.Tokens)
	}
	if len(w.Rounds) != 1 {
		t.Errorf("expected round log to be cleared, got %d refs", len(w.Rounds))
	}
	if !w.StartTime.Equal(later) || later.After(w.EndTime) {
		t.Errorf("window %s..%s does not cover %s", w.StartTime, w.EndTime, later)
	}
}

func TestAddTokensAtExactEndStillCounts(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow
	AddTokens(&w, start, fourHours, 10, ref("c1", 1))
	AddTokens(&w, start.Add(4*time.Hour), fourHours, 5, ref("c1", 2))
	if w.Tokens != 15 {
		t.Errorf("expected end instant to be inside the window, got %d tokens", w.Tokens)
	}
}

func TestAddTokensInvariant(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow
	for i := 0; i < 200; i++ {
		now := start.Add(time.Duration(i) * 47 * time.Minute)
		AddTokens(&w, now, fourHours, int64(i*13)-50, ref("c", i+1))
		if w.Tokens < 0 {
			t.Fatalf("negative tokens %d after step %d", w.Tokens, i)
		}
		if now.After(w.EndTime) {
			t.Fatalf("now %s after end %s at step %d", now, w.EndTime, i)
		}
	}
}

func TestReset(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow
	AddTokens(&w, start, fourHours, 900, ref("c1", 1))

	Reset(&w, start.Add(time.Hour), fourHours)
	if w.Tokens != 0 || len(w.Rounds) != 0 {
		t.Errorf("expected cleared window, got %+v", w)
	}
	if !w.StartTime.Equal(start.Add(time.Hour)) {
		t.Errorf("expected restart at reset time, got %s", w.StartTime)
	}
}

func TestCheckThreshold(t *testing.T) {
	cases := []struct {
		tokens int64
		want   models.Threshold
	}{
		{0, models.Threshold{}},
		{44999, models.Threshold{}},
		{45000, models.Threshold{Warn: true}},
		{46000, models.Threshold{Warn: true}},
		{49999, models.Threshold{Warn: true}},
		{50000, models.Threshold{Exceeded: true}},
		{51000, models.Threshold{Exceeded: true}},
	}
	for _, tc := range cases {
		got := CheckThreshold(models.UsageWindow{Tokens: tc.tokens}, 50000, 0.9)
		if got != tc.want {
			t.Errorf("tokens=%d: expected %+v, got %+v", tc.tokens, tc.want, got)
		}
	}
	if got := CheckThreshold(models.UsageWindow{Tokens: 10}, 0, 0.9); got != (models.Threshold{}) {
		t.Errorf("expected no threshold for zero limit, got %+v", got)
	}
}

func TestStatusDoesNotMutate(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow
	AddTokens(&w, start, fourHours, 1000, ref("c1", 1))
	before := w.Clone()

	st := Status(models.WindowFourHour, w, start.Add(time.Hour), 4000)
	if !st.Active || st.Tokens != 1000 || st.Percentage != 0.25 || st.TimeRemaining != 3*time.Hour {
		t.Errorf("unexpected status %+v", st)
	}
	if st.TimeRemainingMs != 3*60*60*1000 {
		t.Errorf("expected 10800000 ms remaining, got %d", st.TimeRemainingMs)
	}

	st = Status(models.WindowFourHour, w, start.Add(5*time.Hour), 4000)
	if st.Active || !st.Expired || st.Tokens != 0 || st.TimeRemaining != 0 {
		t.Errorf("expected expired status, got %+v", st)
	}

	if w.Tokens != before.Tokens || !w.StartTime.Equal(before.StartTime) || len(w.Rounds) != len(before.Rounds) {
		t.Error("Status modified the window")
	}
}

func TestStatusInactive(t *testing.T) {
	st := Status(models.WindowWeekly, models.UsageWindow{}, time.Now(), 100)
	if st.Active || st.Expired || st.Tokens != 0 || st.Limit != 100 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestStatusJSONUsesMilliseconds(t *testing.T) {
	start := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	var w models.UsageWindow
	AddTokens(&w, start, fourHours, 1000, ref("c1", 1))

	data, err := json.Marshal(Status(models.WindowFourHour, w, start.Add(90*time.Minute), 4000))
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if ms, ok := got["time_remaining_ms"].(float64); !ok || ms != 9000000 {
		t.Errorf("expected time_remaining_ms 9000000, got %v", got["time_remaining_ms"])
	}
	if _, ok := got["time_remaining"]; ok {
		t.Error("nanosecond duration should not be encoded")
	}
}
