package models

import (
	"errors"
	"testing"
)

func TestParseRange(t *testing.T) {
	tests := map[string]Range{
		"":      RangeAll,
		"all":   RangeAll,
		"4h":    RangeFourHours,
		"today": RangeToday,
		"week":  RangeWeek,
	}
	for in, want := range tests {
		got, err := ParseRange(in)
		if err != nil || got != want {
			t.Errorf("ParseRange(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseRange("month"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("expected ErrInvalidRange, got %v", err)
	}
}

func TestParseWindowKind(t *testing.T) {
	for in, want := range map[string]WindowKind{
		"four_hour": WindowFourHour,
		"4h":        WindowFourHour,
		"fourHour":  WindowFourHour,
		"weekly":    WindowWeekly,
	} {
		got, err := ParseWindowKind(in)
		if err != nil || got != want {
			t.Errorf("ParseWindowKind(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseWindowKind("daily"); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("expected ErrUnknownWindow, got %v", err)
	}
}

func TestChatClone(t *testing.T) {
	c := &Chat{
		ID:     "abc",
		Rounds: []Round{{RoundNumber: 1}},
		Stats:  ChatStats{ModelBreakdown: map[string]ModelUsage{"m": {Rounds: 1}}},
	}
	cp := c.Clone()
	cp.Rounds = append(cp.Rounds, Round{RoundNumber: 2})
	cp.Rounds[0].Model = "changed"
	cp.Stats.ModelBreakdown["m"] = ModelUsage{Rounds: 9}

	if len(c.Rounds) != 1 || c.Rounds[0].Model != "" {
		t.Errorf("clone shares rounds with original: %+v", c.Rounds)
	}
	if c.Stats.ModelBreakdown["m"].Rounds != 1 {
		t.Error("clone shares model breakdown with original")
	}
}

func TestChatRounds(t *testing.T) {
	var empty *Chat
	if empty.LastRound() != nil {
		t.Error("expected nil last round for nil chat")
	}
	c := &Chat{Rounds: []Round{{RoundNumber: 1}, {RoundNumber: 2}}}
	if c.LastRound().RoundNumber != 2 {
		t.Errorf("expected last round 2, got %d", c.LastRound().RoundNumber)
	}
	if !c.HasRound(1) || c.HasRound(3) {
		t.Error("HasRound reported wrong membership")
	}
}

func TestTimersWindow(t *testing.T) {
	var timers Timers
	w, err := timers.Window(WindowWeekly)
	if err != nil {
		t.Fatal(err)
	}
	w.Tokens = 7
	if timers.Weekly.Tokens != 7 {
		t.Error("Window should return a pointer into timers")
	}
	if _, err := timers.Window("x"); !errors.Is(err, ErrUnknownWindow) {
		t.Errorf("expected ErrUnknownWindow, got %v", err)
	}
}
