package models

import (
	"fmt"
	"time"
)

// ChatType classifies a conversation by where it lives in the chat app.
type ChatType string

const (
	ChatTypeProject ChatType = "project"
	ChatTypeChat    ChatType = "chat"
	ChatTypeUnknown ChatType = "unknown"
)

// ModelUsage aggregates rounds attributed to one model.
type ModelUsage struct {
	Rounds             int   `json:"rounds"`
	Tokens             int64 `json:"tokens"`
	RoundsWithThinking int   `json:"rounds_with_thinking"`
}

// ChatStats is derived from a chat's round log and can always be rebuilt
// from it.
type ChatStats struct {
	TotalRounds    int                   `json:"total_rounds"`
	User           Usage                 `json:"user"`
	Documents      DocumentUsage         `json:"documents"`
	Thinking       Usage                 `json:"thinking"`
	Assistant      Usage                 `json:"assistant"`
	ToolContent    Usage                 `json:"tool_content"`
	Total          Usage                 `json:"total"`
	ModelBreakdown map[string]ModelUsage `json:"model_breakdown"`
}

// Chat is a conversation thread owning an append-only round log.
type Chat struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Type       ChatType  `json:"type"`
	Created    time.Time `json:"created"`
	LastActive time.Time `json:"last_active"`
	Rounds     []Round   `json:"rounds"`
	Stats      ChatStats `json:"stats"`
}

// LastRound returns the most recent round, or nil for an empty chat.
func (c *Chat) LastRound() *Round {
	if c == nil || len(c.Rounds) == 0 {
		return nil
	}
	r := c.Rounds[len(c.Rounds)-1]
	return &r
}

// HasRound reports whether a round with the given number was recorded.
func (c *Chat) HasRound(number int) bool {
	for _, r := range c.Rounds {
		if r.RoundNumber == number {
			return true
		}
	}
	return false
}

// Clone returns a copy of c that shares no mutable state with it.
func (c *Chat) Clone() *Chat {
	if c == nil {
		return nil
	}
	out := *c
	out.Rounds = append([]Round(nil), c.Rounds...)
	if c.Stats.ModelBreakdown != nil {
		out.Stats.ModelBreakdown = make(map[string]ModelUsage, len(c.Stats.ModelBreakdown))
		for k, v := range c.Stats.ModelBreakdown {
			out.Stats.ModelBreakdown[k] = v
		}
	}
	return &out
}

// GlobalStats sums chat statistics across a set of chats.
type GlobalStats struct {
	TotalChats     int                   `json:"total_chats"`
	ChatsByType    map[ChatType]int      `json:"chats_by_type"`
	TotalRounds    int                   `json:"total_rounds"`
	User           Usage                 `json:"user"`
	Documents      DocumentUsage         `json:"documents"`
	Thinking       Usage                 `json:"thinking"`
	Assistant      Usage                 `json:"assistant"`
	ToolContent    Usage                 `json:"tool_content"`
	Total          Usage                 `json:"total"`
	ModelBreakdown map[string]ModelUsage `json:"model_breakdown"`
}

// Range selects chats by recency of their last activity.
type Range string

const (
	RangeFourHours Range = "4h"
	RangeToday     Range = "today"
	RangeWeek      Range = "week"
	RangeAll       Range = "all"
)

// ParseRange converts a user-supplied range name. Empty means all.
func ParseRange(s string) (Range, error) {
	switch Range(s) {
	case "", RangeAll:
		return RangeAll, nil
	case RangeFourHours, RangeToday, RangeWeek:
		return Range(s), nil
	}
	return "", fmt.Errorf("%w: %q (want 4h, today, week or all)", ErrInvalidRange, s)
}
