package models

import "time"

// UnknownModel groups rounds whose model could not be detected.
const UnknownModel = "unknown"

// Usage is a character count and the tokens estimated from it.
type Usage struct {
	Chars  int64 `json:"chars"`
	Tokens int64 `json:"tokens"`
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{Chars: u.Chars + o.Chars, Tokens: u.Tokens + o.Tokens}
}

// DocumentUsage is Usage for attached files, plus how many were attached.
type DocumentUsage struct {
	Usage
	Count int `json:"count"`
}

// Round is one human/assistant exchange. Rounds are immutable once
// appended to a chat.
type Round struct {
	RoundNumber int           `json:"round_number"`
	Timestamp   time.Time     `json:"timestamp"`
	Model       string        `json:"model"`
	HasThinking bool          `json:"has_thinking"`
	User        Usage         `json:"user"`
	Documents   DocumentUsage `json:"documents"`
	Thinking    Usage         `json:"thinking"`
	Assistant   Usage         `json:"assistant"`
	ToolContent Usage         `json:"tool_content"`
	Total       Usage         `json:"total"`
}

// Category returns the usage recorded for c.
func (r Round) Category(c Category) Usage {
	switch c {
	case CategoryUserMessage:
		return r.User
	case CategoryUserDocuments:
		return r.Documents.Usage
	case CategoryThinking:
		return r.Thinking
	case CategoryAssistant:
		return r.Assistant
	case CategoryToolContent:
		return r.ToolContent
	}
	return Usage{}
}

// SetCategory replaces the usage recorded for c.
func (r *Round) SetCategory(c Category, u Usage) {
	switch c {
	case CategoryUserMessage:
		r.User = u
	case CategoryUserDocuments:
		r.Documents.Usage = u
	case CategoryThinking:
		r.Thinking = u
	case CategoryAssistant:
		r.Assistant = u
	case CategoryToolContent:
		r.ToolContent = u
	}
}

// RoundData is the raw, not yet estimated content of a round as reported
// by the collector.
type RoundData struct {
	// RoundNumber is optional. When set and already present in the chat the
	// round is treated as a retried duplicate.
	RoundNumber int `json:"round_number,omitempty"`

	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model"`
	HasThinking    bool      `json:"has_thinking"`
	UserChars      int64     `json:"user_chars"`
	DocumentChars  int64     `json:"document_chars"`
	DocumentCount  int       `json:"document_count"`
	ThinkingChars  int64     `json:"thinking_chars"`
	AssistantChars int64     `json:"assistant_chars"`
	ToolChars      int64     `json:"tool_chars"`
}

// Chars returns the raw character count reported for c.
func (d RoundData) Chars(c Category) int64 {
	switch c {
	case CategoryUserMessage:
		return d.UserChars
	case CategoryUserDocuments:
		return d.DocumentChars
	case CategoryThinking:
		return d.ThinkingChars
	case CategoryAssistant:
		return d.AssistantChars
	case CategoryToolContent:
		return d.ToolChars
	}
	return 0
}

// RoundInput is a completed round delivered by the collector together with
// the identity of the chat it belongs to.
type RoundInput struct {
	ChatID    string    `json:"chat_id"`
	ChatURL   string    `json:"chat_url"`
	ChatTitle string    `json:"chat_title"`
	ChatType  ChatType  `json:"chat_type"`
	Round     RoundData `json:"round"`
}
