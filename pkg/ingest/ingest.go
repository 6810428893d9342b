// Package ingest decodes round events sent by the collector.
//
// Collector payloads are produced by scraping a live page, so any numeric
// field may be missing, null, a string, or negative. Decoding never fails on
// such fields: they become zero. Only malformed JSON is rejected.
package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// ErrMalformed is returned when a payload is not a JSON object.
var ErrMalformed = errors.New("malformed round payload")

// ParseRoundInput decodes a RoundInput. Both the collector's camelCase keys
// and snake_case keys are accepted.
func ParseRoundInput(data []byte) (models.RoundInput, error) {
	if !gjson.ValidBytes(data) {
		return models.RoundInput{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return models.RoundInput{}, fmt.Errorf("%w: expected object, got %s", ErrMalformed, res.Type)
	}
	return FromResult(res), nil
}

// FromResult decodes a RoundInput from an already parsed object.
func FromResult(res gjson.Result) models.RoundInput {
	in := models.RoundInput{
		ChatID:    str(res, "chatId", "chat_id"),
		ChatURL:   str(res, "chatUrl", "chat_url"),
		ChatTitle: str(res, "chatTitle", "chat_title"),
		ChatType:  chatType(str(res, "chatType", "chat_type")),
	}
	in.Round = roundData(first(res, "round"))
	return in
}

func roundData(r gjson.Result) models.RoundData {
	return models.RoundData{
		RoundNumber:    int(count(r, "roundNumber", "round_number")),
		Timestamp:      timestamp(first(r, "timestamp")),
		Model:          strings.TrimSpace(str(r, "model")),
		HasThinking:    first(r, "hasThinking", "has_thinking").Bool(),
		UserChars:      count(r, "user.chars", "userMessage.chars", "user_message.chars", "user_chars"),
		DocumentChars:  count(r, "documents.chars", "userDocuments.chars", "user_documents.chars", "document_chars"),
		DocumentCount:  int(count(r, "documents.count", "userDocuments.count", "user_documents.count", "document_count")),
		ThinkingChars:  count(r, "thinking.chars", "thinking_chars"),
		AssistantChars: count(r, "assistant.chars", "assistant_chars"),
		ToolChars:      count(r, "toolContent.chars", "tool_content.chars", "tool_chars"),
	}
}

// first returns the first of paths present in r.
func first(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() && v.Type != gjson.Null {
			return v
		}
	}
	return gjson.Result{}
}

func str(r gjson.Result, paths ...string) string {
	v := first(r, paths...)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}

// count reads a non-negative integer. Garbage reads as zero.
func count(r gjson.Result, paths ...string) int64 {
	v := first(r, paths...)
	switch v.Type {
	case gjson.Number, gjson.String:
		return max(v.Int(), 0)
	}
	return 0
}

// timestamp accepts RFC 3339 strings and epoch milliseconds. Anything else
// yields the zero time, which the meter replaces with the completion time.
func timestamp(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.String:
		if ts, err := time.Parse(time.RFC3339Nano, v.String()); err == nil {
			return ts
		}
	case gjson.Number:
		if ms := v.Int(); ms > 0 {
			return time.UnixMilli(ms).UTC()
		}
	}
	return time.Time{}
}

func chatType(s string) models.ChatType {
	switch t := models.ChatType(strings.ToLower(s)); t {
	case models.ChatTypeProject, models.ChatTypeChat, models.ChatTypeUnknown:
		return t
	}
	return ""
}
