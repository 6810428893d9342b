package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pario-ai/chatmeter/pkg/models"
)

func TestParseRoundInputCamelCase(t *testing.T) {
	payload := `{
		"chatId": "abc",
		"chatUrl": "https://claude.ai/chat/abc",
		"chatTitle": "Planning",
		"chatType": "chat",
		"round": {
			"timestamp": "2026-10-14T10:00:00Z",
			"model": "claude-3",
			"hasThinking": true,
			"user": {"chars": 100},
			"documents": {"chars": 2000, "count": 2},
			"thinking": {"chars": 250},
			"assistant": {"chars": 50},
			"toolContent": {"chars": 12}
		}
	}`
	got, err := ParseRoundInput([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	want := models.RoundInput{
		ChatID:    "abc",
		ChatURL:   "https://claude.ai/chat/abc",
		ChatTitle: "Planning",
		ChatType:  models.ChatTypeChat,
		Round: models.RoundData{
			Timestamp:      time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC),
			Model:          "claude-3",
			HasThinking:    true,
			UserChars:      100,
			DocumentChars:  2000,
			DocumentCount:  2,
			ThinkingChars:  250,
			AssistantChars: 50,
			ToolChars:      12,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRoundInput mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundInputSnakeCase(t *testing.T) {
	payload := `{"chat_id":"p1","chat_type":"project","round":{"round_number":3,"has_thinking":false,"user_chars":10,"tool_content":{"chars":4},"timestamp":1791972000000}}`
	got, err := ParseRoundInput([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	want := models.RoundInput{
		ChatID:   "p1",
		ChatType: models.ChatTypeProject,
		Round: models.RoundData{
			RoundNumber: 3,
			Timestamp:   time.UnixMilli(1791972000000).UTC(),
			UserChars:   10,
			ToolChars:   4,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRoundInput mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundInputToleratesGarbage(t *testing.T) {
	payload := `{"chatId":"x","chatType":"folder","round":{"user":{"chars":-5},"assistant":{"chars":"oops"},"thinking":null,"documents":{"chars":"42"},"timestamp":"yesterday"}}`
	got, err := ParseRoundInput([]byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	want := models.RoundInput{
		ChatID: "x",
		Round:  models.RoundData{DocumentChars: 42},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRoundInput mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRoundInputMissingRound(t *testing.T) {
	got, err := ParseRoundInput([]byte(`{"chatId":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(models.RoundData{}, got.Round); diff != "" {
		t.Errorf("expected empty round (-want +got):\n%s", diff)
	}
}

func TestParseRoundInputMalformed(t *testing.T) {
	for _, payload := range []string{`{"chatId":`, `[1,2]`, `"round"`, ``} {
		if _, err := ParseRoundInput([]byte(payload)); !errors.Is(err, ErrMalformed) {
			t.Errorf("ParseRoundInput(%q): expected ErrMalformed, got %v", payload, err)
		}
	}
}
