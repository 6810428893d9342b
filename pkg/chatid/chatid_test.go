package chatid

import (
	"strings"
	"testing"

	"github.com/pario-ai/chatmeter/pkg/models"
)

func TestResolvePatterns(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		typ    models.ChatType
	}{
		{"https://claude.ai/chat/0b7d6c1e-1f9a-4be5-a3f1-2c9f0d2e8a11", "0b7d6c1e-1f9a-4be5-a3f1-2c9f0d2e8a11", models.ChatTypeChat},
		{"https://claude.ai/chat/abc123/", "abc123", models.ChatTypeChat},
		{"https://claude.ai/project/proj_42?tab=files", "proj_42", models.ChatTypeProject},
	}
	for _, tt := range tests {
		id, typ := Resolve(tt.url)
		if id != tt.wantID || typ != tt.typ {
			t.Errorf("Resolve(%q): expected %s/%s, got %s/%s", tt.url, tt.wantID, tt.typ, id, typ)
		}
	}
}

func TestResolveFallsBackToHash(t *testing.T) {
	id1, typ := Resolve("https://claude.ai/new")
	id2, _ := Resolve("https://claude.ai/new")
	id3, _ := Resolve("https://claude.ai/recents")

	if typ != models.ChatTypeUnknown {
		t.Errorf("expected unknown type, got %s", typ)
	}
	if !strings.HasPrefix(id1, HashPrefix) {
		t.Errorf("expected %q prefix, got %s", HashPrefix, id1)
	}
	if id1 != id2 {
		t.Error("same URL should produce the same id")
	}
	if id1 == id3 {
		t.Error("different URLs should produce different ids")
	}
	if len(id1) != len(HashPrefix)+16 {
		t.Errorf("expected 16 hex chars after prefix, got %s", id1)
	}
}

func TestIdentify(t *testing.T) {
	in := models.RoundInput{ChatURL: "https://claude.ai/chat/xyz"}
	Identify(&in)
	if in.ChatID != "xyz" || in.ChatType != models.ChatTypeChat {
		t.Errorf("unexpected identity %s/%s", in.ChatID, in.ChatType)
	}

	in = models.RoundInput{ChatID: "given", ChatURL: "https://claude.ai/chat/xyz"}
	Identify(&in)
	if in.ChatID != "given" || in.ChatType != models.ChatTypeUnknown {
		t.Errorf("expected collector id kept with unknown type, got %s/%s", in.ChatID, in.ChatType)
	}

	in = models.RoundInput{ChatID: "p1", ChatType: models.ChatTypeProject}
	Identify(&in)
	if in.ChatID != "p1" || in.ChatType != models.ChatTypeProject {
		t.Errorf("provided identity should be untouched, got %s/%s", in.ChatID, in.ChatType)
	}
}
