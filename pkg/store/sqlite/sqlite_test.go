package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pario-ai/chatmeter/pkg/store"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestPutGetDelete(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	var batch store.Batch
	batch.Put("settings", []byte(`{"a":1}`))
	if err := b.Apply(ctx, &batch); err != nil {
		t.Fatal(err)
	}
	got, err := b.Get(ctx, "settings")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("expected stored value, got %s", got)
	}

	batch = store.Batch{}
	batch.Put("settings", []byte(`{"a":2}`))
	if err := b.Apply(ctx, &batch); err != nil {
		t.Fatal(err)
	}
	got, _ = b.Get(ctx, "settings")
	if string(got) != `{"a":2}` {
		t.Errorf("expected overwritten value, got %s", got)
	}

	batch = store.Batch{}
	batch.Delete("settings")
	if err := b.Apply(ctx, &batch); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get(ctx, "settings"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPrefix(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	var batch store.Batch
	batch.Put("chat/a", []byte("1"))
	batch.Put("chat/b", []byte("2"))
	batch.Put("chatter", []byte("3"))
	batch.Put("timers", []byte("4"))
	if err := b.Apply(ctx, &batch); err != nil {
		t.Fatal(err)
	}

	got, err := b.List(ctx, "chat/")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got["chat/a"]) != "1" || string(got["chat/b"]) != "2" {
		t.Errorf("unexpected list result %v", got)
	}

	all, err := b.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("expected 4 keys for empty prefix, got %d", len(all))
	}
}

func TestApplyClear(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	var batch store.Batch
	batch.Put("chat/a", []byte("1"))
	batch.Put("chat/b", []byte("2"))
	if err := b.Apply(ctx, &batch); err != nil {
		t.Fatal(err)
	}

	batch = store.Batch{Clear: true}
	batch.Put("chat/c", []byte("3"))
	if err := b.Apply(ctx, &batch); err != nil {
		t.Fatal(err)
	}
	got, _ := b.List(ctx, "")
	if len(got) != 1 || string(got["chat/c"]) != "3" {
		t.Errorf("expected only chat/c after clear, got %v", got)
	}
}

func TestApplyCanceledLeavesStateUntouched(t *testing.T) {
	b := newTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var batch store.Batch
	batch.Put("chat/a", []byte("1"))
	if err := b.Apply(ctx, &batch); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, err := b.Get(context.Background(), "chat/a"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected nothing written, got %v", err)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	b1, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	var batch store.Batch
	batch.Put("timers", []byte("{}"))
	if err := b1.Apply(context.Background(), &batch); err != nil {
		t.Fatal(err)
	}
	b1.Close()

	b2, err := New(path)
	if err != nil {
		t.Fatalf("second open should succeed: %v", err)
	}
	defer b2.Close()
	if _, err := b2.Get(context.Background(), "timers"); err != nil {
		t.Errorf("expected data to survive reopen, got %v", err)
	}
}
