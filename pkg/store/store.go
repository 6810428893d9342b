package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// Record keys.
const (
	KeySettings = "settings"
	KeyTimers   = "timers"
	ChatPrefix  = "chat/"
)

// ChatKey returns the key of the chat with the given id.
func ChatKey(id string) string {
	return ChatPrefix + id
}

// Store reads and writes typed records on a Backend.
type Store struct {
	backend Backend
}

// New wraps a backend.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// LoadSettings returns the stored settings. found is false when none have
// been saved yet.
func (s *Store) LoadSettings(ctx context.Context) (settings models.Settings, found bool, err error) {
	found, err = s.get(ctx, KeySettings, &settings)
	if err != nil {
		return models.Settings{}, false, fmt.Errorf("load settings: %w", err)
	}
	return settings, found, nil
}

// SaveSettings stores settings.
func (s *Store) SaveSettings(ctx context.Context, settings models.Settings) error {
	var b Batch
	if err := put(&b, KeySettings, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if err := s.backend.Apply(ctx, &b); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadTimers returns the stored windows. Missing timers load as inactive.
func (s *Store) LoadTimers(ctx context.Context) (models.Timers, error) {
	var t models.Timers
	if _, err := s.get(ctx, KeyTimers, &t); err != nil {
		return models.Timers{}, fmt.Errorf("load timers: %w", err)
	}
	return t, nil
}

// SaveTimers stores both windows.
func (s *Store) SaveTimers(ctx context.Context, t models.Timers) error {
	var b Batch
	if err := put(&b, KeyTimers, t); err != nil {
		return fmt.Errorf("save timers: %w", err)
	}
	if err := s.backend.Apply(ctx, &b); err != nil {
		return fmt.Errorf("save timers: %w", err)
	}
	return nil
}

// LoadChats returns every stored chat keyed by id.
func (s *Store) LoadChats(ctx context.Context) (map[string]*models.Chat, error) {
	raw, err := s.backend.List(ctx, ChatPrefix)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	chats := make(map[string]*models.Chat, len(raw))
	for key, data := range raw {
		var c models.Chat
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		if c.ID == "" {
			c.ID = strings.TrimPrefix(key, ChatPrefix)
		}
		chats[c.ID] = &c
	}
	return chats, nil
}

// SaveRound stores a chat and the windows it was counted in as one write.
func (s *Store) SaveRound(ctx context.Context, chat *models.Chat, t models.Timers) error {
	var b Batch
	if err := put(&b, ChatKey(chat.ID), chat); err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	if err := put(&b, KeyTimers, t); err != nil {
		return fmt.Errorf("save round: %w", err)
	}
	if err := s.backend.Apply(ctx, &b); err != nil {
		return fmt.Errorf("save round for chat %s: %w", chat.ID, err)
	}
	return nil
}

// DeleteChat removes a chat record.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	var b Batch
	b.Delete(ChatKey(id))
	if err := s.backend.Apply(ctx, &b); err != nil {
		return fmt.Errorf("delete chat %s: %w", id, err)
	}
	return nil
}

// Load reads the complete state.
func (s *Store) Load(ctx context.Context) (models.State, error) {
	settings, found, err := s.LoadSettings(ctx)
	if err != nil {
		return models.State{}, err
	}
	if !found {
		settings = models.DefaultSettings()
	}
	chats, err := s.LoadChats(ctx)
	if err != nil {
		return models.State{}, err
	}
	t, err := s.LoadTimers(ctx)
	if err != nil {
		return models.State{}, err
	}
	return models.State{Version: models.StateVersion, Settings: settings, Chats: chats, Timers: t}, nil
}

// Replace discards everything stored and writes st in its place.
func (s *Store) Replace(ctx context.Context, st models.State) error {
	b := Batch{Clear: true}
	if err := put(&b, KeySettings, st.Settings); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	if err := put(&b, KeyTimers, st.Timers); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	for id, c := range st.Chats {
		if err := put(&b, ChatKey(id), c); err != nil {
			return fmt.Errorf("replace state: %w", err)
		}
	}
	if err := s.backend.Apply(ctx, &b); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func put(b *Batch, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	b.Put(key, data)
	return nil
}
