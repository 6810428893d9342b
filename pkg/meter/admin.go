package meter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/pario-ai/chatmeter/pkg/aggregator"
	"github.com/pario-ai/chatmeter/pkg/estimator"
	"github.com/pario-ai/chatmeter/pkg/models"
	"github.com/pario-ai/chatmeter/pkg/window"
)

// UpdateSettings validates and stores s. Invalid settings are rejected and
// the current settings stay in effect.
func (m *Meter) UpdateSettings(ctx context.Context, s models.Settings) (models.Settings, error) {
	s = s.Clone()
	if err := s.Validate(); err != nil {
		return models.Settings{}, err
	}
	windows, err := window.NewManager(s, m.now)
	if err != nil {
		return models.Settings{}, err
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.store.SaveSettings(ctx, s); err != nil {
		return models.Settings{}, err
	}
	m.mu.Lock()
	m.settings = s
	m.windows = windows
	m.mu.Unlock()
	m.logger.Info("settings updated",
		zap.Float64("central_ratio", s.CentralRatio),
		zap.Bool("tracking", s.TrackingEnabled),
		zap.Bool("notifications", s.NotificationsEnabled),
	)
	return s.Clone(), nil
}

// ResetTimer reopens the given window now.
func (m *Meter) ResetTimer(ctx context.Context, kind models.WindowKind) (models.TimerStatus, error) {
	return m.updateTimers(ctx, func(w *window.Manager, t *models.Timers) error {
		return w.Reset(t, kind)
	})
}

// SetWindowEnd pins the four-hour window to end at end.
func (m *Meter) SetWindowEnd(ctx context.Context, end time.Time) (models.TimerStatus, error) {
	return m.updateTimers(ctx, func(w *window.Manager, t *models.Timers) error {
		return w.SetEnd(t, end)
	})
}

func (m *Meter) updateTimers(ctx context.Context, fn func(*window.Manager, *models.Timers) error) (models.TimerStatus, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	windows := m.windows
	timers := m.timers.Clone()
	m.mu.RUnlock()

	if err := fn(windows, &timers); err != nil {
		return models.TimerStatus{}, err
	}
	if err := m.store.SaveTimers(ctx, timers); err != nil {
		return models.TimerStatus{}, err
	}
	m.mu.Lock()
	m.timers = timers
	m.mu.Unlock()
	return windows.Status(timers), nil
}

// DeleteChat removes a chat. Window round logs keep their references to it.
func (m *Meter) DeleteChat(ctx context.Context, id string) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	_, ok := m.chats[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", models.ErrChatNotFound, id)
	}
	if err := m.store.DeleteChat(ctx, id); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.chats, id)
	m.mu.Unlock()
	m.logger.Info("chat deleted", zap.String("chat_id", id))
	return nil
}

// ResetAll deletes every chat and both windows. Settings are kept.
func (m *Meter) ResetAll(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.RLock()
	settings := m.settings
	m.mu.RUnlock()

	st := models.State{Settings: settings, Chats: map[string]*models.Chat{}}
	if err := m.store.Replace(ctx, st); err != nil {
		return err
	}
	m.mu.Lock()
	m.chats = make(map[string]*models.Chat)
	m.timers = models.Timers{}
	m.notified = make(map[models.WindowKind]notice)
	m.mu.Unlock()
	m.logger.Info("all usage data reset")
	return nil
}

// Export returns a deep copy of the complete state.
func (m *Meter) Export() models.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chats := make(map[string]*models.Chat, len(m.chats))
	for id, c := range m.chats {
		chats[id] = c.Clone()
	}
	return models.State{
		Version:    models.StateVersion,
		ExportID:   uuid.NewString(),
		ExportedAt: m.now().UTC(),
		Settings:   m.settings.Clone(),
		Chats:      chats,
		Timers:     m.timers.Clone(),
	}
}

var requiredImportKeys = []string{"chats", "settings", "timers"}

// Import replaces the complete state with an exported snapshot. The payload
// must be a JSON object with chats, settings and timers. Missing settings
// fields take their defaults, and chat statistics are recomputed from the
// rounds. A rejected import leaves the state unchanged.
func (m *Meter) Import(ctx context.Context, data []byte) error {
	st, err := decodeState(data)
	if err != nil {
		return err
	}
	windows, err := window.NewManager(st.Settings, m.now)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidImport, err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := m.store.Replace(ctx, st); err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = st.Settings
	m.windows = windows
	m.chats = st.Chats
	m.timers = st.Timers
	m.notified = make(map[models.WindowKind]notice)
	m.mu.Unlock()
	m.logger.Info("state imported", zap.Int("chats", len(st.Chats)))
	return nil
}

func decodeState(data []byte) (models.State, error) {
	if !gjson.ValidBytes(data) {
		return models.State{}, fmt.Errorf("%w: payload is not valid JSON", models.ErrInvalidImport)
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return models.State{}, fmt.Errorf("%w: payload is not an object", models.ErrInvalidImport)
	}
	var missing []string
	for _, key := range requiredImportKeys {
		if v := res.Get(key); !v.Exists() || !v.IsObject() {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return models.State{}, fmt.Errorf("%w: missing or non-object %s", models.ErrInvalidImport, strings.Join(missing, ", "))
	}

	st := models.State{Settings: models.DefaultSettings()}
	if err := json.Unmarshal(data, &st); err != nil {
		return models.State{}, fmt.Errorf("%w: %v", models.ErrInvalidImport, err)
	}
	if err := st.Settings.Validate(); err != nil {
		return models.State{}, fmt.Errorf("%w: %w", models.ErrInvalidImport, err)
	}

	chats := make(map[string]*models.Chat, len(st.Chats))
	for id, c := range st.Chats {
		if c == nil {
			continue
		}
		if c.ID == "" {
			c.ID = id
		}
		if c.ID != id {
			return models.State{}, fmt.Errorf("%w: chat stored under %q has id %q", models.ErrInvalidImport, id, c.ID)
		}
		if c.Type == "" {
			c.Type = models.ChatTypeUnknown
		}
		for i := range c.Rounds {
			normalizeRound(&c.Rounds[i])
		}
		aggregator.FoldChat(c)
		chats[id] = c
	}
	st.Chats = chats
	st.Version = models.StateVersion
	st.ExportID = ""
	st.ExportedAt = time.Time{}
	return st, nil
}

// normalizeRound clamps negative category counts to zero and recomputes the
// total from the categories, ignoring any imported total.
func normalizeRound(r *models.Round) {
	for _, c := range models.Categories {
		u := r.Category(c)
		r.SetCategory(c, models.Usage{Chars: max(u.Chars, 0), Tokens: max(u.Tokens, 0)})
	}
	r.Documents.Count = max(r.Documents.Count, 0)
	r.Total = estimator.RoundTotal(*r)
}
