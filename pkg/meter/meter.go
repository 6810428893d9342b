// Package meter owns chatmeter's state and implements every operation on it.
//
// A Meter is the only writer of chats, windows and settings. Mutations are
// serialized and follow one pattern: compute the new state on copies,
// persist it in one atomic store write, then commit it in memory. A failed
// write leaves the in-memory state as it was, so the caller can retry the
// whole operation. Reads run concurrently with writes and see the last
// committed state.
package meter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pario-ai/chatmeter/pkg/aggregator"
	"github.com/pario-ai/chatmeter/pkg/models"
	"github.com/pario-ai/chatmeter/pkg/notify"
	"github.com/pario-ai/chatmeter/pkg/store"
	"github.com/pario-ai/chatmeter/pkg/window"
)

// Options configures a Meter. Zero values select defaults.
type Options struct {
	// Defaults are stored as the settings when the store has none.
	Defaults *models.Settings
	Notifier notify.Notifier
	Logger   *zap.Logger
	Clock    func() time.Time
}

// notice is the last warning delivered for a window instance.
type notice struct {
	start time.Time
	level models.WarningLevel
}

// Meter tracks estimated token usage per chat and per usage window.
type Meter struct {
	store    *store.Store
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time

	writeMu sync.Mutex

	mu       sync.RWMutex
	settings models.Settings
	windows  *window.Manager
	chats    map[string]*models.Chat
	timers   models.Timers
	notified map[models.WindowKind]notice
}

// New loads state from st and returns a Meter serving it.
func New(ctx context.Context, st *store.Store, opts Options) (*Meter, error) {
	m := &Meter{
		store:    st,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Clock,
		notified: make(map[models.WindowKind]notice),
	}
	if m.notifier == nil {
		m.notifier = notify.Nop{}
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	if m.now == nil {
		m.now = time.Now
	}

	settings, found, err := st.LoadSettings(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		settings = models.DefaultSettings()
		if opts.Defaults != nil {
			settings = *opts.Defaults
		}
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("stored settings: %w", err)
	}
	if !found {
		if err := st.SaveSettings(ctx, settings); err != nil {
			return nil, err
		}
	}
	windows, err := window.NewManager(settings, m.now)
	if err != nil {
		return nil, err
	}

	chats, err := st.LoadChats(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range chats {
		aggregator.FoldChat(c)
	}
	timers, err := st.LoadTimers(ctx)
	if err != nil {
		return nil, err
	}

	m.settings = settings
	m.windows = windows
	m.chats = chats
	m.timers = timers
	m.logger.Debug("meter loaded",
		zap.Int("chats", len(chats)),
		zap.Bool("tracking", settings.TrackingEnabled),
	)
	return m, nil
}

// ChatData is a chat and its most recent round.
type ChatData struct {
	Chat      *models.Chat  `json:"chat"`
	LastRound *models.Round `json:"last_round"`
}

// ChatData returns a copy of the chat with the given id.
func (m *Meter) ChatData(id string) (ChatData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats[id]
	if !ok {
		return ChatData{}, false
	}
	cp := c.Clone()
	return ChatData{Chat: cp, LastRound: cp.LastRound()}, true
}

// GlobalView is the global statistics of a range together with both windows.
type GlobalView struct {
	Range     models.Range       `json:"range"`
	Stats     models.GlobalStats `json:"stats"`
	Timers    models.TimerStatus `json:"timers"`
	ChatCount int                `json:"chat_count"`
}

// GlobalStats folds the chats active within r.
func (m *Meter) GlobalStats(r models.Range) GlobalView {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	chats := aggregator.FilterByRange(aggregator.Ordered(m.chats), r, now, m.windows.Weekly().Location)
	return GlobalView{
		Range:     r,
		Stats:     aggregator.Global(chats),
		Timers:    m.windows.Status(m.timers),
		ChatCount: len(chats),
	}
}

// ChatQuery selects and orders chats. Search, Top and Recent apply in that
// order; Top and Recent are ignored when not positive.
type ChatQuery struct {
	Range  models.Range
	Search string
	Top    int
	Recent int
}

// Chats returns copies of the chats matching q, in creation order unless
// Top or Recent reorder them.
func (m *Meter) Chats(q ChatQuery) []*models.Chat {
	m.mu.RLock()
	chats := aggregator.FilterByRange(aggregator.Ordered(m.chats), q.Range, m.now(), m.windows.Weekly().Location)
	for i, c := range chats {
		chats[i] = c.Clone()
	}
	m.mu.RUnlock()

	chats = aggregator.SearchTitle(chats, q.Search)
	if q.Top > 0 {
		chats = aggregator.TopByTokens(chats, q.Top)
	}
	if q.Recent > 0 {
		chats = aggregator.MostRecent(chats, q.Recent)
	}
	return chats
}

// TimerStatus returns the status of both windows.
func (m *Meter) TimerStatus() models.TimerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.windows.Status(m.timers)
}

// Settings returns the current settings.
func (m *Meter) Settings() models.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.Clone()
}
