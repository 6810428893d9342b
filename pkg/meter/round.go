package meter

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pario-ai/chatmeter/pkg/aggregator"
	"github.com/pario-ai/chatmeter/pkg/chatid"
	"github.com/pario-ai/chatmeter/pkg/estimator"
	"github.com/pario-ai/chatmeter/pkg/models"
)

// ErrNoChat is returned for a round that carries neither a chat id nor a URL.
var ErrNoChat = errors.New("round has no chat id or url")

// RoundResult reports what RoundCompleted did.
type RoundResult struct {
	// Saved is false when tracking is disabled or the round is a duplicate.
	Saved bool `json:"saved"`
	// Duplicate is set when the round number was already recorded.
	Duplicate bool                `json:"duplicate,omitempty"`
	Chat      *models.Chat        `json:"chat,omitempty"`
	Round     *models.Round       `json:"round,omitempty"`
	Timers    models.Timers       `json:"-"`
	Reopened  []models.WindowKind `json:"reopened,omitempty"`
	// Warnings holds every threshold currently crossed.
	Warnings []models.Warning `json:"warnings,omitempty"`
	// Notified holds the warnings delivered to the notifier by this round.
	Notified []models.Warning `json:"notified,omitempty"`
}

// RoundCompleted estimates a completed round, appends it to its chat and
// counts it in both usage windows. Chat and windows are persisted together;
// on a store error nothing changes and the error is returned.
func (m *Meter) RoundCompleted(ctx context.Context, in models.RoundInput) (RoundResult, error) {
	m.writeMu.Lock()
	res, err := m.roundCompleted(ctx, in)
	m.writeMu.Unlock()
	if err != nil {
		return RoundResult{}, err
	}
	m.deliver(ctx, res.Notified)
	return res, nil
}

func (m *Meter) roundCompleted(ctx context.Context, in models.RoundInput) (RoundResult, error) {
	m.mu.RLock()
	settings := m.settings
	windows := m.windows
	if !settings.TrackingEnabled {
		m.mu.RUnlock()
		m.logger.Debug("tracking disabled, round dropped", zap.String("chat_id", in.ChatID))
		return RoundResult{}, nil
	}
	if in.ChatID == "" && in.ChatURL == "" {
		m.mu.RUnlock()
		return RoundResult{}, ErrNoChat
	}
	chatid.Identify(&in)
	var chat *models.Chat
	if existing, ok := m.chats[in.ChatID]; ok {
		chat = existing.Clone()
	}
	timers := m.timers.Clone()
	m.mu.RUnlock()

	now := windows.Now()
	if chat != nil && in.Round.RoundNumber > 0 && chat.HasRound(in.Round.RoundNumber) {
		m.logger.Info("duplicate round ignored",
			zap.String("chat_id", chat.ID),
			zap.Int("round", in.Round.RoundNumber),
		)
		return RoundResult{Duplicate: true, Chat: chat, Round: roundPtr(chat, in.Round.RoundNumber)}, nil
	}

	round, err := estimator.EstimateRound(in.Round, settings)
	if err != nil {
		return RoundResult{}, fmt.Errorf("estimate round: %w", err)
	}
	if round.Timestamp.IsZero() {
		round.Timestamp = now
	}

	if chat == nil {
		chat = &models.Chat{
			ID:      in.ChatID,
			URL:     in.ChatURL,
			Title:   in.ChatTitle,
			Type:    in.ChatType,
			Created: round.Timestamp,
		}
	}
	updateIdentity(chat, in)
	round.RoundNumber = len(chat.Rounds) + 1
	chat.Rounds = append(chat.Rounds, round)
	if round.Timestamp.After(chat.LastActive) {
		chat.LastActive = round.Timestamp
	}
	aggregator.FoldChat(chat)

	rec := windows.Record(&timers, models.WindowRef{
		ChatID:      chat.ID,
		RoundNumber: round.RoundNumber,
		Tokens:      round.Total.Tokens,
		Timestamp:   round.Timestamp,
	})

	if err := m.store.SaveRound(ctx, chat, timers); err != nil {
		return RoundResult{}, err
	}

	m.mu.Lock()
	m.chats[chat.ID] = chat
	m.timers = timers
	var notified []models.Warning
	if settings.NotificationsEnabled {
		notified = m.dedupe(rec.Warnings)
	}
	m.mu.Unlock()

	m.logger.Debug("round recorded",
		zap.String("chat_id", chat.ID),
		zap.Int("round", round.RoundNumber),
		zap.Int64("tokens", round.Total.Tokens),
		zap.Int64("four_hour_tokens", timers.FourHour.Tokens),
		zap.Int64("weekly_tokens", timers.Weekly.Tokens),
	)

	out := chat.Clone()
	return RoundResult{
		Saved:    true,
		Chat:     out,
		Round:    out.LastRound(),
		Timers:   timers.Clone(),
		Reopened: rec.Reopened,
		Warnings: rec.Warnings,
		Notified: notified,
	}, nil
}

func updateIdentity(c *models.Chat, in models.RoundInput) {
	if in.ChatTitle != "" {
		c.Title = in.ChatTitle
	}
	if in.ChatURL != "" {
		c.URL = in.ChatURL
	}
	if in.ChatType != "" && (c.Type == "" || c.Type == models.ChatTypeUnknown) {
		c.Type = in.ChatType
	}
	if c.Type == "" {
		c.Type = models.ChatTypeUnknown
	}
}

func roundPtr(c *models.Chat, number int) *models.Round {
	for i := range c.Rounds {
		if c.Rounds[i].RoundNumber == number {
			return &c.Rounds[i]
		}
	}
	return nil
}

// dedupe returns the warnings whose level changed since the last delivery
// for the same window instance and records them as delivered. Callers hold
// m.mu.
func (m *Meter) dedupe(warnings []models.Warning) []models.Warning {
	var out []models.Warning
	for _, w := range warnings {
		last, ok := m.notified[w.Window]
		if ok && last.start.Equal(w.WindowStart) && last.level == w.Level {
			continue
		}
		m.notified[w.Window] = notice{start: w.WindowStart, level: w.Level}
		out = append(out, w)
	}
	return out
}

func (m *Meter) deliver(ctx context.Context, warnings []models.Warning) {
	for _, w := range warnings {
		if err := m.notifier.Notify(ctx, w); err != nil {
			m.logger.Warn("notification failed",
				zap.String("window", string(w.Window)),
				zap.Error(err),
			)
		}
	}
}
