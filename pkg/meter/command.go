package meter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pario-ai/chatmeter/pkg/models"
)

// Command is a request to the meter. The set of commands is closed: only
// the types in this file implement it, and Dispatch handles each of them.
type Command interface {
	command()
}

type (
	// CompleteRound records a completed round.
	CompleteRound struct{ Input models.RoundInput }
	// GetChat fetches one chat and its last round.
	GetChat struct{ ChatID string }
	// GetGlobalStats folds chats active within Range.
	GetGlobalStats struct{ Range models.Range }
	// GetTimers reports both windows.
	GetTimers struct{}
	// ResetTimer reopens one window.
	ResetTimer struct{ Window models.WindowKind }
	// SetWindowEnd pins the four-hour window end.
	SetWindowEnd struct{ End time.Time }
	// UpdateSettings replaces the settings.
	UpdateSettings struct{ Settings models.Settings }
	// GetSettings reports the settings.
	GetSettings struct{}
	// DeleteChat removes one chat.
	DeleteChat struct{ ChatID string }
	// ResetAll removes every chat and window.
	ResetAll struct{}
	// ExportAll snapshots the complete state.
	ExportAll struct{}
	// ImportAll replaces the complete state.
	ImportAll struct{ Data json.RawMessage }
)

func (CompleteRound) command()  {}
func (GetChat) command()        {}
func (GetGlobalStats) command() {}
func (GetTimers) command()      {}
func (ResetTimer) command()     {}
func (SetWindowEnd) command()   {}
func (UpdateSettings) command() {}
func (GetSettings) command()    {}
func (DeleteChat) command()     {}
func (ResetAll) command()       {}
func (ExportAll) command()      {}
func (ImportAll) command()      {}

// Done is the result of commands that return nothing else.
type Done struct {
	OK bool `json:"ok"`
}

// Dispatch runs cmd and returns its result:
//
//	CompleteRound  -> RoundResult
//	GetChat        -> *ChatData (nil for an unknown chat)
//	GetGlobalStats -> GlobalView
//	GetTimers, ResetTimer, SetWindowEnd -> models.TimerStatus
//	UpdateSettings, GetSettings -> models.Settings
//	DeleteChat, ResetAll, ImportAll -> Done
//	ExportAll      -> models.State
func (m *Meter) Dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case CompleteRound:
		return m.RoundCompleted(ctx, c.Input)
	case GetChat:
		data, ok := m.ChatData(c.ChatID)
		if !ok {
			return (*ChatData)(nil), nil
		}
		return &data, nil
	case GetGlobalStats:
		return m.GlobalStats(c.Range), nil
	case GetTimers:
		return m.TimerStatus(), nil
	case ResetTimer:
		return m.ResetTimer(ctx, c.Window)
	case SetWindowEnd:
		return m.SetWindowEnd(ctx, c.End)
	case UpdateSettings:
		return m.UpdateSettings(ctx, c.Settings)
	case GetSettings:
		return m.Settings(), nil
	case DeleteChat:
		if err := m.DeleteChat(ctx, c.ChatID); err != nil {
			return nil, err
		}
		return Done{OK: true}, nil
	case ResetAll:
		if err := m.ResetAll(ctx); err != nil {
			return nil, err
		}
		return Done{OK: true}, nil
	case ExportAll:
		return m.Export(), nil
	case ImportAll:
		if err := m.Import(ctx, c.Data); err != nil {
			return nil, err
		}
		return Done{OK: true}, nil
	}
	return nil, fmt.Errorf("unhandled command %T", cmd)
}
