package models

import "time"

// StateVersion is the current layout version of exported state.
const StateVersion = 1

// State is the complete persisted state: settings, chats by id, and both
// usage windows. Export and import round-trip this shape.
type State struct {
	Version    int              `json:"version"`
	ExportID   string           `json:"export_id,omitempty"`
	ExportedAt time.Time        `json:"exported_at,omitempty"`
	Settings   Settings         `json:"settings"`
	Chats      map[string]*Chat `json:"chats"`
	Timers     Timers           `json:"timers"`
}
