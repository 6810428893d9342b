package models

import "errors"

var (
	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("invalid settings")
	// ErrInvalidRatio is returned when a chars-per-token ratio is not positive.
	ErrInvalidRatio = errors.New("ratio must be positive")
	// ErrChatNotFound is returned for operations on an unknown chat id.
	ErrChatNotFound = errors.New("chat not found")
	// ErrInvalidImport is returned when an import payload is rejected.
	ErrInvalidImport = errors.New("invalid import")
	// ErrUnknownWindow is returned for an unrecognised window kind.
	ErrUnknownWindow = errors.New("unknown window")
	// ErrInvalidWindowEnd is returned when a manual window end is out of bounds.
	ErrInvalidWindowEnd = errors.New("invalid window end")
	// ErrInvalidRange is returned for an unrecognised recency range.
	ErrInvalidRange = errors.New("invalid range")
)
