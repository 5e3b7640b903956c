package tui

import (
	"github.com/drake/vidwall/internal/domain"
	"github.com/drake/vidwall/internal/grid"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// EngineUpdateMsg carries one recomputation result from the update loop
type EngineUpdateMsg struct {
	Update grid.Update
}

// CatalogScannedMsg signals that a library scan finished
type CatalogScannedMsg struct {
	Items []domain.VideoItem
}

// RescanRequestedMsg signals that the file watcher saw library changes
type RescanRequestedMsg struct{}

// ThumbReadyMsg signals a finished thumbnail extraction
type ThumbReadyMsg struct {
	ID         string
	Generation uint64
	Path       string
}

// ThumbFailedMsg signals a failed thumbnail extraction
type ThumbFailedMsg struct {
	ID         string
	Generation uint64
	Kind       domain.ErrorKind
	Err        error
}

// PlaybackStartedMsg signals that the external player launched
type PlaybackStartedMsg struct {
	Item domain.VideoItem
}
