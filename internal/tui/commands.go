package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/drake/vidwall/internal/adapter"
	"github.com/drake/vidwall/internal/domain"
	"github.com/drake/vidwall/internal/grid"
)

// Command factories for async operations

// ListenUpdatesCmd waits for the next engine update. Reissued after each
// message so the loop's channel always has a reader.
func ListenUpdatesCmd(loop *grid.Loop) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-loop.Updates()
		if !ok {
			return nil
		}
		return EngineUpdateMsg{Update: u}
	}
}

// ScanCmd runs one full library scan
func ScanCmd(source domain.CatalogSource, store domain.MetadataStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()

		items, err := source.Catalog(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "scanning library"}
		}
		store.ApplyFlags(items)
		return CatalogScannedMsg{Items: items}
	}
}

// WatchRescansCmd waits for the next debounced file-system change signal
func WatchRescansCmd(rescans <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-rescans; !ok {
			return nil
		}
		return RescanRequestedMsg{}
	}
}

// ExtractThumbCmd performs one admitted thumbnail load. The generation tag
// travels with the result so stale completions can be discarded.
func ExtractThumbCmd(provider domain.ThumbnailProvider, item domain.VideoItem, gen uint64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		path, err := provider.Thumbnail(ctx, item)
		if err != nil {
			return ThumbFailedMsg{
				ID:         item.ID,
				Generation: gen,
				Kind:       provider.Classify(err),
				Err:        err,
			}
		}
		return ThumbReadyMsg{ID: item.ID, Generation: gen, Path: path}
	}
}

// PlayItemCmd launches the external player for an item
func PlayItemCmd(launcher *adapter.Launcher, item domain.VideoItem) tea.Cmd {
	return func() tea.Msg {
		if err := launcher.Play(item.Path); err != nil {
			return ErrMsg{Err: err, Context: "launching player"}
		}
		return PlaybackStartedMsg{Item: item}
	}
}
