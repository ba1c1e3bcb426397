package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/hearlearn/internal/playback"
)

// ChannelObserver adapts playback.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan tea.Msg
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(size int) *ChannelObserver {
	if size <= 0 {
		size = 64
	}
	return &ChannelObserver{ch: make(chan tea.Msg, size)}
}

// SessionChanged forwards a snapshot (non-blocking if full).
// The TUI polls the controller on every tick, so a dropped snapshot only delays a redraw.
func (o *ChannelObserver) SessionChanged(snap playback.Snapshot) {
	select {
	case o.ch <- SnapshotMsg{Snapshot: snap}:
	default:
	}
}

// PlaybackFailed forwards a failure (non-blocking if full).
func (o *ChannelObserver) PlaybackFailed(err error) {
	select {
	case o.ch <- PlaybackFailedMsg{Err: err}:
	default:
	}
}

// Listen waits for the next session message
func (o *ChannelObserver) Listen() tea.Cmd {
	return func() tea.Msg {
		return <-o.ch
	}
}
