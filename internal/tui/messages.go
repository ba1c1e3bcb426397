package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
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

// BooksLoadedMsg signals that the library list has been read from the store
type BooksLoadedMsg struct {
	Books []domain.Book
}

// ImportProgressMsg reports a stage of a running import
type ImportProgressMsg struct {
	Progress domain.ImportProgress
	Next     tea.Cmd // reads the next event of the same import
}

// ImportDoneMsg signals the end of an import. Book is set even when
// verification failed, in which case Err is set too.
type ImportDoneMsg struct {
	Book domain.Book
	Err  error
}

// BookRemovedMsg signals that a book was deleted from the library
type BookRemovedMsg struct {
	ID    string
	Title string
}

// BookVerifiedMsg signals the end of a retried verification
type BookVerifiedMsg struct {
	Book domain.Book
	Err  error
}

// SessionOpenedMsg signals that the player session for a book is open
type SessionOpenedMsg struct {
	Snapshot playback.Snapshot
}

// SessionClosedMsg signals that the player session was closed
type SessionClosedMsg struct {
	Err error
}

// SnapshotMsg carries a published state change of the player session
type SnapshotMsg struct {
	Snapshot playback.Snapshot
}

// PlaybackFailedMsg carries an asynchronous playback failure
type PlaybackFailedMsg struct {
	Err error
}

// ThemeSavedMsg signals that the theme preference was written
type ThemeSavedMsg struct {
	Theme string
	Err   error
}

// VoiceSavedMsg signals that the voice preference was written
type VoiceSavedMsg struct {
	Voice string
	Err   error
}

// TickMsg is a general tick message for animations
type TickMsg struct{}

// ClearStatusMsg clears the status bar message
type ClearStatusMsg struct{}

// StatusMsg sets a temporary status message
type StatusMsg struct {
	Message string
	IsError bool
}
