package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/library"
	"github.com/mmcdole/hearlearn/internal/playback"
	"github.com/mmcdole/hearlearn/internal/search"
)

// Command factories for async operations

// importTimeout bounds upload plus verification of one document
const importTimeout = 3 * time.Minute

// LoadBooksCmd reads the library list
func LoadBooksCmd(svc *library.Service) tea.Cmd {
	return func() tea.Msg {
		books, err := svc.Books()
		if err != nil {
			return ErrMsg{Err: err, Context: "loading library"}
		}
		return BooksLoadedMsg{Books: books}
	}
}

// importEvent is either a progress step or the final result
type importEvent struct {
	progress *domain.ImportProgress
	done     *ImportDoneMsg
}

// ImportCmd imports a PDF, streaming progress using a continuation command
func ImportCmd(svc *library.Service, path string) tea.Cmd {
	return func() tea.Msg {
		events := make(chan importEvent, 4)

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
			defer cancel()

			book, err := svc.Import(ctx, path, func(p domain.ImportProgress) {
				events <- importEvent{progress: &p}
			})
			events <- importEvent{done: &ImportDoneMsg{Book: book, Err: err}}
			close(events)
		}()

		return readImport(events)
	}
}

// readImport reads one event and attaches the continuation while the import runs
func readImport(events <-chan importEvent) tea.Msg {
	ev, ok := <-events
	if !ok {
		return nil
	}
	if ev.done != nil {
		return *ev.done
	}
	return ImportProgressMsg{
		Progress: *ev.progress,
		Next: func() tea.Msg {
			return readImport(events)
		},
	}
}

// RemoveBookCmd deletes a book and its cached pages
func RemoveBookCmd(svc *library.Service, book domain.Book) tea.Cmd {
	return func() tea.Msg {
		if err := svc.Remove(book.ID); err != nil {
			return ErrMsg{Err: err, Context: "removing book"}
		}
		return BookRemovedMsg{ID: book.ID, Title: search.Title(book)}
	}
}

// VerifyBookCmd re-checks that the first page of a book can be fetched
func VerifyBookCmd(svc *library.Service, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), importTimeout)
		defer cancel()

		book, err := svc.Verify(ctx, id)
		return BookVerifiedMsg{Book: book, Err: err}
	}
}

// OpenSessionCmd opens the player on a book
func OpenSessionCmd(ctrl *playback.Controller, book domain.Book) tea.Cmd {
	return func() tea.Msg {
		snap, err := ctrl.OpenSession(context.Background(), book)
		if err != nil {
			return ErrMsg{Err: err, Context: "opening book"}
		}
		return SessionOpenedMsg{Snapshot: snap}
	}
}

// CloseSessionCmd stops playback and saves the page reached
func CloseSessionCmd(ctrl *playback.Controller) tea.Cmd {
	return func() tea.Msg {
		return SessionClosedMsg{Err: ctrl.CloseSession()}
	}
}

// TogglePlayCmd plays or pauses the current page
func TogglePlayCmd(ctrl *playback.Controller) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.TogglePlayPause(); err != nil {
			return ErrMsg{Err: err, Context: "playback"}
		}
		return nil
	}
}

// StepPageCmd moves the cursor forward (delta > 0) or back
func StepPageCmd(ctrl *playback.Controller, delta int) tea.Cmd {
	return func() tea.Msg {
		if delta > 0 {
			ctrl.Next()
		} else {
			ctrl.Previous()
		}
		return nil
	}
}

// RetryFetchCmd requests the batch the current page needs again
func RetryFetchCmd(ctrl *playback.Controller, page int) tea.Cmd {
	return func() tea.Msg {
		ctrl.EnsureAhead(page)
		return nil
	}
}

// SetRateCmd changes the speed used by the next start
func SetRateCmd(ctrl *playback.Controller, rate domain.Rate) tea.Cmd {
	return func() tea.Msg {
		if err := ctrl.SetPlaybackRate(rate); err != nil {
			return ErrMsg{Err: err, Context: "changing speed"}
		}
		return nil
	}
}

// SaveThemeCmd persists the theme, normally with adapter.SaveTheme
func SaveThemeCmd(save func(theme string) error, theme string) tea.Cmd {
	return func() tea.Msg {
		if save == nil {
			return ThemeSavedMsg{Theme: theme}
		}
		return ThemeSavedMsg{Theme: theme, Err: save(theme)}
	}
}

// VoiceSetter applies a voice to the speech engine
type VoiceSetter interface {
	SetVoice(voice string)
}

// SaveVoiceCmd persists the voice and applies it to the speech engine
func SaveVoiceCmd(svc *library.Service, speaker VoiceSetter, voice string) tea.Cmd {
	return func() tea.Msg {
		if err := svc.SetVoice(voice); err != nil {
			return VoiceSavedMsg{Voice: voice, Err: err}
		}
		if speaker != nil {
			speaker.SetVoice(voice)
		}
		return VoiceSavedMsg{Voice: voice}
	}
}

// TickCmd schedules the next animation tick
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status bar after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
