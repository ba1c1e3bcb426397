package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/hearlearn/internal/adapter"
	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/library"
	"github.com/mmcdole/hearlearn/internal/playback"
	"github.com/mmcdole/hearlearn/internal/search"
	"github.com/mmcdole/hearlearn/internal/tui/components"
	"github.com/mmcdole/hearlearn/internal/tui/styles"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateHelp
	StateConfirmDelete
)

// Screen is the top-level page being shown
type Screen int

const (
	ScreenLibrary Screen = iota
	ScreenPlayer
	ScreenSettings
)

// Settings rows
const (
	settingTheme = iota
	settingVoice
	settingCount
)

// Vertical chrome: tab bar + status line + key hints
const ChromeHeight = 3

const tickInterval = 100 * time.Millisecond

// Deps are the services the TUI drives
type Deps struct {
	Library  *library.Service
	Player   *playback.Controller
	Observer *ChannelObserver
	Speaker  VoiceSetter

	// SaveTheme persists the theme; nil keeps it in memory only
	SaveTheme func(theme string) error
	Theme     string
	ServerURL string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State  ApplicationState
	Screen Screen
	Ready  bool

	// Services
	LibrarySvc *library.Service
	Player     *playback.Controller
	observer   *ChannelObserver
	speaker    VoiceSetter
	saveTheme  func(string) error

	// UI Components
	Books      *components.BookList
	Page       components.PageView
	InputModal components.InputModal

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	SpinnerFrame int
	Importing    string // file name of the running import, empty when idle
	ImportStage  domain.ImportStage

	// Settings
	Theme          string
	Voice          string
	ServerURL      string
	settingsCursor int

	pendingDelete *domain.Book
}

// NewModel creates a new application model
func NewModel(d Deps) Model {
	if d.Observer == nil {
		d.Observer = NewChannelObserver(0)
	}
	if d.Theme != adapter.ThemeDark {
		d.Theme = adapter.ThemeLight
	}
	styles.Apply(d.Theme == adapter.ThemeDark)
	d.Player.SetObserver(d.Observer)

	return Model{
		State:      StateBrowsing,
		Screen:     ScreenLibrary,
		LibrarySvc: d.Library,
		Player:     d.Player,
		observer:   d.Observer,
		speaker:    d.Speaker,
		saveTheme:  d.SaveTheme,
		Books:      components.NewBookList(),
		Page:       components.NewPageView(),
		InputModal: components.NewInputModal(),
		Theme:      d.Theme,
		Voice:      d.Library.Voice(),
		ServerURL:  d.ServerURL,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadBooksCmd(m.LibrarySvc),
		TickCmd(tickInterval),
		m.observer.Listen(),
		m.Page.Init(),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.Books.SetSpinnerFrame(m.SpinnerFrame)
		if m.Screen == ScreenPlayer {
			m.Page.SetSnapshot(m.Player.Snapshot())
		}
		return m, TickCmd(tickInterval)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Page, cmd = m.Page.Update(msg)
		return m, cmd

	case BooksLoadedMsg:
		m.Books.SetBooks(msg.Books)
		return m, nil

	case ImportProgressMsg:
		m.Importing = msg.Progress.FileName
		m.ImportStage = msg.Progress.Stage
		return m, msg.Next

	case ImportDoneMsg:
		m.Importing = ""
		m.ImportStage = ""
		switch {
		case msg.Err != nil && msg.Book.ID == "":
			m.setStatus("Import failed: "+msg.Err.Error(), true)
		case msg.Err != nil:
			m.setStatus(fmt.Sprintf("Added %s, but its first page could not be loaded (r to retry)", search.Title(msg.Book)), true)
		default:
			m.setStatus(fmt.Sprintf("Added %s (%d pages)", search.Title(msg.Book), msg.Book.TotalPages), false)
		}
		return m, tea.Batch(LoadBooksCmd(m.LibrarySvc), ClearStatusCmd(5*time.Second))

	case BookRemovedMsg:
		m.setStatus("Removed "+msg.Title, false)
		return m, tea.Batch(LoadBooksCmd(m.LibrarySvc), ClearStatusCmd(3*time.Second))

	case BookVerifiedMsg:
		if msg.Err != nil {
			m.setStatus("Still unavailable: "+msg.Err.Error(), true)
		} else {
			m.setStatus(search.Title(msg.Book)+" is ready", false)
		}
		return m, tea.Batch(LoadBooksCmd(m.LibrarySvc), ClearStatusCmd(5*time.Second))

	case SessionOpenedMsg:
		m.Screen = ScreenPlayer
		m.Page.SetSnapshot(msg.Snapshot)
		return m, nil

	case SessionClosedMsg:
		m.Screen = ScreenLibrary
		if msg.Err != nil {
			m.setStatus("Could not save progress: "+msg.Err.Error(), true)
			return m, tea.Batch(LoadBooksCmd(m.LibrarySvc), ClearStatusCmd(5*time.Second))
		}
		return m, LoadBooksCmd(m.LibrarySvc)

	case SnapshotMsg:
		if m.Screen == ScreenPlayer {
			m.Page.SetSnapshot(msg.Snapshot)
		}
		return m, m.observer.Listen()

	case PlaybackFailedMsg:
		m.setStatus("Playback failed: "+msg.Err.Error(), true)
		return m, tea.Batch(m.observer.Listen(), ClearStatusCmd(5*time.Second))

	case ThemeSavedMsg:
		if msg.Err != nil {
			m.setStatus("Could not save theme: "+msg.Err.Error(), true)
			return m, ClearStatusCmd(5 * time.Second)
		}
		return m, nil

	case VoiceSavedMsg:
		if msg.Err != nil {
			m.setStatus("Could not save voice: "+msg.Err.Error(), true)
			return m, ClearStatusCmd(5 * time.Second)
		}
		m.Voice = msg.Voice
		m.setStatus("Voice updated", false)
		return m, ClearStatusCmd(3 * time.Second)

	case ErrMsg:
		m.setStatus(msg.Error(), true)
		return m, ClearStatusCmd(5 * time.Second)

	case StatusMsg:
		m.setStatus(msg.Message, msg.IsError)
		return m, ClearStatusCmd(3 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
}

// updateLayout recalculates component sizes
func (m *Model) updateLayout() {
	contentHeight := m.Height - ChromeHeight
	if contentHeight < 5 {
		contentHeight = 5
	}
	m.Books.SetSize(m.Width, contentHeight)
	m.Page.SetSize(m.Width, contentHeight)
}

// toggleTheme flips light/dark, restyles, and persists the choice
func (m *Model) toggleTheme() tea.Cmd {
	if m.Theme == adapter.ThemeDark {
		m.Theme = adapter.ThemeLight
	} else {
		m.Theme = adapter.ThemeDark
	}
	styles.Apply(m.Theme == adapter.ThemeDark)
	return SaveThemeCmd(m.saveTheme, m.Theme)
}
