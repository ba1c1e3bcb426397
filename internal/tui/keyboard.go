package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/hearlearn/internal/adapter"
	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/tui/components"
)

// handleKeyMsg handles keyboard input
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateConfirmDelete:
		switch {
		case key.Matches(msg, Keys.Confirm):
			m.State = StateBrowsing
			book := m.pendingDelete
			m.pendingDelete = nil
			if book != nil {
				return m, RemoveBookCmd(m.LibrarySvc, *book)
			}
		case key.Matches(msg, Keys.Deny):
			m.State = StateBrowsing
			m.pendingDelete = nil
		}
		return m, nil
	}

	if m.InputModal.IsVisible() {
		return m.handleInputModal(msg)
	}

	// Filter typing swallows every key
	if m.Screen == ScreenLibrary && m.Books.IsFilterTyping() {
		return m, m.Books.Update(msg)
	}

	// Global keys
	switch {
	case key.Matches(msg, Keys.Quit):
		if m.Screen == ScreenPlayer {
			return m, tea.Sequence(CloseSessionCmd(m.Player), tea.Quit)
		}
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp
		return m, nil

	case key.Matches(msg, Keys.Tab):
		switch m.Screen {
		case ScreenLibrary:
			m.Screen = ScreenSettings
		case ScreenSettings:
			m.Screen = ScreenLibrary
		}
		return m, nil
	}

	switch m.Screen {
	case ScreenPlayer:
		return m.handlePlayerKey(msg)
	case ScreenSettings:
		return m.handleSettingsKey(msg)
	default:
		return m.handleLibraryKey(msg)
	}
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Filter):
		m.Books.ToggleFilter()
		return m, nil

	case key.Matches(msg, Keys.Import):
		if m.Importing != "" {
			m.setStatus("An import is already running", true)
			return m, nil
		}
		m.InputModal.Show(components.InputImportPath, "Add a PDF", "path to a .pdf file", "")
		return m, nil

	case key.Matches(msg, Keys.Delete):
		if book := m.Books.Selected(); book != nil {
			m.pendingDelete = book
			m.State = StateConfirmDelete
		}
		return m, nil

	case key.Matches(msg, Keys.Retry):
		if book := m.Books.Selected(); book != nil && book.Status != domain.BookStatusReady {
			m.setStatus("Checking "+book.Name+"...", false)
			return m, VerifyBookCmd(m.LibrarySvc, book.ID)
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		if book := m.Books.Selected(); book != nil {
			return m, OpenSessionCmd(m.Player, *book)
		}
		return m, nil
	}

	return m, m.Books.Update(msg)
}

func (m Model) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.Page.Snapshot()

	switch {
	case key.Matches(msg, Keys.Back):
		return m, CloseSessionCmd(m.Player)

	case key.Matches(msg, Keys.PlayPause):
		return m, TogglePlayCmd(m.Player)

	case key.Matches(msg, Keys.NextPage):
		return m, StepPageCmd(m.Player, 1)

	case key.Matches(msg, Keys.PrevPage):
		return m, StepPageCmd(m.Player, -1)

	case key.Matches(msg, Keys.Speed):
		return m, SetRateCmd(m.Player, snap.Rate.NextRate())

	case key.Matches(msg, Keys.Retry):
		return m, RetryFetchCmd(m.Player, snap.Page)
	}
	return m, nil
}

func (m Model) handleSettingsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Back):
		m.Screen = ScreenLibrary
		return m, nil

	case key.Matches(msg, Keys.Up):
		if m.settingsCursor > 0 {
			m.settingsCursor--
		}
		return m, nil

	case key.Matches(msg, Keys.Down):
		if m.settingsCursor < settingCount-1 {
			m.settingsCursor++
		}
		return m, nil

	case key.Matches(msg, Keys.Theme):
		return m, m.toggleTheme()

	case key.Matches(msg, Keys.Voice):
		m.showVoiceModal()
		return m, nil

	case key.Matches(msg, Keys.Enter):
		if m.settingsCursor == settingTheme {
			return m, m.toggleTheme()
		}
		m.showVoiceModal()
		return m, nil
	}
	return m, nil
}

func (m *Model) showVoiceModal() {
	m.InputModal.Show(components.InputVoice, "Speech voice", "engine voice name, empty for default", m.Voice)
}

// handleInputModal routes keys to the modal and acts on submission
func (m Model) handleInputModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	purpose := m.InputModal.Purpose()

	var cmd tea.Cmd
	var submitted bool
	m.InputModal, cmd, submitted = m.InputModal.Update(msg)
	if !submitted {
		return m, cmd
	}

	value := strings.TrimSpace(m.InputModal.Value())
	m.InputModal.Hide()

	switch purpose {
	case components.InputImportPath:
		if value == "" {
			return m, nil
		}
		path := adapter.ExpandHome(strings.Trim(value, `"'`))
		m.Importing = path
		m.ImportStage = domain.ImportStageUploading
		return m, ImportCmd(m.LibrarySvc, path)

	case components.InputVoice:
		return m, SaveVoiceCmd(m.LibrarySvc, m.speaker, value)
	}
	return m, nil
}
