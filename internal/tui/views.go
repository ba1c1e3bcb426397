package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/hearlearn/internal/adapter"
	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/tui/styles"
)

// View renders the application
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}

	if m.State == StateHelp {
		return m.renderHelp()
	}
	if m.State == StateConfirmDelete {
		return m.renderDeleteConfirmation()
	}

	var content string
	switch m.Screen {
	case ScreenPlayer:
		content = lipgloss.NewStyle().Padding(0, 2).Render(m.Page.View())
	case ScreenSettings:
		content = m.renderSettings()
	default:
		content = m.Books.View()
	}

	if m.InputModal.IsVisible() {
		content = lipgloss.Place(m.Width, m.Height-ChromeHeight,
			lipgloss.Center, lipgloss.Center,
			m.InputModal.View())
	}

	content = lipgloss.NewStyle().
		Height(max(m.Height-ChromeHeight, 0)).
		MaxHeight(max(m.Height-ChromeHeight, 0)).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		content,
		m.renderStatusLine(),
		m.renderKeyHints(),
	)
}

// renderTabs renders the app name and the screen tabs
func (m Model) renderTabs() string {
	tab := func(label string, active bool) string {
		if active {
			return styles.BadgeStyle.Render(label)
		}
		return styles.DimStyle.Render(" " + label + " ")
	}

	tabs := styles.AccentStyle.Bold(true).Render("hearlearn") + "  " +
		tab("Library", m.Screen == ScreenLibrary) + " " +
		tab("Settings", m.Screen == ScreenSettings)
	if m.Screen == ScreenPlayer {
		tabs += " " + tab("Player", true)
	}
	return tabs
}

// renderStatusLine renders the import progress or the current status message
func (m Model) renderStatusLine() string {
	if m.StatusMsg != "" {
		if m.StatusIsErr {
			return styles.ErrorStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
		}
		return styles.SuccessStyle.Render(styles.Truncate(m.StatusMsg, m.Width))
	}

	if m.Importing != "" {
		frame := styles.SpinnerFrames[m.SpinnerFrame%len(styles.SpinnerFrames)]
		stage := "Uploading"
		if m.ImportStage == domain.ImportStageVerifying {
			stage = "Checking first page of"
		}
		return styles.SpinnerStyle.Render(frame) + " " +
			styles.DimStyle.Render(styles.Truncate(stage+" "+m.Importing+"...", m.Width-2))
	}
	return " "
}

// renderKeyHints renders the short help for the current screen
func (m Model) renderKeyHints() string {
	var bindings []key.Binding
	switch {
	case m.InputModal.IsVisible():
		return styles.HelpDescStyle.Render("enter confirm  esc cancel")
	case m.Screen == ScreenPlayer:
		bindings = []key.Binding{Keys.PlayPause, Keys.PrevPage, Keys.NextPage, Keys.Speed, Keys.Back, Keys.Help}
	case m.Screen == ScreenSettings:
		bindings = []key.Binding{Keys.Up, Keys.Down, Keys.Enter, Keys.Tab, Keys.Quit}
	case m.Books.IsFilterTyping():
		return styles.HelpDescStyle.Render("enter accept  esc clear")
	default:
		bindings = []key.Binding{Keys.Enter, Keys.Import, Keys.Filter, Keys.Delete, Keys.Tab, Keys.Help, Keys.Quit}
	}

	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, styles.HelpKeyStyle.Render(h.Key)+" "+styles.HelpDescStyle.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}

// renderSettings renders the settings screen
func (m Model) renderSettings() string {
	row := func(i int, label, value string) string {
		cursor := "  "
		labelStyle := styles.SubtitleStyle
		if i == m.settingsCursor {
			cursor = styles.AccentStyle.Render("› ")
			labelStyle = styles.TitleStyle
		}
		return cursor + labelStyle.Render(fmt.Sprintf("%-14s", label)) + " " + value
	}

	dark := "off"
	if m.Theme == adapter.ThemeDark {
		dark = "on"
	}
	voice := m.Voice
	if voice == "" {
		voice = styles.DimStyle.Render("(engine default)")
	}

	lines := []string{
		styles.ModalTitleStyle.Render("Settings"),
		row(settingTheme, "Dark theme", styles.AccentStyle.Render(dark)+styles.DimStyle.Render("   t to toggle")),
		row(settingVoice, "Voice", voice+styles.DimStyle.Render("   v to change")),
		"",
		styles.DimStyle.Render("Conversion service: " + m.ServerURL),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

// renderHelp renders the help screen
func (m Model) renderHelp() string {
	help := `
LIBRARY                         PLAYER
  j/k        Up/down               Space  Play/pause
  g/G        First/last book       h/l    Previous/next page
  Enter      Open book             s      Change speed
  a          Add a PDF             r      Retry loading
  /          Filter                Esc    Back to library
  d          Remove book
  r          Retry failed book

SETTINGS                        OTHER
  t          Toggle dark theme     Tab    Library/settings
  v          Change voice          q      Quit
                                   ?      This help

Press any key to return...
`

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(help))
}

// renderDeleteConfirmation renders the remove confirmation modal
func (m Model) renderDeleteConfirmation() string {
	name := ""
	if m.pendingDelete != nil {
		name = styles.Truncate(m.pendingDelete.Name, 40)
	}
	modal := fmt.Sprintf(`
  Remove from library?

  %s

  Saved progress and cached pages
  will be deleted.

        [Y] Yes      [N] No
`, name)

	return lipgloss.Place(m.Width, m.Height,
		lipgloss.Center, lipgloss.Center,
		styles.ModalStyle.Render(modal))
}
