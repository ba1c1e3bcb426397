package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/hearlearn/internal/tui/styles"
)

// InputPurpose tells the app what a submitted value is for
type InputPurpose int

const (
	InputNone InputPurpose = iota
	InputImportPath
	InputVoice
)

// InputModal is a simple text input modal
type InputModal struct {
	visible bool
	title   string
	hint    string
	purpose InputPurpose
	input   textinput.Model
}

// NewInputModal creates a new input modal
func NewInputModal() InputModal {
	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 48
	ti.Prompt = ""

	return InputModal{
		input: ti,
	}
}

// Show displays the modal with a title and an initial value
func (m *InputModal) Show(purpose InputPurpose, title, hint, value string) {
	m.visible = true
	m.purpose = purpose
	m.title = title
	m.hint = hint
	m.input.Placeholder = hint
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

// Hide dismisses the modal
func (m *InputModal) Hide() {
	m.visible = false
	m.purpose = InputNone
	m.input.Blur()
}

// IsVisible returns whether the modal is shown
func (m InputModal) IsVisible() bool {
	return m.visible
}

// Purpose returns what the modal was opened for
func (m InputModal) Purpose() InputPurpose {
	return m.purpose
}

// Value returns the current input value
func (m InputModal) Value() string {
	return m.input.Value()
}

// Update handles input events, returns (modal, cmd, submitted)
func (m InputModal) Update(msg tea.Msg) (InputModal, tea.Cmd, bool) {
	if !m.visible {
		return m, nil, false
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter":
			return m, nil, true
		case "esc":
			m.Hide()
			return m, nil, false
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, false
}

// View renders the input modal
func (m InputModal) View() string {
	if !m.visible {
		return ""
	}

	const modalWidth = 52

	p := styles.Current
	m.input.TextStyle = lipgloss.NewStyle().Foreground(p.Strong)
	m.input.PlaceholderStyle = styles.DimStyle

	titleStyle := lipgloss.NewStyle().
		Foreground(p.Strong).
		Bold(true).
		Width(modalWidth).
		Background(p.Surface)

	inputStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Background(p.Surface)

	footer := lipgloss.NewStyle().
		Foreground(p.Muted).
		Width(modalWidth).
		Background(p.Surface).
		Render("enter to confirm, esc to cancel")

	spacer := lipgloss.NewStyle().
		Width(modalWidth).
		Background(p.Surface).
		Render("")

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(m.title),
		spacer,
		inputStyle.Render(m.input.View()),
		spacer,
		footer,
	)

	return styles.ModalStyle.Render(content)
}
