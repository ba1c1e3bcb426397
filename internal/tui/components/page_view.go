package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
	"github.com/mmcdole/hearlearn/internal/tui/styles"
)

// PageView renders the player screen from session snapshots
type PageView struct {
	snap    playback.Snapshot
	spinner spinner.Model
	bar     progress.Model

	width  int
	height int
}

// NewPageView creates the player view
func NewPageView() PageView {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return PageView{
		spinner: s,
		bar:     progress.New(progress.WithoutPercentage()),
	}
}

// Init starts the loading spinner
func (v PageView) Init() tea.Cmd {
	return v.spinner.Tick
}

// Update advances the spinner
func (v PageView) Update(msg tea.Msg) (PageView, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok {
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}
	return v, nil
}

// SetSnapshot replaces the displayed state. Older snapshots are ignored.
func (v *PageView) SetSnapshot(snap playback.Snapshot) bool {
	if snap.Seq < v.snap.Seq {
		return false
	}
	v.snap = snap
	return true
}

// Snapshot returns the displayed state
func (v PageView) Snapshot() playback.Snapshot {
	return v.snap
}

// SetSize sets the available area
func (v *PageView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.bar.Width = max(width-24, 10)
}

// View renders the player
func (v PageView) View() string {
	s := v.snap
	if !s.Open {
		return styles.DimStyle.Render("No book open")
	}

	p := styles.Current
	v.spinner.Style = styles.SpinnerStyle
	v.bar.FullColor = string(p.Accent)
	v.bar.EmptyColor = string(p.Raised)

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.TitleStyle.Render(styles.Truncate(s.Title, max(v.width-30, 10))),
		"  ",
		styles.DimBadgeStyle.Render(fmt.Sprintf("Page %d of %d", s.Page+1, s.TotalPages)),
	)

	loading := fmt.Sprintf("Loaded %3d%% ", s.Progress)
	if s.Fetching {
		loading = v.spinner.View() + " " + loading
	} else {
		loading = "  " + loading
	}
	loadLine := styles.DimStyle.Render(loading) + v.bar.ViewAs(float64(s.Progress)/100)

	bodyHeight := v.height - 7
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	body := lipgloss.NewStyle().
		Width(max(v.width-4, 10)).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(v.renderBody())

	controls := v.renderControls()

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		loadLine,
		"",
		body,
		"",
		controls,
	)
}

func (v PageView) renderBody() string {
	s := v.snap

	switch {
	case s.Waiting() && s.FetchErr != nil:
		return styles.ErrorStyle.Render("Could not load this page: "+s.FetchErr.Error()) + "\n" +
			styles.DimStyle.Render("Press r to try again.")
	case s.Waiting():
		msg := "Loading page..."
		if s.PendingStart {
			msg = "Loading page... playback starts when it arrives"
		}
		return v.spinner.View() + " " + styles.DimStyle.Render(msg)
	case s.Media.Kind == domain.MediaKindAudio:
		return styles.BodyStyle.Render(fmt.Sprintf("Audio for page %d", s.Media.Page)) + "\n" +
			styles.DimStyle.Render(s.Media.URL)
	default:
		return HighlightWords(s.Media.Text, s.Word, max(v.width-4, 10), max(v.height-7, 3))
	}
}

func (v PageView) renderControls() string {
	s := v.snap

	state := "▶ play"
	switch {
	case s.Playing:
		state = "❚❚ pause"
	case s.PendingStart:
		state = v.spinner.View() + " starting"
	}

	var rates []string
	for _, r := range domain.Rates {
		if r == s.Rate {
			rates = append(rates, styles.BadgeStyle.Render(r.Label()))
		} else {
			rates = append(rates, styles.DimStyle.Render(" "+r.Label()+" "))
		}
	}

	prev := styles.HelpKeyStyle.Render("◀ h")
	if s.Page == 0 {
		prev = styles.DimStyle.Render("◀ h")
	}
	next := styles.HelpKeyStyle.Render("l ▶")
	if s.Page >= s.TotalPages-1 {
		next = styles.DimStyle.Render("l ▶")
	}

	return prev + "   " +
		styles.AccentStyle.Render(state) + "   " +
		next + "     " +
		styles.HelpDescStyle.Render("speed ") + strings.Join(rates, "")
}

// HighlightWords wraps text to width and marks the word at index word.
// When the text is taller than height, the window scrolls to keep the word visible.
func HighlightWords(text string, word, width, height int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return styles.DimStyle.Render("(this page has no text)")
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0
	wordLine := 0

	for i, w := range words {
		ww := lipgloss.Width(w)
		if lineWidth > 0 && lineWidth+1+ww > width {
			lines = append(lines, line.String())
			line.Reset()
			lineWidth = 0
		}
		if lineWidth > 0 {
			line.WriteString(" ")
			lineWidth++
		}
		if i == word {
			line.WriteString(styles.WordStyle.Render(w))
			wordLine = len(lines)
		} else {
			line.WriteString(styles.BodyStyle.Render(w))
		}
		lineWidth += ww
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	if height > 0 && len(lines) > height {
		start := wordLine - height/3
		start = min(max(start, 0), len(lines)-height)
		lines = lines[start : start+height]
	}
	return strings.Join(lines, "\n")
}
