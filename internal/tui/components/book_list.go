package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/search"
	"github.com/mmcdole/hearlearn/internal/tui/styles"
)

// Layout constants for the book list
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2

	statusColumnWidth   = 12
	progressColumnWidth = 14
)

// BookList is a scrollable, filterable list of library books
type BookList struct {
	books []domain.Book
	rows  []search.Result // visible rows, in order

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int

	spinnerFrame int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
}

// NewBookList creates an empty book list
func NewBookList() *BookList {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "

	return &BookList{filterInput: ti}
}

// Update handles navigation and filter typing
func (l *BookList) Update(msg tea.Msg) tea.Cmd {
	// Typing mode
	if l.filterActive && l.filterInput.Focused() {
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				l.ClearFilter()
				return nil
			case "enter":
				// Accept filter, blur input to allow navigation
				l.filterInput.Blur()
				return nil
			case "backspace":
				if l.filterInput.Value() == "" {
					l.ClearFilter()
					return nil
				}
			}
		}

		var cmd tea.Cmd
		l.filterInput, cmd = l.filterInput.Update(msg)
		l.applyFilter()
		return cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if l.filterActive {
		switch keyMsg.String() {
		case "esc":
			l.ClearFilter()
			return nil
		case "/":
			l.filterInput.Focus()
			return nil
		}
	}

	count := len(l.rows)
	if count == 0 {
		return nil
	}

	switch keyMsg.String() {
	case "j", "down":
		if l.cursor < count-1 {
			l.cursor++
			l.ensureVisible()
		}
	case "k", "up":
		if l.cursor > 0 {
			l.cursor--
			l.ensureVisible()
		}
	case "g", "home":
		l.cursor = 0
		l.offset = 0
	case "G", "end":
		l.cursor = count - 1
		l.ensureVisible()
	}
	return nil
}

// SetBooks replaces the list content, keeping the selected book when it is still present
func (l *BookList) SetBooks(books []domain.Book) {
	var selectedID string
	if b := l.Selected(); b != nil {
		selectedID = b.ID
	}

	l.books = books
	l.applyFilter()

	for i, r := range l.rows {
		if r.Book.ID == selectedID {
			l.cursor = i
			break
		}
	}
	l.clampCursor()
	l.ensureVisible()
}

// Books returns every book, ignoring the filter
func (l *BookList) Books() []domain.Book {
	return l.books
}

// Selected returns the book under the cursor, nil for an empty list
func (l *BookList) Selected() *domain.Book {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return nil
	}
	b := l.rows[l.cursor].Book
	return &b
}

// Len returns the number of visible rows
func (l *BookList) Len() int {
	return len(l.rows)
}

// ToggleFilter activates the filter input
func (l *BookList) ToggleFilter() {
	l.filterActive = true
	l.filterInput.Focus()
	l.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (l *BookList) IsFiltering() bool {
	return l.filterActive
}

// IsFilterTyping returns true if filter is active AND input is focused
func (l *BookList) IsFilterTyping() bool {
	return l.filterActive && l.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all books
func (l *BookList) ClearFilter() {
	l.filterActive = false
	l.filterInput.SetValue("")
	l.filterInput.Blur()
	l.applyFilter()
	l.recalcMaxVisible()
}

// SetSpinnerFrame advances the pending-book spinner
func (l *BookList) SetSpinnerFrame(frame int) {
	l.spinnerFrame = frame
}

// SetSize sets the outer size, border included
func (l *BookList) SetSize(width, height int) {
	l.width = width
	l.height = height
	l.recalcMaxVisible()
	l.ensureVisible()
}

func (l *BookList) recalcMaxVisible() {
	interiorHeight := l.height - BorderHeight
	l.maxVisible = interiorHeight - ScrollIndicatorLines - 1 // -1 for title
	if l.filterActive {
		l.maxVisible--
	}
	if l.maxVisible < 1 {
		l.maxVisible = 1
	}
}

func (l *BookList) ensureVisible() {
	if l.maxVisible <= 0 {
		return
	}
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.maxVisible {
		l.offset = l.cursor - l.maxVisible + 1
	}
}

func (l *BookList) clampCursor() {
	if l.cursor >= len(l.rows) {
		l.cursor = len(l.rows) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.offset > l.cursor {
		l.offset = l.cursor
	}
}

func (l *BookList) applyFilter() {
	query := l.filterInput.Value()
	changed := query != l.filterQuery
	l.filterQuery = query

	l.rows = search.NewIndex(l.books).Filter(query)

	if changed {
		// Reset cursor to first match
		l.cursor = 0
		l.offset = 0
	}
	l.clampCursor()
}

// View renders the bordered list
func (l *BookList) View() string {
	style := styles.ActiveBorder
	frameW, frameH := style.GetFrameSize()

	return style.
		Width(max(l.width-frameW, 0)).
		Height(max(l.height-frameH, 0)).
		Render(l.renderContent())
}

func (l *BookList) renderContent() string {
	itemWidth := l.width - BorderWidth
	if itemWidth < 20 {
		itemWidth = 20
	}

	titleLine := styles.AccentStyle.Render(styles.Truncate(fmt.Sprintf("Library (%d)", len(l.books)), itemWidth))

	count := len(l.rows)
	if count == 0 {
		emptyMsg := styles.DimStyle.Render("No books yet. Press a to add a PDF.")
		if l.filterActive && l.filterQuery != "" {
			emptyMsg = styles.DimStyle.Render("No matches")
		}
		content := titleLine + "\n" + " " + "\n" + emptyMsg + "\n" + " "
		if l.filterActive {
			content += "\n" + l.renderFilterBar(itemWidth)
		}
		return content
	}

	end := l.offset + l.maxVisible
	if end > count {
		end = count
	}

	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		lines = append(lines, l.renderBook(l.rows[i], i == l.cursor, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if l.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if l.filterActive {
		content += "\n" + l.renderFilterBar(itemWidth)
	}
	return content
}

func (l *BookList) renderBook(r search.Result, selected bool, width int) string {
	p := styles.Current
	book := r.Book

	badgeStyle := lipgloss.NewStyle().
		Foreground(p.Strong).
		Background(styles.CardColor(book.ID)).
		Bold(true)
	badge := badgeStyle.Render(" " + book.Initials() + " ")

	var status string
	var statusFg lipgloss.Color
	switch book.Status {
	case domain.BookStatusPending:
		status = styles.SpinnerFrames[l.spinnerFrame%len(styles.SpinnerFrames)] + " processing"
		statusFg = p.Accent
	case domain.BookStatusFailed:
		status = "✗ failed"
		statusFg = p.Red
	default:
		status = "✓ ready"
		statusFg = p.Green
	}

	progress := book.FormattedProgress()

	titleWidth := width - lipgloss.Width(badge) - statusColumnWidth - progressColumnWidth - 4
	if titleWidth < 8 {
		titleWidth = 8
	}
	title := styles.Truncate(search.Title(book), titleWidth)

	parts := []styles.RowPart{{Text: " "}}
	parts = append(parts, highlightParts(title, r.MatchedIndexes, selected)...)

	padding := titleWidth - lipgloss.Width(title)
	if padding > 0 {
		parts = append(parts, styles.RowPart{Text: strings.Repeat(" ", padding)})
	}
	dim := p.Muted
	parts = append(parts,
		styles.RowPart{Text: " " + padRight(status, statusColumnWidth), Foreground: &statusFg},
		styles.RowPart{Text: " " + padRight(progress, progressColumnWidth), Foreground: &dim},
	)

	// the badge keeps its card color, outside the row background
	return badge + styles.RenderListRow(parts, selected, width-lipgloss.Width(badge))
}

// highlightParts splits title into runs, styling the runes the filter matched.
// matched holds byte offsets into the lowercased title.
func highlightParts(title string, matched []int, selected bool) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}

	lower := []rune(strings.ToLower(title))
	runes := []rune(title)
	if len(lower) != len(runes) {
		return []styles.RowPart{{Text: title}}
	}

	hit := make(map[int]bool, len(matched))
	for _, m := range matched {
		hit[m] = true
	}

	matchStyle := styles.MatchHighlightStyle
	if selected {
		matchStyle = styles.MatchHighlightSelectedStyle
	}

	var parts []styles.RowPart
	var run strings.Builder
	runHit := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		part := styles.RowPart{Text: run.String()}
		if runHit {
			s := matchStyle
			part.Style = &s
		}
		parts = append(parts, part)
		run.Reset()
	}

	bytePos := 0
	for i, r := range runes {
		isHit := hit[bytePos]
		if isHit != runHit {
			flush()
			runHit = isHit
		}
		run.WriteRune(r)
		bytePos += len(string(lower[i]))
	}
	flush()
	return parts
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func (l *BookList) renderFilterBar(width int) string {
	l.filterInput.PromptStyle = styles.FilterPromptStyle
	l.filterInput.TextStyle = styles.FilterStyle
	l.filterInput.Width = width - 4
	return l.filterInput.View()
}
