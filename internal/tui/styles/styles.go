package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette holds the colors of one theme
type Palette struct {
	Accent   lipgloss.Color
	Surface  lipgloss.Color // modal and selection background
	Raised   lipgloss.Color // selected row background
	Muted    lipgloss.Color
	Subtle   lipgloss.Color
	Text     lipgloss.Color
	Strong   lipgloss.Color
	Green    lipgloss.Color
	Red      lipgloss.Color
	Blue     lipgloss.Color
	WordFg   lipgloss.Color // highlighted word
	WordBg   lipgloss.Color
	CardTint []lipgloss.Color
}

// Light and Dark are the two built-in themes
var (
	Light = Palette{
		Accent:  lipgloss.Color("#6200EE"),
		Surface: lipgloss.Color("#F3F4F6"),
		Raised:  lipgloss.Color("#E5E7EB"),
		Muted:   lipgloss.Color("#6B7280"),
		Subtle:  lipgloss.Color("#4B5563"),
		Text:    lipgloss.Color("#1F2937"),
		Strong:  lipgloss.Color("#111827"),
		Green:   lipgloss.Color("#059669"),
		Red:     lipgloss.Color("#DC2626"),
		Blue:    lipgloss.Color("#2563EB"),
		WordFg:  lipgloss.Color("#111827"),
		WordBg:  lipgloss.Color("#FDE68A"),
		CardTint: []lipgloss.Color{
			"#FFCDD2", "#F8BBD0", "#E1BEE7", "#D1C4E9", "#C5CAE9",
			"#BBDEFB", "#B3E5FC", "#B2EBF2", "#B2DFDB", "#C8E6C9",
		},
	}

	Dark = Palette{
		Accent:  lipgloss.Color("#BB86FC"),
		Surface: lipgloss.Color("#1F2937"),
		Raised:  lipgloss.Color("#374151"),
		Muted:   lipgloss.Color("#6B7280"),
		Subtle:  lipgloss.Color("#9CA3AF"),
		Text:    lipgloss.Color("#E5E7EB"),
		Strong:  lipgloss.Color("#F9FAFB"),
		Green:   lipgloss.Color("#10B981"),
		Red:     lipgloss.Color("#EF4444"),
		Blue:    lipgloss.Color("#3B82F6"),
		WordFg:  lipgloss.Color("#111827"),
		WordBg:  lipgloss.Color("#E5A00D"),
		CardTint: []lipgloss.Color{
			"#B71C1C", "#880E4F", "#4A148C", "#311B92", "#1A237E",
			"#0D47A1", "#01579B", "#006064", "#004D40", "#1B5E20",
		},
	}
)

// Current is the palette the styles below were built from
var Current = Light

// Spinner frames shared by the TUI and the CLI
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Borders
var (
	ActiveBorder   lipgloss.Style
	InactiveBorder lipgloss.Style
)

// Text styles
var (
	TitleStyle     lipgloss.Style
	SubtitleStyle  lipgloss.Style
	DimStyle       lipgloss.Style
	AccentStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	SuccessStyle   lipgloss.Style
	HighlightStyle lipgloss.Style
	BodyStyle      lipgloss.Style
	WordStyle      lipgloss.Style
)

// Modal styles
var (
	ModalStyle      lipgloss.Style
	ModalTitleStyle lipgloss.Style
)

// Help styles
var (
	HelpKeyStyle  lipgloss.Style
	HelpDescStyle lipgloss.Style
)

// Badge styles
var (
	BadgeStyle    lipgloss.Style
	DimBadgeStyle lipgloss.Style
)

// Spinner, filter and match styles
var (
	SpinnerStyle                lipgloss.Style
	FilterStyle                 lipgloss.Style
	FilterPromptStyle           lipgloss.Style
	MatchHighlightStyle         lipgloss.Style
	MatchHighlightSelectedStyle lipgloss.Style
)

func init() {
	Apply(false)
}

// Apply rebuilds every style from the light or dark palette
func Apply(dark bool) {
	p := Light
	if dark {
		p = Dark
	}
	Current = p

	ActiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent)
	InactiveBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Muted)

	TitleStyle = lipgloss.NewStyle().Foreground(p.Strong).Bold(true)
	SubtitleStyle = lipgloss.NewStyle().Foreground(p.Subtle)
	DimStyle = lipgloss.NewStyle().Foreground(p.Muted)
	AccentStyle = lipgloss.NewStyle().Foreground(p.Accent)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Red)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Green)
	HighlightStyle = lipgloss.NewStyle().
		Foreground(p.Strong).
		Background(p.Raised).
		Padding(0, 1)
	BodyStyle = lipgloss.NewStyle().Foreground(p.Text)
	WordStyle = lipgloss.NewStyle().
		Foreground(p.WordFg).
		Background(p.WordBg).
		Bold(true)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(1, 2).
		Background(p.Surface)
	ModalTitleStyle = lipgloss.NewStyle().
		Foreground(p.Strong).
		Bold(true).
		MarginBottom(1)

	HelpKeyStyle = lipgloss.NewStyle().Foreground(p.Accent)
	HelpDescStyle = lipgloss.NewStyle().Foreground(p.Muted)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(p.Strong).
		Background(p.Accent).
		Padding(0, 1)
	DimBadgeStyle = lipgloss.NewStyle().
		Foreground(p.Subtle).
		Background(p.Raised).
		Padding(0, 1)

	SpinnerStyle = lipgloss.NewStyle().Foreground(p.Accent)
	FilterStyle = lipgloss.NewStyle().Foreground(p.Accent)
	FilterPromptStyle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	MatchHighlightStyle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	MatchHighlightSelectedStyle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Background(p.Raised).
		Bold(true)
}

// CardColor picks a stable tint for a book from its id
func CardColor(id string) lipgloss.Color {
	tints := Current.CardTint
	var h uint32
	for i := 0; i < len(id); i++ {
		h = h*31 + uint32(id[i])
	}
	return tints[h%uint32(len(tints))]
}

// Helper functions

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

// RenderProgressBar renders a progress bar
func RenderProgressBar(percent float64, width int) string {
	if width < 3 {
		return ""
	}

	filled := int(float64(width) * percent / 100)
	if filled > width {
		filled = width
	}

	full := lipgloss.NewStyle().Foreground(Current.Accent)
	empty := lipgloss.NewStyle().Foreground(Current.Muted)
	return full.Render(strings.Repeat("█", filled)) + empty.Render(strings.Repeat("░", width-filled))
}

// RenderListRow renders a complete list row with uniform background when selected.
// Each part is styled explicitly to avoid ANSI reset codes breaking the background.
func RenderListRow(parts []RowPart, selected bool, width int) string {
	bg := Current.Raised

	var result string
	visibleLen := 0

	for _, part := range parts {
		style := lipgloss.NewStyle()
		switch {
		case part.Style != nil:
			style = *part.Style
		case part.Foreground != nil:
			style = style.Foreground(*part.Foreground)
		case selected:
			style = style.Foreground(Current.Strong)
		default:
			style = style.Foreground(Current.Text)
		}
		if selected && part.Style == nil {
			style = style.Background(bg)
		}
		result += style.Render(part.Text)
		visibleLen += lipgloss.Width(part.Text)
	}

	// subtract 2 for left/right margin
	paddingNeeded := width - visibleLen - 2
	marginStyle := lipgloss.NewStyle()
	if selected {
		marginStyle = marginStyle.Background(bg)
	}
	if paddingNeeded > 0 {
		result += marginStyle.Render(strings.Repeat(" ", paddingNeeded))
	}

	margin := marginStyle.Render(" ")
	return margin + result + margin
}

// RowPart is one piece of a row. Style wins over Foreground; both nil uses the row default.
type RowPart struct {
	Text       string
	Foreground *lipgloss.Color
	Style      *lipgloss.Style
}
