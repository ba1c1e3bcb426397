package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/hearlearn/internal/domain"
	"github.com/mmcdole/hearlearn/internal/playback"
)

func TestHighlightWords_WrapsToWidth(t *testing.T) {
	out := HighlightWords("one two three four five", -1, 9, 0)
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 3)
	for _, l := range lines {
		assert.LessOrEqual(t, lipgloss.Width(l), 9)
	}
}

func TestHighlightWords_ScrollsToWord(t *testing.T) {
	text := strings.Repeat("word ", 40) + "target"
	out := HighlightWords(text, 40, 10, 3)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, out, "target")
}

func TestHighlightWords_EmptyPage(t *testing.T) {
	assert.Contains(t, HighlightWords("   ", 0, 20, 5), "no text")
}

func TestHighlightParts_SplitsMatchedRuns(t *testing.T) {
	parts := highlightParts("History", []int{0, 1, 2}, false)

	require.Len(t, parts, 2)
	assert.Equal(t, "His", parts[0].Text)
	assert.NotNil(t, parts[0].Style)
	assert.Equal(t, "tory", parts[1].Text)
	assert.Nil(t, parts[1].Style)
}

func TestHighlightParts_NonASCII(t *testing.T) {
	// byte offsets into "lição": l=0 i=1 ç=2 ã=4 o=6
	parts := highlightParts("Lição", []int{0, 2}, false)

	var joined strings.Builder
	for _, p := range parts {
		joined.WriteString(p.Text)
	}
	assert.Equal(t, "Lição", joined.String())
	require.Len(t, parts, 4)
	assert.Equal(t, "L", parts[0].Text)
	assert.Equal(t, "ç", parts[2].Text)
}

func TestBookList_KeepsSelectionAcrossReload(t *testing.T) {
	l := NewBookList()
	l.SetSize(80, 20)
	l.SetBooks([]domain.Book{{ID: "a", Name: "A.pdf"}, {ID: "b", Name: "B.pdf"}, {ID: "c", Name: "C.pdf"}})

	l.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	require.Equal(t, "b", l.Selected().ID)

	l.SetBooks([]domain.Book{{ID: "b", Name: "B.pdf"}, {ID: "c", Name: "C.pdf"}})
	assert.Equal(t, "b", l.Selected().ID)

	l.SetBooks(nil)
	assert.Nil(t, l.Selected())
}

func TestPageView_IgnoresOlderSnapshots(t *testing.T) {
	v := NewPageView()

	assert.True(t, v.SetSnapshot(playback.Snapshot{Seq: 4, Open: true, TotalPages: 3}))
	assert.False(t, v.SetSnapshot(playback.Snapshot{Seq: 2, Open: true, TotalPages: 3}))
	assert.Equal(t, uint64(4), v.Snapshot().Seq)
}
