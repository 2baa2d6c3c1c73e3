// Package list provides the passage list for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/styles"
	"github.com/swiftvisa/visarag/internal/core/domain"
)

// linesPerPassage is the height of one rendered entry including the gap.
const linesPerPassage = 3

// PassageList displays retrieved passages nearest first.
type PassageList struct {
	passages []domain.ScoredChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewPassageList creates an empty list.
func NewPassageList(s *styles.Styles) *PassageList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &PassageList{styles: s, width: 80, height: 12}
}

// View renders the entries that fit, scrolled to keep the selection visible.
func (l *PassageList) View() string {
	if len(l.passages) == 0 {
		return l.styles.Muted.Render("No passages")
	}

	visible := max((l.height-2)/linesPerPassage, 1)
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := min(start+visible, len(l.passages))

	lines := make([]string, 0, end-start+2)
	lines = append(lines, l.styles.Heading.Render(fmt.Sprintf("Passages (%d)", len(l.passages))), "")
	for i := start; i < end; i++ {
		lines = append(lines, l.renderPassage(i))
	}
	return strings.Join(lines, "\n")
}

func (l *PassageList) renderPassage(i int) string {
	p := l.passages[i]

	head := fmt.Sprintf("#%d  %s / %s", p.ID, p.Country, p.VisaType)
	where := p.SourceDocument
	if pages := p.PageRange(); pages != "" {
		where += " p." + pages
	}
	dist := fmt.Sprintf("%.4f", p.Distance)

	var title string
	if i == l.selected {
		title = l.styles.Selected.Render("> " + head + "  " + where + "  " + dist)
	} else {
		title = "  " + l.styles.Provenance.Render(head) + "  " +
			l.styles.Normal.Render(where) + "  " + l.styles.Muted.Render(dist)
	}

	preview := strings.Join(strings.Fields(p.Text), " ")
	preview = truncate(preview, max(l.width-6, 20))
	return title + "\n" + l.styles.Muted.Render("    "+preview) + "\n"
}

// truncate shortens s to at most n display columns.
func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+3 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

// SetPassages replaces the list and selects the first entry.
func (l *PassageList) SetPassages(passages []domain.ScoredChunk) {
	l.passages = passages
	l.selected = 0
}

// Passages returns the current entries.
func (l *PassageList) Passages() []domain.ScoredChunk {
	return l.passages
}

// Selected returns the index of the selected entry.
func (l *PassageList) Selected() int {
	return l.selected
}

// SelectedPassage returns the selected entry, or nil if the list is empty.
func (l *PassageList) SelectedPassage() *domain.ScoredChunk {
	if l.selected < 0 || l.selected >= len(l.passages) {
		return nil
	}
	return &l.passages[l.selected]
}

// MoveUp moves selection up.
func (l *PassageList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *PassageList) MoveDown() {
	if l.selected < len(l.passages)-1 {
		l.selected++
	}
}

// SetDimensions sets the space the list may draw in.
func (l *PassageList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of entries.
func (l *PassageList) Count() int {
	return len(l.passages)
}
