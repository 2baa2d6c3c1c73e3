// Package reader provides a scrollable view of one passage or answer.
package reader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/keymap"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/messages"
	"github.com/swiftvisa/visarag/internal/adapters/driving/tui/styles"
	"github.com/swiftvisa/visarag/internal/core/domain"
)

// chrome is the number of lines used by the title, subtitle and footer.
const chrome = 5

// View shows long text in a viewport.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	viewport viewport.Model

	title    string
	subtitle string
	body     string
	width    int
	height   int
}

// NewView creates an empty reader.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:   s,
		keymap:   km,
		viewport: viewport.New(80, 24-chrome),
		width:    80,
		height:   24,
	}
}

// SetPassage shows one retrieved chunk with its provenance.
func (v *View) SetPassage(p domain.ScoredChunk) {
	v.title = fmt.Sprintf("Passage #%d", p.ID)
	where := p.SourceDocument
	if pages := p.PageRange(); pages != "" {
		where += ", pages " + pages
	}
	v.subtitle = fmt.Sprintf("%s / %s  %s  distance %.4f", p.Country, p.VisaType, where, p.Distance)
	v.setBody(p.Text)
}

// SetAnswer shows an answer followed by the passages it was given.
func (v *View) SetAnswer(a *domain.Answer) {
	v.title = "Answer"
	v.subtitle = a.Query
	if a.Model != "" {
		v.subtitle += "  (" + a.Model + ")"
	}

	var b strings.Builder
	b.WriteString(a.Text)
	if len(a.Retrieval.Chunks) > 0 {
		b.WriteString("\n\nSources\n")
		for _, c := range a.Retrieval.Chunks {
			fmt.Fprintf(&b, "  #%d %s / %s, %s", c.ID, c.Country, c.VisaType, c.SourceDocument)
			if pages := c.PageRange(); pages != "" {
				b.WriteString(" p." + pages)
			}
			b.WriteString("\n")
		}
	}
	v.setBody(b.String())
}

func (v *View) setBody(body string) {
	v.body = body
	v.viewport.SetContent(lipgloss.NewStyle().Width(v.viewport.Width).Render(body))
	v.viewport.GotoTop()
}

// Update scrolls the viewport and returns to the passage list on back.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && key.Matches(k, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewRetrieve}
		}
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the reader.
func (v *View) View() string {
	footer := fmt.Sprintf("%3.f%%  ↑/↓ scroll  esc back", v.viewport.ScrollPercent()*100)
	return lipgloss.JoinVertical(lipgloss.Left,
		v.styles.Title.Render(v.title),
		v.styles.Provenance.Render(v.subtitle),
		"",
		v.viewport.View(),
		v.styles.Muted.Render(footer),
	)
}

// SetDimensions resizes the viewport and rewraps the body.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-chrome, 3)
	v.setBody(v.body)
}

// Title returns the current heading.
func (v *View) Title() string {
	return v.title
}

// Body returns the unwrapped text being shown.
func (v *View) Body() string {
	return v.body
}
