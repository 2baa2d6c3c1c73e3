// Package text cleans per-page text extracted from policy documents.
package text

import (
	"math"
	"regexp"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.TextNormaliser = (*Normaliser)(nil)

// DefaultHeaderFooterRatio is the page fraction above which a recurring
// first or last line is treated as a running header or footer.
const DefaultHeaderFooterRatio = 0.3

var (
	horizontalSpace = regexp.MustCompile(`[\t\f\v \x{00A0}]+`)
	hyphenBreak     = regexp.MustCompile(`([\p{L}\p{N}_]+)-\n([\p{L}\p{N}_]+)`)
)

// Normaliser collapses whitespace, rejoins hyphenated line breaks and
// strips running headers and footers.
type Normaliser struct {
	ratio float64
}

// Option configures a Normaliser.
type Option func(*Normaliser)

// WithHeaderFooterRatio sets the recurrence fraction for header and footer stripping.
func WithHeaderFooterRatio(ratio float64) Option {
	return func(n *Normaliser) {
		if ratio >= 0 && ratio <= 1 {
			n.ratio = ratio
		}
	}
}

// New creates a normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{ratio: DefaultHeaderFooterRatio}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalise cleans each page of one document. Header and footer detection
// looks across all pages, so the slice must hold the whole document.
func (n *Normaliser) Normalise(pages []domain.Page) []domain.Page {
	lines := make([][]string, len(pages))
	for i, p := range pages {
		lines[i] = splitLines(dehyphenate(collapse(p.Text)))
	}

	lines = n.stripRunning(lines)

	out := make([]domain.Page, len(pages))
	for i, p := range pages {
		out[i] = domain.Page{Number: p.Number, Text: strings.Join(lines[i], "\n")}
	}
	return out
}

// collapse folds horizontal whitespace to single spaces, trims every line
// and drops blank lines so newline runs become a single newline.
func collapse(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	var b strings.Builder
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(horizontalSpace.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

func dehyphenate(s string) string {
	for {
		joined := hyphenBreak.ReplaceAllString(s, "${1}${2}")
		if joined == s {
			return s
		}
		s = joined
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// stripRunning removes first and last lines that recur on more than
// max(1, ratio*pages) pages.
func (n *Normaliser) stripRunning(pages [][]string) [][]string {
	top := make(map[string]int)
	bottom := make(map[string]int)
	withText := 0
	for _, lines := range pages {
		if len(lines) == 0 {
			continue
		}
		withText++
		top[lines[0]]++
		bottom[lines[len(lines)-1]]++
	}

	threshold := math.Max(1, n.ratio*float64(withText))
	common := func(counts map[string]int, line string) bool {
		return float64(counts[line]) > threshold
	}

	out := make([][]string, len(pages))
	for i, lines := range pages {
		if len(lines) > 0 && common(top, lines[0]) {
			lines = lines[1:]
		}
		if len(lines) > 0 && common(bottom, lines[len(lines)-1]) {
			lines = lines[:len(lines)-1]
		}
		out[i] = lines
	}
	return out
}
