package text

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

func pagesOf(texts ...string) []domain.Page {
	pages := make([]domain.Page, len(texts))
	for i, t := range texts {
		pages[i] = domain.Page{Number: i + 1, Text: t}
	}
	return pages
}

func TestNormalise_CollapsesWhitespace(t *testing.T) {
	n := New()

	out := n.Normalise(pagesOf("  Study   permits\t\tallow\r\n\r\n\n  full-time   study. "))

	require.Len(t, out, 1)
	assert.Equal(t, "Study permits allow\nfull-time study.", out[0].Text)
	assert.Equal(t, 1, out[0].Number)
}

func TestNormalise_Dehyphenates(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple break", input: "The appli-\ncant must apply.", expected: "The applicant must apply."},
		{name: "break with trailing spaces", input: "docu-  \n  ments", expected: "documents"},
		{name: "chained breaks", input: "a-\nb-\nc", expected: "abc"},
		{name: "real hyphen kept", input: "full-time study", expected: "full-time study"},
		{name: "hyphen before blank line", input: "end-\n\nnext", expected: "endnext"},
		{name: "unicode letters", input: "Aufent-\nhalt", expected: "Aufenthalt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := New().Normalise(pagesOf(tt.input))
			assert.Equal(t, tt.expected, out[0].Text)
		})
	}
}

func TestNormalise_StripsRunningHeadersAndFooters(t *testing.T) {
	var texts []string
	for i := 1; i <= 5; i++ {
		texts = append(texts, fmt.Sprintf("Government of Canada\nBody of page %d.\nIRCC Guide 5269", i))
	}

	out := New().Normalise(pagesOf(texts...))

	require.Len(t, out, 5)
	for i, p := range out {
		assert.Equal(t, fmt.Sprintf("Body of page %d.", i+1), p.Text)
	}
}

func TestNormalise_KeepsLinesBelowThreshold(t *testing.T) {
	// "Heading" is first on 1 of 5 pages: not above max(1, 1.5).
	out := New().Normalise(pagesOf(
		"Heading\nOne.",
		"Two.",
		"Three.",
		"Four.",
		"Five.",
	))

	assert.Equal(t, "Heading\nOne.", out[0].Text)
}

func TestNormalise_SinglePageNeverStripped(t *testing.T) {
	out := New().Normalise(pagesOf("Header\nBody\nFooter"))
	assert.Equal(t, "Header\nBody\nFooter", out[0].Text)
}

func TestNormalise_RatioOption(t *testing.T) {
	texts := []string{"Header\nA", "Header\nB", "C", "D", "E", "F"}

	// Two of six pages: above max(1, 0.3*6=1.8) so stripped by default.
	out := New().Normalise(pagesOf(texts...))
	assert.Equal(t, "A", out[0].Text)

	// With ratio 0.5 the threshold is 3 and the header stays.
	out = New(WithHeaderFooterRatio(0.5)).Normalise(pagesOf(texts...))
	assert.Equal(t, "Header\nA", out[0].Text)
}

func TestNormalise_EmptyPagesStayEmpty(t *testing.T) {
	out := New().Normalise(pagesOf("Text", "   \n\t", ""))

	require.Len(t, out, 3)
	assert.Equal(t, "Text", out[0].Text)
	assert.Equal(t, "", out[1].Text)
	assert.Equal(t, "", out[2].Text)
	assert.Equal(t, 3, out[2].Number)
}

func TestNormalise_NoPages(t *testing.T) {
	assert.Empty(t, New().Normalise(nil))
}

func TestWithHeaderFooterRatio_IgnoresOutOfRange(t *testing.T) {
	n := New(WithHeaderFooterRatio(2))
	assert.InDelta(t, DefaultHeaderFooterRatio, n.ratio, 1e-9)
}
