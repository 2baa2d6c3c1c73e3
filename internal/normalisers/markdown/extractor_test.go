package markdown

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

func TestNew(t *testing.T) {
	e := New()
	require.NotNil(t, e)
	assert.Equal(t, "markdown", e.Name())
	assert.Equal(t, []string{".md", ".markdown"}, e.SupportedExtensions())
	assert.Equal(t, 50, e.Priority())
}

func TestExtract_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "work-permit.md")
	content := "# Work Permit\n\nApply with form `IMM 1295`.\n\n- Valid passport\n- Job offer\f## Fees\n\nSee [the fee list](https://example.com/fees)."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	pages, err := New().Extract(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "Work Permit\n\nApply with form IMM 1295.\n\nValid passport\nJob offer", pages[0].Text)
	assert.Equal(t, "Fees\n\nSee the fee list.", pages[1].Text)
}

func TestExtract_Errors(t *testing.T) {
	_, err := New().Extract(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Extract(context.Background(), filepath.Join(t.TempDir(), "missing.md"))
	assert.Error(t, err)
}

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "headings removed", input: "# Title\n## Subtitle\n### Third", expected: "Title\nSubtitle\nThird"},
		{name: "bold removed", input: "This is **bold** text", expected: "This is bold text"},
		{name: "underscores in words kept", input: "visa_type field", expected: "visa_type field"},
		{name: "links converted", input: "Click [here](https://example.com)", expected: "Click here"},
		{name: "images removed", input: "See ![alt text](image.png) here", expected: "See  here"},
		{name: "code blocks removed", input: "Before\n```go\ncode here\n```\nAfter", expected: "Before\n\nAfter"},
		{name: "inline code kept as text", input: "Use `form A` here", expected: "Use form A here"},
		{name: "blockquotes cleaned", input: "> This is a quote", expected: "This is a quote"},
		{name: "list markers removed", input: "- Item 1\n- Item 2", expected: "Item 1\nItem 2"},
		{name: "numbered list markers removed", input: "1. First\n2. Second", expected: "First\nSecond"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Extractor = (*Extractor)(nil)
}
