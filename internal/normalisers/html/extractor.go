package html

import (
	"context"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles saved HTML pages, such as immigration portal articles.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Name identifies the extractor in logs.
func (e *Extractor) Name() string {
	return "html"
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50
}

// Extract returns the page's readable text as a single page.
func (e *Extractor) Extract(_ context.Context, path string) ([]domain.Page, error) {
	if path == "" {
		return nil, domain.ErrInvalidInput
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return []domain.Page{{Number: 1, Text: stripHTML(string(content))}}, nil
}

// Pre-compiled regular expressions for HTML parsing performance.
var (
	// Elements whose content is never readable text.
	invisible = []*regexp.Regexp{
		regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`),
		regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`),
		regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`),
		regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`),
		regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`),
		regexp.MustCompile(`(?is)<nav[^>]*>.*?</nav>`),
		regexp.MustCompile(`(?s)<!--.*?-->`),
	}

	// Tags that end a line of text.
	lineBreaks = []*regexp.Regexp{
		regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`),
		regexp.MustCompile(`(?i)</(p|div|br|hr|h[1-6]|li|tr|blockquote|pre|table|section|article)>`),
		regexp.MustCompile(`(?i)<br\s*/?>`),
		regexp.MustCompile(`(?i)<hr\s*/?>`),
	}

	cellEnd  = regexp.MustCompile(`(?i)</t[dh]>`)
	allTags  = regexp.MustCompile(`<[^>]+>`)
	hSpace   = regexp.MustCompile(`[ \t]+`)
	manyRows = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes markup and returns readable text, one block per line.
// Table cells are separated by a space so fee tables stay legible.
func stripHTML(content string) string {
	for _, re := range invisible {
		content = re.ReplaceAllString(content, "")
	}
	for _, re := range lineBreaks {
		content = re.ReplaceAllString(content, "\n")
	}
	content = cellEnd.ReplaceAllString(content, " ")
	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = hSpace.ReplaceAllString(content, " ")
	content = manyRows.ReplaceAllString(content, "\n\n")

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
