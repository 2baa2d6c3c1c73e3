package normalisers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

type stubExtractor struct {
	name     string
	exts     []string
	priority int
}

func (s *stubExtractor) Name() string                  { return s.name }
func (s *stubExtractor) SupportedExtensions() []string { return s.exts }
func (s *stubExtractor) Priority() int                 { return s.priority }
func (s *stubExtractor) Extract(_ context.Context, _ string) ([]domain.Page, error) {
	return []domain.Page{{Number: 1, Text: s.name}}, nil
}

func TestRegistry_PicksHighestPriority(t *testing.T) {
	r := NewRegistry(
		&stubExtractor{name: "fallback", exts: []string{".txt", ".md"}, priority: 5},
		&stubExtractor{name: "markdown", exts: []string{".md"}, priority: 50},
	)

	pages, err := r.Extract(context.Background(), "/data/canada/study/Guide.MD")
	require.NoError(t, err)
	assert.Equal(t, "markdown", pages[0].Text)

	pages, err = r.Extract(context.Background(), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "fallback", pages[0].Text)
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry(&stubExtractor{name: "pdf", exts: []string{".pdf"}, priority: 50})

	_, err := r.Extract(context.Background(), "scan.tiff")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.False(t, r.Supports("scan.tiff"))
	assert.True(t, r.Supports("a/b/C.PDF"))
}

func TestRegistry_SupportedExtensions(t *testing.T) {
	r := NewRegistry(
		&stubExtractor{name: "b", exts: []string{".txt"}, priority: 1},
		&stubExtractor{name: "a", exts: []string{".PDF", ".docx"}, priority: 1},
	)
	assert.Equal(t, []string{".docx", ".pdf", ".txt"}, r.SupportedExtensions())
}
