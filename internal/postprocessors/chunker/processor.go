// Package chunker splits normalised documents into overlapping,
// word-bounded chunks that keep page provenance.
package chunker

import (
	"context"
	"sort"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// DefaultMaxWords is the default upper bound on words per chunk.
const DefaultMaxWords = 200

// DefaultStrideWords is the default minimum overlap in words.
const DefaultStrideWords = 50

// Processor windows a document's sentences (or words) into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	maxWords    int
	strideWords int
	segmenter   Segmenter
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxWords sets the upper bound on words per chunk.
func WithMaxWords(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxWords = n
		}
	}
}

// WithStrideWords sets the minimum overlap carried into the next chunk.
func WithStrideWords(n int) Option {
	return func(p *Processor) {
		if n >= 0 {
			p.strideWords = n
		}
	}
}

// WithMode selects sentence or word windowing.
func WithMode(mode domain.ChunkMode) Option {
	return func(p *Processor) {
		switch mode {
		case domain.ChunkModeWord:
			p.segmenter = WordSegmenter{}
		case domain.ChunkModeSentence:
			p.segmenter = SentenceSegmenter{}
		}
	}
}

// WithSegmenter sets a custom segmenter.
func WithSegmenter(s Segmenter) Option {
	return func(p *Processor) {
		if s != nil {
			p.segmenter = s
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxWords:    DefaultMaxWords,
		strideWords: DefaultStrideWords,
		segmenter:   SentenceSegmenter{},
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must leave room for new content.
	if p.strideWords >= p.maxWords {
		p.strideWords = p.maxWords / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document pages into chunks.
// Input chunks are ignored; this processor creates new chunks from the pages.
// Chunk IDs equal their position; global ids are assigned when a build merges documents.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	units := p.units(doc.Pages)
	if len(units) == 0 {
		return nil, nil
	}

	spans := Window(units, p.maxWords, p.strideWords)
	chunks := make([]domain.Chunk, 0, len(spans))
	for position, span := range spans {
		chunks = append(chunks, domain.Chunk{
			ID:             position,
			SourceDocument: doc.Source,
			Pages:          pagesOf(units[span.Start:span.End]),
			Country:        doc.Country,
			VisaType:       doc.VisaType,
			Position:       position,
			Text:           joinUnits(units[span.Start:span.End]),
		})
	}
	return chunks, nil
}

// units segments every non-empty page, tagging units with the page number.
func (p *Processor) units(pages []domain.Page) []Unit {
	var units []Unit
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		for _, text := range p.segmenter.Segment(page.Text) {
			words := domain.WordCount(text)
			if words == 0 {
				continue
			}
			units = append(units, Unit{Text: text, Page: page.Number, Words: words})
		}
	}
	return units
}

func joinUnits(units []Unit) string {
	parts := make([]string, len(units))
	for i, u := range units {
		parts[i] = u.Text
	}
	return strings.Join(parts, " ")
}

func pagesOf(units []Unit) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, u := range units {
		if !seen[u.Page] {
			seen[u.Page] = true
			pages = append(pages, u.Page)
		}
	}
	sort.Ints(pages)
	return pages
}
