// Package postprocessors turns normalised documents into chunks.
package postprocessors

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs processors in order and then settles each chunk's
// provenance so the build can merge chunks from many documents.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline. The first processor receives no chunks
// and is expected to create them.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process chunks doc. Blank chunks are dropped and positions renumbered
// from zero; ids equal positions until the build assigns global ids.
// Missing provenance is taken from the document.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = proc.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", proc.Name(), err)
		}
	}
	return settle(doc, chunks)
}

func settle(doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if c.SourceDocument == "" {
			c.SourceDocument = doc.Source
		}
		if c.Country == "" {
			c.Country = doc.Country
		}
		if c.VisaType == "" {
			c.VisaType = doc.VisaType
		}
		c.Pages = slices.Compact(slices.Sorted(slices.Values(c.Pages)))
		c.Position = len(out)
		c.ID = c.Position
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s chunk %d: %w", doc.Source, c.Position, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// Add appends a processor.
func (p *Pipeline) Add(proc driven.PostProcessor) {
	p.processors = append(p.processors, proc)
}

// Len returns the number of processors.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
