package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Unknown is the provenance value used when country or visa type
// cannot be inferred from a document's storage path.
const Unknown = "UNKNOWN"

// Document is an ingested policy document split into pages.
// It is immutable once ingested.
type Document struct {
	// Source is the document identifier, the path relative to the corpus root.
	// Documents are ordered by Source when chunk ids are assigned.
	Source string

	// Path is the absolute location the document was read from.
	Path string

	// Country is the issuing country inferred from the storage path.
	Country string

	// VisaType is the visa category inferred from the storage path.
	VisaType string

	// Pages holds the extracted text per page, in page order.
	Pages []Page
}

// Page is an ordered text segment of a Document.
// It exists only to carry page numbers through chunking.
type Page struct {
	// Number is the 1-based page number.
	Number int

	// Text is the page text, raw after extraction and cleaned after normalisation.
	Text string
}

// WithDefaults fills missing provenance with the Unknown sentinel.
func (d Document) WithDefaults() Document {
	if strings.TrimSpace(d.Country) == "" {
		d.Country = Unknown
	}
	if strings.TrimSpace(d.VisaType) == "" {
		d.VisaType = Unknown
	}
	return d
}

// Chunk is the atomic retrievable unit.
// Chunks are append-only during a build and never mutated afterwards.
type Chunk struct {
	// ID is the dense integer id, equal to the chunk's vector position in the index.
	ID int `json:"chunk_id"`

	// SourceDocument is the Source of the document this chunk was cut from.
	SourceDocument string `json:"source_document"`

	// Pages is the sorted, duplicate-free set of page numbers the chunk spans.
	Pages []int `json:"pages"`

	// Country is the chunk's country, or Unknown.
	Country string `json:"country"`

	// VisaType is the chunk's visa type, or Unknown.
	VisaType string `json:"visa_type"`

	// Position is the ordinal position within the source document.
	Position int `json:"position"`

	// Text is the chunk content.
	Text string `json:"text"`
}

// Validate checks the record invariants of a chunk.
func (c Chunk) Validate() error {
	if c.ID < 0 {
		return fmt.Errorf("%w: chunk id %d is negative", ErrInvalidInput, c.ID)
	}
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("%w: chunk %d has empty text", ErrInvalidInput, c.ID)
	}
	if !sort.IntsAreSorted(c.Pages) {
		return fmt.Errorf("%w: chunk %d pages are not sorted", ErrInvalidInput, c.ID)
	}
	for i := 1; i < len(c.Pages); i++ {
		if c.Pages[i] == c.Pages[i-1] {
			return fmt.Errorf("%w: chunk %d repeats page %d", ErrInvalidInput, c.ID, c.Pages[i])
		}
	}
	return nil
}

// PageRange renders the chunk's pages for display, e.g. "3-5" or "2, 7".
func (c Chunk) PageRange() string {
	switch len(c.Pages) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(c.Pages[0])
	}
	contiguous := c.Pages[len(c.Pages)-1]-c.Pages[0] == len(c.Pages)-1
	if contiguous {
		return fmt.Sprintf("%d-%d", c.Pages[0], c.Pages[len(c.Pages)-1])
	}
	parts := make([]string, len(c.Pages))
	for i, p := range c.Pages {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ", ")
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
