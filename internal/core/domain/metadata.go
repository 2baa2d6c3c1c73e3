package domain

import "fmt"

// MetadataStore maps chunk ids to provenance.
// Position i always holds the chunk with ID i, so the store is
// index-aligned with the vector index built from the same chunks.
type MetadataStore struct {
	chunks []Chunk
}

// NewMetadataStore creates a store from chunks already in id order.
// The chunks are validated before the store is returned.
func NewMetadataStore(chunks []Chunk) (*MetadataStore, error) {
	s := &MetadataStore{chunks: make([]Chunk, 0, len(chunks))}
	for _, c := range chunks {
		if err := s.Append(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append adds the next chunk. Its ID must equal the current length.
func (s *MetadataStore) Append(c Chunk) error {
	if c.ID != len(s.chunks) {
		return fmt.Errorf("%w: chunk id %d at position %d", ErrCorruptArtifact, c.ID, len(s.chunks))
	}
	if err := c.Validate(); err != nil {
		return err
	}
	s.chunks = append(s.chunks, c)
	return nil
}

// Get returns the chunk with the given id.
func (s *MetadataStore) Get(id int) (Chunk, bool) {
	if s == nil || id < 0 || id >= len(s.chunks) {
		return Chunk{}, false
	}
	return s.chunks[id], true
}

// Len returns the number of chunks.
func (s *MetadataStore) Len() int {
	if s == nil {
		return 0
	}
	return len(s.chunks)
}

// Chunks returns a copy of all chunks in id order.
func (s *MetadataStore) Chunks() []Chunk {
	if s == nil {
		return nil
	}
	out := make([]Chunk, len(s.chunks))
	copy(out, s.chunks)
	return out
}

// Countries returns the distinct countries present, in first-seen order.
func (s *MetadataStore) Countries() []string {
	return s.distinct(func(c Chunk) string { return c.Country })
}

// VisaTypes returns the distinct visa types present, in first-seen order.
func (s *MetadataStore) VisaTypes() []string {
	return s.distinct(func(c Chunk) string { return c.VisaType })
}

func (s *MetadataStore) distinct(field func(Chunk) string) []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, c := range s.chunks {
		v := field(c)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
