package domain

import "strings"

// Filter restricts retrieval to chunks with matching provenance.
// Empty fields match anything. Comparison ignores case.
type Filter struct {
	// Country limits results to one country.
	Country string

	// VisaType limits results to one visa type.
	VisaType string
}

// IsZero reports whether the filter accepts every chunk.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Country) == "" && strings.TrimSpace(f.VisaType) == ""
}

// Matches reports whether a chunk satisfies the filter.
func (f Filter) Matches(c Chunk) bool {
	if country := strings.TrimSpace(f.Country); country != "" && !strings.EqualFold(country, c.Country) {
		return false
	}
	if visa := strings.TrimSpace(f.VisaType); visa != "" && !strings.EqualFold(visa, c.VisaType) {
		return false
	}
	return true
}

// Hit is one vector index result.
type Hit struct {
	// ID is the chunk id of the matched vector.
	ID int

	// Distance is the squared Euclidean distance to the query.
	Distance float32
}

// ScoredChunk is a retrieved chunk with its distance to the query.
type ScoredChunk struct {
	Chunk

	// Distance is the squared Euclidean distance to the query. Lower is closer.
	Distance float32 `json:"distance"`
}

// Retrieval is the result of one retrieve call.
type Retrieval struct {
	// Chunks are ordered by ascending distance, ties by ascending id.
	// An empty slice means no content matched; it is not an error.
	Chunks []ScoredChunk `json:"chunks"`

	// Exact is false when the serving index is approximate and the
	// true nearest neighbours may have been missed.
	Exact bool `json:"exact"`

	// Strategy names the index strategy that served the query.
	Strategy IndexStrategy `json:"strategy"`

	// BuildID identifies the index snapshot that served the query.
	BuildID string `json:"build_id"`
}
