package driven

import (
	"io"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// VectorIndex stores embedding vectors and answers nearest-neighbour queries.
// Vector ids are assigned densely in insertion order starting at zero, so the
// i-th vector added corresponds to chunk i.
//
// Add is build-time only. Once built, Search is safe for concurrent callers.
type VectorIndex interface {
	// Strategy names the index structure.
	Strategy() domain.IndexStrategy

	// Exact reports whether Search always returns the true top-k.
	Exact() bool

	// Dimension returns the vector length the index accepts.
	Dimension() int

	// Len returns the number of stored vectors.
	Len() int

	// Add appends vectors. Every vector must have length Dimension().
	Add(vectors [][]float32) error

	// Search returns at most k hits by ascending squared Euclidean distance,
	// ties broken by ascending id.
	Search(query []float32, k int) ([]domain.Hit, error)

	// Encode writes the index body. Decoding is done by the IndexFactory.
	Encode(w io.Writer) error
}

// Trainer is implemented by indexes that need a training pass before Add.
type Trainer interface {
	// Train fits the index to a representative sample. It must complete
	// before the first Add and may only run once.
	Train(sample [][]float32) error

	// Trained reports whether Train has completed.
	Trained() bool
}

// IndexFactory creates and decodes vector indexes.
type IndexFactory interface {
	// New returns an empty index for the strategy. The auto strategy is
	// resolved against the expected vector count.
	New(strategy domain.IndexStrategy, dimension, expected int) (VectorIndex, error)

	// Build creates an index and adds vectors, training it first when the
	// strategy needs it. dimension is used only when vectors is empty.
	Build(strategy domain.IndexStrategy, dimension int, vectors [][]float32) (VectorIndex, error)

	// Decode reconstructs an index written by Encode.
	Decode(strategy domain.IndexStrategy, r io.Reader) (VectorIndex, error)
}
