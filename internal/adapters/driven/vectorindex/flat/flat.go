// Package flat implements exact brute-force nearest-neighbour search.
package flat

import (
	"fmt"
	"io"
	"sync"

	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/binio"
	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/vecmath"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.VectorIndex = (*Index)(nil)

// Index stores vectors contiguously and scans all of them per query.
type Index struct {
	mu   sync.RWMutex
	dim  int
	data []float32
}

// New creates an empty index for vectors of the given dimension.
func New(dimension int) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	return &Index{dim: dimension}, nil
}

// Strategy returns IndexStrategyFlat.
func (x *Index) Strategy() domain.IndexStrategy { return domain.IndexStrategyFlat }

// Exact returns true.
func (x *Index) Exact() bool { return true }

// Dimension returns the vector length.
func (x *Index) Dimension() int { return x.dim }

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.data) / x.dim
}

// Add appends vectors. Nothing is stored if any vector has the wrong length.
func (x *Index) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: vector %d has length %d, index expects %d", domain.ErrDimensionMismatch, i, len(v), x.dim)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	return nil
}

// Search scans every vector.
func (x *Index) Search(query []float32, k int) ([]domain.Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has length %d, index expects %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 {
		return []domain.Hit{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	top := vecmath.NewTopK(k)
	for id, off := 0, 0; off < len(x.data); id, off = id+1, off+x.dim {
		top.Push(id, vecmath.SquaredL2(query, x.data[off:off+x.dim]))
	}
	return top.Results(), nil
}

// Encode writes the dimension and the raw vectors.
func (x *Index) Encode(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bw := binio.NewWriter(w)
	bw.Int(x.dim)
	bw.Float32s(x.data)
	return bw.Flush()
}

// Decode reads an index written by Encode.
func Decode(r io.Reader) (*Index, error) {
	br := binio.NewReader(r)
	dim := br.Int()
	data := br.Float32s()
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("decode flat index: %w", err)
	}
	if dim <= 0 || len(data)%dim != 0 {
		return nil, fmt.Errorf("decode flat index: %w: %d values do not fit dimension %d", domain.ErrCorruptArtifact, len(data), dim)
	}
	return &Index{dim: dim, data: data}, nil
}
