// Package ivfpq implements an inverted-file index over product-quantized
// residuals.
//
// Training fits a k-means coarse quantizer with NList centroids, then splits
// every residual (vector minus its coarse centroid) into M sub-vectors and
// fits one codebook of up to 256 centroids per sub-space. Stored vectors are
// reduced to their list number plus M one-byte codes. A query probes the
// NProbe nearest lists and scores codes with per-list distance tables.
package ivfpq

import (
	"fmt"
	"io"
	"math/rand"
	"sort"
	"sync"

	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/binio"
	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/vecmath"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var (
	_ driven.VectorIndex = (*Index)(nil)
	_ driven.Trainer     = (*Index)(nil)
)

const (
	// DefaultIterations bounds the Lloyd iterations of each k-means run.
	DefaultIterations = 20

	maxCodebook = 256
)

// Config holds the index parameters.
type Config struct {
	NList      int
	M          int
	NProbe     int
	Iterations int
	Seed       int64
}

type invertedList struct {
	ids   []int
	codes []byte
}

// Index is an IVF-PQ index.
type Index struct {
	mu  sync.RWMutex
	dim int
	cfg Config

	trained   bool
	ksub      int
	coarse    [][]float32
	codebooks [][][]float32
	lists     []invertedList
	n         int
}

// New creates an untrained index.
func New(dimension int, cfg Config) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	if cfg.NList <= 0 || cfg.M <= 0 {
		return nil, fmt.Errorf("%w: nlist and pq_m must be positive", domain.ErrInvalidInput)
	}
	if dimension%cfg.M != 0 {
		return nil, fmt.Errorf("%w: dimension %d is not divisible by pq_m %d", domain.ErrInvalidInput, dimension, cfg.M)
	}
	if cfg.NProbe <= 0 {
		cfg.NProbe = 1
	}
	if cfg.NProbe > cfg.NList {
		cfg.NProbe = cfg.NList
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	return &Index{dim: dimension, cfg: cfg}, nil
}

// Strategy returns IndexStrategyIVFPQ.
func (x *Index) Strategy() domain.IndexStrategy { return domain.IndexStrategyIVFPQ }

// Exact returns false.
func (x *Index) Exact() bool { return false }

// Dimension returns the vector length.
func (x *Index) Dimension() int { return x.dim }

// Config returns the effective parameters.
func (x *Index) Config() Config { return x.cfg }

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.n
}

// Trained reports whether Train has completed.
func (x *Index) Trained() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.trained
}

// Train fits the coarse quantizer and the sub-space codebooks.
func (x *Index) Train(sample [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.trained {
		return domain.ErrIndexAlreadyTrained
	}
	if err := x.checkAll(sample); err != nil {
		return err
	}
	if len(sample) < x.cfg.NList {
		return fmt.Errorf("%w: %d samples for %d lists", domain.ErrInsufficientTraining, len(sample), x.cfg.NList)
	}

	rng := rand.New(rand.NewSource(x.cfg.Seed))
	coarse := vecmath.KMeans(sample, x.cfg.NList, x.cfg.Iterations, rng)

	residuals := make([][]float32, len(sample))
	for i, v := range sample {
		c, _ := vecmath.Nearest(coarse, v)
		residuals[i] = residual(v, coarse[c])
	}

	ksub := min(maxCodebook, len(sample))
	dsub := x.dim / x.cfg.M
	codebooks := make([][][]float32, x.cfg.M)
	sub := make([][]float32, len(residuals))
	for j := range codebooks {
		for i, r := range residuals {
			sub[i] = r[j*dsub : (j+1)*dsub]
		}
		codebooks[j] = vecmath.KMeans(sub, ksub, x.cfg.Iterations, rng)
	}

	x.coarse = coarse
	x.codebooks = codebooks
	x.ksub = ksub
	x.lists = make([]invertedList, len(coarse))
	x.trained = true
	return nil
}

// Add quantizes and stores vectors. The index must be trained.
func (x *Index) Add(vectors [][]float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if !x.trained {
		return domain.ErrIndexNotTrained
	}
	if err := x.checkAll(vectors); err != nil {
		return err
	}

	dsub := x.dim / x.cfg.M
	for _, v := range vectors {
		c, _ := vecmath.Nearest(x.coarse, v)
		r := residual(v, x.coarse[c])
		list := &x.lists[c]
		list.ids = append(list.ids, x.n)
		for j, book := range x.codebooks {
			code, _ := vecmath.Nearest(book, r[j*dsub:(j+1)*dsub])
			list.codes = append(list.codes, byte(code))
		}
		x.n++
	}
	return nil
}

// Search probes the nearest lists and ranks their entries by approximate
// distance.
func (x *Index) Search(query []float32, k int) ([]domain.Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has length %d, index expects %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 {
		return []domain.Hit{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if !x.trained || x.n == 0 {
		return []domain.Hit{}, nil
	}

	m, dsub := x.cfg.M, x.dim/x.cfg.M
	table := make([]float32, m*x.ksub)
	top := vecmath.NewTopK(k)

	for _, c := range x.probe(query) {
		list := x.lists[c]
		if len(list.ids) == 0 {
			continue
		}
		r := residual(query, x.coarse[c])
		for j, book := range x.codebooks {
			rs := r[j*dsub : (j+1)*dsub]
			for code, centroid := range book {
				table[j*x.ksub+code] = vecmath.SquaredL2(rs, centroid)
			}
		}
		for e, id := range list.ids {
			codes := list.codes[e*m : (e+1)*m]
			var d float32
			for j, code := range codes {
				d += table[j*x.ksub+int(code)]
			}
			top.Push(id, d)
		}
	}
	return top.Results(), nil
}

// probe returns the NProbe lists nearest to q, ties by list number.
func (x *Index) probe(q []float32) []int {
	type scored struct {
		list int
		dist float32
	}
	all := make([]scored, len(x.coarse))
	for i, c := range x.coarse {
		all[i] = scored{list: i, dist: vecmath.SquaredL2(q, c)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].list < all[j].list
	})

	n := min(x.cfg.NProbe, len(all))
	lists := make([]int, n)
	for i := range lists {
		lists[i] = all[i].list
	}
	return lists
}

func (x *Index) checkAll(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: vector %d has length %d, index expects %d", domain.ErrDimensionMismatch, i, len(v), x.dim)
		}
	}
	return nil
}

func residual(v, centroid []float32) []float32 {
	r := make([]float32, len(v))
	for i := range v {
		r[i] = v[i] - centroid[i]
	}
	return r
}

// Encode writes parameters, quantizers and inverted lists.
func (x *Index) Encode(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bw := binio.NewWriter(w)
	bw.Int(x.dim)
	bw.Int(x.cfg.NList)
	bw.Int(x.cfg.M)
	bw.Int(x.cfg.NProbe)
	bw.Int(x.cfg.Iterations)
	bw.Int64(x.cfg.Seed)

	if !x.trained {
		bw.Int(0)
		return bw.Flush()
	}
	bw.Int(1)
	bw.Int(x.ksub)
	bw.Int(x.n)
	bw.Int(len(x.coarse))
	for _, c := range x.coarse {
		bw.Float32s(c)
	}
	for _, book := range x.codebooks {
		bw.Int(len(book))
		for _, c := range book {
			bw.Float32s(c)
		}
	}
	for _, list := range x.lists {
		bw.Ints(list.ids)
		bw.Bytes(list.codes)
	}
	return bw.Flush()
}

// Decode reads an index written by Encode.
func Decode(r io.Reader) (*Index, error) {
	br := binio.NewReader(r)
	dim := br.Int()
	cfg := Config{
		NList:      br.Int(),
		M:          br.Int(),
		NProbe:     br.Int(),
		Iterations: br.Int(),
		Seed:       br.Int64(),
	}
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("decode ivfpq index: %w", err)
	}

	x, err := New(dim, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode ivfpq index: %w: %v", domain.ErrCorruptArtifact, err)
	}
	if br.Int() == 0 {
		if err := br.Err(); err != nil {
			return nil, fmt.Errorf("decode ivfpq index: %w", err)
		}
		return x, nil
	}

	x.ksub = br.Int()
	x.n = br.Int()
	nlist := br.Int()
	if nlist != cfg.NList || x.ksub <= 0 || x.ksub > maxCodebook {
		br.Fail("inconsistent quantizer sizes")
	}
	dsub := dim / cfg.M

	x.coarse = make([][]float32, 0, cfg.NList)
	for i := 0; i < nlist && br.Err() == nil; i++ {
		c := br.Float32s()
		if len(c) != dim {
			br.Fail("coarse centroid %d has length %d", i, len(c))
		}
		x.coarse = append(x.coarse, c)
	}

	x.codebooks = make([][][]float32, cfg.M)
	for j := 0; j < cfg.M && br.Err() == nil; j++ {
		size := br.Int()
		if size != x.ksub {
			br.Fail("codebook %d has %d centroids", j, size)
		}
		book := make([][]float32, 0, x.ksub)
		for i := 0; i < size && br.Err() == nil; i++ {
			c := br.Float32s()
			if len(c) != dsub {
				br.Fail("codebook %d centroid %d has length %d", j, i, len(c))
			}
			book = append(book, c)
		}
		x.codebooks[j] = book
	}

	x.lists = make([]invertedList, nlist)
	total := 0
	for i := 0; i < nlist && br.Err() == nil; i++ {
		ids := br.Ints()
		codes := br.Bytes()
		if len(codes) != len(ids)*cfg.M {
			br.Fail("list %d has %d codes for %d ids", i, len(codes), len(ids))
		}
		for _, code := range codes {
			if int(code) >= x.ksub {
				br.Fail("list %d holds code %d beyond codebook size %d", i, code, x.ksub)
				break
			}
		}
		x.lists[i] = invertedList{ids: ids, codes: codes}
		total += len(ids)
	}
	if br.Err() == nil && total != x.n {
		br.Fail("lists hold %d vectors, header says %d", total, x.n)
	}
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("decode ivfpq index: %w", err)
	}

	x.trained = true
	return x, nil
}
