// Package hnsw implements a hierarchical navigable small-world graph index.
//
// Each vector is a node with a random top level. Upper levels are sparse
// express lanes; level zero holds every node. Search descends greedily from
// the entry point and finishes with a beam search of width EfSearch on level
// zero. Node levels are derived from the seed and the node id alone, so a
// graph rebuilt from the same vectors is identical and a decoded graph grows
// exactly like the original.
package hnsw

import (
	"container/heap"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/binio"
	"github.com/swiftvisa/visarag/internal/adapters/driven/vectorindex/vecmath"
	"github.com/swiftvisa/visarag/internal/core/domain"
	"github.com/swiftvisa/visarag/internal/core/ports/driven"
)

// Verify interface compliance at compile time.
var _ driven.VectorIndex = (*Index)(nil)

const maxLevel = 16

// Config holds the graph parameters.
type Config struct {
	// M is the out-degree on upper levels. Level zero allows 2*M.
	M              int
	EfConstruction int
	EfSearch       int
	Seed           int64
}

type node struct {
	friends [][]int
}

// Index is an HNSW graph.
type Index struct {
	mu  sync.RWMutex
	dim int
	cfg Config

	levelMult float64
	vectors   []float32
	nodes     []node
	entry     int
	top       int
}

// New creates an empty graph.
func New(dimension int, cfg Config) (*Index, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be positive, got %d", domain.ErrInvalidInput, dimension)
	}
	if cfg.M < 2 {
		return nil, fmt.Errorf("%w: hnsw_m must be at least 2, got %d", domain.ErrInvalidInput, cfg.M)
	}
	if cfg.EfConstruction < cfg.M {
		cfg.EfConstruction = cfg.M
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = cfg.M
	}
	return &Index{
		dim:       dimension,
		cfg:       cfg,
		levelMult: 1 / math.Log(float64(cfg.M)),
		entry:     -1,
	}, nil
}

// Strategy returns IndexStrategyHNSW.
func (x *Index) Strategy() domain.IndexStrategy { return domain.IndexStrategyHNSW }

// Exact returns false.
func (x *Index) Exact() bool { return false }

// Dimension returns the vector length.
func (x *Index) Dimension() int { return x.dim }

// Config returns the effective parameters.
func (x *Index) Config() Config { return x.cfg }

// Len returns the number of nodes.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.nodes)
}

// Add inserts vectors one at a time in order.
func (x *Index) Add(vectors [][]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("%w: vector %d has length %d, index expects %d", domain.ErrDimensionMismatch, i, len(v), x.dim)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	for _, v := range vectors {
		x.insert(v)
	}
	return nil
}

// Search returns the k nearest nodes found by the layered descent.
func (x *Index) Search(query []float32, k int) ([]domain.Hit, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("%w: query has length %d, index expects %d", domain.ErrDimensionMismatch, len(query), x.dim)
	}
	if k <= 0 {
		return []domain.Hit{}, nil
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.entry < 0 {
		return []domain.Hit{}, nil
	}

	ep := domain.Hit{ID: x.entry, Distance: x.distance(query, x.entry)}
	for level := x.top; level > 0; level-- {
		ep = x.greedy(query, ep, level)
	}

	hits := x.searchLevel(query, ep, max(x.cfg.EfSearch, k), 0)
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (x *Index) vector(id int) []float32 {
	return x.vectors[id*x.dim : (id+1)*x.dim]
}

func (x *Index) distance(q []float32, id int) float32 {
	return vecmath.SquaredL2(q, x.vector(id))
}

func (x *Index) maxFriends(level int) int {
	if level == 0 {
		return 2 * x.cfg.M
	}
	return x.cfg.M
}

// levelFor draws the top level of a node from the seed and its id.
func (x *Index) levelFor(id int) int {
	u := unitFloat(x.cfg.Seed, id)
	return min(int(-math.Log(u)*x.levelMult), maxLevel)
}

func (x *Index) insert(v []float32) {
	id := len(x.nodes)
	level := x.levelFor(id)

	x.vectors = append(x.vectors, v...)
	x.nodes = append(x.nodes, node{friends: make([][]int, level+1)})

	if x.entry < 0 {
		x.entry, x.top = id, level
		return
	}

	ep := domain.Hit{ID: x.entry, Distance: x.distance(v, x.entry)}
	for l := x.top; l > level; l-- {
		ep = x.greedy(v, ep, l)
	}

	for l := min(level, x.top); l >= 0; l-- {
		candidates := x.searchLevel(v, ep, x.cfg.EfConstruction, l)
		limit := min(x.cfg.M, len(candidates))
		friends := make([]int, limit)
		for i := range friends {
			friends[i] = candidates[i].ID
		}
		x.nodes[id].friends[l] = friends

		for _, f := range friends {
			x.link(f, id, l)
		}
		ep = candidates[0]
	}

	if level > x.top {
		x.entry, x.top = id, level
	}
}

// link adds to as a neighbour of from, keeping only the closest when the
// level's degree bound is exceeded.
func (x *Index) link(from, to, level int) {
	friends := append(x.nodes[from].friends[level], to)
	if limit := x.maxFriends(level); len(friends) > limit {
		base := x.vector(from)
		scored := make([]domain.Hit, len(friends))
		for i, f := range friends {
			scored[i] = domain.Hit{ID: f, Distance: x.distance(base, f)}
		}
		vecmath.SortHits(scored)
		friends = friends[:limit]
		for i := range friends {
			friends[i] = scored[i].ID
		}
	}
	x.nodes[from].friends[level] = friends
}

// greedy walks to the closest reachable node on one level.
func (x *Index) greedy(q []float32, ep domain.Hit, level int) domain.Hit {
	for changed := true; changed; {
		changed = false
		for _, f := range x.nodes[ep.ID].friends[level] {
			h := domain.Hit{ID: f, Distance: x.distance(q, f)}
			if vecmath.Less(h, ep) {
				ep, changed = h, true
			}
		}
	}
	return ep
}

// searchLevel runs a beam search of width ef and returns the beam in
// ascending order.
func (x *Index) searchLevel(q []float32, ep domain.Hit, ef, level int) []domain.Hit {
	visited := map[int]struct{}{ep.ID: {}}
	candidates := &bestFirst{ep}
	beam := vecmath.NewTopK(ef)
	beam.Push(ep.ID, ep.Distance)

	for candidates.Len() > 0 {
		c := heap.Pop(candidates).(domain.Hit)
		if beam.Full() && vecmath.Less(beam.Worst(), c) {
			break
		}
		for _, f := range x.nodes[c.ID].friends[level] {
			if _, seen := visited[f]; seen {
				continue
			}
			visited[f] = struct{}{}

			h := domain.Hit{ID: f, Distance: x.distance(q, f)}
			if !beam.Full() || vecmath.Less(h, beam.Worst()) {
				heap.Push(candidates, h)
				beam.Push(h.ID, h.Distance)
			}
		}
	}
	return beam.Results()
}

// bestFirst is a min-heap of hits.
type bestFirst []domain.Hit

func (h bestFirst) Len() int           { return len(h) }
func (h bestFirst) Less(i, j int) bool { return vecmath.Less(h[i], h[j]) }
func (h bestFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *bestFirst) Push(v any)        { *h = append(*h, v.(domain.Hit)) }
func (h *bestFirst) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// unitFloat hashes (seed, id) with splitmix64 into (0, 1].
func unitFloat(seed int64, id int) float64 {
	z := uint64(seed) + uint64(id+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return (float64(z>>11) + 1) / (1 << 53)
}

// Encode writes parameters, vectors and adjacency lists.
func (x *Index) Encode(w io.Writer) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	bw := binio.NewWriter(w)
	bw.Int(x.dim)
	bw.Int(x.cfg.M)
	bw.Int(x.cfg.EfConstruction)
	bw.Int(x.cfg.EfSearch)
	bw.Int64(x.cfg.Seed)
	bw.Int(x.entry)
	bw.Int(x.top)
	bw.Float32s(x.vectors)
	bw.Int(len(x.nodes))
	for _, n := range x.nodes {
		bw.Int(len(n.friends))
		for _, friends := range n.friends {
			bw.Ints(friends)
		}
	}
	return bw.Flush()
}

// Decode reads a graph written by Encode.
func Decode(r io.Reader) (*Index, error) {
	br := binio.NewReader(r)
	dim := br.Int()
	cfg := Config{
		M:              br.Int(),
		EfConstruction: br.Int(),
		EfSearch:       br.Int(),
		Seed:           br.Int64(),
	}
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("decode hnsw index: %w", err)
	}

	x, err := New(dim, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode hnsw index: %w: %v", domain.ErrCorruptArtifact, err)
	}

	x.entry = br.Int()
	x.top = br.Int()
	x.vectors = br.Float32s()
	count := br.Len()
	if br.Err() == nil && len(x.vectors) != count*dim {
		br.Fail("%d values for %d nodes of dimension %d", len(x.vectors), count, dim)
	}

	x.nodes = make([]node, 0, min(count, 1<<16))
	for i := 0; i < count && br.Err() == nil; i++ {
		levels := br.Len()
		if levels == 0 || levels > maxLevel+1 {
			br.Fail("node %d has %d levels", i, levels)
			break
		}
		n := node{friends: make([][]int, levels)}
		for l := range n.friends {
			n.friends[l] = br.Ints()
			for _, f := range n.friends[l] {
				if f >= count {
					br.Fail("node %d links to missing node %d", i, f)
				}
			}
		}
		x.nodes = append(x.nodes, n)
	}

	if br.Err() == nil {
		switch {
		case count == 0 && x.entry != -1:
			br.Fail("empty graph with entry point %d", x.entry)
		case count > 0 && (x.entry < 0 || x.entry >= count):
			br.Fail("entry point %d out of range", x.entry)
		case count > 0 && len(x.nodes[x.entry].friends) != x.top+1:
			br.Fail("entry point level does not match top level %d", x.top)
		}
	}
	if err := br.Err(); err != nil {
		return nil, fmt.Errorf("decode hnsw index: %w", err)
	}
	return x, nil
}

// Levels reports the number of nodes whose top level is each level.
func (x *Index) Levels() []int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	counts := make([]int, x.top+1)
	for _, n := range x.nodes {
		counts[len(n.friends)-1]++
	}
	return counts
}
