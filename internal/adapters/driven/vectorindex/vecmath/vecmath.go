// Package vecmath holds the distance, selection and clustering primitives
// shared by the vector index implementations.
package vecmath

import (
	"container/heap"
	"math"
	"math/rand"
	"sort"

	"github.com/swiftvisa/visarag/internal/core/domain"
)

// SquaredL2 returns the squared Euclidean distance between a and b.
// The slices must have equal length.
func SquaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Less orders hits by ascending distance, then ascending id.
func Less(a, b domain.Hit) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// SortHits orders hits with Less.
func SortHits(hits []domain.Hit) {
	sort.Slice(hits, func(i, j int) bool { return Less(hits[i], hits[j]) })
}

// TopK keeps the k best hits seen so far.
type TopK struct {
	k    int
	hits worstFirst
}

// NewTopK returns a collector for at most k hits.
func NewTopK(k int) *TopK {
	if k < 0 {
		k = 0
	}
	return &TopK{k: k, hits: make(worstFirst, 0, k)}
}

// Push offers a candidate.
func (t *TopK) Push(id int, distance float32) {
	if t.k == 0 {
		return
	}
	h := domain.Hit{ID: id, Distance: distance}
	if len(t.hits) < t.k {
		heap.Push(&t.hits, h)
		return
	}
	if Less(h, t.hits[0]) {
		t.hits[0] = h
		heap.Fix(&t.hits, 0)
	}
}

// Full reports whether k hits have been collected.
func (t *TopK) Full() bool {
	return len(t.hits) >= t.k
}

// Worst returns the current k-th best hit. Only meaningful when Full.
func (t *TopK) Worst() domain.Hit {
	if len(t.hits) == 0 {
		return domain.Hit{Distance: float32(math.Inf(1))}
	}
	return t.hits[0]
}

// Results returns the collected hits in ascending order.
func (t *TopK) Results() []domain.Hit {
	out := make([]domain.Hit, len(t.hits))
	copy(out, t.hits)
	SortHits(out)
	return out
}

// worstFirst is a max-heap under Less.
type worstFirst []domain.Hit

func (h worstFirst) Len() int           { return len(h) }
func (h worstFirst) Less(i, j int) bool { return Less(h[j], h[i]) }
func (h worstFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *worstFirst) Push(x any)        { *h = append(*h, x.(domain.Hit)) }
func (h *worstFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Nearest returns the index of the closest centroid and its distance.
// Ties resolve to the lowest index.
func Nearest(centroids [][]float32, v []float32) (int, float32) {
	best, bestDist := -1, float32(math.Inf(1))
	for i, c := range centroids {
		if d := SquaredL2(c, v); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, bestDist
}

// KMeans clusters data into k centroids with Lloyd's algorithm.
// Initial centroids are k distinct samples drawn from rng, so the result is
// reproducible for a given seed. Empty clusters are re-seeded with the point
// farthest from its assigned centroid.
func KMeans(data [][]float32, k, iterations int, rng *rand.Rand) [][]float32 {
	if k <= 0 || len(data) == 0 {
		return nil
	}
	if k > len(data) {
		k = len(data)
	}
	dim := len(data[0])

	centroids := make([][]float32, k)
	for i, p := range rng.Perm(len(data))[:k] {
		centroids[i] = append([]float32(nil), data[p]...)
	}

	assign := make([]int, len(data))
	dists := make([]float32, len(data))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < iterations; iter++ {
		changed := false
		for i, v := range data {
			c, d := Nearest(centroids, v)
			if c != assign[i] {
				assign[i] = c
				changed = true
			}
			dists[i] = d
		}
		if !changed && iter > 0 {
			break
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range data {
			c := assign[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += float64(x)
			}
		}

		for c := range centroids {
			if counts[c] == 0 {
				far := farthest(dists)
				copy(centroids[c], data[far])
				dists[far] = 0
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
		}
	}
	return centroids
}

func farthest(dists []float32) int {
	best := 0
	for i, d := range dists {
		if d > dists[best] {
			best = i
		}
	}
	return best
}
