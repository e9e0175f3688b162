package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"docqa/internal/models"
)

// ErrDimensionMismatch means the chunk/vector sets handed to a builder break
// the construction invariant. It signals an embedding provider contract
// breach and is never retried.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Index is a per-request nearest-neighbor structure over one document's
// chunks. Built once, queried once per question, then discarded; there is no
// incremental update.
type Index interface {
	// Search returns up to k results ordered by descending cosine
	// similarity, ties broken by ascending source order.
	Search(ctx context.Context, query []float32, k int) ([]models.RetrievalResult, error)
	Len() int
}

// Builder constructs an Index from parallel chunk and vector slices. Both
// backends enforce len(chunks) == len(vectors) and a single dimensionality.
type Builder func(chunks []models.Chunk, vectors [][]float32) (Index, error)

func checkBuild(chunks []models.Chunk, vectors [][]float32) (int, error) {
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("%w: %d chunks, %d vectors", ErrDimensionMismatch, len(chunks), len(vectors))
	}
	dim := 0
	for i, v := range vectors {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) == 0 || len(v) != dim {
			return 0, fmt.Errorf("%w: vector %d has dimension %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return dim, nil
}

// Memory is a brute-force in-memory cosine index. Vectors are normalized to
// unit length once at build time; a zero-magnitude vector scores -1 against
// every query instead of dividing by zero.
type Memory struct {
	dim    int
	chunks []models.Chunk
	vecs   [][]float32 // unit length, nil for zero-magnitude inputs
}

// BuildMemory builds the default index backend. Zero chunks yields a valid
// empty index.
func BuildMemory(chunks []models.Chunk, vectors [][]float32) (Index, error) {
	dim, err := checkBuild(chunks, vectors)
	if err != nil {
		return nil, err
	}
	m := &Memory{dim: dim, chunks: chunks, vecs: make([][]float32, len(vectors))}
	for i, v := range vectors {
		m.vecs[i] = normalize(v)
	}
	return m, nil
}

func (m *Memory) Len() int { return len(m.chunks) }

func (m *Memory) Search(ctx context.Context, query []float32, k int) ([]models.RetrievalResult, error) {
	if len(m.chunks) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != m.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(query), m.dim)
	}

	q := normalize(query)
	results := make([]models.RetrievalResult, len(m.chunks))
	for i, v := range m.vecs {
		score := float32(-1)
		if v != nil && q != nil {
			score = dot(v, q)
		}
		results[i] = models.RetrievalResult{Chunk: m.chunks[i], Score: score}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.SourceOrder < results[j].Chunk.SourceOrder
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// normalize returns a unit-length copy, or nil for a zero-magnitude vector.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return nil
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
