package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

func testChunks(n int) []models.Chunk {
	chunks := make([]models.Chunk, n)
	for i := range chunks {
		chunks[i] = models.Chunk{ID: i, Text: "chunk", SourceOrder: i}
	}
	return chunks
}

func TestBuildMemoryLengthMismatch(t *testing.T) {
	_, err := BuildMemory(testChunks(2), [][]float32{{1, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestBuildMemoryDimensionMismatch(t *testing.T) {
	_, err := BuildMemory(testChunks(2), [][]float32{{1, 0}, {1, 0, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestEmptyIndexSearch(t *testing.T) {
	idx, err := BuildMemory(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())

	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRanking(t *testing.T) {
	chunks := testChunks(3)
	// query {1,0}: chunk 1 matches exactly, chunk 2 partially, chunk 0 not at all
	vectors := [][]float32{
		{0, 1},
		{1, 0},
		{0.7071, 0.7071},
	}
	idx, err := BuildMemory(chunks, vectors)
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, 1, results[0].Chunk.SourceOrder)
	assert.Equal(t, 2, results[1].Chunk.SourceOrder)
	assert.Equal(t, 0, results[2].Chunk.SourceOrder)
	assert.InDelta(t, 1.0, float64(results[0].Score), 1e-5)
}

func TestSearchNormalizesMagnitude(t *testing.T) {
	// same direction, wildly different magnitudes: scores must match
	idx, err := BuildMemory(testChunks(2), [][]float32{{100, 0}, {0.001, 0}})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{42, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.InDelta(t, float64(results[0].Score), float64(results[1].Score), 1e-5)
}

func TestSearchTieBreakBySourceOrder(t *testing.T) {
	chunks := testChunks(3)
	vectors := [][]float32{{1, 0}, {1, 0}, {1, 0}}
	idx, err := BuildMemory(chunks, vectors)
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Chunk.SourceOrder)
	}
}

func TestSearchZeroVectorScoresMinimum(t *testing.T) {
	chunks := testChunks(2)
	idx, err := BuildMemory(chunks, [][]float32{{0, 0}, {0, 1}})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{0, 1}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Chunk.SourceOrder)
	assert.Equal(t, float32(-1), results[1].Score)
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx, err := BuildMemory(testChunks(2), [][]float32{{1, 0}, {0, 1}})
	require.NoError(t, err)

	results, err := idx.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearchQueryDimensionMismatch(t *testing.T) {
	idx, err := BuildMemory(testChunks(1), [][]float32{{1, 0}})
	require.NoError(t, err)

	_, err = idx.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestSearchDeterminism(t *testing.T) {
	vectors := [][]float32{{0.3, 0.7}, {0.5, 0.5}, {0.9, 0.1}}
	idx, err := BuildMemory(testChunks(3), vectors)
	require.NoError(t, err)

	first, err := idx.Search(context.Background(), []float32{0.6, 0.4}, 3)
	require.NoError(t, err)
	second, err := idx.Search(context.Background(), []float32{0.6, 0.4}, 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChromemBackend(t *testing.T) {
	chunks := testChunks(3)
	vectors := [][]float32{{0, 1}, {1, 0}, {0.7071, 0.7071}}
	idx, err := BuildChromem(chunks, vectors)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())

	results, err := idx.Search(context.Background(), []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Chunk.SourceOrder)
	assert.Equal(t, 2, results[1].Chunk.SourceOrder)
}

func TestChromemEmpty(t *testing.T) {
	idx, err := BuildChromem(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())

	results, err := idx.Search(context.Background(), []float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
