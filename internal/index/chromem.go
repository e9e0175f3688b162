package index

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"docqa/internal/models"
)

const sessionCollection = "session"

// Chromem is an Index backed by an in-process chromem-go collection. It
// exists behind the same contract as Memory so the backend stays pluggable;
// results are re-sorted after retrieval to keep the tie-break deterministic.
type Chromem struct {
	col    *chromem.Collection
	chunks map[string]models.Chunk
	dim    int
	n      int
}

// noEmbed rejects server-side embedding; every document and query in this
// design arrives with a precomputed vector.
func noEmbed(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings must be precomputed")
}

// BuildChromem builds the chromem-backed index for one session.
func BuildChromem(chunks []models.Chunk, vectors [][]float32) (Index, error) {
	dim, err := checkBuild(chunks, vectors)
	if err != nil {
		return nil, err
	}

	c := &Chromem{chunks: make(map[string]models.Chunk, len(chunks)), dim: dim, n: len(chunks)}
	if len(chunks) == 0 {
		return c, nil
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(sessionCollection, nil, noEmbed)
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, ch := range chunks {
		id := strconv.Itoa(ch.SourceOrder)
		docs[i] = chromem.Document{
			ID:      id,
			Content: ch.Text,
			Metadata: map[string]string{
				"section":      ch.Section,
				"source_order": id,
			},
			Embedding: vectors[i],
		}
		c.chunks[id] = ch
	}
	if err := col.AddDocuments(context.Background(), docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("adding documents: %w", err)
	}
	c.col = col
	return c, nil
}

func (c *Chromem) Len() int { return c.n }

func (c *Chromem) Search(ctx context.Context, query []float32, k int) ([]models.RetrievalResult, error) {
	if c.n == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != c.dim {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d", ErrDimensionMismatch, len(query), c.dim)
	}
	if k > c.n {
		k = c.n
	}

	found, err := c.col.QueryEmbedding(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]models.RetrievalResult, 0, len(found))
	for _, r := range found {
		ch, ok := c.chunks[r.ID]
		if !ok {
			continue
		}
		results = append(results, models.RetrievalResult{Chunk: ch, Score: r.Similarity})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.SourceOrder < results[j].Chunk.SourceOrder
	})
	return results, nil
}
