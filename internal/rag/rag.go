// Package rag is the pipeline entry point: document text in, one answer per
// question out. Everything is request-scoped; the index and chunk set built
// here never outlive a single call to Run.
package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"docqa/internal/answer"
	"docqa/internal/chunker"
	"docqa/internal/contextbuild"
	"docqa/internal/embedding"
	"docqa/internal/index"
	"docqa/internal/models"
)

// ErrTooManyQuestions guards the recommended request size.
var ErrTooManyQuestions = errors.New("too many questions in one request")

type Pipeline struct {
	chunker  *chunker.Chunker
	embedder embedding.Provider
	build    index.Builder
	orch     *answer.Orchestrator

	topK         int
	maxChars     int
	maxQuestions int
}

// NewPipeline wires the pipeline from explicitly passed collaborators. The
// embedder and the orchestrator's model client are long-lived and shared;
// constructing them once at process start keeps tests free to substitute
// stubs.
func NewPipeline(ch *chunker.Chunker, embedder embedding.Provider, build index.Builder, orch *answer.Orchestrator, topK, maxContextChars, maxQuestions int) *Pipeline {
	if topK <= 0 {
		topK = 5
	}
	if maxContextChars <= 0 {
		maxContextChars = 8000
	}
	if maxQuestions <= 0 {
		maxQuestions = 25
	}
	return &Pipeline{
		chunker:      ch,
		embedder:     embedder,
		build:        build,
		orch:         orch,
		topK:         topK,
		maxChars:     maxContextChars,
		maxQuestions: maxQuestions,
	}
}

// Run answers questions about one document. Chunking, embedding, and index
// construction failures abort the whole request; generation failures degrade
// only the affected answer slot. The result always has len(questions)
// entries in input order when err is nil.
func (p *Pipeline) Run(ctx context.Context, documentText string, questions []string, hint models.DocumentKind) ([]models.QuestionAnswer, error) {
	if len(questions) == 0 {
		return nil, nil
	}
	if len(questions) > p.maxQuestions {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQuestions, len(questions), p.maxQuestions)
	}

	chunks, err := p.chunker.Chunk(documentText, hint)
	if err != nil {
		return nil, fmt.Errorf("chunking document: %w", err)
	}
	log.Debug().Int("chunks", len(chunks)).Msg("document chunked")

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	idx, err := p.build(chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}

	queryVectors, err := p.embedder.EmbedBatch(ctx, questions)
	if err != nil {
		return nil, fmt.Errorf("embedding questions: %w", err)
	}

	perQuestion := make([][]models.RetrievalResult, len(questions))
	for i := range questions {
		results, err := idx.Search(ctx, queryVectors[i], p.topK)
		if err != nil {
			return nil, fmt.Errorf("searching index for question %d: %w", i, err)
		}
		perQuestion[i] = results
	}

	contexts := &retrievedContexts{perQuestion: perQuestion, maxChars: p.maxChars}
	return p.orch.Answer(ctx, questions, contexts), nil
}

// retrievedContexts feeds the orchestrator: a merged context for the batched
// call, per-question contexts for the fallback path.
type retrievedContexts struct {
	perQuestion [][]models.RetrievalResult
	maxChars    int
}

func (c *retrievedContexts) BatchContext() string {
	return contextbuild.Assemble(contextbuild.Merge(c.perQuestion), c.maxChars)
}

func (c *retrievedContexts) QuestionContext(i int) string {
	return contextbuild.Assemble(c.perQuestion[i], c.maxChars)
}
