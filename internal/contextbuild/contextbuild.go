// Package contextbuild assembles retrieved chunks into the bounded context
// string fed to the language model.
package contextbuild

import (
	"sort"
	"strings"

	"docqa/internal/models"
)

const blockSeparator = "\n\n"

// Assemble concatenates chunk texts in the given order (highest relevance
// first) until adding the next chunk would exceed maxChars. Chunks are never
// truncated mid-chunk. Section labels become lightweight headings so the
// generation step keeps provenance. Empty input yields an empty string;
// callers handle "no relevant context" themselves.
func Assemble(results []models.RetrievalResult, maxChars int) string {
	if len(results) == 0 || maxChars <= 0 {
		return ""
	}

	var b strings.Builder
	for _, r := range results {
		block := r.Chunk.Text
		if r.Chunk.Section != "" {
			block = "[" + r.Chunk.Section + "]\n" + block
		}
		need := len(block)
		if b.Len() > 0 {
			need += len(blockSeparator)
		}
		if b.Len()+need > maxChars {
			break
		}
		if b.Len() > 0 {
			b.WriteString(blockSeparator)
		}
		b.WriteString(block)
	}
	return b.String()
}

// Merge deduplicates retrieval results from several queries by source order,
// keeping each chunk's best score, and returns them ordered for assembly.
// Used to build the shared context of a batched model call.
func Merge(perQuestion [][]models.RetrievalResult) []models.RetrievalResult {
	best := map[int]models.RetrievalResult{}
	for _, results := range perQuestion {
		for _, r := range results {
			prev, ok := best[r.Chunk.SourceOrder]
			if !ok || r.Score > prev.Score {
				best[r.Chunk.SourceOrder] = r
			}
		}
	}

	merged := make([]models.RetrievalResult, 0, len(best))
	for _, r := range best {
		merged = append(merged, r)
	}
	// same ordering rule as the index: score desc, source order asc
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Chunk.SourceOrder < merged[j].Chunk.SourceOrder
	})
	return merged
}
