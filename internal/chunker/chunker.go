package chunker

import (
	"errors"
	"regexp"
	"strings"

	"docqa/internal/models"
)

// ErrEmptyDocument is returned when the input has no usable text after
// normalization.
var ErrEmptyDocument = errors.New("document text is empty")

const (
	defaultChunkSize = 1000 // chars
	defaultOverlap   = 200  // chars
)

// Chunker splits document text into retrieval-sized passages. Structured
// documents (resume-style headed sections) are split on section boundaries
// first; everything else goes through a sliding window with overlap.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size/2 {
		overlap = size / 4
	}
	return &Chunker{size: size, overlap: overlap}
}

// section header patterns; the first capture group becomes the chunk label
var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(contact|personal)\s+(information|details)\b`),
	regexp.MustCompile(`(?i)^(technical\s+skills|skills|competencies)\b`),
	regexp.MustCompile(`(?i)^(work\s+experience|experience|employment)\b`),
	regexp.MustCompile(`(?i)^(education|academic|qualifications)\b`),
	regexp.MustCompile(`(?i)^(projects?)\b`),
	regexp.MustCompile(`(?i)^(certifications?|awards?|achievements?)\b`),
	regexp.MustCompile(`(?i)^(objective|summary|profile)\b`),
}

// Normalize collapses line endings and excess blank lines so chunk offsets
// are stable across platforms.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	text = strings.Join(lines, "\n")
	for strings.Contains(text, "\n\n\n") {
		text = strings.ReplaceAll(text, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(text)
}

// Classify guesses the document kind from its section headers. The result is
// a hint only: structured chunking falls back to generic when it finds
// nothing to split on.
func Classify(text string) models.DocumentKind {
	headers := 0
	for _, line := range strings.Split(text, "\n") {
		if matchHeader(strings.TrimSpace(line)) != "" {
			headers++
			if headers >= 2 {
				return models.KindResume
			}
		}
	}
	return models.KindGeneric
}

func matchHeader(line string) string {
	if line == "" || len(line) > 80 {
		return ""
	}
	for _, re := range sectionPatterns {
		if m := re.FindStringSubmatch(line); m != nil {
			return strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
		}
	}
	return ""
}

type piece struct {
	text    string
	section string
}

// Chunk splits document text into ordered chunks. SourceOrder is assigned
// 0-based in document order; no returned chunk is empty.
func (c *Chunker) Chunk(text string, hint models.DocumentKind) ([]models.Chunk, error) {
	norm := Normalize(text)
	if norm == "" {
		return nil, ErrEmptyDocument
	}

	kind := hint
	if kind == models.KindUnknown {
		kind = Classify(norm)
	}

	var pieces []piece
	if kind == models.KindResume {
		pieces = c.structured(norm)
	}
	if pieces == nil {
		pieces = c.generic(norm)
	}

	chunks := make([]models.Chunk, 0, len(pieces))
	for _, p := range pieces {
		if strings.TrimSpace(p.text) == "" {
			continue
		}
		chunks = append(chunks, models.Chunk{
			ID:          len(chunks),
			Text:        p.text,
			Section:     p.section,
			SourceOrder: len(chunks),
		})
	}
	return chunks, nil
}

// structured splits on detected section headers. A header line opens a new
// section and stays part of its text, so inline headers like
// "Skills: Python, Go" carry their content. Returns nil when no headers are
// found so the caller can fall back to the generic strategy.
func (c *Chunker) structured(text string) []piece {
	lines := strings.Split(text, "\n")

	var pieces []piece
	var current []string
	label := ""
	found := false

	flush := func() {
		body := strings.TrimSpace(strings.Join(current, "\n"))
		current = nil
		if body == "" {
			return
		}
		if len(body) > c.size {
			// oversized section: sub-split with the generic window,
			// keeping the section label on every part
			for _, w := range c.windows(body) {
				pieces = append(pieces, piece{text: w, section: label})
			}
			return
		}
		pieces = append(pieces, piece{text: body, section: label})
	}

	for _, line := range lines {
		if l := matchHeader(strings.TrimSpace(line)); l != "" {
			flush()
			label = l
			found = true
		}
		current = append(current, line)
	}
	flush()

	if !found {
		return nil
	}
	return pieces
}

// generic slides a fixed window over the text with overlap between
// consecutive windows. Each window end snaps to the nearest sentence or line
// break within a small lookback so chunks do not cut words mid-sentence.
func (c *Chunker) generic(text string) []piece {
	var pieces []piece
	for _, w := range c.windows(text) {
		pieces = append(pieces, piece{text: w})
	}
	return pieces
}

func (c *Chunker) windows(text string) []string {
	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	lookback := c.size / 10
	var out []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			out = append(out, string(runes[start:]))
			break
		}
		for i := end - 1; i >= end-lookback && i > start; i-- {
			if r := runes[i]; r == '\n' || r == '.' || r == '!' || r == '?' {
				end = i + 1
				break
			}
		}
		out = append(out, string(runes[start:end]))
		// next window starts overlap runes before this one ended, so
		// dropping the first overlap runes of every later window
		// reconstructs the text exactly
		start = end - c.overlap
	}
	return out
}
