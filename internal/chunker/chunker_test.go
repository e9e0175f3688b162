package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/models"
)

const resumeText = "Skills: Python, Go, Rust.\n\nEducation: BSc Computer Science."

func TestChunkEmptyDocument(t *testing.T) {
	c := New(1000, 200)

	_, err := c.Chunk("", models.KindUnknown)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = c.Chunk("   \n\t  \n ", models.KindUnknown)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, models.KindResume, Classify(resumeText))
	assert.Equal(t, models.KindGeneric, Classify("The quick brown fox jumps over the lazy dog. It keeps running."))
}

func TestStructuredSections(t *testing.T) {
	c := New(1000, 200)

	chunks, err := c.Chunk(resumeText, models.KindUnknown)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	assert.Equal(t, "skills", chunks[0].Section)
	assert.Contains(t, chunks[0].Text, "Python, Go, Rust")
	assert.Equal(t, "education", chunks[1].Section)
	assert.Contains(t, chunks[1].Text, "BSc Computer Science")

	for i, ch := range chunks {
		assert.Equal(t, i, ch.SourceOrder)
		assert.Equal(t, i, ch.ID)
		assert.NotEmpty(t, strings.TrimSpace(ch.Text))
	}
}

func TestStructuredPreamble(t *testing.T) {
	c := New(1000, 200)

	text := "Jane Doe\njane@example.com\n\nSkills: Go, SQL.\n\nEducation: MSc."
	chunks, err := c.Chunk(text, models.KindResume)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 3)

	assert.Equal(t, "", chunks[0].Section)
	assert.Contains(t, chunks[0].Text, "Jane Doe")
}

func TestStructuredOversizedSectionSubSplit(t *testing.T) {
	c := New(200, 40)

	var body strings.Builder
	body.WriteString("Experience\n")
	for i := 0; i < 40; i++ {
		body.WriteString("Built and operated distributed systems at scale. ")
	}
	body.WriteString("\n\nEducation: BSc.")

	chunks, err := c.Chunk(body.String(), models.KindResume)
	require.NoError(t, err)

	experience := 0
	for _, ch := range chunks {
		if ch.Section == "experience" {
			experience++
			assert.LessOrEqual(t, len([]rune(ch.Text)), 200)
		}
	}
	assert.Greater(t, experience, 1, "oversized section should be sub-split with its label preserved")
}

func TestStructuredCoverage(t *testing.T) {
	c := New(200, 40)

	var doc strings.Builder
	doc.WriteString("Summary\nSeasoned backend engineer.\n\n")
	doc.WriteString("Experience\n")
	for i := 0; i < 40; i++ {
		doc.WriteString("Operated large storage clusters under load. ")
	}
	doc.WriteString("\n\nEducation: BSc Computer Science.")
	norm := Normalize(doc.String())

	chunks, err := c.Chunk(doc.String(), models.KindResume)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 3, "the oversized section should be sub-split")

	// concatenating the section chunks reconstructs the normalized text:
	// blank line between sections, and inside a sub-split section each
	// later window drops its leading overlap
	var rebuilt strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i > 0 && ch.Section == chunks[i-1].Section {
			runes = runes[40:]
		} else if i > 0 {
			rebuilt.WriteString("\n\n")
		}
		rebuilt.WriteString(string(runes))
	}
	assert.Equal(t, norm, rebuilt.String())
}

func TestGenericCoverage(t *testing.T) {
	c := New(300, 60)

	var doc strings.Builder
	for i := 0; i < 50; i++ {
		doc.WriteString("Sentence number content keeps flowing through the document body. ")
	}
	norm := Normalize(doc.String())

	chunks, err := c.Chunk(doc.String(), models.KindGeneric)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// dropping each later chunk's leading overlap must reconstruct the
	// normalized text exactly
	var rebuilt strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i > 0 {
			runes = runes[60:]
		}
		rebuilt.WriteString(string(runes))
	}
	assert.Equal(t, norm, rebuilt.String())
}

func TestGenericOverlapBound(t *testing.T) {
	c := New(300, 60)

	var doc strings.Builder
	for i := 0; i < 50; i++ {
		doc.WriteString("Another steady sentence for the sliding window to walk across. ")
	}
	chunks, err := c.Chunk(doc.String(), models.KindGeneric)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		require.GreaterOrEqual(t, len(cur), 60)
		tail := string(prev[len(prev)-60:])
		head := string(cur[:60])
		assert.Equal(t, tail, head, "chunk %d should share exactly the configured overlap", i)
	}
}

func TestGenericShortDocumentSingleChunk(t *testing.T) {
	c := New(1000, 200)

	chunks, err := c.Chunk("Just one short paragraph.", models.KindGeneric)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Just one short paragraph.", chunks[0].Text)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb", Normalize("a\r\nb"))
	assert.Equal(t, "a\n\nb", Normalize("a\n\n\n\n\nb"))
	assert.Equal(t, "a", Normalize("  a  \t\n"))
}
