package models

// DocumentKind is a classifier hint for the chunker. The generic strategy is
// always a valid fallback, so an inaccurate hint degrades chunk quality but
// never correctness.
type DocumentKind int

const (
	KindUnknown DocumentKind = iota
	KindResume
	KindGeneric
)

func (k DocumentKind) String() string {
	switch k {
	case KindResume:
		return "resume"
	case KindGeneric:
		return "generic"
	default:
		return "unknown"
	}
}

// Chunk is a contiguous passage of document text. Immutable once created;
// SourceOrder is a 0-based index in original document order.
type Chunk struct {
	ID          int
	Text        string
	Section     string
	SourceOrder int
}

// RetrievalResult pairs a chunk with its cosine similarity to a query.
type RetrievalResult struct {
	Chunk Chunk
	Score float32
}

// QuestionAnswer is produced 1:1 with the input question list, in order.
// A failed question carries a marked answer, never an empty slot.
type QuestionAnswer struct {
	Question string
	Answer   string
}

// Document is the loader's output: extracted text plus basic metadata.
type Document struct {
	Text      string
	Title     string
	PageCount int
}
