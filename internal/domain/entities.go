package domain

// RawDocument is the text handed to ingestion. It is never persisted.
type RawDocument struct {
	Text   string
	Source string
}

// Segment is a contiguous window of a RawDocument.
type Segment struct {
	Text            string
	SequenceIndex   int
	OverlapWithPrev int // characters shared with the previous segment
	Offset          int // rune offset into the source text
}

// ChunkParams controls the windowing of a document.
type ChunkParams struct {
	Size    int `json:"size"`
	Overlap int `json:"overlap"`
}

// StoredSegment is a segment as persisted in the vector store.
type StoredSegment struct {
	ID            string
	Text          string
	Embedding     []float32
	Source        string
	SequenceIndex int
}

type QueryRequest struct {
	Question string `json:"question"`
}

// ScoredSegment is one retrieved passage with its similarity score.
type ScoredSegment struct {
	ID     string  `json:"id,omitempty"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source,omitempty"`
}

// RetrievedContext is ordered by descending score.
type RetrievedContext []ScoredSegment

// Texts returns the passage texts in rank order.
func (c RetrievedContext) Texts() []string {
	out := make([]string, len(c))
	for i, s := range c {
		out[i] = s.Text
	}
	return out
}

type Answer struct {
	Text    string           `json:"answer"`
	Sources RetrievedContext `json:"sources,omitempty"`
}

type IngestResult struct {
	ChunksWritten int         `json:"chunks"`
	Params        ChunkParams `json:"params"`
	Source        string      `json:"source,omitempty"`
}

type Stats struct {
	Segments       int    `json:"segments"`
	Backend        string `json:"backend"`
	EmbeddingModel string `json:"embedding_model"`
}
