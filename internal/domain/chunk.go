package domain

import (
	"fmt"
	"strings"
	"time"
)

// Source represents the category a document was ingested from
type Source string

const (
	SourcePDF      Source = "pdf"
	SourceArticle  Source = "article"
	SourceChatFeed Source = "chat-feed"
)

// Chunk represents one retrievable segment of an ingested document.
// (Source, SourceID, ChunkIndex) uniquely identifies a chunk; re-ingesting
// a source replaces its full chunk set rather than updating rows in place.
type Chunk struct {
	ID         int64
	Source     Source
	SourceID   string
	ChunkIndex int
	Content    string
	Embedding  []float32 // nil when embedding was skipped or failed
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ScoredChunk pairs a chunk with its cosine similarity to a query vector.
type ScoredChunk struct {
	Chunk      Chunk
	Similarity float64
}

// SourceSummary aggregates the stored chunks of one ingested source.
type SourceSummary struct {
	Source      Source
	SourceID    string
	ChunkCount  int
	LastUpdated time.Time
}

// Key returns the cursor key for a source pair, e.g. "pdf:handbook.pdf".
func (s SourceSummary) Key() string {
	return string(s.Source) + ":" + s.SourceID
}

// Message represents a single chat-feed entry before transcript rendering
type Message struct {
	Speaker string
	Text    string
}

// NewChunk creates a Chunk at the given position of a source's chunk sequence
func NewChunk(source Source, sourceID string, chunkIndex int, content string, embedding []float32) *Chunk {
	return &Chunk{
		Source:     source,
		SourceID:   sourceID,
		ChunkIndex: chunkIndex,
		Content:    content,
		Embedding:  embedding,
	}
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if !isValidSource(c.Source) {
		return fmt.Errorf("chunk Source is invalid: %s", c.Source)
	}

	if c.SourceID == "" {
		return fmt.Errorf("chunk SourceID is required")
	}

	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk ChunkIndex cannot be negative")
	}

	if strings.TrimSpace(c.Content) == "" {
		return fmt.Errorf("chunk Content is required")
	}

	return nil
}

// ParseSource converts a raw string into a Source
func ParseSource(raw string) (Source, error) {
	s := Source(raw)
	if !isValidSource(s) {
		return "", ErrInvalidSource
	}
	return s, nil
}

// isValidSource checks if a Source is valid
func isValidSource(s Source) bool {
	switch s {
	case SourcePDF, SourceArticle, SourceChatFeed:
		return true
	}
	return false
}
