package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/asklore/asklore/internal/domain"
)

const (
	// DefaultTopK is the number of chunks retrieved when no k is given.
	DefaultTopK = 5

	// EmptyStoreAnswer is returned when nothing has been ingested yet.
	EmptyStoreAnswer = "The knowledge base is empty. Load some sources before asking questions."

	// NoMatchAnswer is returned when retrieval finds no chunks for the
	// question. A normal outcome, not an error.
	NoMatchAnswer = "I couldn't find any relevant information in the knowledge base for that question."

	promptPreamble = `You are a helpful assistant answering questions about a private knowledge base.
Answer using only the context passages below. If the context does not contain
enough information to answer, say so plainly instead of guessing.`
)

// AnswerStore defines the read operations the answering pipeline needs
type AnswerStore interface {
	Count(ctx context.Context) (int, error)
	NearestNeighbors(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)
}

// Generator defines the interface for producing a text answer
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AnswerService answers questions against the chunk store: embed the
// question, retrieve the nearest chunks, assemble a grounded prompt and
// hand it to the generation model.
type AnswerService struct {
	store     AnswerStore
	embedder  Embedder
	generator Generator
}

// NewAnswerService creates a new AnswerService instance
func NewAnswerService(store AnswerStore, embedder Embedder, generator Generator) *AnswerService {
	return &AnswerService{
		store:     store,
		embedder:  embedder,
		generator: generator,
	}
}

// Answer returns the generator's response for question, grounded on the
// k most similar stored chunks. An empty store or an empty retrieval
// result yields a fixed sentinel answer without calling the generator.
// Retrieved chunks are never filtered by similarity, only capped at k;
// judging relevance is left to the generator.
func (s *AnswerService) Answer(ctx context.Context, question string, k int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.ErrEmptyQuestion
	}
	if k <= 0 {
		k = DefaultTopK
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return "", wrapCode(domain.ErrCodeStoreUnavailable, "count chunks", err)
	}
	if count == 0 {
		return EmptyStoreAnswer, nil
	}

	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return "", err
	}

	neighbors, err := s.store.NearestNeighbors(ctx, vector, k)
	if err != nil {
		return "", wrapCode(domain.ErrCodeStoreUnavailable, "nearest neighbors", err)
	}
	if len(neighbors) == 0 {
		return NoMatchAnswer, nil
	}

	log.Printf("[answer] retrieved %d chunks for question (top similarity %.4f)", len(neighbors), neighbors[0].Similarity)

	return s.generator.Generate(ctx, buildPrompt(question, neighbors))
}

// buildPrompt renders the instruction preamble, each retrieved chunk
// labeled with its origin, and the verbatim question.
func buildPrompt(question string, neighbors []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n\nContext:\n")
	for _, sc := range neighbors {
		fmt.Fprintf(&b, "\n[%s:%s]\n%s\n", sc.Chunk.Source, sc.Chunk.SourceID, sc.Chunk.Content)
	}
	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
