package service

import (
	"context"
	"fmt"
	"log"

	"github.com/asklore/asklore/internal/domain"
)

// ChunkStore defines the store operations the ingestion pipeline needs
type ChunkStore interface {
	Exists(ctx context.Context, source domain.Source, sourceID string) (bool, error)
	Replace(ctx context.Context, source domain.Source, sourceID string, chunks []domain.Chunk) error
}

// Embedder defines the interface for generating embeddings
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// FetchFunc retrieves the raw text of one source.
type FetchFunc func(ctx context.Context) (string, error)

// Document identifies one ingestible source and how to fetch its text.
type Document struct {
	Source   domain.Source
	SourceID string
	Fetch    FetchFunc
}

// IngestStatus is the outcome of ingesting a single source.
type IngestStatus string

const (
	IngestLoaded  IngestStatus = "loaded"
	IngestSkipped IngestStatus = "skipped"
	IngestFailed  IngestStatus = "failed"
)

// SourceResult reports the outcome of one source in a batch load.
type SourceResult struct {
	Source   domain.Source
	SourceID string
	Status   IngestStatus
	Err      error
}

// IngestService loads sources into the chunk store: fetch, chunk, embed
// each chunk sequentially, then replace the stored rows in one shot.
type IngestService struct {
	store    ChunkStore
	embedder Embedder
	throttle *Throttle
	chunkCfg ChunkConfig
}

// NewIngestService creates a new IngestService instance
func NewIngestService(store ChunkStore, embedder Embedder, throttle *Throttle) *IngestService {
	return NewIngestServiceWithConfig(store, embedder, throttle, DefaultChunkConfig())
}

func NewIngestServiceWithConfig(store ChunkStore, embedder Embedder, throttle *Throttle, chunkCfg ChunkConfig) *IngestService {
	return &IngestService{
		store:    store,
		embedder: embedder,
		throttle: throttle,
		chunkCfg: chunkCfg,
	}
}

// IngestSource loads one source into the store. A source that is already
// present is skipped without touching the fetcher or the embedder. Any
// embedding failure aborts the whole source before anything is written, so
// a source is either fully stored or not stored at all.
func (s *IngestService) IngestSource(ctx context.Context, source domain.Source, sourceID string, fetch FetchFunc) (IngestStatus, error) {
	exists, err := s.store.Exists(ctx, source, sourceID)
	if err != nil {
		return IngestFailed, wrapCode(domain.ErrCodeStoreUnavailable, fmt.Sprintf("check %s:%s", source, sourceID), err)
	}
	if exists {
		log.Printf("[ingest] %s:%s already loaded, skipping", source, sourceID)
		return IngestSkipped, nil
	}

	text, err := fetch(ctx)
	if err != nil {
		return IngestFailed, wrapCode(domain.ErrCodeSourceUnavailable, fmt.Sprintf("fetch %s:%s", source, sourceID), err)
	}

	pieces := chunkText(text, s.chunkCfg)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		if err := s.throttle.Wait(ctx); err != nil {
			return IngestFailed, err
		}

		embedding, err := s.embedder.Embed(ctx, piece)
		if err != nil {
			return IngestFailed, wrapCode(domain.ErrCodeEmbeddingUnavailable, fmt.Sprintf("embed chunk %d of %s:%s", i, source, sourceID), err)
		}

		chunks = append(chunks, *domain.NewChunk(source, sourceID, i, piece, embedding))
	}

	if err := s.store.Replace(ctx, source, sourceID, chunks); err != nil {
		return IngestFailed, wrapCode(domain.ErrCodeStoreUnavailable, fmt.Sprintf("store %s:%s", source, sourceID), err)
	}

	log.Printf("[ingest] %s:%s loaded with %d chunks", source, sourceID, len(chunks))
	return IngestLoaded, nil
}

// LoadAll ingests every document in order. A failing source is logged and
// recorded in its result; it never aborts the rest of the batch.
func (s *IngestService) LoadAll(ctx context.Context, docs []Document) []SourceResult {
	results := make([]SourceResult, 0, len(docs))
	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}

		status, err := s.IngestSource(ctx, doc.Source, doc.SourceID, doc.Fetch)
		if err != nil {
			log.Printf("[ingest] %s:%s failed: %v", doc.Source, doc.SourceID, err)
		}
		results = append(results, SourceResult{
			Source:   doc.Source,
			SourceID: doc.SourceID,
			Status:   status,
			Err:      err,
		})
	}
	return results
}

// wrapCode adds location context to err, tagging it with the given domain
// error code unless that code is already present in the chain.
func wrapCode(code, msg string, err error) error {
	if domain.IsCode(err, code) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return domain.NewDomainErrorWithCause(code, msg, err)
}
