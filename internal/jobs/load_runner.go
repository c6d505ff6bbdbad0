package jobs

import (
	"context"
	"log"

	"github.com/asklore/asklore/internal/service"
	"github.com/asklore/asklore/internal/telemetry"
)

// DocumentCatalog lists the configured documents to ingest
type DocumentCatalog interface {
	Documents(ctx context.Context) []service.Document
}

// Loader ingests a batch of documents
type Loader interface {
	LoadAll(ctx context.Context, docs []service.Document) []service.SourceResult
}

// LoadRunner re-discovers the configured sources and ingests whatever
// is not loaded yet. Ingestion is idempotent, so running it on a timer
// only picks up new documents; already loaded sources are skipped.
type LoadRunner struct {
	catalog DocumentCatalog
	loader  Loader
}

// NewLoadRunner creates a new LoadRunner instance
func NewLoadRunner(catalog DocumentCatalog, loader Loader) *LoadRunner {
	return &LoadRunner{
		catalog: catalog,
		loader:  loader,
	}
}

// Process implements the Processor interface
func (r *LoadRunner) Process(ctx context.Context) error {
	docs := r.catalog.Documents(ctx)
	if len(docs) == 0 {
		return nil
	}

	ctx, span := telemetry.StartSpan(ctx, "jobs.load_pass", telemetry.SpanAttributes{Operation: "load_pass"})
	defer span.End()

	results := r.loader.LoadAll(ctx, docs)

	var loaded, skipped, failed int
	for _, res := range results {
		switch res.Status {
		case service.IngestLoaded:
			loaded++
		case service.IngestSkipped:
			skipped++
		case service.IngestFailed:
			failed++
			if res.Err != nil {
				telemetry.CaptureError(ctx, res.Err)
			}
		}
	}

	if loaded > 0 || failed > 0 {
		log.Printf("load pass finished: %d loaded, %d skipped, %d failed", loaded, skipped, failed)
	}

	return nil
}
