package sources

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/asklore/asklore/internal/service"
)

// CatalogConfig names the configured source locations.
type CatalogConfig struct {
	PDFDir           string
	ArticleURLs      []string
	ChatFeedURL      string
	ChatFeedChannels []string
	ArticleTimeout   time.Duration

	// Optional object-storage source; nil disables it.
	ObjectStore ObjectStore
	S3Prefix    string
}

// Catalog assembles the full set of ingestible documents from the
// configured sources. Discovery (directory glob, S3 listing) reruns on
// every call, so documents added after startup are picked up by the
// next load pass.
type Catalog struct {
	cfg CatalogConfig
}

// NewCatalog creates a new Catalog instance
func NewCatalog(cfg CatalogConfig) *Catalog {
	return &Catalog{cfg: cfg}
}

// Documents returns every configured document in a stable order: local
// PDFs, articles, chat channels, then S3 objects. A failing discovery
// step is logged and skipped; it never hides the other sources.
func (c *Catalog) Documents(ctx context.Context) []service.Document {
	var docs []service.Document

	if c.cfg.PDFDir != "" {
		paths, err := filepath.Glob(filepath.Join(c.cfg.PDFDir, "*.pdf"))
		if err != nil {
			log.Printf("[catalog] pdf dir glob failed: %v", err)
		}
		for _, p := range paths {
			docs = append(docs, PDFDocument(p))
		}
	}

	for _, url := range c.cfg.ArticleURLs {
		docs = append(docs, ArticleDocument(url, c.cfg.ArticleTimeout))
	}

	if c.cfg.ChatFeedURL != "" && len(c.cfg.ChatFeedChannels) > 0 {
		client := NewChatFeedClient(c.cfg.ChatFeedURL, 0)
		for _, channel := range c.cfg.ChatFeedChannels {
			docs = append(docs, client.Document(channel))
		}
	}

	if c.cfg.ObjectStore != nil {
		s3Docs, err := S3Documents(ctx, c.cfg.ObjectStore, c.cfg.S3Prefix)
		if err != nil {
			log.Printf("[catalog] s3 listing failed: %v", err)
		}
		docs = append(docs, s3Docs...)
	}

	return docs
}
