package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/service"
	readability "github.com/go-shiori/go-readability"
)

const defaultArticleTimeout = 30 * time.Second

// ArticleDocument builds an ingestible document for a remote article.
// The readability extractor strips navigation and boilerplate, leaving
// the article body. The source_id is the URL itself.
func ArticleDocument(url string, timeout time.Duration) service.Document {
	if timeout <= 0 {
		timeout = defaultArticleTimeout
	}
	return service.Document{
		Source:   domain.SourceArticle,
		SourceID: url,
		Fetch: func(ctx context.Context) (string, error) {
			article, err := readability.FromURL(url, timeout)
			if err != nil {
				return "", fmt.Errorf("fetch article %s: %w", url, err)
			}

			content := strings.TrimSpace(article.TextContent)
			if content == "" {
				return "", fmt.Errorf("article %s has no readable content", url)
			}

			return content, nil
		},
	}
}
