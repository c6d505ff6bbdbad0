package sources

import (
	"context"
	"path"
	"strings"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/service"
)

// ObjectStore is the subset of the storage client the S3 source needs.
type ObjectStore interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// S3Documents lists PDF objects under prefix and builds one ingestible
// document per object. Non-PDF keys are ignored. The source_id is the
// object's base name, matching the local-file PDF source.
func S3Documents(ctx context.Context, store ObjectStore, prefix string) ([]service.Document, error) {
	keys, err := store.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var docs []service.Document
	for _, key := range keys {
		if !strings.EqualFold(path.Ext(key), ".pdf") {
			continue
		}

		key := key
		docs = append(docs, service.Document{
			Source:   domain.SourcePDF,
			SourceID: path.Base(key),
			Fetch: func(ctx context.Context) (string, error) {
				data, err := store.GetObject(ctx, key)
				if err != nil {
					return "", err
				}
				return ExtractPDFText(data)
			},
		})
	}

	return docs, nil
}
