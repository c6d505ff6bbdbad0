package sources

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/service"
	"github.com/dslipak/pdf"
)

// PDFDocument builds an ingestible document for a local PDF file. The
// source_id is the file's base name, so moving the directory does not
// change identity.
func PDFDocument(path string) service.Document {
	return service.Document{
		Source:   domain.SourcePDF,
		SourceID: filepath.Base(path),
		Fetch: func(ctx context.Context) (string, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return "", fmt.Errorf("read pdf %s: %w", path, err)
			}
			return ExtractPDFText(data)
		},
	}
}

// ExtractPDFText pulls the plain text out of a PDF, page by page. Pages
// that fail to parse are logged and skipped; a document yielding no text
// at all is an error.
func ExtractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[sources] pdf page %d unreadable, skipping: %v", i, err)
			continue
		}

		buf.WriteString(text)
		buf.WriteString("\n")
	}

	content := strings.TrimSpace(buf.String())
	if content == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}

	return content, nil
}
