package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/asklore/asklore/internal/api"
	"github.com/asklore/asklore/internal/domain"
	"github.com/asklore/asklore/internal/service"
)

type DocumentCatalog interface {
	Documents(ctx context.Context) []service.Document
}

type Loader interface {
	LoadAll(ctx context.Context, docs []service.Document) []service.SourceResult
}

type IngestHandler struct {
	catalog DocumentCatalog
	loader  Loader
}

func NewIngestHandler(catalog DocumentCatalog, loader Loader) *IngestHandler {
	return &IngestHandler{catalog: catalog, loader: loader}
}

// IngestRequest optionally narrows an ingest run to a single source pair.
// An empty body loads every configured document.
type IngestRequest struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
}

type IngestResultResponse struct {
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
}

type IngestResponse struct {
	Results []IngestResultResponse `json:"results"`
	Loaded  int                    `json:"loaded"`
	Skipped int                    `json:"skipped"`
	Failed  int                    `json:"failed"`
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if (req.Source == "") != (req.SourceID == "") {
		api.Error(w, http.StatusBadRequest, "source and source_id must be given together")
		return
	}

	docs := h.catalog.Documents(r.Context())

	if req.Source != "" {
		source, err := domain.ParseSource(req.Source)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid source")
			return
		}

		docs = filterDocuments(docs, source, req.SourceID)
		if len(docs) == 0 {
			api.HandleError(w, domain.ErrSourceNotFound)
			return
		}
	}

	results := h.loader.LoadAll(r.Context(), docs)

	resp := IngestResponse{Results: make([]IngestResultResponse, 0, len(results))}
	for _, res := range results {
		item := IngestResultResponse{
			Source:   string(res.Source),
			SourceID: res.SourceID,
			Status:   string(res.Status),
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		}
		resp.Results = append(resp.Results, item)

		switch res.Status {
		case service.IngestLoaded:
			resp.Loaded++
		case service.IngestSkipped:
			resp.Skipped++
		case service.IngestFailed:
			resp.Failed++
		}
	}

	api.Success(w, http.StatusOK, resp)
}

func filterDocuments(docs []service.Document, source domain.Source, sourceID string) []service.Document {
	var matched []service.Document
	for _, doc := range docs {
		if doc.Source == source && doc.SourceID == sourceID {
			matched = append(matched, doc)
		}
	}
	return matched
}
