package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/asklore/asklore/internal/api"
	"github.com/asklore/asklore/internal/pagination"
	"github.com/asklore/asklore/internal/repository"
)

type SourceLister interface {
	ListSources(ctx context.Context, cursor *pagination.Cursor, limit int) (*repository.SourcePageResult, error)
}

type SourcesHandler struct {
	store SourceLister
}

func NewSourcesHandler(store SourceLister) *SourcesHandler {
	return &SourcesHandler{store: store}
}

type SourceSummaryResponse struct {
	Source      string `json:"source"`
	SourceID    string `json:"source_id"`
	ChunkCount  int    `json:"chunk_count"`
	LastUpdated string `json:"last_updated"`
}

type SourcesListResponse struct {
	Items   []SourceSummaryResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

func (h *SourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	var cursor *pagination.Cursor
	if raw := r.URL.Query().Get("cursor"); raw != "" {
		decoded, err := pagination.DecodeCursor(raw)
		if err != nil {
			api.Error(w, http.StatusBadRequest, "invalid cursor")
			return
		}
		cursor = decoded
	}

	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	page, err := h.store.ListSources(r.Context(), cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]SourceSummaryResponse, len(page.Items))
	for i, s := range page.Items {
		items[i] = SourceSummaryResponse{
			Source:      string(s.Source),
			SourceID:    s.SourceID,
			ChunkCount:  s.ChunkCount,
			LastUpdated: s.LastUpdated.UTC().Format("2006-01-02T15:04:05Z"),
		}
	}

	api.Success(w, http.StatusOK, SourcesListResponse{
		Items:   items,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}
