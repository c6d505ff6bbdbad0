package handlers

import (
	"context"
	"net/http"

	"github.com/asklore/asklore/internal/api"
)

type StatusStore interface {
	Count(ctx context.Context) (int, error)
	CountSources(ctx context.Context) (int, error)
}

type StatusHandler struct {
	store StatusStore
}

func NewStatusHandler(store StatusStore) *StatusHandler {
	return &StatusHandler{store: store}
}

type StatusResponse struct {
	ChunkCount  int  `json:"chunk_count"`
	SourceCount int  `json:"source_count"`
	Ready       bool `json:"ready"`
}

// Status reports what has been ingested so far. Ready means at least one
// chunk is stored, so answers can be grounded rather than the empty-store
// sentinel.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	chunks, err := h.store.Count(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources, err := h.store.CountSources(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, StatusResponse{
		ChunkCount:  chunks,
		SourceCount: sources,
		Ready:       chunks > 0,
	})
}
