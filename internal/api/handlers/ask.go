package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/asklore/asklore/internal/api"
)

type AskService interface {
	Answer(ctx context.Context, question string, k int) (string, error)
}

type AskHandler struct {
	svc AskService
}

func NewAskHandler(svc AskService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type AskResponse struct {
	Answer string `json:"answer"`
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}
	if req.TopK < 0 {
		api.Error(w, http.StatusBadRequest, "top_k cannot be negative")
		return
	}

	answer, err := h.svc.Answer(r.Context(), req.Question, req.TopK)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{Answer: answer})
}
