package handlers

import (
	"askchat-backend/internal/conversation"
	"askchat-backend/internal/models"
	"askchat-backend/internal/services"
	"askchat-backend/pkg/httputil"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
)

// AskService is what HandleAsk needs from the ask service.
type AskService interface {
	Ask(ctx context.Context, userID uuid.UUID, question string, chatID *uuid.UUID) (string, error)
}

// AskHandler serves POST /api/ask.
type AskHandler struct {
	askService AskService
}

func NewAskHandler(askService AskService) *AskHandler {
	return &AskHandler{askService: askService}
}

// HandleAsk forwards the question and returns {"answer": ...}. Upstream
// failures still answer with the fallback text so the client can reveal it.
func (h *AskHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromRequest(r)
	if err != nil {
		httputil.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("ERROR [AskHandler] decoding request for user %s: %v", userID, err)
		httputil.RespondText(w, http.StatusInternalServerError, "Error processing chat request")
		return
	}
	defer r.Body.Close()

	answer, err := h.askService.Ask(r.Context(), userID, req.Question, req.ChatID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrValidation):
			httputil.RespondError(w, http.StatusBadRequest, "Question is required")
		case errors.Is(err, services.ErrUpstream):
			httputil.RespondJSON(w, http.StatusInternalServerError, models.AskResponse{Answer: conversation.FallbackAnswer})
		default:
			log.Printf("ERROR [AskHandler] unexpected error for user %s: %v", userID, err)
			httputil.RespondText(w, http.StatusInternalServerError, "Error processing chat request")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.AskResponse{Answer: answer})
}
