package handlers

import (
	"askchat-backend/internal/auth"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var errNoUserInContext = errors.New("user ID not found in context")

// userIDFromRequest extracts the authenticated user set by the session middleware.
func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok || userID == uuid.Nil {
		return uuid.Nil, errNoUserInContext
	}
	return userID, nil
}

// chatIDFromRequest parses the {chatID} URL parameter.
func chatIDFromRequest(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "chatID"))
}
