package models

import (
	"time"

	"github.com/google/uuid"
)

// --- Request Structs ---

// SignupRequest defines the expected body for the signup endpoint.
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest defines the expected body for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AskRequest is the body of POST /api/ask.
// ChatID is optional; when present the question/answer pair is stored in that chat.
type AskRequest struct {
	Question string     `json:"question"`
	ChatID   *uuid.UUID `json:"chatId,omitempty"`
}

// --- Response Structs ---

// UserResponse defines the user information returned by the API.
// Avoid returning sensitive info like HashedPassword.
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// AuthResponse defines the response body for successful authentication.
// The same token is also set as the session cookie.
type AuthResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// ErrorResponse defines the standard structure for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AskResponse is the body returned by POST /api/ask.
type AskResponse struct {
	Answer string `json:"answer"`
}

// --- Chat DTOs ---

// MessageResponse is one stored question/answer turn.
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChatResponse defines the standard representation of a chat in API responses.
// For list views Messages holds only the latest turn.
type ChatResponse struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// DataResponse wraps store results the way the dashboard expects: {"data": ...}.
// A nil Data marshals to null for missing or foreign chats.
type DataResponse struct {
	Data interface{} `json:"data"`
}
