package store

import (
	db_models "askchat-backend/internal/models"
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a specific record is not found,
// including chats that exist but belong to another user.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a unique constraint (e.g. user email) is violated.
var ErrConflict = errors.New("record already exists")

// Store defines the interface for database operations.
// This allows for mocking in tests and potential DB backend switching.
type Store interface {
	// User operations
	CreateUser(ctx context.Context, user *db_models.User) error
	GetUserByEmail(ctx context.Context, email string) (*db_models.User, error)

	// Chat operations. Every lookup is scoped to the owning user.
	CreateChat(ctx context.Context, userID uuid.UUID) (*db_models.Chat, error)
	GetChat(ctx context.Context, id, userID uuid.UUID) (*db_models.ChatWithMessages, error) // messages oldest first
	ListChats(ctx context.Context, userID uuid.UUID) ([]db_models.ChatWithMessages, error)  // latest message only
	DeleteChat(ctx context.Context, id, userID uuid.UUID) (*db_models.Chat, error)

	// Message operations
	AddMessage(ctx context.Context, chatID uuid.UUID, question, answer string) (*db_models.ChatMessage, error)
}
