package services

import (
	"askchat-backend/internal/models"
	"askchat-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
)

// ChatService handles chat-related business logic. Lookups that miss, or hit a
// chat owned by someone else, return (nil, nil): callers see null data rather
// than a distinct forbidden error.
type ChatService struct {
	store store.Store
}

// NewChatService creates a new ChatService.
func NewChatService(store store.Store) *ChatService {
	return &ChatService{store: store}
}

func mapMessages(msgs []models.ChatMessage) []models.MessageResponse {
	out := make([]models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, models.MessageResponse{
			ID:        m.ID,
			Question:  m.Question,
			Answer:    m.Answer,
			CreatedAt: m.CreatedAt,
		})
	}
	return out
}

// mapChatToResponse converts a DB chat model to an API response DTO.
func mapChatToResponse(c models.Chat, msgs []models.ChatMessage) *models.ChatResponse {
	return &models.ChatResponse{
		ID:        c.ID,
		Title:     c.Title,
		Messages:  mapMessages(msgs),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// GetChat returns the chat with all messages, oldest first.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatResponse, error) {
	chat, err := s.store.GetChat(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chat from store: %w", err)
	}
	return mapChatToResponse(chat.Chat, chat.Messages), nil
}

// ListChats returns the user's chats, each with its latest message.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]models.ChatResponse, error) {
	chats, err := s.store.ListChats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats from store: %w", err)
	}

	resp := make([]models.ChatResponse, 0, len(chats))
	for _, c := range chats {
		resp = append(resp, *mapChatToResponse(c.Chat, c.Messages))
	}
	return resp, nil
}

// CreateChat creates an empty chat for the user.
func (s *ChatService) CreateChat(ctx context.Context, userID uuid.UUID) (*models.ChatResponse, error) {
	chat, err := s.store.CreateChat(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat in store: %w", err)
	}
	log.Printf("[ChatService] Created chat %s for user %s", chat.ID, userID)
	return mapChatToResponse(*chat, nil), nil
}

// DeleteChat deletes the chat if the user owns it.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID uuid.UUID) (*models.ChatResponse, error) {
	chat, err := s.store.DeleteChat(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to delete chat: %w", err)
	}
	log.Printf("[ChatService] Deleted chat %s for user %s", chat.ID, userID)
	return mapChatToResponse(*chat, nil), nil
}
