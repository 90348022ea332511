package services

import (
	"askchat-backend/internal/generator"
	"askchat-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
)

// ErrUpstream means the answer generator failed or returned nothing usable.
var ErrUpstream = errors.New("answer generation failed")

// AskService forwards questions to the generator and records answered turns.
type AskService struct {
	store     store.Store
	generator generator.Generator
}

func NewAskService(s store.Store, g generator.Generator) *AskService {
	return &AskService{store: s, generator: g}
}

// Ask returns the generated answer. When chatID is set and owned by userID the
// question/answer pair is appended to that chat; a failed write is logged and
// does not cost the caller the answer.
func (s *AskService) Ask(ctx context.Context, userID uuid.UUID, question string, chatID *uuid.UUID) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question cannot be empty", ErrValidation)
	}

	answer, err := s.generator.Generate(ctx, question)
	if err != nil {
		log.Printf("ERROR [AskService] generator failed for user %s: %v", userID, err)
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: %v", ErrUpstream, generator.ErrEmptyAnswer)
	}

	if chatID != nil && *chatID != uuid.Nil {
		s.persist(ctx, userID, *chatID, question, answer)
	}
	return answer, nil
}

func (s *AskService) persist(ctx context.Context, userID, chatID uuid.UUID, question, answer string) {
	if _, err := s.store.GetChat(ctx, chatID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("WARN [AskService] chat %s not found for user %s, answer not stored", chatID, userID)
			return
		}
		log.Printf("ERROR [AskService] failed to verify chat %s: %v", chatID, err)
		return
	}
	if _, err := s.store.AddMessage(ctx, chatID, question, answer); err != nil {
		log.Printf("ERROR [AskService] failed to store message in chat %s: %v", chatID, err)
	}
}
