// Package memory is an in-process store.Store used for local development
// (STORE_DRIVER=memory) and for service and handler tests.
package memory

import (
	db_models "askchat-backend/internal/models"
	"askchat-backend/internal/store"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ store.Store = (*Store)(nil)

const titleMaxLen = 80

type Store struct {
	mu       sync.RWMutex
	users    map[string]db_models.User // keyed by email
	chats    map[uuid.UUID]db_models.Chat
	messages map[uuid.UUID][]db_models.ChatMessage // keyed by chat id, insertion order
	now      func() time.Time
}

func New() *Store {
	return &Store{
		users:    make(map[string]db_models.User),
		chats:    make(map[uuid.UUID]db_models.Chat),
		messages: make(map[uuid.UUID][]db_models.ChatMessage),
		now:      time.Now,
	}
}

func (s *Store) CreateUser(ctx context.Context, user *db_models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return store.ErrConflict
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.Email] = *user
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) CreateChat(ctx context.Context, userID uuid.UUID) (*db_models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	c := db_models.Chat{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	s.chats[c.ID] = c
	return &c, nil
}

func (s *Store) GetChat(ctx context.Context, id, userID uuid.UUID) (*db_models.ChatWithMessages, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chats[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	msgs := append([]db_models.ChatMessage(nil), s.messages[id]...)
	return &db_models.ChatWithMessages{Chat: c, Messages: msgs}, nil
}

func (s *Store) ListChats(ctx context.Context, userID uuid.UUID) ([]db_models.ChatWithMessages, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := []db_models.ChatWithMessages{}
	for _, c := range s.chats {
		if c.UserID != userID {
			continue
		}
		item := db_models.ChatWithMessages{Chat: c}
		if msgs := s.messages[c.ID]; len(msgs) > 0 {
			item.Messages = []db_models.ChatMessage{msgs[len(msgs)-1]}
		}
		items = append(items, item)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

func (s *Store) DeleteChat(ctx context.Context, id, userID uuid.UUID) (*db_models.Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[id]
	if !ok || c.UserID != userID {
		return nil, store.ErrNotFound
	}
	delete(s.chats, id)
	delete(s.messages, id)
	return &c, nil
}

func (s *Store) AddMessage(ctx context.Context, chatID uuid.UUID, question, answer string) (*db_models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chats[chatID]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := s.now()
	m := db_models.ChatMessage{ID: uuid.New(), ChatID: chatID, Question: question, Answer: answer, CreatedAt: now}
	s.messages[chatID] = append(s.messages[chatID], m)

	if c.Title == "" {
		runes := []rune(question)
		if len(runes) > titleMaxLen {
			runes = runes[:titleMaxLen]
		}
		c.Title = string(runes)
	}
	c.UpdatedAt = now
	s.chats[chatID] = c
	return &m, nil
}
