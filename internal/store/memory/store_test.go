package memory

import (
	db_models "askchat-backend/internal/models"
	"askchat-backend/internal/store"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteChatNotOwnedLeavesStoreUnchanged(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner, intruder := uuid.New(), uuid.New()

	chat, err := s.CreateChat(ctx, owner)
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, chat.ID, "hi", "hello")
	require.NoError(t, err)

	deleted, err := s.DeleteChat(ctx, chat.ID, intruder)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, deleted)

	got, err := s.GetChat(ctx, chat.ID, owner)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)
}

func TestGetChatScopedToOwner(t *testing.T) {
	s := New()
	ctx := context.Background()
	chat, err := s.CreateChat(ctx, uuid.New())
	require.NoError(t, err)

	_, err = s.GetChat(ctx, chat.ID, uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMessagesOrderedAndTitleFromFirstQuestion(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := uuid.New()
	chat, err := s.CreateChat(ctx, owner)
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, chat.ID, "first", "a1")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, chat.ID, "second", "a2")
	require.NoError(t, err)

	got, err := s.GetChat(ctx, chat.ID, owner)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "first", got.Messages[0].Question)
	assert.Equal(t, "second", got.Messages[1].Question)
	assert.Equal(t, "first", got.Title)

	list, err := s.ListChats(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Messages, 1)
	assert.Equal(t, "second", list[0].Messages[0].Question)
}

func TestCreateUserConflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &db_models.User{ID: uuid.New(), Email: "a@b.c"}))
	err := s.CreateUser(ctx, &db_models.User{ID: uuid.New(), Email: "a@b.c"})
	require.ErrorIs(t, err, store.ErrConflict)
}
