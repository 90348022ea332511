package postgres

import (
	db_models "askchat-backend/internal/models"
	"askchat-backend/internal/store"
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to DATABASE_URL and skips when it is unset.
func newTestStore(t *testing.T) (*PostgresStore, *pgxpool.Pool) {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := NewPostgresStore(pool)
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s, pool
}

// newTestUser inserts a user with a unique email; deleting it cascades to its chats.
func newTestUser(t *testing.T, s *PostgresStore, pool *pgxpool.Pool) *db_models.User {
	t.Helper()
	user := &db_models.User{ID: uuid.New(), Email: uuid.NewString() + "@example.test", HashedPassword: "x"}
	require.NoError(t, s.CreateUser(context.Background(), user))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, user.ID)
	})
	return user
}

func TestPostgresCreateUserConflictAndLookup(t *testing.T) {
	s, pool := newTestStore(t)
	ctx := context.Background()
	user := newTestUser(t, s, pool)

	err := s.CreateUser(ctx, &db_models.User{ID: uuid.New(), Email: user.Email, HashedPassword: "y"})
	require.ErrorIs(t, err, store.ErrConflict)

	got, err := s.GetUserByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = s.GetUserByEmail(ctx, uuid.NewString()+"@example.test")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresChatsScopedToOwner(t *testing.T) {
	s, pool := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, pool)
	intruder := newTestUser(t, s, pool)

	chat, err := s.CreateChat(ctx, owner.ID)
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, chat.ID, "hi", "hello")
	require.NoError(t, err)

	_, err = s.GetChat(ctx, chat.ID, intruder.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.DeleteChat(ctx, chat.ID, intruder.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, deleted)

	got, err := s.GetChat(ctx, chat.ID, owner.ID)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 1)

	deleted, err = s.DeleteChat(ctx, chat.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, chat.ID, deleted.ID)
	_, err = s.GetChat(ctx, chat.ID, owner.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgresMessagesOrderedAndListShowsLatest(t *testing.T) {
	s, pool := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, pool)

	chat, err := s.CreateChat(ctx, owner.ID)
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, chat.ID, "first", "a1")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, chat.ID, "second", "a2")
	require.NoError(t, err)

	got, err := s.GetChat(ctx, chat.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "first", got.Messages[0].Question)
	assert.Equal(t, "second", got.Messages[1].Question)
	assert.Equal(t, "first", got.Title)

	list, err := s.ListChats(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Messages, 1)
	assert.Equal(t, "second", list[0].Messages[0].Question)
}
