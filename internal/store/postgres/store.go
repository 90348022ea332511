package postgres

import (
	db_models "askchat-backend/internal/models"
	"askchat-backend/internal/store"
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check to ensure PostgresStore implements store.Store
var _ store.Store = (*PostgresStore)(nil)

// uniqueViolation is the PostgreSQL error code for unique_violation.
const uniqueViolation = "23505"

// titleMaxLen bounds the chat title derived from the first question.
const titleMaxLen = 80

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// --- User Methods ---

// GetUserByEmail retrieves a user by their email address.
// Returns store.ErrNotFound if the user does not exist.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*db_models.User, error) {
	query := `
		SELECT id, email, hashed_password, created_at, updated_at
		FROM users
		WHERE email = $1`

	user := &db_models.User{}
	err := s.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.HashedPassword,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Printf("ERROR [PostgresStore] GetUserByEmail: Failed to query/scan user for email %s: %v", email, err)
		return nil, fmt.Errorf("database error fetching user by email: %w", err)
	}
	return user, nil
}

// CreateUser inserts a new user record into the database.
func (s *PostgresStore) CreateUser(ctx context.Context, user *db_models.User) error {
	log.Printf("[PostgresStore] CreateUser called for: %s (UserID: %s)", user.Email, user.ID)
	query := `
		INSERT INTO users (id, email, hashed_password)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`

	err := s.db.QueryRow(ctx, query, user.ID, user.Email, user.HashedPassword).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == uniqueViolation {
				return store.ErrConflict
			}
			log.Printf("ERROR [PostgresStore] CreateUser: PostgreSQL error executing insert for email %s: Code=%s, Message=%s, Detail=%s", user.Email, pgErr.Code, pgErr.Message, pgErr.Detail)
		} else {
			log.Printf("ERROR [PostgresStore] CreateUser: Failed to execute insert for email %s: %v", user.Email, err)
		}
		return fmt.Errorf("database error creating user: %w", err)
	}
	return nil
}

// --- Chat Methods ---

const createChat = `-- name: CreateChat :one
INSERT INTO chats (id, user_id)
VALUES ($1, $2)
RETURNING id, user_id, title, created_at, updated_at;
`

func (s *PostgresStore) CreateChat(ctx context.Context, userID uuid.UUID) (*db_models.Chat, error) {
	var c db_models.Chat
	err := s.db.QueryRow(ctx, createChat, uuid.New(), userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating chat: %w", err)
	}
	return &c, nil
}

const getChat = `-- name: GetChat :one
SELECT id, user_id, title, created_at, updated_at
FROM chats
WHERE id = $1 AND user_id = $2;
`

const listChatMessages = `-- name: ListChatMessages :many
SELECT id, chat_id, question, answer, created_at
FROM messages
WHERE chat_id = $1
ORDER BY created_at ASC, id ASC;
`

// GetChat returns the chat with all of its messages, oldest first.
// A chat owned by someone else is reported as store.ErrNotFound.
func (s *PostgresStore) GetChat(ctx context.Context, id, userID uuid.UUID) (*db_models.ChatWithMessages, error) {
	var c db_models.ChatWithMessages
	err := s.db.QueryRow(ctx, getChat, id, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error scanning chat: %w", err)
	}

	rows, err := s.db.Query(ctx, listChatMessages, id)
	if err != nil {
		return nil, fmt.Errorf("error querying chat messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m db_models.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.Question, &m.Answer, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning chat message row: %w", err)
		}
		c.Messages = append(c.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat message rows: %w", err)
	}

	return &c, nil
}

const listChats = `-- name: ListChats :many
SELECT c.id, c.user_id, c.title, c.created_at, c.updated_at,
       m.id, m.question, m.answer, m.created_at
FROM chats c
LEFT JOIN LATERAL (
    SELECT id, question, answer, created_at
    FROM messages
    WHERE chat_id = c.id
    ORDER BY created_at DESC, id DESC
    LIMIT 1
) m ON TRUE
WHERE c.user_id = $1
ORDER BY c.updated_at DESC;
`

// ListChats returns the user's chats, each carrying only its latest message.
func (s *PostgresStore) ListChats(ctx context.Context, userID uuid.UUID) ([]db_models.ChatWithMessages, error) {
	rows, err := s.db.Query(ctx, listChats, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying chats: %w", err)
	}
	defer rows.Close()

	items := []db_models.ChatWithMessages{}
	for rows.Next() {
		var (
			c         db_models.ChatWithMessages
			msgID     *uuid.UUID
			question  *string
			answer    *string
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Title,
			&c.CreatedAt,
			&c.UpdatedAt,
			&msgID,
			&question,
			&answer,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning chat row: %w", err)
		}
		if msgID != nil {
			c.Messages = []db_models.ChatMessage{{
				ID:        *msgID,
				ChatID:    c.ID,
				Question:  deref(question),
				Answer:    deref(answer),
				CreatedAt: createdAt.Time,
			}}
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat rows: %w", err)
	}
	return items, nil
}

const deleteChat = `-- name: DeleteChat :one
DELETE FROM chats
WHERE id = $1 AND user_id = $2
RETURNING id, user_id, title, created_at, updated_at;
`

// DeleteChat removes the chat and (via ON DELETE CASCADE) its messages.
// Nothing is touched when the chat belongs to another user.
func (s *PostgresStore) DeleteChat(ctx context.Context, id, userID uuid.UUID) (*db_models.Chat, error) {
	var c db_models.Chat
	err := s.db.QueryRow(ctx, deleteChat, id, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Title,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error deleting chat: %w", err)
	}
	return &c, nil
}

// --- Message Methods ---

const addMessage = `-- name: AddMessage :one
INSERT INTO messages (id, chat_id, question, answer)
VALUES ($1, $2, $3, $4)
RETURNING id, chat_id, question, answer, created_at;
`

const touchChat = `-- name: TouchChat :exec
UPDATE chats
SET title = CASE WHEN title = '' THEN $2 ELSE title END,
    updated_at = NOW()
WHERE id = $1;
`

// AddMessage stores one question/answer pair and bumps the chat's updated_at.
// The first question also becomes the chat title.
func (s *PostgresStore) AddMessage(ctx context.Context, chatID uuid.UUID, question, answer string) (*db_models.ChatMessage, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	var m db_models.ChatMessage
	err = tx.QueryRow(ctx, addMessage, uuid.New(), chatID, question, answer).Scan(
		&m.ID,
		&m.ChatID,
		&m.Question,
		&m.Answer,
		&m.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("error inserting message: %w", err)
	}

	if _, err := tx.Exec(ctx, touchChat, chatID, truncateTitle(question)); err != nil {
		return nil, fmt.Errorf("error updating chat: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}
	return &m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncateTitle(question string) string {
	runes := []rune(question)
	if len(runes) <= titleMaxLen {
		return question
	}
	return string(runes[:titleMaxLen])
}
