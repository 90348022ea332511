// Package client talks to the askchat HTTP API the way the web UI does: a
// cookie-carrying session, chat CRUD, and questions to /api/ask.
package client

import (
	"askchat-backend/internal/conversation"
	"askchat-backend/internal/models"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnexpectedStatus wraps responses outside the status codes an endpoint documents.
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrNoAnswer is returned by Ask when the body has neither an answer nor an error.
	ErrNoAnswer = errors.New("response carried no answer")
)

var _ conversation.Asker = (*Client)(nil)

type Client struct {
	baseURL    string
	httpClient *http.Client

	mu     sync.RWMutex
	chatID *uuid.UUID
}

// New returns a client for the server at baseURL with an empty cookie jar.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

// UseChat makes later Ask calls store their turns in chatID. Nil detaches.
func (c *Client) UseChat(chatID *uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chatID = chatID
}

func (c *Client) Signup(ctx context.Context, email, password string) (*models.UserResponse, error) {
	var user models.UserResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/signup", models.SignupRequest{Email: email, Password: password}, &user, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Login authenticates and keeps the session cookie in the jar.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{Email: email, Password: password}, &resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, http.StatusNoContent)
}

func (c *Client) CreateChat(ctx context.Context) (*models.ChatResponse, error) {
	var resp struct {
		Data *models.ChatResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chats", nil, &resp, http.StatusCreated); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) ListChats(ctx context.Context) ([]models.ChatResponse, error) {
	var resp struct {
		Data []models.ChatResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chats", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetChat returns nil, nil for chats that do not exist or belong to someone else.
func (c *Client) GetChat(ctx context.Context, id uuid.UUID) (*models.ChatResponse, error) {
	var resp struct {
		Data *models.ChatResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/chats/"+id.String(), nil, &resp, http.StatusOK, http.StatusNotFound); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// DeleteChat returns the deleted chat, or nil when nothing was deleted.
func (c *Client) DeleteChat(ctx context.Context, id uuid.UUID) (*models.ChatResponse, error) {
	var resp struct {
		Data *models.ChatResponse `json:"data"`
	}
	if err := c.do(ctx, http.MethodDelete, "/api/chats/"+id.String(), nil, &resp, http.StatusOK, http.StatusNotFound); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// Ask posts question to /api/ask. Like the browser UI it shows whatever the
// server said: the answer, or else the error message (for example a rate
// limit). Bodies that are not JSON are errors.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	c.mu.RLock()
	req := models.AskRequest{Question: question, ChatID: c.chatID}
	c.mu.RUnlock()

	resp, err := c.send(ctx, http.MethodPost, "/api/ask", req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var body struct {
		Answer string `json:"answer"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode ask response (status %d): %w", resp.StatusCode, err)
	}
	if body.Answer != "" {
		return body.Answer, nil
	}
	if body.Error != "" {
		return body.Error, nil
	}
	return "", ErrNoAnswer
}

func (c *Client) send(ctx context.Context, method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	return resp, nil
}

// do sends payload and decodes the response into out when its status is one of ok.
func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}, ok ...int) error {
	resp, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	accepted := false
	for _, code := range ok {
		if resp.StatusCode == code {
			accepted = true
			break
		}
	}
	if !accepted {
		var apiErr models.ErrorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
