package generator

import (
	"askchat-backend/internal/config"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newOpenAITestServer(t *testing.T, status int, body string) (*httptest.Server, *completionRequest) {
	t.Helper()
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func testLLMConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{Provider: "openai", BaseURL: baseURL, APIKey: "test-key", Model: "test-model"}
}

const completionBody = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "test-model",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hi there"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 1, "completion_tokens": 2, "total_tokens": 3}
}`

func TestOpenAIProviderReturnsAnswer(t *testing.T) {
	srv, got := newOpenAITestServer(t, http.StatusOK, completionBody)

	g, err := New(context.Background(), testLLMConfig(srv.URL))
	require.NoError(t, err)
	answer, err := g.Generate(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi there", answer)

	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "Hello", got.Messages[0].Content)
}

func TestOpenAIProviderUpstreamStatus(t *testing.T) {
	srv, _ := newOpenAITestServer(t, http.StatusBadGateway, `{"error":{"message":"oops"}}`)

	g, err := New(context.Background(), testLLMConfig(srv.URL))
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "Hello")
	require.Error(t, err)
}

func TestOpenAIGeneratorNeedsModel(t *testing.T) {
	cfg := testLLMConfig("http://localhost")
	cfg.Model = ""
	_, err := NewOpenAIGenerator(context.Background(), cfg)
	require.Error(t, err)
}

type countingGenerator struct {
	calls int
}

func (g *countingGenerator) Generate(ctx context.Context, question string) (string, error) {
	g.calls++
	return "answer to " + question, nil
}

func TestPacedGeneratorPassesThrough(t *testing.T) {
	inner := &countingGenerator{}
	g := NewPacedGenerator(inner, 0, 0)

	for i := 0; i < 3; i++ {
		answer, err := g.Generate(context.Background(), "q")
		require.NoError(t, err)
		assert.Equal(t, "answer to q", answer)
	}
	assert.Equal(t, 3, inner.calls)
}

func TestPacedGeneratorHonoursCancelledContext(t *testing.T) {
	inner := &countingGenerator{}
	g := NewPacedGenerator(inner, 0.001, 1)

	// Drain the single burst token, then a cancelled context must not wait.
	require.True(t, g.pacer.Allow())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Generate(ctx, "Hello")
	require.Error(t, err)
	assert.Zero(t, inner.calls)
}

type stubChatModel struct {
	reply *schema.Message
	err   error
	input []*schema.Message
}

func (m *stubChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.input = input
	return m.reply, m.err
}

func (m *stubChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestChatModelGenerator(t *testing.T) {
	stub := &stubChatModel{reply: schema.AssistantMessage("Forty two", nil)}
	answer, err := NewChatModelGenerator(stub).Generate(context.Background(), "Meaning?")
	require.NoError(t, err)
	assert.Equal(t, "Forty two", answer)
	require.Len(t, stub.input, 1)
	assert.Equal(t, schema.User, stub.input[0].Role)

	stub.reply = schema.AssistantMessage("   ", nil)
	_, err = NewChatModelGenerator(stub).Generate(context.Background(), "Meaning?")
	require.ErrorIs(t, err, ErrEmptyAnswer)
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.LLMConfig{Provider: "nope"})
	require.Error(t, err)
}
