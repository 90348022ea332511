package generator

import (
	"askchat-backend/internal/config"
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
)

// NewOpenAIGenerator builds a chat model for any OpenAI-compatible
// /chat/completions endpoint.
func NewOpenAIGenerator(ctx context.Context, cfg config.LLMConfig) (*ChatModelGenerator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("openai generator needs LLM_MODEL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create openai chat model: %w", err)
	}
	return NewChatModelGenerator(chatModel), nil
}
