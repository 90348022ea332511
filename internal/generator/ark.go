package generator

import (
	"askchat-backend/internal/config"
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// ChatModelGenerator adapts an eino chat model to Generator.
type ChatModelGenerator struct {
	model model.BaseChatModel
}

func NewChatModelGenerator(m model.BaseChatModel) *ChatModelGenerator {
	return &ChatModelGenerator{model: m}
}

// NewArkGenerator builds a Volcengine Ark chat model. Either an API key or an
// access/secret key pair is required.
func NewArkGenerator(ctx context.Context, cfg config.LLMConfig) (*ChatModelGenerator, error) {
	if cfg.Model == "" || (cfg.APIKey == "" && (cfg.ArkAccessKey == "" || cfg.ArkSecretKey == "")) {
		return nil, fmt.Errorf("ark generator needs LLM_MODEL and either LLM_API_KEY or ARK_ACCESS_KEY/ARK_SECRET_KEY")
	}

	chatModel, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL:   cfg.BaseURL,
		Region:    cfg.ArkRegion,
		APIKey:    cfg.APIKey,
		AccessKey: cfg.ArkAccessKey,
		SecretKey: cfg.ArkSecretKey,
		Model:     cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ark chat model: %w", err)
	}
	return NewChatModelGenerator(chatModel), nil
}

func (g *ChatModelGenerator) Generate(ctx context.Context, question string) (string, error) {
	msg, err := g.model.Generate(ctx, []*schema.Message{schema.UserMessage(question)})
	if err != nil {
		return "", fmt.Errorf("chat model generate failed: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrEmptyAnswer
	}
	log.Printf("[ChatModelGenerator] generated answer, length=%d", len(msg.Content))
	return msg.Content, nil
}
