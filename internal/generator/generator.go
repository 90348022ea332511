// Package generator turns a question into a complete answer using a remote LLM.
package generator

import (
	"askchat-backend/internal/config"
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyAnswer is returned when the upstream replied without usable content.
	ErrEmptyAnswer = errors.New("upstream returned no answer")
)

// Generator produces one complete answer per question. No streaming.
type Generator interface {
	Generate(ctx context.Context, question string) (string, error)
}

// New builds the generator selected by cfg.Provider, paced by cfg.RPS/Burst.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	var (
		g   *ChatModelGenerator
		err error
	)
	switch cfg.Provider {
	case "openai":
		g, err = NewOpenAIGenerator(ctx, cfg)
	case "ark":
		g, err = NewArkGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return pacedFromConfig(g, cfg), nil
}
