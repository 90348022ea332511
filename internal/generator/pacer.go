package generator

import (
	"askchat-backend/internal/config"
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// PacedGenerator spaces outbound calls so bursts admitted by the per-user
// limiter do not all hit the provider at once.
type PacedGenerator struct {
	next  Generator
	pacer *rate.Limiter
}

// NewPacedGenerator wraps next with a token bucket of rps calls per second.
// rps <= 0 disables pacing; burst defaults to 1.
func NewPacedGenerator(next Generator, rps float64, burst int) *PacedGenerator {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst <= 0 {
		burst = 1
	}
	return &PacedGenerator{next: next, pacer: rate.NewLimiter(limit, burst)}
}

func (g *PacedGenerator) Generate(ctx context.Context, question string) (string, error) {
	if err := g.pacer.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for upstream slot: %w", err)
	}
	return g.next.Generate(ctx, question)
}

func pacedFromConfig(next Generator, cfg config.LLMConfig) Generator {
	return NewPacedGenerator(next, cfg.RPS, cfg.Burst)
}
