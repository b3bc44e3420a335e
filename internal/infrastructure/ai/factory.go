package ai

import (
	"context"
	"fmt"

	"github.com/jhoicas/fiscal-ingest-api/internal/application/ports"
	"github.com/jhoicas/fiscal-ingest-api/pkg/config"
)

// NewFromConfig elige el adaptador según AI_PROVIDER. closeFn libera recursos (Gemini).
func NewFromConfig(ctx context.Context, cfg config.AIConfig) (svc ports.DocumentExtractionService, closeFn func() error, err error) {
	noop := func() error { return nil }
	switch cfg.Provider {
	case "", "edge":
		return NewEdgeService(cfg.EdgeURL, cfg.EdgeToken, cfg.Timeout), noop, nil
	case "anthropic":
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout), noop, nil
	case "gemini":
		g, err := NewGeminiService(ctx, cfg.GeminiProjectID, cfg.GeminiLocation, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	}
	return nil, nil, fmt.Errorf("AI_PROVIDER desconocido: %q", cfg.Provider)
}
