package ai

import (
	"context"
	"fmt"

	"learning-path/shared/config"
)

// TextGenerator is the text-generation collaborator. Implementations must
// report rate limiting as *models.ThrottledError and every other failure as
// *models.UpstreamError.
type TextGenerator interface {
	Name() string
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// NewGenerator builds the generator for the configured provider.
func NewGenerator(ctx context.Context, cfg *config.AIConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	case config.ProviderGemini, "":
		return NewGeminiGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
}
