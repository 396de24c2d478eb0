package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"learning-path/internal/models"
	"learning-path/shared/config"

	"google.golang.org/genai"
)

// GeminiGenerator sends prompts to the Gemini API and always asks for JSON.
type GeminiGenerator struct {
	client      *genai.Client
	temperature float32
	maxTokens   int32
}

func NewGeminiGenerator(ctx context.Context, cfg *config.AIConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:      client,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

func (g *GeminiGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		MaxOutputTokens:  g.maxTokens,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return "", classifyGeminiError(err)
	}

	return result.Text(), nil
}

func classifyGeminiError(err error) error {
	code, status := 0, ""

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status = apiErr.Code, apiErr.Status
	case errors.As(err, &apiErrPtr):
		code, status = apiErrPtr.Code, apiErrPtr.Status
	}

	if code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED" {
		return &models.ThrottledError{Service: "gemini", Err: err}
	}
	return &models.UpstreamError{Service: "gemini", Err: err}
}
