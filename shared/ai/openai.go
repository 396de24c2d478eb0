package ai

import (
	"context"
	"errors"
	"net/http"

	"learning-path/internal/models"
	"learning-path/shared/config"

	"github.com/sashabaranov/go-openai"
)

type OpenAIGenerator struct {
	client      *openai.Client
	temperature float32
	maxTokens   int
}

func NewOpenAIGenerator(cfg *config.AIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:      openai.NewClient(cfg.OpenAIAPIKey),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (o *OpenAIGenerator) Name() string {
	return "openai"
}

func (o *OpenAIGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests {
		return &models.ThrottledError{Service: "openai", Err: err}
	}
	return &models.UpstreamError{Service: "openai", Err: err}
}
