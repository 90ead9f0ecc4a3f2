package services

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultOpenAITemperature = 0.7
	DefaultOpenAIMaxTokens   = 256
)

// OpenAIService implements LLMService using the OpenAI completions API.
type OpenAIService struct {
	client    *openai.Client
	modelName string
	logger    *slog.Logger
}

var _ LLMService = (*OpenAIService)(nil)

// NewOpenAIService creates an OpenAI-backed LLM service.
func NewOpenAIService(apiKey string, modelName string, logger *slog.Logger) *OpenAIService {
	return &OpenAIService{
		client:    openai.NewClient(apiKey),
		modelName: modelName,
		logger:    logger,
	}
}

func (s *OpenAIService) ModelName() string {
	return s.modelName
}

func (s *OpenAIService) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	resp, err := s.client.CreateCompletion(ctx, openai.CompletionRequest{
		Model:       s.modelName,
		Prompt:      prompt,
		Stop:        stop,
		MaxTokens:   DefaultOpenAIMaxTokens,
		Temperature: DefaultOpenAITemperature,
	})
	if err != nil {
		s.logger.Error("OpenAI completion failed", "model", s.modelName, "error", err)
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Text, nil
}
