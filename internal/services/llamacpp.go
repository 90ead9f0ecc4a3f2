package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const llamaCppDefaultPredict = 256

// LlamaCppService implements LLMService against a llama.cpp server,
// for self-hosted deployments.
type LlamaCppService struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ LLMService = (*LlamaCppService)(nil)

type llamaCppRequest struct {
	Prompt   string   `json:"prompt"`
	Stop     []string `json:"stop,omitempty"`
	NPredict int      `json:"n_predict"`
}

type llamaCppResponse struct {
	Content string `json:"content"`
}

// NewLlamaCppService creates a client for a llama.cpp server at
// baseURL. The modelName is whatever the deployment loaded; it is
// only used for cache fingerprinting.
func NewLlamaCppService(baseURL string, modelName string, logger *slog.Logger) *LlamaCppService {
	return &LlamaCppService{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelName: modelName,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
		logger: logger,
	}
}

func (s *LlamaCppService) ModelName() string {
	return s.modelName
}

func (s *LlamaCppService) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	body, err := json.Marshal(llamaCppRequest{
		Prompt:   prompt,
		Stop:     stop,
		NPredict: llamaCppDefaultPredict,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/completion", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Error("llama.cpp completion request failed", "error", err)
		return "", fmt.Errorf("llama.cpp completion failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llama.cpp server returned status %d: %s", resp.StatusCode, string(data))
	}

	var parsed llamaCppResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse completion response: %w", err)
	}
	return parsed.Content, nil
}
