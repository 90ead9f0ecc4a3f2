package services

import "context"

// LLMService is the consumed language-model capability. Completions
// carry no latency or determinism guarantee and may legitimately be
// empty; retry policy is the caller's concern.
type LLMService interface {
	// ModelName identifies the model version for cache fingerprinting.
	ModelName() string

	// Complete returns a completion for the prompt, halting at any of
	// the stop tokens.
	Complete(ctx context.Context, prompt string, stop []string) (string, error)
}
