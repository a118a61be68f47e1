package llm

import "context"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient defines the standard interface for any text-generation backend.
// The system instruction and user prompt are kept separate because backends
// differ in how they want them delivered.
type LLMClient interface {
	Generate(ctx context.Context, system, prompt string, params GenerationParams) (string, error)
}

// Float32 returns a pointer to v, for populating GenerationParams literals.
func Float32(v float32) *float32 { return &v }

// Int returns a pointer to v, for populating GenerationParams literals.
func Int(v int) *int { return &v }
