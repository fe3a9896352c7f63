package llm

import "context"

// GenerationConfig controls the sampling behavior of a single completion.
type GenerationConfig struct {
	Temperature     float32 `yaml:"temperature" json:"temperature"`
	TopP            float32 `yaml:"top_p" json:"topP"`
	TopK            int     `yaml:"top_k" json:"topK"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"maxOutputTokens"`
}

// TextModel is a minimal abstraction for hosted text-generation models used by the domain.
// It hides concrete providers to preserve dependency direction.
type TextModel interface {
	Generate(ctx context.Context, systemInstruction string, cfg GenerationConfig, prompt string) (string, error)
	ModelName() string
}

// Pinger is implemented by clients that can verify the remote endpoint is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
