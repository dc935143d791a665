package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider constants for LLM provider selection.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const (
	defaultMaxTokens = 2048
	defaultTimeout   = 45 * time.Second
)

// Config holds completion client configuration.
type Config struct {
	Provider  string        // "openai" (any OpenAI-compatible gateway) or "anthropic"
	APIKey    string        // Required: API key for the provider
	BaseURL   string        // Optional: custom API endpoint
	Model     string        // Model name
	MaxTokens int           // Optional: reply token cap
	Timeout   time.Duration // Optional: per-call deadline
}

// Client sends a conversation to a chat completion endpoint and returns
// the assistant's reply.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// Request is one completion call. Messages are sent in order; a leading
// "system" message carries the instructions.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature *float64 // nil = model default
}

// Message represents a conversation message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Response contains the completion text, verbatim.
type Response struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// New creates a Client for cfg.Provider. Defaults to the OpenAI-compatible
// provider when none is given.
func New(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(cfg), nil
	case ProviderAnthropic:
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
}

func Temp(t float64) *float64 {
	return &t
}
