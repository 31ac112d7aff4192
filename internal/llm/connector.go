package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider identifies a reasoning backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
	ProviderOllama    Provider = "ollama"
)

// Options configures the model factory.
type Options struct {
	Provider    Provider `json:"provider"`
	APIKey      string   `json:"api_key"`
	BaseURL     string   `json:"base_url,omitempty"`
	Model       string   `json:"model,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
}

// NewModel creates a langchain model for the configured provider. All
// conversation traffic goes through the returned llms.Model; dev-gpt never
// talks to a backend SDK directly.
func NewModel(ctx context.Context, options Options) (llms.Model, error) {
	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.Model).
		Float64("temperature", options.Temperature).
		Msg("Creating LLM backend")

	var model llms.Model
	var err error

	switch options.Provider {
	case ProviderOpenAI:
		model, err = newOpenAIModel(options)
	case ProviderGemini:
		model, err = newGeminiModel(ctx, options)
	case ProviderAnthropic:
		model, err = newAnthropicModel(options)
	case ProviderOllama:
		model, err = newOllamaModel(options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}
	return model, nil
}

func newOpenAIModel(options Options) (llms.Model, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	opts := []openai.Option{
		openai.WithToken(options.APIKey),
	}
	if options.Model != "" {
		opts = append(opts, openai.WithModel(options.Model))
	}
	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}
	return openai.New(opts...)
}

func newGeminiModel(ctx context.Context, options Options) (llms.Model, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	opts := []googleai.Option{
		googleai.WithAPIKey(options.APIKey),
	}
	if options.Model != "" {
		opts = append(opts, googleai.WithDefaultModel(options.Model))
	}
	if options.MaxTokens > 0 {
		opts = append(opts, googleai.WithDefaultMaxTokens(options.MaxTokens))
	}
	return googleai.New(ctx, opts...)
}

func newAnthropicModel(options Options) (llms.Model, error) {
	if options.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	opts := []anthropic.Option{
		anthropic.WithToken(options.APIKey),
	}
	if options.Model != "" {
		opts = append(opts, anthropic.WithModel(options.Model))
	}
	return anthropic.New(opts...)
}

func newOllamaModel(options Options) (llms.Model, error) {
	opts := []ollama.Option{}
	if options.BaseURL != "" {
		opts = append(opts, ollama.WithServerURL(options.BaseURL))
	}
	if options.Model != "" {
		opts = append(opts, ollama.WithModel(options.Model))
	}
	return ollama.New(opts...)
}
