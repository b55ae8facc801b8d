package llm

import (
	"fmt"
	"os"
	"sort"
)

// Factory creates providers from config.
type Factory func(cfg Config) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"anthropic":  "claude-sonnet-4-20250514",
	"openai":     "gpt-4o",
	"openrouter": "openai/gpt-4o-mini",
	"ollama":     "llama3.2",
}

var registry = map[string]Factory{}

func init() {
	// Register all built-in providers
	Register("anthropic", func(cfg Config) (Provider, error) {
		return NewAnthropicProvider(cfg)
	})
	Register("openai", func(cfg Config) (Provider, error) {
		return NewOpenAIProvider(cfg)
	})
	Register("openrouter", func(cfg Config) (Provider, error) {
		return NewOpenRouterProvider(cfg)
	})
	Register("ollama", func(cfg Config) (Provider, error) {
		return NewOllamaProvider(cfg)
	})
}

// New creates a provider by name.
func New(name string, cfg Config) (Provider, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: anthropic, openai, openrouter, ollama)", name)
	}
	return factory(cfg)
}

// Register adds a custom provider factory.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// Available returns the sorted list of registered provider names.
func Available() []string {
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

// IsRegistered returns true if a provider is registered.
func IsRegistered(name string) bool {
	_, ok := registry[name]
	return ok
}

// DetectProvider auto-detects a provider based on available API keys.
// Returns the provider name and API key.
// Priority: OPENROUTER_API_KEY > ANTHROPIC_API_KEY > OPENAI_API_KEY > ollama (no key needed)
func DetectProvider() (provider string, apiKey string) {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return "openrouter", key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}
	// Ollama runs locally and needs no key
	return "ollama", ""
}

// DefaultModel returns the default model for a provider.
func DefaultModel(provider string) string {
	if model, ok := DefaultModels[provider]; ok {
		return model
	}
	return ""
}

// providerEnvKeys maps provider names to their API key environment variables.
var providerEnvKeys = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"anthropic":  "ANTHROPIC_API_KEY",
	"openai":     "OPENAI_API_KEY",
}

// HasAPIKey checks if an API key environment variable is set for the given provider.
func HasAPIKey(provider string) bool {
	return APIKeyFromEnv(provider) != ""
}

// APIKeyFromEnv returns the API key from the provider's environment variable,
// or "" when unset or the provider needs no key.
func APIKeyFromEnv(provider string) string {
	if envKey, ok := providerEnvKeys[provider]; ok {
		return os.Getenv(envKey)
	}
	return ""
}
