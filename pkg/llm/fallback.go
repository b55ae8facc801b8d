package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoProvider is returned when a fallback chain has no providers.
var ErrNoProvider = errors.New("no provider available")

// FallbackProvider tries each provider in order until one succeeds.
// Useful for provider failover (e.g. try a local Ollama, fall back to
// OpenRouter when it is down).
type FallbackProvider struct {
	providers []Provider
}

// NewFallback creates a fallback chain from the given providers.
func NewFallback(providers ...Provider) *FallbackProvider {
	return &FallbackProvider{providers: providers}
}

// Complete tries each provider in order until one succeeds. Context
// cancellation stops the chain immediately.
func (f *FallbackProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	for _, p := range f.providers {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("all providers failed (tried: %s): %w", strings.Join(f.names(), ", "), lastErr)
}

// Name returns the chain identity, e.g. "fallback(ollama->openrouter)".
func (f *FallbackProvider) Name() string {
	return "fallback(" + strings.Join(f.names(), "->") + ")"
}

// Model returns the first provider's model.
func (f *FallbackProvider) Model() string {
	if len(f.providers) == 0 {
		return ""
	}
	return f.providers[0].Model()
}

func (f *FallbackProvider) names() []string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return names
}

var _ Provider = (*FallbackProvider)(nil)
