// Package llm provides a unified interface to remote model providers.
//
// Providers translate one completion request into one outbound call and
// classify failures, nothing more. Retry policy lives in the extraction
// pipeline, so every implementation disables whatever internal retries its
// SDK ships with.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a single completion request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64

	// JSONSchema, when set, asks the provider to constrain output to the
	// schema. The constraint is advisory; responses are parsed tolerantly
	// regardless.
	JSONSchema map[string]any
	SchemaName string
	Strict     bool
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of a completion.
type Response struct {
	Content      string
	FinishReason string
	Model        string // Actual model used (may differ from requested for auto-routing)
	Usage        Usage
	Duration     time.Duration
}

// Provider is the interface all model backends implement.
type Provider interface {
	// Complete sends one completion request and returns the response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g. "openrouter", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// Config holds common provider configuration.
type Config struct {
	APIKey  string
	BaseURL string // Custom endpoint; providers fall back to their default
	Model   string
	Timeout time.Duration
}

// DefaultConfig returns sensible provider defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: 120 * time.Second,
	}
}
