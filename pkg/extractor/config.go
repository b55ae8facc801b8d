package extractor

import (
	"time"

	"github.com/tably/tably/pkg/llm"
)

// Config holds extraction pipeline settings.
type Config struct {
	// Temperature for model responses (default: 0.1).
	Temperature float64

	// MaxTokens for model responses (default: 4096).
	MaxTokens int

	// MaxRetries is the number of additional attempts after the first
	// (default: 3, so 4 attempts total).
	MaxRetries int

	// RetryDelay is the base wait between attempts (default: 1s). The
	// wait grows linearly: delay, 2*delay, 3*delay, ...
	RetryDelay time.Duration

	// MaxContentSize limits input content in bytes (default: 100000,
	// 0 = unlimited). Oversized content is truncated, not rejected.
	MaxContentSize int

	// Strict asks the provider for strict schema adherence where the
	// API supports it. Schemas marked strict enable this per call.
	Strict bool

	// Observer receives an event per provider call, including retries.
	Observer llm.Observer
}

// DefaultConfig returns sensible defaults for extraction.
func DefaultConfig() Config {
	return Config{
		Temperature:    0.1,
		MaxTokens:      4096,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		MaxContentSize: 100000,
	}
}
