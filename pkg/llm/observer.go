package llm

import (
	"context"
	"time"
)

// Observer receives notifications about provider calls. Implement it to
// feed latency, token, and error data into logging or metrics backends.
//
// The observer runs after every call, successful or not. Implementations
// should return quickly or hand off to their own goroutines.
type Observer interface {
	OnCall(ctx context.Context, event CallEvent)
}

// CallEvent describes one provider call.
type CallEvent struct {
	// Provider name (e.g. "anthropic", "openrouter")
	Provider string

	// Model used for the call (may differ from requested for auto-routing)
	Model string

	// Attempt number (0 = first attempt, 1 = first retry, ...)
	Attempt int

	StartedAt time.Time
	Duration  time.Duration

	Request CallRequest

	// Response is nil if the call failed before a response arrived.
	Response *CallResponse

	// Error is nil on success.
	Error error
}

// CallRequest contains the request sent to the provider.
type CallRequest struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Strict      bool

	// ContentSize is the size in bytes of the source content being
	// extracted, before prompt assembly.
	ContentSize int
}

// CallResponse contains the provider's reply.
type CallResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event CallEvent)

func (f ObserverFunc) OnCall(ctx context.Context, event CallEvent) {
	f(ctx, event)
}

// MultiObserver fans one event out to several observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates an observer that dispatches to all given observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	return &MultiObserver{observers: observers}
}

func (m *MultiObserver) OnCall(ctx context.Context, event CallEvent) {
	for _, obs := range m.observers {
		obs.OnCall(ctx, event)
	}
}

// Add appends an observer.
func (m *MultiObserver) Add(obs Observer) {
	m.observers = append(m.observers, obs)
}
