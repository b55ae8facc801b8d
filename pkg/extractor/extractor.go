// Package extractor runs the extraction pipeline: prompt assembly, provider
// calls with retry, tolerant response parsing, and schema conversion.
package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/tably/tably/internal/logger"
	"github.com/tably/tably/pkg/cache"
	"github.com/tably/tably/pkg/llm"
	"github.com/tably/tably/pkg/schema"
)

// Extractor turns unstructured content into typed columns using a provider.
type Extractor struct {
	provider llm.Provider
	store    *cache.Store
	config   Config
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithCache attaches a response cache. Without one every call hits the
// provider.
func WithCache(store *cache.Store) Option {
	return func(e *Extractor) { e.store = store }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(e *Extractor) { e.config.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(e *Extractor) { e.config.MaxTokens = n }
}

// WithMaxRetries sets how many additional attempts follow a failed one.
func WithMaxRetries(n int) Option {
	return func(e *Extractor) { e.config.MaxRetries = n }
}

// WithRetryDelay sets the base wait between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(e *Extractor) { e.config.RetryDelay = d }
}

// WithMaxContentSize limits input content in bytes (0 = unlimited).
func WithMaxContentSize(n int) Option {
	return func(e *Extractor) { e.config.MaxContentSize = n }
}

// WithStrict asks providers for strict schema adherence on every call.
func WithStrict(strict bool) Option {
	return func(e *Extractor) { e.config.Strict = strict }
}

// WithObserver registers an observer for provider calls.
func WithObserver(obs llm.Observer) Option {
	return func(e *Extractor) { e.config.Observer = obs }
}

// New creates an extractor backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Extractor {
	e := &Extractor{
		provider: provider,
		config:   DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CallOption adjusts a single Extract call.
type CallOption func(*callConfig)

type callConfig struct {
	instructions string
	columns      []string
	noCache      bool
}

// WithInstructions appends free-form guidance to the extraction prompt.
// Instructions are part of the cache key.
func WithInstructions(s string) CallOption {
	return func(c *callConfig) { c.instructions = s }
}

// WithColumns names the columns to extract without typing them. Ignored when
// a Schema is supplied; the schema's columns win. Columns are part of the
// cache key.
func WithColumns(columns ...string) CallOption {
	return func(c *callConfig) { c.columns = columns }
}

// WithoutCache bypasses the cache for this call, both lookup and store.
func WithoutCache() CallOption {
	return func(c *callConfig) { c.noCache = true }
}

// Result holds the outcome of an extraction.
type Result struct {
	// Data maps column names to typed value slices of equal length.
	Data map[string][]any

	// Raw is the raw provider response from the final attempt. Empty when
	// the result came from the cache.
	Raw string

	Provider string
	Model    string

	// Usage accumulates tokens across every attempt, retries included.
	Usage llm.Usage

	// RetryCount is how many retries were needed (0 = first attempt won).
	RetryCount int

	Duration  time.Duration
	FromCache bool
}

// Extract runs the pipeline on content: cache probe, provider completion
// with linear-backoff retry, tolerant parse, optional schema conversion,
// cache store. A nil schema is fine: columns (if any) narrow the prompt and
// values pass through untyped.
func (e *Extractor) Extract(ctx context.Context, content string, s *schema.Schema, opts ...CallOption) (*Result, error) {
	var call callConfig
	for _, opt := range opts {
		opt(&call)
	}

	schemaName := ""
	requested := call.columns
	strict := e.config.Strict
	var jsonSchema map[string]any
	if s != nil {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
		schemaName = s.Name
		requested = s.ColumnNames()
		strict = strict || s.Strict
		jsonSchema = s.JSONSchema()
	}

	logger.Debug("extraction starting",
		"provider", e.provider.Name(),
		"model", e.provider.Model(),
		"schema", schemaName,
		"columns", len(requested),
		"content_size", len(content),
		"max_retries", e.config.MaxRetries)

	key := cache.Key(content, call.instructions, e.provider.Model(), requested)

	if e.store != nil && !call.noCache {
		if data, ok := e.store.Get(key); ok {
			converted, err := convertIfTyped(s, data)
			if err == nil {
				logger.Debug("extraction served from cache", "key", key)
				return &Result{
					Data:      converted,
					Provider:  e.provider.Name(),
					Model:     e.provider.Model(),
					FromCache: true,
				}, nil
			}
			// A cached mapping that no longer converts (schema changed
			// behind the same column names) is treated as a miss.
			logger.Debug("cached entry no longer converts, ignoring", "key", key, "error", err)
		}
	}

	var (
		lastErr       error
		prevAttempt   error
		totalUsage    llm.Usage
		totalDuration time.Duration
		lastRaw       string
		lastModel     string
	)

	for attempt := 0; attempt <= e.config.MaxRetries; attempt++ {
		if attempt > 0 && e.config.RetryDelay > 0 {
			wait := e.config.RetryDelay * time.Duration(attempt)
			logger.Debug("waiting before retry", "attempt", attempt+1, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return nil, fmt.Errorf("retry wait interrupted: %w", err)
			}
		}

		prompt := BuildPrompt(content, s, call.columns, call.instructions, prevAttempt, e.config.MaxContentSize)
		messages := []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		}

		startedAt := time.Now()
		resp, err := e.provider.Complete(ctx, llm.Request{
			Messages:    messages,
			MaxTokens:   e.config.MaxTokens,
			Temperature: e.config.Temperature,
			JSONSchema:  jsonSchema,
			SchemaName:  schemaName,
			Strict:      strict,
		})
		duration := time.Since(startedAt)
		totalDuration += duration

		e.notify(ctx, messages, len(content), strict, attempt, startedAt, duration, resp, err)

		if err != nil {
			lastErr = err
			if !llm.IsRetryable(err) {
				logger.Debug("provider error not retryable", "error", err)
				break
			}
			logger.Debug("provider call failed, will retry", "attempt", attempt+1, "error", err)
			continue
		}

		totalUsage.InputTokens += resp.Usage.InputTokens
		totalUsage.OutputTokens += resp.Usage.OutputTokens
		lastRaw = resp.Content
		lastModel = resp.Model

		parsed := ParseResponse(resp.Content)
		normalized := Normalize(parsed)

		converted, err := convertIfTyped(s, normalized)
		if err != nil {
			// Feed the conversion error back so the next attempt can
			// self-correct.
			lastErr = fmt.Errorf("response did not match schema: %w", err)
			prevAttempt = err
			logger.Debug("schema conversion failed, will retry", "attempt", attempt+1, "error", err)
			continue
		}

		if e.store != nil && !call.noCache {
			e.store.Put(key, normalized)
		}

		logger.Debug("extraction complete",
			"attempts", attempt+1,
			"input_tokens", totalUsage.InputTokens,
			"output_tokens", totalUsage.OutputTokens,
			"duration", totalDuration,
			"model", resp.Model)

		return &Result{
			Data:       converted,
			Raw:        resp.Content,
			Provider:   e.provider.Name(),
			Model:      resp.Model,
			Usage:      totalUsage,
			RetryCount: attempt,
			Duration:   totalDuration,
		}, nil
	}

	logger.Debug("extraction failed", "attempts", e.config.MaxRetries+1, "error", lastErr)
	return &Result{
		Raw:        lastRaw,
		Provider:   e.provider.Name(),
		Model:      lastModel,
		Usage:      totalUsage,
		RetryCount: e.config.MaxRetries,
		Duration:   totalDuration,
	}, fmt.Errorf("remote extraction failed after %d attempts: %w", e.config.MaxRetries+1, lastErr)
}

// Provider returns the underlying provider.
func (e *Extractor) Provider() llm.Provider {
	return e.provider
}

// Cache returns the attached cache store, or nil.
func (e *Extractor) Cache() *cache.Store {
	return e.store
}

func (e *Extractor) notify(ctx context.Context, messages []llm.Message, contentSize int, strict bool, attempt int, startedAt time.Time, duration time.Duration, resp *llm.Response, err error) {
	if e.config.Observer == nil {
		return
	}

	event := llm.CallEvent{
		Provider:  e.provider.Name(),
		Model:     e.provider.Model(),
		Attempt:   attempt,
		StartedAt: startedAt,
		Duration:  duration,
		Request: llm.CallRequest{
			Messages:    messages,
			MaxTokens:   e.config.MaxTokens,
			Temperature: e.config.Temperature,
			Strict:      strict,
			ContentSize: contentSize,
		},
		Error: err,
	}
	if resp != nil {
		event.Model = resp.Model
		event.Response = &llm.CallResponse{
			Content:      resp.Content,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			FinishReason: resp.FinishReason,
		}
	}

	e.config.Observer.OnCall(ctx, event)
}

// convertIfTyped applies schema conversion when a schema is present and
// passes the mapping through untouched otherwise.
func convertIfTyped(s *schema.Schema, data map[string][]any) (map[string][]any, error) {
	if s == nil {
		return data, nil
	}
	return s.Convert(data)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
