// Package tably provides the public API for turning documents into tables
// with LLM extraction.
//
// A Client wires a provider, a response cache and the extraction pipeline.
// The Read methods feed file or URL content through per-format readers; the
// result is always a *table.Table.
package tably

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/tably/tably/pkg/cache"
	"github.com/tably/tably/pkg/extractor"
	"github.com/tably/tably/pkg/llm"
	"github.com/tably/tably/pkg/readers"
	"github.com/tably/tably/pkg/schema"
	"github.com/tably/tably/pkg/table"
)

// Default instructions per source type, used when the caller supplies none.
const (
	defaultPDFInstructions     = "Extract all text and tabular data from this PDF"
	defaultImageInstructions   = "Describe what you see in this image and extract any text or data"
	defaultAudioInstructions   = "Transcribe this audio and extract key information"
	defaultVideoInstructions   = "Analyze this video and extract key information"
	defaultWebpageInstructions = "Extract main content and data from this webpage"
	defaultFileInstructions    = "Extract structured data from this document"
	defaultSummaryInstructions = "Provide a summary of this data"
)

const summarySystemPrompt = "You are a data analysis assistant. Provide a clear, concise summary of the data based on the user's request."

// Version returns the module version consumers pulled via go get.
// Returns "(devel)" when built from source without version info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Client is the main entry point for document extraction.
type Client struct {
	provider  llm.Provider
	store     *cache.Store
	extractor *extractor.Extractor
	config    Config
}

// New creates a client. Defaults come from the environment (see
// DefaultConfig) and are overridden by options. Without an explicit provider
// the client picks one from the available API key environment variables,
// falling back to a local Ollama.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	provider := cfg.LLM
	if provider == nil {
		name := cfg.Provider
		apiKey := cfg.APIKey
		switch {
		case name == "" && apiKey != "":
			// A bare key defaults to OpenRouter.
			name = "openrouter"
		case name == "":
			name, apiKey = llm.DetectProvider()
		case apiKey == "":
			apiKey = llm.APIKeyFromEnv(name)
		}

		var err error
		provider, err = llm.New(name, llm.Config{
			APIKey:  apiKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
	}

	store := cfg.Store
	if store == nil {
		cacheOpts := []cache.Option{cache.WithTTL(cfg.CacheTTL)}
		if cfg.CacheDir != "" {
			cacheOpts = append(cacheOpts, cache.WithDir(cfg.CacheDir))
		}
		if !cfg.CacheEnabled {
			cacheOpts = append(cacheOpts, cache.WithDisabled())
		}
		store = cache.New(cacheOpts...)
	}

	extOpts := []extractor.Option{
		extractor.WithCache(store),
		extractor.WithTemperature(cfg.Temperature),
		extractor.WithMaxTokens(cfg.MaxTokens),
		extractor.WithMaxRetries(cfg.MaxRetries),
		extractor.WithRetryDelay(cfg.RetryDelay),
		extractor.WithMaxContentSize(cfg.MaxContentSize),
		extractor.WithStrict(cfg.Strict),
	}
	if cfg.Observer != nil {
		extOpts = append(extOpts, extractor.WithObserver(cfg.Observer))
	}

	return &Client{
		provider:  provider,
		store:     store,
		extractor: extractor.New(provider, extOpts...),
		config:    cfg,
	}, nil
}

// ExtractOption adjusts a single extraction call.
type ExtractOption func(*callConfig)

type callConfig struct {
	instructions string
	columns      []string
	schema       *schema.Schema
	noCache      bool
}

// WithColumns names the columns to extract without typing them. Ignored when
// WithSchema is also given.
func WithColumns(columns ...string) ExtractOption {
	return func(c *callConfig) { c.columns = columns }
}

// WithSchema attaches a typed schema; the result columns are validated and
// coerced against it.
func WithSchema(s *schema.Schema) ExtractOption {
	return func(c *callConfig) { c.schema = s }
}

// WithoutCache bypasses the cache for this call, both lookup and store.
func WithoutCache() ExtractOption {
	return func(c *callConfig) { c.noCache = true }
}

// WithInstructions replaces the instructions for this call. The Read methods
// fall back to a per-format default prompt when neither this option nor an
// instructions argument supplies one.
func WithInstructions(s string) ExtractOption {
	return func(c *callConfig) { c.instructions = s }
}

// Extract runs the pipeline on raw content and assembles the result into a
// table. Column order follows the schema or requested columns when given.
func (c *Client) Extract(ctx context.Context, content, instructions string, opts ...ExtractOption) (*table.Table, error) {
	return c.extract(ctx, content, instructions, opts...)
}

// ReadPDF extracts tabular data from a PDF file.
func (c *Client) ReadPDF(ctx context.Context, path string, opts ...ExtractOption) (*table.Table, error) {
	content, err := readers.PDF(path)
	if err != nil {
		return nil, err
	}
	return c.extract(ctx, content, defaultPDFInstructions, opts...)
}

// ReadImage extracts data from an image file's metadata description.
func (c *Client) ReadImage(ctx context.Context, path string, opts ...ExtractOption) (*table.Table, error) {
	content, err := readers.Image(path)
	if err != nil {
		return nil, err
	}
	return c.extract(ctx, content, defaultImageInstructions, opts...)
}

// ReadAudio extracts data from an audio file's metadata description.
func (c *Client) ReadAudio(ctx context.Context, path string, opts ...ExtractOption) (*table.Table, error) {
	content, err := readers.Audio(path)
	if err != nil {
		return nil, err
	}
	return c.extract(ctx, content, defaultAudioInstructions, opts...)
}

// ReadVideo extracts data from a video file's metadata description. The
// source argument picks which analysis sections the payload covers.
func (c *Client) ReadVideo(ctx context.Context, path string, source readers.VideoSource, opts ...ExtractOption) (*table.Table, error) {
	content, err := readers.Video(path, source)
	if err != nil {
		return nil, err
	}
	return c.extract(ctx, content, defaultVideoInstructions, opts...)
}

// ReadWebpage fetches a page, strips it to readable text and extracts data.
func (c *Client) ReadWebpage(ctx context.Context, url string, opts ...ExtractOption) (*table.Table, error) {
	content, err := readers.Webpage(ctx, url, readers.DefaultWebpageOptions())
	if err != nil {
		return nil, err
	}
	return c.extract(ctx, content, defaultWebpageInstructions, opts...)
}

// ReadFile extracts data from a local file or URL, picking the reader by
// extension or URL scheme. Video content is described from both frames and
// audio; use ReadVideo directly to narrow that.
func (c *Client) ReadFile(ctx context.Context, pathOrURL string, opts ...ExtractOption) (*table.Table, error) {
	switch readers.Detect(pathOrURL) {
	case readers.KindWebpage:
		return c.ReadWebpage(ctx, pathOrURL, opts...)
	case readers.KindPDF:
		return c.ReadPDF(ctx, pathOrURL, opts...)
	case readers.KindImage:
		return c.ReadImage(ctx, pathOrURL, opts...)
	case readers.KindAudio:
		return c.ReadAudio(ctx, pathOrURL, opts...)
	case readers.KindVideo:
		return c.ReadVideo(ctx, pathOrURL, readers.VideoBoth, opts...)
	default:
		content, err := readers.Text(pathOrURL)
		if err != nil {
			return nil, err
		}
		return c.extract(ctx, content, defaultFileInstructions, opts...)
	}
}

// Summarize sends the rendered table to the provider for a free-text
// summary. This is a single call: no caching, no retry budget.
func (c *Client) Summarize(ctx context.Context, tbl *table.Table, instructions string) (string, error) {
	if tbl == nil {
		return "", fmt.Errorf("table is required")
	}
	if instructions == "" {
		instructions = defaultSummaryInstructions
	}

	resp, err := c.provider.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: summarySystemPrompt},
			{Role: llm.RoleUser, Content: instructions + "\n\nData:\n" + tbl.Markdown()},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("summary failed: %w", err)
	}
	return resp.Content, nil
}

// Cache exposes the cache store for maintenance operations.
func (c *Client) Cache() *cache.Store {
	return c.store
}

// Provider returns the provider name.
func (c *Client) Provider() string {
	return c.provider.Name()
}

// Model returns the model identifier the provider will use.
func (c *Client) Model() string {
	return c.provider.Model()
}

func (c *Client) extract(ctx context.Context, content, instructions string, opts ...ExtractOption) (*table.Table, error) {
	var call callConfig
	for _, opt := range opts {
		opt(&call)
	}
	if call.instructions != "" {
		instructions = call.instructions
	}

	var callOpts []extractor.CallOption
	if instructions != "" {
		callOpts = append(callOpts, extractor.WithInstructions(instructions))
	}
	if len(call.columns) > 0 {
		callOpts = append(callOpts, extractor.WithColumns(call.columns...))
	}
	if call.noCache {
		callOpts = append(callOpts, extractor.WithoutCache())
	}

	result, err := c.extractor.Extract(ctx, content, call.schema, callOpts...)
	if err != nil {
		return nil, err
	}

	order := call.columns
	if call.schema != nil {
		order = call.schema.ColumnNames()
	}
	return table.New(result.Data, order), nil
}
