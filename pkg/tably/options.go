package tably

import (
	"os"
	"strconv"
	"time"

	"github.com/tably/tably/pkg/cache"
	"github.com/tably/tably/pkg/llm"
)

// Config holds all client configuration.
type Config struct {
	// LLM settings
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	// Extraction settings
	Temperature    float64
	MaxTokens      int
	MaxRetries     int
	RetryDelay     time.Duration
	MaxContentSize int
	Strict         bool

	// Cache settings
	CacheEnabled bool
	CacheDir     string
	CacheTTL     time.Duration

	// Injection points. When set they win over the settings above.
	LLM      llm.Provider
	Store    *cache.Store
	Observer llm.Observer
}

// DefaultConfig returns defaults with environment overrides applied.
// Recognized variables: TABLY_API_KEY, TABLY_PROVIDER, TABLY_MODEL,
// TABLY_BASE_URL, TABLY_CACHE, TABLY_CACHE_DIR, TABLY_CACHE_TTL,
// TABLY_MAX_RETRIES, TABLY_RETRY_DELAY. Unparseable values are ignored.
func DefaultConfig() Config {
	cfg := Config{
		Provider:       os.Getenv("TABLY_PROVIDER"),
		Model:          os.Getenv("TABLY_MODEL"),
		APIKey:         os.Getenv("TABLY_API_KEY"),
		BaseURL:        os.Getenv("TABLY_BASE_URL"),
		Temperature:    0.1,
		MaxTokens:      4096,
		MaxRetries:     3,
		RetryDelay:     time.Second,
		MaxContentSize: 100000,
		CacheEnabled:   true,
		CacheDir:       os.Getenv("TABLY_CACHE_DIR"),
		CacheTTL:       cache.DefaultTTL,
	}

	if v := os.Getenv("TABLY_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CacheEnabled = b
		}
	}
	if v := os.Getenv("TABLY_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}
	if v := os.Getenv("TABLY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("TABLY_RETRY_DELAY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RetryDelay = d
		}
	}

	return cfg
}

// Option configures a Client.
type Option func(*Config)

// WithProvider sets the LLM provider name (anthropic, openai, openrouter,
// ollama).
func WithProvider(provider string) Option {
	return func(c *Config) { c.Provider = provider }
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(c *Config) { c.Model = model }
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(c *Config) { c.APIKey = key }
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) { c.BaseURL = url }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens per call.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// WithMaxRetries sets the maximum extraction retry attempts.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithRetryDelay sets the base wait between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Config) { c.RetryDelay = d }
}

// WithMaxContentSize limits input content in bytes (0 = unlimited).
func WithMaxContentSize(n int) Option {
	return func(c *Config) { c.MaxContentSize = n }
}

// WithStrict asks providers for strict schema adherence on every call.
func WithStrict() Option {
	return func(c *Config) { c.Strict = true }
}

// WithCacheDir sets the cache directory.
func WithCacheDir(dir string) Option {
	return func(c *Config) { c.CacheDir = dir }
}

// WithCacheTTL sets the cache entry lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) { c.CacheTTL = ttl }
}

// WithCacheDisabled turns the cache off. Existing entries are kept.
func WithCacheDisabled() Option {
	return func(c *Config) { c.CacheEnabled = false }
}

// WithCacheStore injects a prebuilt cache store, overriding the cache
// settings above.
func WithCacheStore(store *cache.Store) Option {
	return func(c *Config) { c.Store = store }
}

// WithLLM injects a prebuilt provider, overriding Provider, Model, APIKey,
// BaseURL and Timeout. Useful for fakes in tests and for fallback chains
// built with llm.NewFallback.
func WithLLM(provider llm.Provider) Option {
	return func(c *Config) { c.LLM = provider }
}

// WithObserver registers an observer for every provider call.
func WithObserver(obs llm.Observer) Option {
	return func(c *Config) { c.Observer = obs }
}
