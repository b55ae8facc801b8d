package tably

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tably/tably/pkg/cache"
	"github.com/tably/tably/pkg/llm"
	"github.com/tably/tably/pkg/schema"
	"github.com/tably/tably/pkg/table"
)

type fakeReply struct {
	content string
	err     error
}

// fakeProvider returns canned replies in order, repeating the last one, and
// records the user prompt of every call.
type fakeProvider struct {
	name    string
	replies []fakeReply
	calls   int
	prompts []string
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	idx := f.calls
	f.calls++
	if len(req.Messages) > 0 {
		f.prompts = append(f.prompts, req.Messages[len(req.Messages)-1].Content)
	}
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	r := f.replies[idx]
	if r.err != nil {
		return nil, r.err
	}
	return &llm.Response{
		Content:      r.content,
		Model:        "fake-model",
		FinishReason: "stop",
		Usage:        llm.Usage{InputTokens: 10, OutputTokens: 5},
	}, nil
}

func (f *fakeProvider) Name() string {
	if f.name != "" {
		return f.name
	}
	return "fake"
}

func (f *fakeProvider) Model() string { return "fake-model" }

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TABLY_API_KEY", "TABLY_PROVIDER", "TABLY_MODEL", "TABLY_BASE_URL",
		"TABLY_CACHE", "TABLY_CACHE_DIR", "TABLY_CACHE_TTL",
		"TABLY_MAX_RETRIES", "TABLY_RETRY_DELAY",
		"OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
	} {
		t.Setenv(key, "")
	}
}

func newTestClient(t *testing.T, provider llm.Provider, opts ...Option) *Client {
	t.Helper()
	clearEnv(t)
	opts = append([]Option{
		WithLLM(provider),
		WithCacheStore(cache.New(cache.WithDir(t.TempDir()))),
		WithRetryDelay(0),
	}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestExtract_WithSchema(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: `{"title": ["Widget", "Gadget"], "price": ["9.99", "19.99"]}`},
	}}
	c := newTestClient(t, provider)

	s := schema.New("products",
		schema.Column{Name: "title", Type: schema.TypeText, Required: true},
		schema.Column{Name: "price", Type: schema.TypeFloat},
	)

	tbl, err := c.Extract(context.Background(), "Widget $9.99, Gadget $19.99", "Extract products", WithSchema(s))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	if got := tbl.Columns(); got[0] != "title" || got[1] != "price" {
		t.Errorf("column order = %v, want schema order", got)
	}
	price, _ := tbl.At(0, "price")
	if price != 9.99 {
		t.Errorf("price = %#v, want coerced 9.99", price)
	}
	if !strings.Contains(provider.prompts[0], "Extract products") {
		t.Errorf("prompt missing instructions:\n%s", provider.prompts[0])
	}
}

func TestExtract_WithColumnsOrder(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: `{"price": ["9.99"], "title": ["Widget"]}`},
	}}
	c := newTestClient(t, provider)

	tbl, err := c.Extract(context.Background(), "Widget $9.99", "", WithColumns("title", "price"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if got := tbl.Columns(); got[0] != "title" || got[1] != "price" {
		t.Errorf("column order = %v, want requested order", got)
	}
}

func TestExtract_CacheReuse(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: `{"title": ["Widget"]}`},
	}}
	c := newTestClient(t, provider)

	for i := 0; i < 2; i++ {
		if _, err := c.Extract(context.Background(), "Widget", "products", WithColumns("title")); err != nil {
			t.Fatalf("Extract() #%d error = %v", i+1, err)
		}
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (second served from cache)", provider.calls)
	}

	if _, err := c.Extract(context.Background(), "Widget", "products", WithColumns("title"), WithoutCache()); err != nil {
		t.Fatalf("Extract() bypass error = %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 after cache bypass", provider.calls)
	}
}

func TestReadFile_TextDispatch(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: `{"word": ["hello"]}`},
	}}
	c := newTestClient(t, provider)

	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := c.ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("rows = %d, want 1", tbl.Len())
	}
	if !strings.Contains(provider.prompts[0], "hello world") {
		t.Errorf("prompt missing file content:\n%s", provider.prompts[0])
	}
	if !strings.Contains(provider.prompts[0], defaultFileInstructions) {
		t.Errorf("prompt missing default instructions:\n%s", provider.prompts[0])
	}
}

func TestReadFile_MissingFileSkipsProvider(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{{content: `{}`}}}
	c := newTestClient(t, provider)

	_, err := c.ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "file not found") {
		t.Errorf("error = %q, want file not found", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls)
	}
}

func TestReadAudio_InstructionsOverride(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: `{"speaker": ["Ana"]}`},
	}}
	c := newTestClient(t, provider)

	path := filepath.Join(t.TempDir(), "meeting.mp3")
	if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := c.ReadAudio(context.Background(), path, WithInstructions("List every speaker")); err != nil {
		t.Fatalf("ReadAudio() error = %v", err)
	}
	if !strings.Contains(provider.prompts[0], "List every speaker") {
		t.Errorf("prompt missing override:\n%s", provider.prompts[0])
	}
	if strings.Contains(provider.prompts[0], defaultAudioInstructions) {
		t.Errorf("prompt still has default instructions:\n%s", provider.prompts[0])
	}
}

func TestSummarize(t *testing.T) {
	provider := &fakeProvider{replies: []fakeReply{
		{content: "Two products, both under $20."},
	}}
	c := newTestClient(t, provider)

	tbl := table.New(map[string][]any{
		"title": {"Widget", "Gadget"},
		"price": {9.99, 19.99},
	}, []string{"title", "price"})

	got, err := c.Summarize(context.Background(), tbl, "")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Two products, both under $20." {
		t.Errorf("summary = %q", got)
	}
	if !strings.Contains(provider.prompts[0], defaultSummaryInstructions) {
		t.Errorf("prompt missing default instructions:\n%s", provider.prompts[0])
	}
	if !strings.Contains(provider.prompts[0], "| title | price |") {
		t.Errorf("prompt missing rendered table:\n%s", provider.prompts[0])
	}
}

func TestSummarize_NilTable(t *testing.T) {
	c := newTestClient(t, &fakeProvider{replies: []fakeReply{{content: "x"}}})
	if _, err := c.Summarize(context.Background(), nil, ""); err == nil {
		t.Fatal("expected error for nil table")
	}
}

func TestNew_FallbackChain(t *testing.T) {
	broken := &fakeProvider{name: "broken", replies: []fakeReply{
		{err: &llm.APIError{Provider: "broken", StatusCode: 500, Message: "down"}},
	}}
	working := &fakeProvider{name: "working", replies: []fakeReply{
		{content: `{"title": ["Widget"]}`},
	}}
	c := newTestClient(t, llm.NewFallback(broken, working), WithMaxRetries(0))

	tbl, err := c.Extract(context.Background(), "Widget", "", WithColumns("title"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("rows = %d, want 1", tbl.Len())
	}
	if broken.calls != 1 || working.calls != 1 {
		t.Errorf("calls = broken %d working %d, want 1 and 1", broken.calls, working.calls)
	}
}

func TestNew_DetectsOllamaWithoutKeys(t *testing.T) {
	clearEnv(t)

	c, err := New(WithCacheStore(cache.New(cache.WithDir(t.TempDir()), cache.WithDisabled())))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Provider(); got != "ollama" {
		t.Errorf("Provider() = %q, want ollama", got)
	}
}

func TestNew_BareKeyDefaultsToOpenRouter(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLY_API_KEY", "sk-test")

	c, err := New(WithCacheStore(cache.New(cache.WithDir(t.TempDir()), cache.WithDisabled())))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Provider(); got != "openrouter" {
		t.Errorf("Provider() = %q, want openrouter", got)
	}
}

func TestNew_ProviderKeyFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")

	c, err := New(
		WithProvider("anthropic"),
		WithCacheStore(cache.New(cache.WithDir(t.TempDir()), cache.WithDisabled())),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := c.Provider(); got != "anthropic" {
		t.Errorf("Provider() = %q, want anthropic", got)
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	clearEnv(t)

	_, err := New(WithProvider("nonexistent"))
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "unknown provider") {
		t.Errorf("error = %q, want unknown provider message", err)
	}
}

func TestDefaultConfig_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLY_PROVIDER", "openai")
	t.Setenv("TABLY_MODEL", "gpt-4o-mini")
	t.Setenv("TABLY_CACHE", "false")
	t.Setenv("TABLY_CACHE_TTL", "1h")
	t.Setenv("TABLY_MAX_RETRIES", "5")
	t.Setenv("TABLY_RETRY_DELAY", "2s")

	cfg := DefaultConfig()
	if cfg.Provider != "openai" {
		t.Errorf("Provider = %q, want openai", cfg.Provider)
	}
	if cfg.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q, want gpt-4o-mini", cfg.Model)
	}
	if cfg.CacheEnabled {
		t.Error("CacheEnabled = true, want false")
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, want 2s", cfg.RetryDelay)
	}
}

func TestDefaultConfig_BadValuesIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLY_CACHE_TTL", "soon")
	t.Setenv("TABLY_MAX_RETRIES", "-1")

	cfg := DefaultConfig()
	if cfg.CacheTTL != cache.DefaultTTL {
		t.Errorf("CacheTTL = %v, want default %v", cfg.CacheTTL, cache.DefaultTTL)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", cfg.MaxRetries)
	}
}
