package llm

import (
	"reflect"
	"testing"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"OPENROUTER_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestAvailable(t *testing.T) {
	want := []string{"anthropic", "ollama", "openai", "openrouter"}
	got := Available()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Available() = %v, want %v", got, want)
	}
}

func TestNew_KnownProviders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic", Config{APIKey: "sk-test"}, false},
		{"openai", Config{APIKey: "sk-test"}, false},
		{"openrouter", Config{APIKey: "sk-test"}, false},
		{"ollama", Config{}, false},
		{"anthropic", Config{}, true}, // key required
		{"nonexistent", Config{APIKey: "sk-test"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.name, tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.name)
			}
		})
	}
}

func TestRegister_CustomProvider(t *testing.T) {
	Register("custom-test", func(cfg Config) (Provider, error) {
		return &OllamaProvider{baseURL: "http://example.invalid", model: cfg.Model}, nil
	})
	defer delete(registry, "custom-test")

	if !IsRegistered("custom-test") {
		t.Fatal("custom-test not registered")
	}
	p, err := New("custom-test", Config{Model: "m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.Model() != "m" {
		t.Errorf("Model() = %q, want m", p.Model())
	}
}

func TestDetectProvider(t *testing.T) {
	tests := []struct {
		name         string
		env          map[string]string
		wantProvider string
		wantKey      string
	}{
		{
			name:         "no keys falls back to ollama",
			env:          nil,
			wantProvider: "ollama",
			wantKey:      "",
		},
		{
			name:         "openrouter wins over all",
			env:          map[string]string{"OPENROUTER_API_KEY": "or-key", "ANTHROPIC_API_KEY": "an-key", "OPENAI_API_KEY": "oa-key"},
			wantProvider: "openrouter",
			wantKey:      "or-key",
		},
		{
			name:         "anthropic beats openai",
			env:          map[string]string{"ANTHROPIC_API_KEY": "an-key", "OPENAI_API_KEY": "oa-key"},
			wantProvider: "anthropic",
			wantKey:      "an-key",
		},
		{
			name:         "openai alone",
			env:          map[string]string{"OPENAI_API_KEY": "oa-key"},
			wantProvider: "openai",
			wantKey:      "oa-key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			provider, key := DetectProvider()
			if provider != tt.wantProvider || key != tt.wantKey {
				t.Errorf("DetectProvider() = (%q, %q), want (%q, %q)", provider, key, tt.wantProvider, tt.wantKey)
			}
		})
	}
}

func TestDefaultModel(t *testing.T) {
	if got := DefaultModel("ollama"); got != "llama3.2" {
		t.Errorf("DefaultModel(ollama) = %q", got)
	}
	if got := DefaultModel("nonexistent"); got != "" {
		t.Errorf("DefaultModel(nonexistent) = %q, want empty", got)
	}
}

func TestHasAPIKey(t *testing.T) {
	clearProviderEnv(t)
	if HasAPIKey("openai") {
		t.Error("HasAPIKey(openai) = true with no key set")
	}
	t.Setenv("OPENAI_API_KEY", "sk-test")
	if !HasAPIKey("openai") {
		t.Error("HasAPIKey(openai) = false with key set")
	}
	if HasAPIKey("ollama") {
		t.Error("HasAPIKey(ollama) = true, ollama needs no key")
	}
}
