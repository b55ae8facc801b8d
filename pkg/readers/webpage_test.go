package readers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testPage = `<html>
<head>
	<title>Widget Catalog</title>
	<style>body { color: red; }</style>
	<script>console.log("tracking");</script>
</head>
<body>
	<h1>Products</h1>
	<p>Widget   A costs $9.99</p>
	<noscript>Enable JavaScript</noscript>
	<svg><circle r="1"/></svg>
</body>
</html>`

func TestWebpage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(testPage))
	}))
	defer server.Close()

	got, err := Webpage(context.Background(), server.URL, DefaultWebpageOptions())
	if err != nil {
		t.Fatalf("Webpage() error = %v", err)
	}

	if !strings.HasPrefix(got, "URL: "+server.URL) {
		t.Errorf("content should start with URL line, got:\n%s", got)
	}
	for _, want := range []string{
		"Title: Widget Catalog",
		"Products",
		"Widget A costs $9.99",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("content missing %q in:\n%s", want, got)
		}
	}
	for _, stripped := range []string{
		"console.log",
		"color: red",
		"Enable JavaScript",
	} {
		if strings.Contains(got, stripped) {
			t.Errorf("content should not contain %q:\n%s", stripped, got)
		}
	}
}

func TestWebpage_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"not found", http.StatusNotFound},
		{"unauthorized", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			_, err := Webpage(context.Background(), server.URL, DefaultWebpageOptions())
			if err == nil {
				t.Fatal("expected error for non-success status")
			}
		})
	}
}

func TestWebpage_CustomHeaders(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Custom")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	opts := DefaultWebpageOptions()
	opts.Headers = map[string]string{"X-Custom": "tably-test"}
	if _, err := Webpage(context.Background(), server.URL, opts); err != nil {
		t.Fatalf("Webpage() error = %v", err)
	}
	if gotHeader != "tably-test" {
		t.Errorf("X-Custom header = %q, want %q", gotHeader, "tably-test")
	}
}

func TestWebpage_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Webpage(ctx, "http://127.0.0.1:1", DefaultWebpageOptions())
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
}
