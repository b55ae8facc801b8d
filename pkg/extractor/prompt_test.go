package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/tably/tably/pkg/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := schema.New("products",
		schema.Column{Name: "title", Type: schema.TypeText, Required: true, Description: "product name"},
		schema.Column{Name: "price", Type: schema.TypeFloat},
	)
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	return s
}

func TestBuildPrompt(t *testing.T) {
	s := testSchema(t)
	prompt := BuildPrompt("Widget $9.99", s, nil, "", nil, 0)

	for _, want := range []string{
		"title",
		"product name",
		`"price":[]`,
		"## Content",
		"Widget $9.99",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "Previous Attempt Errors") {
		t.Error("prompt has error section without a previous error")
	}
	if strings.Contains(prompt, "Additional Instructions") {
		t.Error("prompt has instructions section without instructions")
	}
}

func TestBuildPrompt_ColumnsOnly(t *testing.T) {
	prompt := BuildPrompt("Widget $9.99", nil, []string{"title", "price"}, "", nil, 0)

	if !strings.Contains(prompt, "Extract the following columns: title, price") {
		t.Errorf("prompt missing column list:\n%s", prompt)
	}
	if !strings.Contains(prompt, `"title":[]`) {
		t.Errorf("prompt missing column skeleton:\n%s", prompt)
	}
}

func TestBuildPrompt_NoContract(t *testing.T) {
	prompt := BuildPrompt("Widget $9.99", nil, nil, "", nil, 0)

	if !strings.Contains(prompt, "Choose column names that fit the content") {
		t.Errorf("prompt missing open-ended column guidance:\n%s", prompt)
	}
	if !strings.Contains(prompt, `{"column1": ["value1"], "column2": ["value2"]}`) {
		t.Errorf("prompt missing example shape:\n%s", prompt)
	}
}

func TestBuildPrompt_Instructions(t *testing.T) {
	s := testSchema(t)
	prompt := BuildPrompt("Widget", s, nil, "only products in stock", nil, 0)

	if !strings.Contains(prompt, "## Additional Instructions") {
		t.Error("prompt missing instructions section")
	}
	if !strings.Contains(prompt, "only products in stock") {
		t.Error("prompt missing instruction text")
	}
}

func TestBuildPrompt_PreviousError(t *testing.T) {
	s := testSchema(t)
	prompt := BuildPrompt("Widget", s, nil, "", errors.New(`column "price": cannot convert "cheap" to float`), 0)

	if !strings.Contains(prompt, "## Previous Attempt Errors") {
		t.Error("prompt missing error section")
	}
	if !strings.Contains(prompt, `cannot convert "cheap" to float`) {
		t.Error("prompt missing the previous error text")
	}
}

func TestBuildPrompt_TruncatesContent(t *testing.T) {
	s := testSchema(t)
	long := strings.Repeat("x", 500)
	prompt := BuildPrompt(long, s, nil, "", nil, 100)

	if !strings.Contains(prompt, "[Content truncated due to length...]") {
		t.Error("prompt missing truncation marker")
	}
	if strings.Contains(prompt, long) {
		t.Error("prompt contains full oversized content")
	}
}

func TestTruncateContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		maxLen  int
		wantLen int
		marker  bool
	}{
		{"under limit", "short", 100, len("short"), false},
		{"zero means unlimited", strings.Repeat("a", 1000), 0, 1000, false},
		{"over limit", strings.Repeat("a", 1000), 100, 100 + len("\n\n[Content truncated due to length...]"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateContent(tt.content, tt.maxLen)
			if len(got) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(got), tt.wantLen)
			}
			if got := strings.Contains(got, "truncated"); got != tt.marker {
				t.Errorf("marker present = %v, want %v", got, tt.marker)
			}
		})
	}
}
