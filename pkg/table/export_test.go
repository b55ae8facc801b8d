package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := sampleTable().WriteCSV(buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != "title,price,qty" {
		t.Errorf("header = %v", records[0])
	}
	if strings.Join(records[1], ",") != "Widget,9.99,3" {
		t.Errorf("first row = %v", records[1])
	}
}

func TestWriteCSV_NullsAreEmptyCells(t *testing.T) {
	tbl := New(map[string][]any{"a": {"x", nil}}, nil)

	buf := &bytes.Buffer{}
	if err := tbl.WriteCSV(buf); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if records[2][0] != "" {
		t.Errorf("null cell = %q, want empty", records[2][0])
	}
}

func TestWriteJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := sampleTable().WriteJSON(buf); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var records []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["title"] != "Widget" || records[0]["price"] != 9.99 {
		t.Errorf("first record = %v", records[0])
	}
}

func TestWriteJSONL(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := sampleTable().WriteJSONL(buf); err != nil {
		t.Fatalf("WriteJSONL() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	for i, line := range lines {
		var row map[string]any
		if err := json.Unmarshal([]byte(line), &row); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestWriteYAML(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := sampleTable().WriteYAML(buf); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}

	var records []map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &records); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1]["title"] != "Gadget" {
		t.Errorf("second record = %v", records[1])
	}
}

func TestWriteMarkdown(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := sampleTable().WriteMarkdown(buf); err != nil {
		t.Fatalf("WriteMarkdown() error = %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + rule + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "| title | price | qty |" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "| --- | --- | --- |" {
		t.Errorf("rule = %q", lines[1])
	}
	if lines[2] != "| Widget | 9.99 | 3 |" {
		t.Errorf("first row = %q", lines[2])
	}
}

func TestWriteMarkdown_EscapesPipes(t *testing.T) {
	tbl := New(map[string][]any{"a": {"x|y"}}, nil)

	out := tbl.Markdown()
	if !strings.Contains(out, `x\|y`) {
		t.Errorf("pipe not escaped: %q", out)
	}
}

func TestWriteGrid(t *testing.T) {
	tbl := New(map[string][]any{
		"title": {"Widget", "Gadget"},
		"price": {9.99, nil},
	}, []string{"title", "price"})

	buf := &bytes.Buffer{}
	if err := tbl.WriteGrid(buf); err != nil {
		t.Fatalf("WriteGrid() error = %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if got := strings.Fields(lines[0]); len(got) != 2 || got[0] != "title" || got[1] != "price" {
		t.Errorf("header = %q", lines[0])
	}
	if got := strings.Fields(lines[1]); len(got) != 2 || got[0] != "Widget" || got[1] != "9.99" {
		t.Errorf("first row = %q", lines[1])
	}
	// nil renders as an empty trailing cell
	if got := strings.Fields(lines[2]); len(got) != 1 || got[0] != "Gadget" {
		t.Errorf("second row = %q", lines[2])
	}

	if tbl.String() != buf.String() {
		t.Error("String() should render the same grid")
	}
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	err := sampleTable().Write(&bytes.Buffer{}, Format("xlsx"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("error = %v", err)
	}
}

func TestSave_InfersFormat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		file string
		head string
	}{
		{"out.csv", "title,price,qty"},
		{"out.json", "["},
		{"out.md", "| title |"},
		{"out.yaml", "- "},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			if err := sampleTable().Save(path); err != nil {
				t.Fatalf("Save(%q) error = %v", tt.file, err)
			}
			content, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading saved file: %v", err)
			}
			if !strings.HasPrefix(string(content), tt.head) {
				t.Errorf("%s starts with %q, want prefix %q", tt.file, string(content[:min(len(content), 20)]), tt.head)
			}
		})
	}

	if err := sampleTable().Save(filepath.Join(dir, "out.xlsx")); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestSaveCSVAndJSON(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "data.dat")
	if err := sampleTable().SaveCSV(csvPath); err != nil {
		t.Fatalf("SaveCSV() error = %v", err)
	}
	content, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if !strings.HasPrefix(string(content), "title,price,qty") {
		t.Errorf("SaveCSV content = %q", content)
	}

	jsonPath := filepath.Join(dir, "data.out")
	if err := sampleTable().SaveJSON(jsonPath); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
	var records []map[string]any
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		t.Errorf("SaveJSON content is not valid JSON: %v", err)
	}
}
