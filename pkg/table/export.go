package table

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"
)

// Format represents an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatJSONL    Format = "jsonl"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// Write exports the table to w in the given format.
func (t *Table) Write(w io.Writer, format Format) error {
	switch format {
	case FormatCSV:
		return t.WriteCSV(w)
	case FormatJSON:
		return t.WriteJSON(w)
	case FormatJSONL:
		return t.WriteJSONL(w)
	case FormatYAML:
		return t.WriteYAML(w)
	case FormatMarkdown:
		return t.WriteMarkdown(w)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return err
	}
	for i := 0; i < t.rows; i++ {
		record := make([]string, len(t.columns))
		for j, name := range t.columns {
			record[j] = FormatValue(t.data[name][i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the table as an indented JSON array of row objects.
func (t *Table) WriteJSON(w io.Writer) error {
	output, err := json.MarshalIndent(t.Records(), "", "  ")
	if err != nil {
		return err
	}
	if _, err := w.Write(output); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// WriteJSONL writes the table as newline-delimited JSON, one row per line.
func (t *Table) WriteJSONL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < t.rows; i++ {
		output, err := json.Marshal(t.Row(i))
		if err != nil {
			return err
		}
		if _, err := bw.Write(output); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteYAML writes the table as a YAML sequence of row mappings.
func (t *Table) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(t.Records()); err != nil {
		return err
	}
	return enc.Close()
}

// WriteMarkdown writes the table as a markdown pipe table.
func (t *Table) WriteMarkdown(w io.Writer) error {
	bw := bufio.NewWriter(w)

	writeRow := func(cells []string) error {
		if _, err := bw.WriteString("| "); err != nil {
			return err
		}
		if _, err := bw.WriteString(strings.Join(cells, " | ")); err != nil {
			return err
		}
		_, err := bw.WriteString(" |\n")
		return err
	}

	header := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, name := range t.columns {
		header[i] = escapeCell(name)
		rule[i] = "---"
	}
	if err := writeRow(header); err != nil {
		return err
	}
	if err := writeRow(rule); err != nil {
		return err
	}

	for i := 0; i < t.rows; i++ {
		cells := make([]string, len(t.columns))
		for j, name := range t.columns {
			cells[j] = escapeCell(FormatValue(t.data[name][i]))
		}
		if err := writeRow(cells); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Markdown renders the table as a markdown string.
func (t *Table) Markdown() string {
	var sb strings.Builder
	_ = t.WriteMarkdown(&sb)
	return sb.String()
}

// WriteGrid writes the table as an aligned plain-text grid, the form used
// for terminal display.
func (t *Table) WriteGrid(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(t.columns, "\t")); err != nil {
		return err
	}
	for i := 0; i < t.rows; i++ {
		cells := make([]string, len(t.columns))
		for j, name := range t.columns {
			cells[j] = FormatValue(t.data[name][i])
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Save writes the table to a file, inferring the format from the
// extension (.csv, .json, .jsonl, .yaml, .yml, .md).
func (t *Table) Save(path string) error {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		format = FormatCSV
	case ".json":
		format = FormatJSON
	case ".jsonl":
		format = FormatJSONL
	case ".yaml", ".yml":
		format = FormatYAML
	case ".md", ".markdown":
		format = FormatMarkdown
	default:
		return fmt.Errorf("cannot infer format from extension of %q", path)
	}
	return t.saveAs(path, format)
}

// SaveCSV writes the table to a CSV file.
func (t *Table) SaveCSV(path string) error {
	return t.saveAs(path, FormatCSV)
}

// SaveJSON writes the table to a JSON file.
func (t *Table) SaveJSON(path string) error {
	return t.saveAs(path, FormatJSON)
}

func (t *Table) saveAs(path string, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := t.Write(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatValue renders one cell the way the text exporters do. Dates coerced
// to midnight render without the zero time component.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
