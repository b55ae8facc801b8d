package schema

import (
	"fmt"
	"strings"
)

// JSONSchema renders the schema as a JSON Schema object for structured
// output. Every column is presented as an array of values so the model
// returns parallel columns rather than row objects.
func (s *Schema) JSONSchema() map[string]any {
	properties := make(map[string]any, len(s.Columns))
	required := make([]string, 0, len(s.Columns))

	for _, col := range s.Columns {
		properties[col.Name] = col.jsonSchema()
		if col.Required {
			required = append(required, col.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false, // Required for strict mode (OpenRouter/OpenAI)
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	if s.Description != "" {
		schema["description"] = s.Description
	}
	return schema
}

// ResponseFormat returns the provider response_format envelope carrying the
// JSON Schema. The envelope is advisory; responses are still parsed
// tolerantly.
func (s *Schema) ResponseFormat() map[string]any {
	name := s.Name
	if name == "" {
		name = "extraction"
	}
	return map[string]any{
		"type": "json_schema",
		"json_schema": map[string]any{
			"name":   name,
			"strict": s.Strict,
			"schema": s.JSONSchema(),
		},
	}
}

// jsonSchema renders one column as an array-of-values property.
func (c Column) jsonSchema() map[string]any {
	desc := c.Description
	if desc == "" {
		desc = fmt.Sprintf("Values extracted for column %q", c.Name)
	}
	return map[string]any{
		"type":        "array",
		"items":       c.itemSchema(),
		"description": desc,
	}
}

// itemSchema renders the schema of a single value in the column.
func (c Column) itemSchema() map[string]any {
	m := make(map[string]any)

	switch c.Type {
	case TypeText, "":
		m["type"] = "string"
	case TypeInteger:
		m["type"] = "integer"
	case TypeFloat:
		m["type"] = "number"
	case TypeBoolean:
		m["type"] = "boolean"
	case TypeDate:
		m["type"] = "string"
		m["description"] = c.timeHint("date in YYYY-MM-DD form")
	case TypeDateTime:
		m["type"] = "string"
		m["description"] = c.timeHint("ISO 8601 datetime")
	case TypeObject:
		m["type"] = "object"
	case TypeArray:
		m["type"] = "array"
		item := Column{Type: c.Items}
		if c.Items != "" {
			m["items"] = item.itemSchema()
		}
	}

	if len(c.Enum) > 0 {
		m["enum"] = c.Enum
	}
	if c.Nullable {
		m["type"] = []any{m["type"], "null"}
	}
	return m
}

func (c Column) timeHint(fallback string) string {
	if c.Format != "" {
		return fmt.Sprintf("formatted as %s", c.Format)
	}
	return fallback
}

// PromptDescription generates a human-readable column list for the prompt.
func (s *Schema) PromptDescription() string {
	var sb strings.Builder

	if s.Description != "" {
		sb.WriteString(s.Description)
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Columns to Extract\n")
	for _, col := range s.Columns {
		writeColumnDescription(&sb, col)
	}
	return sb.String()
}

func writeColumnDescription(sb *strings.Builder, c Column) {
	sb.WriteString("- ")
	sb.WriteString(c.Name)
	sb.WriteString(" (")
	if c.Type == TypeArray {
		sb.WriteString("array")
		if c.Items != "" {
			sb.WriteString(" of ")
			sb.WriteString(string(c.Items))
		}
	} else if c.Type == "" {
		sb.WriteString(string(TypeText))
	} else {
		sb.WriteString(string(c.Type))
	}
	if c.Required {
		sb.WriteString(", required")
	}
	if c.Nullable {
		sb.WriteString(", nullable")
	}
	sb.WriteString(")")

	if c.Description != "" {
		sb.WriteString(": ")
		sb.WriteString(c.Description)
	}
	if len(c.Enum) > 0 {
		vals := make([]string, len(c.Enum))
		for i, v := range c.Enum {
			vals[i] = fmt.Sprint(v)
		}
		sb.WriteString(" [one of: ")
		sb.WriteString(strings.Join(vals, ", "))
		sb.WriteString("]")
	}
	sb.WriteString("\n")
}
