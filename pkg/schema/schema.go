package schema

import (
	"fmt"
)

// Schema declares the typed columns expected from an extraction.
//
// Strict schemas reject columns the model returns that are not declared;
// non-strict schemas pass undeclared columns through unconverted.
type Schema struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Strict      bool     `json:"strict,omitempty" yaml:"strict,omitempty"`
	Columns     []Column `json:"columns" yaml:"columns"`
}

// New creates a schema from a column list.
func New(name string, columns ...Column) *Schema {
	return &Schema{Name: name, Columns: columns}
}

// Column returns the declared column with the given name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the declared column names in schema order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Validate checks the schema definition itself and normalizes it in place:
// type aliases resolve to canonical types, and enum and default values are
// coerced to the column type so later comparisons see canonical forms.
func (s *Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema %q has no columns", s.Name)
	}

	seen := make(map[string]bool, len(s.Columns))
	for i := range s.Columns {
		c := &s.Columns[i]
		if c.Name == "" {
			return fmt.Errorf("schema %q: column %d has no name", s.Name, i)
		}
		if seen[c.Name] {
			return fmt.Errorf("schema %q: duplicate column %q", s.Name, c.Name)
		}
		seen[c.Name] = true

		if err := c.normalizeTypes(); err != nil {
			return err
		}
		if c.Items != "" && c.Type != TypeArray {
			return fmt.Errorf("column %q: items set on non-array type %q", c.Name, c.Type)
		}

		if c.Default != nil {
			d, err := c.coerce(c.Default)
			if err != nil {
				return fmt.Errorf("column %q: invalid default: %w", c.Name, err)
			}
			c.Default = d
		}
		for j, ev := range c.Enum {
			item := *c
			if c.Type == TypeArray {
				item.Type = c.Items
			}
			if item.Type == "" {
				break
			}
			cv, err := item.coerce(ev)
			if err != nil {
				return fmt.Errorf("column %q: invalid enum value %v: %w", c.Name, ev, err)
			}
			c.Enum[j] = cv
		}
	}
	return nil
}

// Convert applies the schema to a raw extraction mapping, producing a
// mapping of the same shape with every declared column's values coerced.
//
// Declared required columns missing from the mapping fail unless a default
// fills them; optional missing columns are filled with their default or nil,
// repeated to the mapping's row count. Undeclared columns error under a
// strict schema and pass through untouched otherwise.
func (s *Schema) Convert(data map[string][]any) (map[string][]any, error) {
	rows := 0
	for _, vals := range data {
		if len(vals) > rows {
			rows = len(vals)
		}
	}

	declared := make(map[string]bool, len(s.Columns))
	out := make(map[string][]any, len(data))

	for _, col := range s.Columns {
		declared[col.Name] = true

		vals, ok := data[col.Name]
		if !ok {
			if col.Required && col.Default == nil {
				return nil, &ValidationError{Column: col.Name, Message: "required column missing from extraction"}
			}
			fill, err := col.fillValue()
			if err != nil {
				return nil, fmt.Errorf("column %q: invalid default: %w", col.Name, err)
			}
			filled := make([]any, rows)
			for i := range filled {
				filled[i] = fill
			}
			out[col.Name] = filled
			continue
		}

		converted := make([]any, len(vals))
		for i, v := range vals {
			cv, err := col.Convert(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			converted[i] = cv
		}
		out[col.Name] = converted
	}

	for name, vals := range data {
		if declared[name] {
			continue
		}
		if s.Strict {
			return nil, &ValidationError{Column: name, Message: "column not declared in strict schema"}
		}
		out[name] = vals
	}

	return out, nil
}
