// Package schema defines typed column schemas for tabular extraction.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DataType identifies the value type a column holds.
type DataType string

const (
	TypeText     DataType = "text"
	TypeInteger  DataType = "integer"
	TypeFloat    DataType = "float"
	TypeBoolean  DataType = "boolean"
	TypeDate     DataType = "date"
	TypeDateTime DataType = "datetime"
	TypeObject   DataType = "object"
	TypeArray    DataType = "array"
)

// typeAliases maps accepted spellings to canonical data types.
var typeAliases = map[string]DataType{
	"text":      TypeText,
	"string":    TypeText,
	"str":       TypeText,
	"int":       TypeInteger,
	"integer":   TypeInteger,
	"float":     TypeFloat,
	"number":    TypeFloat,
	"double":    TypeFloat,
	"decimal":   TypeFloat,
	"bool":      TypeBoolean,
	"boolean":   TypeBoolean,
	"date":      TypeDate,
	"datetime":  TypeDateTime,
	"timestamp": TypeDateTime,
	"object":    TypeObject,
	"json":      TypeObject,
	"dict":      TypeObject,
	"array":     TypeArray,
	"list":      TypeArray,
}

// ParseDataType normalizes a type name to its canonical DataType.
// An empty name resolves to TypeText.
func ParseDataType(name string) (DataType, error) {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return TypeText, nil
	}
	if t, ok := typeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown column type %q", name)
}

// Column describes a single typed column expected from an extraction.
//
// Validators are go-playground/validator tags (e.g. "email", "url") applied
// per value after coercion; tags must suit the column's coerced Go type.
type Column struct {
	Name        string   `json:"name" yaml:"name"`
	Type        DataType `json:"type,omitempty" yaml:"type,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Nullable    bool     `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Enum        []any    `json:"enum,omitempty" yaml:"enum,omitempty"`
	Format      string   `json:"format,omitempty" yaml:"format,omitempty"`   // Explicit time layout for date/datetime columns
	Items       DataType `json:"items,omitempty" yaml:"items,omitempty"`     // Element type for array columns
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"` // Fill-in for null and absent values
	Validators  []string `json:"validators,omitempty" yaml:"validators,omitempty"`
}

// columnAlias avoids infinite recursion in UnmarshalYAML/JSON.
type columnAlias Column

// UnmarshalYAML decodes a column and normalizes type aliases.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	var raw columnAlias
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*c = Column(raw)
	return c.normalizeTypes()
}

// UnmarshalJSON decodes a column and normalizes type aliases.
func (c *Column) UnmarshalJSON(data []byte) error {
	var raw columnAlias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Column(raw)
	return c.normalizeTypes()
}

func (c *Column) normalizeTypes() error {
	t, err := ParseDataType(string(c.Type))
	if err != nil {
		return fmt.Errorf("column %q: %w", c.Name, err)
	}
	c.Type = t

	if c.Items != "" {
		it, err := ParseDataType(string(c.Items))
		if err != nil {
			return fmt.Errorf("column %q items: %w", c.Name, err)
		}
		c.Items = it
	}
	return nil
}

// ValidationError reports a value that could not satisfy a column contract.
type ValidationError struct {
	Column  string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	if e.Column == "" {
		return e.Message
	}
	return fmt.Sprintf("column %q: %s", e.Column, e.Message)
}
