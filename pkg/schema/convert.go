package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// validate applies per-value validator tags. Shared across all columns.
var validate = validator.New()

// truthy and falsy are the accepted boolean spellings, lowercased.
// Anything outside both sets is a conversion error.
var (
	truthy = map[string]bool{"true": true, "yes": true, "1": true, "on": true, "t": true, "y": true}
	falsy  = map[string]bool{"false": true, "no": true, "0": true, "off": true, "f": true, "n": true}
)

// dateLayouts are tried in order for date columns without an explicit Format.
// Day-first layouts take precedence over month-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
}

// datetimeLayouts are tried in order for datetime columns without an
// explicit Format. time.Parse accepts fractional seconds after the seconds
// field even when the layout omits them.
var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"01/02/2006 15:04:05",
	"2006-01-02",
}

// Convert coerces a raw extracted value into the column's declared type.
//
// Null handling: a nil value becomes the column default when one is set,
// nil when the column is nullable, and a ValidationError otherwise.
// Conversion is idempotent: feeding a previously converted value back in
// returns it unchanged.
func (c Column) Convert(v any) (any, error) {
	if v == nil {
		if c.Default != nil {
			return c.coerce(c.Default)
		}
		if c.Nullable {
			return nil, nil
		}
		return nil, &ValidationError{Column: c.Name, Message: "null value for non-nullable column"}
	}

	out, err := c.coerce(v)
	if err != nil {
		return nil, err
	}

	if items, ok := out.([]any); ok && c.Type == TypeArray {
		for i, item := range items {
			if err := c.checkEnum(item); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			if err := c.runValidators(item); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		return out, nil
	}

	if err := c.checkEnum(out); err != nil {
		return nil, err
	}
	if err := c.runValidators(out); err != nil {
		return nil, err
	}
	return out, nil
}

// coerce converts v to the column type without enum or validator checks.
func (c Column) coerce(v any) (any, error) {
	switch c.Type {
	case TypeText, "":
		return c.toText(v), nil
	case TypeInteger:
		return c.toInteger(v)
	case TypeFloat:
		return c.toFloat(v)
	case TypeBoolean:
		return c.toBoolean(v)
	case TypeDate:
		return c.toTime(v, dateLayouts)
	case TypeDateTime:
		return c.toTime(v, datetimeLayouts)
	case TypeObject:
		return c.toObject(v), nil
	case TypeArray:
		return c.toArray(v)
	default:
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("unknown column type %q", c.Type), Value: v}
	}
}

func (c Column) toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if t, ok := v.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

// cleanNumeric strips thousands separators before numeric parsing.
func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	return strings.ReplaceAll(s, " ", "")
}

func (c Column) toInteger(v any) (any, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case float32:
		return int64(n), nil
	case string:
		s := cleanNumeric(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %q to integer", n), Value: v}
	default:
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %T to integer", v), Value: v}
	}
}

func (c Column) toFloat(v any) (any, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case string:
		s := cleanNumeric(n)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %q to float", n), Value: v}
	default:
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %T to float", v), Value: v}
	}
}

func (c Column) toBoolean(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(b))
		if truthy[s] {
			return true, nil
		}
		if falsy[s] {
			return false, nil
		}
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %q to boolean", b), Value: v}
	case float64:
		if b == 1 {
			return true, nil
		}
		if b == 0 {
			return false, nil
		}
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %v to boolean", b), Value: v}
	case int:
		return c.toBoolean(float64(b))
	case int64:
		return c.toBoolean(float64(b))
	default:
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %T to boolean", v), Value: v}
	}
}

// toTime parses date and datetime values. An explicit column Format is
// tried first, then the shared layout list.
func (c Column) toTime(v any, layouts []string) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if c.Format != "" {
			if ts, err := time.Parse(c.Format, s); err == nil {
				return ts, nil
			}
		}
		for _, layout := range layouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, nil
			}
		}
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot parse %q as %s", s, c.Type), Value: v}
	default:
		return nil, &ValidationError{Column: c.Name, Message: fmt.Sprintf("cannot convert %T to %s", v, c.Type), Value: v}
	}
}

// toObject decodes JSON strings into maps and passes structured values
// through untouched. Strings that are not JSON objects stay as-is.
func (c Column) toObject(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	return v
}

func (c Column) toArray(v any) (any, error) {
	item := Column{Name: c.Name, Type: c.Items, Format: c.Format, Nullable: c.Nullable}

	convertItems := func(vals []any) ([]any, error) {
		if c.Items == "" {
			// Untyped items pass through unchanged.
			return vals, nil
		}
		out := make([]any, len(vals))
		for i, raw := range vals {
			cv, err := item.Convert(raw)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = cv
		}
		return out, nil
	}

	switch a := v.(type) {
	case []any:
		return convertItems(a)
	case string:
		trimmed := strings.TrimSpace(a)
		if strings.HasPrefix(trimmed, "[") {
			var decoded []any
			if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
				return convertItems(decoded)
			}
		}
		parts := strings.Split(a, ",")
		vals := make([]any, 0, len(parts))
		for _, p := range parts {
			vals = append(vals, strings.TrimSpace(p))
		}
		return convertItems(vals)
	default:
		if c.Items == "" {
			return []any{v}, nil
		}
		cv, err := item.Convert(v)
		if err != nil {
			return nil, err
		}
		return []any{cv}, nil
	}
}

// checkEnum verifies a coerced value against the allowed set. Comparison is
// on canonical string forms so 5, 5.0 and "5" match the same entry.
func (c Column) checkEnum(v any) error {
	if len(c.Enum) == 0 || v == nil {
		return nil
	}
	got := fmt.Sprint(v)
	for _, allowed := range c.Enum {
		if fmt.Sprint(allowed) == got {
			return nil
		}
	}
	return &ValidationError{Column: c.Name, Message: fmt.Sprintf("value %v not in allowed set %v", v, c.Enum), Value: v}
}

func (c Column) runValidators(v any) error {
	if len(c.Validators) == 0 || v == nil {
		return nil
	}
	for _, tag := range c.Validators {
		if tag == "" {
			continue
		}
		if err := validate.Var(v, tag); err != nil {
			return &ValidationError{Column: c.Name, Message: fmt.Sprintf("failed validation %q", tag), Value: v}
		}
	}
	return nil
}

// fillValue produces the value used for a declared column absent from the
// extraction: the coerced default when set, nil otherwise.
func (c Column) fillValue() (any, error) {
	if c.Default == nil {
		return nil, nil
	}
	return c.coerce(c.Default)
}
