package schema

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

// ForStruct derives a schema from a struct type using reflection. Exported
// fields become columns named after their json tag (falling back to the Go
// name). Supported tags:
//
//	description: column description for the prompt
//	type:        explicit column type, overriding the inferred one
//	format:      explicit time layout for date/datetime columns
//	enum:        comma-separated allowed values
//	validate:    go-playground/validator tags applied per value
//
// Pointer fields and fields tagged omitempty are optional and nullable;
// everything else is required.
func ForStruct[T any]() (*Schema, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema must be derived from a struct type, got %v", t)
	}

	cols, err := structColumns(t)
	if err != nil {
		return nil, err
	}

	s := &Schema{Name: t.Name(), Columns: cols}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func structColumns(t reflect.Type) ([]Column, error) {
	cols := make([]Column, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}

		col := Column{
			Name:        name,
			Description: sf.Tag.Get("description"),
			Format:      sf.Tag.Get("format"),
			Required:    !hasOmitempty(sf),
			Validators:  splitTag(sf.Tag.Get("validate")),
		}
		for _, v := range splitTag(sf.Tag.Get("enum")) {
			col.Enum = append(col.Enum, v)
		}

		ft := sf.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
			col.Required = false
			col.Nullable = true
		}
		if !col.Required {
			col.Nullable = true
		}

		if override := sf.Tag.Get("type"); override != "" {
			dt, err := ParseDataType(override)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", sf.Name, err)
			}
			col.Type = dt
		} else {
			dt, items, err := inferDataType(ft)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", sf.Name, err)
			}
			col.Type = dt
			col.Items = items
		}

		cols = append(cols, col)
	}
	return cols, nil
}

// inferDataType maps a Go type to a column type, plus the element type for
// slices.
func inferDataType(t reflect.Type) (DataType, DataType, error) {
	if t == timeType {
		return TypeDateTime, "", nil
	}

	switch t.Kind() {
	case reflect.String:
		return TypeText, "", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return TypeInteger, "", nil
	case reflect.Float32, reflect.Float64:
		return TypeFloat, "", nil
	case reflect.Bool:
		return TypeBoolean, "", nil
	case reflect.Slice:
		et := t.Elem()
		if et.Kind() == reflect.Ptr {
			et = et.Elem()
		}
		item, _, err := inferDataType(et)
		if err != nil {
			return "", "", err
		}
		return TypeArray, item, nil
	case reflect.Map, reflect.Struct:
		return TypeObject, "", nil
	default:
		return "", "", fmt.Errorf("unsupported field type %v", t.Kind())
	}
}

// jsonName returns the column name from the json struct tag. Fields tagged
// "-" are skipped.
func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	switch name {
	case "-":
		return ""
	case "":
		return sf.Name
	}
	return name
}

func hasOmitempty(sf reflect.StructField) bool {
	tag := sf.Tag.Get("json")
	return strings.Contains(tag, "omitempty")
}

func splitTag(tag string) []string {
	if tag == "" {
		return nil
	}
	parts := strings.Split(tag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
