package gemini

import (
	"fmt"
	"reflect"
	"strings"

	"google.golang.org/genai"
)

// schemaFor derives a genai response schema from the type of out, which must
// be a non-nil pointer. Supported shapes: strings, booleans, integers, floats,
// slices and structs of those (json tags respected). This covers every
// structured call the pipeline makes (chunk lists, stats, metadata).
func schemaFor(out any) (*genai.Schema, error) {
	if out == nil {
		return nil, fmt.Errorf("output target cannot be nil")
	}

	t := reflect.TypeOf(out)
	if t.Kind() != reflect.Pointer {
		return nil, fmt.Errorf("output target must be a pointer, got %s", t.Kind())
	}

	return schemaForType(t.Elem())
}

func schemaForType(t reflect.Type) (*genai.Schema, error) {
	switch t.Kind() {
	case reflect.String:
		return &genai.Schema{Type: genai.TypeString}, nil

	case reflect.Bool:
		return &genai.Schema{Type: genai.TypeBoolean}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &genai.Schema{Type: genai.TypeInteger}, nil

	case reflect.Float32, reflect.Float64:
		return &genai.Schema{Type: genai.TypeNumber}, nil

	case reflect.Slice, reflect.Array:
		items, err := schemaForType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &genai.Schema{Type: genai.TypeArray, Items: items}, nil

	case reflect.Struct:
		properties := make(map[string]*genai.Schema, t.NumField())
		required := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			name := jsonFieldName(field)
			if name == "-" {
				continue
			}

			fieldSchema, err := schemaForType(field.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", field.Name, err)
			}
			properties[name] = fieldSchema
			required = append(required, name)
		}
		return &genai.Schema{
			Type:       genai.TypeObject,
			Properties: properties,
			Required:   required,
		}, nil

	case reflect.Pointer:
		return schemaForType(t.Elem())

	default:
		return nil, fmt.Errorf("unsupported type %s", t.Kind())
	}
}

// jsonFieldName returns the effective JSON name of a struct field.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
