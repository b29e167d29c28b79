package registry

import (
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Property describes one argument of a tool input schema.
type Property struct {
	Name        string
	Type        string
	Description string
	Optional    bool
}

// ObjectSchema builds an object schema from properties. Properties are
// required unless marked Optional.
func ObjectSchema(props ...Property) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: make(map[string]*jsonschema.Schema, len(props)),
		Required:   []string{},
	}

	for _, p := range props {
		prop := schemaForType(p.Type)
		prop.Description = p.Description
		schema.Properties[p.Name] = prop

		if !p.Optional {
			schema.Required = append(schema.Required, p.Name)
		}
	}

	return schema
}

// SimpleSchema creates an object schema from a name to Go type map.
// Every property is required.
//
// Input format: {"a": "float64", "b": "string"}
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}

	slices.Sort(names)

	list := make([]Property, 0, len(names))
	for _, name := range names {
		list = append(list, Property{Name: name, Type: props[name]})
	}

	return ObjectSchema(list...)
}

// schemaForType maps a Go type name to a JSON Schema. Unknown names
// become strings.
func schemaForType(goType string) *jsonschema.Schema {
	if item, ok := strings.CutPrefix(goType, "[]"); ok && item != "" {
		return &jsonschema.Schema{Type: "array", Items: schemaForType(item)}
	}

	switch goType {
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "integer":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	default:
		return &jsonschema.Schema{Type: "string"}
	}
}
