package mcpws

import (
	"github.com/wagiedev/mcpws-go/internal/registry"
)

// ResourceReader produces the text content of a resource.
type ResourceReader = registry.ResourceReader

// Property describes one argument of an ObjectSchema.
type Property = registry.Property

// NewTool creates a tool definition.
func NewTool(name, description string, inputSchema *Schema) *Tool {
	return registry.NewTool(name, description, inputSchema)
}

// NewResource creates a resource definition.
func NewResource(uri, name, description, mimeType string) *Resource {
	return registry.NewResource(uri, name, description, mimeType)
}

// TextResult creates a tool result with a single text content block.
func TextResult(text string) *CallToolResult {
	return registry.TextResult(text)
}

// JSONResult creates a tool result whose structured content is v and whose
// text content is v encoded as JSON.
func JSONResult(v any) (*CallToolResult, error) {
	return registry.JSONResult(v)
}

// ErrorResult creates a tool result flagged as a tool-level error.
//
// The call still succeeds at the protocol level. Return an error from the
// handler instead to make the caller receive an error response.
func ErrorResult(message string) *CallToolResult {
	return registry.ErrorResult(message)
}

// ParseArguments decodes the arguments of a tool call into a map.
func ParseArguments(req *CallToolRequest) (map[string]any, error) {
	return registry.ParseArguments(req)
}

// StringArgument returns the string argument key.
func StringArgument(args map[string]any, key string) (string, error) {
	return registry.StringArgument(args, key)
}

// SimpleSchema creates an object schema from a name to Go type map.
// Every property is required.
//
// Input format: {"a": "float64", "b": "string"}
func SimpleSchema(props map[string]string) *Schema {
	return registry.SimpleSchema(props)
}

// ObjectSchema builds an object schema from properties.
func ObjectSchema(props ...Property) *Schema {
	return registry.ObjectSchema(props...)
}
