package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcpws-go/internal/errors"
)

// ResourceReader produces the text content of a resource.
type ResourceReader func(ctx context.Context, uri string) (string, error)

// Registry maps tool names to handlers and resource uris to readers.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]*toolEntry
	resources map[string]*resourceEntry
}

type toolEntry struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

type resourceEntry struct {
	resource *mcp.Resource
	read     ResourceReader
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		tools:     make(map[string]*toolEntry, 8),
		resources: make(map[string]*resourceEntry, 8),
	}
}

// AddTool registers a tool. Names must be unique.
func (r *Registry) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) error {
	if tool == nil || tool.Name == "" {
		return fmt.Errorf("register tool: name is required")
	}

	if handler == nil {
		return fmt.Errorf("register tool %q: handler is required", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("register tool %q: already registered", tool.Name)
	}

	r.tools[tool.Name] = &toolEntry{tool: tool, handler: handler}

	return nil
}

// RemoveTool unregisters a tool and reports whether it was present.
func (r *Registry) RemoveTool(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.tools[name]
	delete(r.tools, name)

	return exists
}

// AddResource registers a resource. URIs must be unique.
func (r *Registry) AddResource(resource *mcp.Resource, read ResourceReader) error {
	if resource == nil || resource.URI == "" {
		return fmt.Errorf("register resource: uri is required")
	}

	if read == nil {
		return fmt.Errorf("register resource %q: reader is required", resource.URI)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[resource.URI]; exists {
		return fmt.Errorf("register resource %q: already registered", resource.URI)
	}

	r.resources[resource.URI] = &resourceEntry{resource: resource, read: read}

	return nil
}

// RemoveResource unregisters a resource and reports whether it was present.
func (r *Registry) RemoveResource(uri string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.resources[uri]
	delete(r.resources, uri)

	return exists
}

// ToolNames returns the registered tool names in sorted order.
func (r *Registry) ToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

// ListTools returns the tool listing in wire form, sorted by name.
func (r *Registry) ListTools() []map[string]any {
	r.mu.RLock()

	entries := make([]*toolEntry, 0, len(r.tools))
	for _, t := range r.tools {
		entries = append(entries, t)
	}

	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *toolEntry) int {
		return strings.Compare(a.tool.Name, b.tool.Name)
	})

	result := make([]map[string]any, 0, len(entries))
	for _, t := range entries {
		toolMap := map[string]any{
			"name":        t.tool.Name,
			"description": t.tool.Description,
		}

		if schema := toMap(t.tool.InputSchema); schema != nil {
			toolMap["inputSchema"] = schema
		}

		if t.tool.Annotations != nil {
			if annotations := toMap(t.tool.Annotations); annotations != nil {
				toolMap["annotations"] = annotations
			}
		}

		result = append(result, toolMap)
	}

	return result
}

// CallTool runs the named tool.
//
// It returns *errors.UnknownToolError when no tool has that name and
// *errors.HandlerError when the handler fails. A result flagged IsError by
// the handler is returned as a normal result.
func (r *Registry) CallTool(ctx context.Context, name string, arguments map[string]any) (map[string]any, error) {
	r.mu.RLock()
	t, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		return nil, &errors.UnknownToolError{Name: name}
	}

	if arguments == nil {
		arguments = map[string]any{}
	}

	raw, err := json.Marshal(arguments)
	if err != nil {
		return nil, &errors.HandlerError{Target: name, Err: fmt.Errorf("marshal arguments: %w", err)}
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      name,
			Arguments: raw,
		},
	}

	result, err := t.handler(ctx, req)
	if err != nil {
		return nil, &errors.HandlerError{Target: name, Err: err}
	}

	return convertCallToolResult(result), nil
}

// ListResources returns the resource listing in wire form, sorted by uri.
func (r *Registry) ListResources() []map[string]any {
	r.mu.RLock()

	entries := make([]*resourceEntry, 0, len(r.resources))
	for _, res := range r.resources {
		entries = append(entries, res)
	}

	r.mu.RUnlock()

	slices.SortFunc(entries, func(a, b *resourceEntry) int {
		return strings.Compare(a.resource.URI, b.resource.URI)
	})

	result := make([]map[string]any, 0, len(entries))
	for _, res := range entries {
		result = append(result, map[string]any{
			"uri":         res.resource.URI,
			"name":        res.resource.Name,
			"description": res.resource.Description,
			"mimeType":    res.resource.MIMEType,
		})
	}

	return result
}

// ReadResource returns the contents of the resource at uri.
//
// It returns *errors.UnknownResourceError when nothing is registered at uri
// and *errors.HandlerError when the reader fails.
func (r *Registry) ReadResource(ctx context.Context, uri string) (*mcp.ResourceContents, error) {
	r.mu.RLock()
	res, exists := r.resources[uri]
	r.mu.RUnlock()

	if !exists {
		return nil, &errors.UnknownResourceError{URI: uri}
	}

	text, err := res.read(ctx, uri)
	if err != nil {
		return nil, &errors.HandlerError{Target: uri, Err: err}
	}

	return &mcp.ResourceContents{
		URI:      uri,
		MIMEType: res.resource.MIMEType,
		Text:     text,
	}, nil
}

// toMap round-trips v through JSON so listings carry plain maps.
func toMap(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var out map[string]any
	if json.Unmarshal(data, &out) != nil {
		return nil
	}

	return out
}
