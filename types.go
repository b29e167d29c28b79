package mcpws

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcpws-go/internal/envelope"
	"github.com/wagiedev/mcpws-go/internal/protocol"
)

// Method names.
const (
	MethodInitialize    = protocol.MethodInitialize
	MethodToolsList     = protocol.MethodToolsList
	MethodToolsCall     = protocol.MethodToolsCall
	MethodResourcesList = protocol.MethodResourcesList
	MethodResourcesRead = protocol.MethodResourcesRead
)

// Error codes carried by error responses.
const (
	CodeParseError     = envelope.CodeParseError
	CodeInvalidRequest = envelope.CodeInvalidRequest
	CodeMethodNotFound = envelope.CodeMethodNotFound
	CodeInvalidParams  = envelope.CodeInvalidParams
	CodeInternalError  = envelope.CodeInternalError
	CodeRateLimited    = envelope.CodeRateLimited
)

// Client-side result types.
type (
	// Info names a client or server implementation.
	Info = protocol.Info

	// InitializeResult is the server's reply to initialize.
	InitializeResult = protocol.InitializeResult

	// ToolInfo describes one tool offered by the server.
	ToolInfo = protocol.ToolInfo

	// ContentBlock is one content item of a tool result.
	ContentBlock = protocol.ContentBlock

	// ToolResult is a decoded tools/call result. Text returns its text
	// content.
	ToolResult = protocol.CallToolResult

	// ResourceInfo describes one resource offered by the server.
	ResourceInfo = protocol.ResourceInfo

	// ResourceContents is the content of one resource.
	ResourceContents = protocol.ResourceContents

	// ReadResourceResult is a decoded resources/read result.
	ReadResourceResult = protocol.ReadResourceResult

	// Envelope is one protocol message.
	Envelope = envelope.Envelope
)

// Re-export MCP SDK types for the server API.
// These are the official MCP protocol types.
type (
	// CallToolResult is what a tool handler returns.
	// Use TextResult, JSONResult or ErrorResult to create one.
	CallToolResult = mcp.CallToolResult

	// CallToolRequest is the request passed to tool handlers.
	CallToolRequest = mcp.CallToolRequest

	// Tool is a tool definition.
	Tool = mcp.Tool

	// ToolHandler is the function signature for tool handlers.
	ToolHandler = mcp.ToolHandler

	// ToolAnnotations describes optional hints about tool behavior.
	ToolAnnotations = mcp.ToolAnnotations

	// Resource is a resource definition.
	Resource = mcp.Resource

	// Schema is a JSON Schema object for tool input validation.
	Schema = jsonschema.Schema
)
