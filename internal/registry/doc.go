// Package registry holds the tools and resources a server exposes.
//
// A Registry is an explicit value handed to the dispatcher at construction
// time; there is no process-wide tool table. Tools are described with the
// official MCP SDK types (mcp.Tool, mcp.ToolHandler) and resources with
// mcp.Resource plus a reader function. Registration and lookup are safe for
// concurrent use, so tools may be added or removed while connections are
// being served.
package registry
