// Package envelope defines the wire message shared by requests and
// responses, and converts it to and from JSON.
//
// A request carries id, method and params. A response carries id and
// exactly one of result or error. The Envelope type models both; the
// constructors and MarshalJSON enforce the result/error tagged union so an
// invalid response never reaches the wire, and Parse rejects inbound
// messages that violate it with a ParseError that keeps whatever id could
// be recovered.
//
// Wire format:
//
//	{"id": "01J...", "method": "tools/call", "params": {"name": "calculator", "arguments": {...}}}
//	{"id": "01J...", "result": {...}}
//	{"id": "01J...", "error": {"code": -32601, "message": "unknown method foo/bar"}}
package envelope
