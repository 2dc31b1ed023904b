// Package mcp bridges the tool registry and the Model Context Protocol
// (github.com/modelcontextprotocol/go-sdk) in both directions.
//
// A Server publishes the allowed registry tools over streamable HTTP so
// other agents can call them. A Client connects to a remote MCP server at
// startup, lists its tools, and contributes them to the registry as an
// ordinary registry.Provider; calls are forwarded over the session.
package mcp
