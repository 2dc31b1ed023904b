// Package api defines the wire types shared by the outings HTTP surface,
// the CLI, and the orchestration core: chat requests and responses,
// preference and chat-history payloads, structured errors, and ID helpers.
//
// The package performs no I/O. JSON field names follow the public API
// served under /api.
//
// Core types:
//   - [ChatRequest] / [ChatResponse]: one process_message round trip
//   - [ToolOutcome]: an executed tool and its JSON result
//   - [PreferencesUpdate]: partial preference update body
//   - [HistorySave]: chat-history upsert body
//   - [APIError]: structured error with type, code, param, and message
package api
