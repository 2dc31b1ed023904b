// Package openaicompat is the live completion provider. It talks to any
// OpenAI-compatible Chat Completions endpoint; the default deployment points
// it at OpenRouter (https://openrouter.ai/api/v1).
//
// The package handles request serialization, response parsing, and mapping
// of backend HTTP failures onto api.APIError values so the fallback and
// breaker decorators in pkg/provider can classify them.
package openaicompat
