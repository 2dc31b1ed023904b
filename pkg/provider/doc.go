// Package provider defines the completion provider abstraction used by the
// orchestration loop: ask the language model for the next turn given the
// conversation so far and the tool catalog. Adapters live in subpackages:
// openaicompat talks to a Chat Completions endpoint (OpenRouter by default),
// scripted returns deterministic canned turns for offline operation.
package provider
