// Package llm provides an OpenRouter chat client for the agent layer.
//
// This package is used by:
//   - Overseer: strategic plan generation and task coordination
//   - Serf agent: user-facing interaction responses
//
// # Configuration
//
// Requires api_key, model, and optionally base_url, referer, title, timeout.
// When unconfigured, callers should fall back to sensible defaults.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Complete: send system/user prompts, receive free-form text.
// Client.CompleteJSON: send system/user prompts, receive JSON response.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors and network timeouts with
// exponential backoff (base 1s, max 10s, up to 5 attempts by default).
// Context cancellation aborts retries immediately.
//
// # Fallback
//
// If the LLM is unavailable or returns malformed JSON, callers degrade to a
// deterministic local response rather than failing the request. DecodeLLMJSON
// tolerates code fences and prose-wrapped payloads before callers give up.
package llm
